//go:build !unix && !windows

package lockfile

import "os"

// Platforms without file locking (js/wasm, plan9) run a single pmerge
// process at a time, so the locks are no-ops.

func FlockExclusiveNonBlocking(f *os.File) error { return nil }

func FlockExclusiveBlocking(f *os.File) error { return nil }

func FlockUnlock(f *os.File) error { return nil }
