package main

import (
	"bytes"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/projmerge/projmerge/internal/debug"
	"github.com/projmerge/projmerge/internal/ui"
)

func init() {
	ui.ApplyColorMode(true)
}

// useMemFs swaps the command filesystem for an in-memory one.
func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := appFs
	fs := afero.NewMemMapFs()
	appFs = fs
	t.Cleanup(func() { appFs = prev })
	return fs
}

// useQuiet turns on --quiet for one test.
func useQuiet(t *testing.T) {
	t.Helper()
	prev := debug.IsQuiet()
	debug.SetQuiet(true)
	t.Cleanup(func() { debug.SetQuiet(prev) })
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
