// Package debug prints verbose diagnostics for humans, gated by PM_DEBUG or
// --verbose, and honors --quiet for normal output.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/projmerge/projmerge/internal/lockfile"
)

var (
	enabled     = os.Getenv("PM_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

// Enabled reports whether diagnostics are on, via PM_DEBUG or --verbose.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal writes to w unless quiet mode is enabled.
// Use this for informational output; problems are always printed.
func PrintNormal(w io.Writer, format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(w, format, args...)
	}
}

// PrintlnNormal writes a line to w unless quiet mode is enabled
func PrintlnNormal(w io.Writer, args ...interface{}) {
	if !quietMode {
		fmt.Fprintln(w, args...)
	}
}

// LogEvent appends a line to .projmerge/events.log of the enclosing
// project. It fails silently outside a project.
// Format: TIMESTAMP|EVENT_CODE|PATH|USER|DETAILS
func LogEvent(eventCode, path, details string) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return
	}

	logPath := filepath.Join(projectRoot, ".projmerge", "events.log")

	if path == "" {
		path = "none"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("%s|%s|%s|%s|%s\n", timestamp, eventCode, path, user, details)

	// Silent fail - don't interrupt a merge if logging fails
	_ = lockfile.AppendLocked(logPath, []byte(entry))
}

// findProjectRoot walks up to the nearest directory holding .projmerge.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		configDir := filepath.Join(dir, ".projmerge")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a projmerge project")
		}
		dir = parent
	}
}
