package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel  = color.New(color.FgYellow).SprintFunc()
	hintLabel  = color.New(color.FgCyan).SprintFunc()
)

// exit is replaced in tests.
var exit = os.Exit

// FatalError writes an error message to stderr and exits with code 1.
// Use this for fatal errors that prevent the command from completing.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]interface{}{errorLabel("Error:")}, args...)...)
	shutdown()
	exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
//
// Example:
//
//	FatalErrorWithHint("not a git repository", "Run 'pmerge setup-git' inside the repository")
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorLabel("Error:"), message)
	fmt.Fprintf(os.Stderr, "%s %s\n", hintLabel("Hint:"), hint)
	shutdown()
	exit(1)
}

// WarnError writes a warning message to stderr and returns.
// Use this for optional operations that enhance functionality but aren't required.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]interface{}{warnLabel("Warning:")}, args...)...)
}
