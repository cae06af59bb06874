package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions, falling back
// to whether stdout is a terminal.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal()
}

// ShouldUseEmoji reports whether status icons should be printed.
func ShouldUseEmoji() bool {
	if os.Getenv("PM_NO_EMOJI") != "" {
		return false
	}
	return IsTerminal()
}

// ApplyColorMode configures lipgloss and fatih/color for the process.
// noColor forces plain output regardless of the environment.
func ApplyColorMode(noColor bool) {
	if noColor || !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		color.NoColor = true
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
	color.NoColor = false
}
