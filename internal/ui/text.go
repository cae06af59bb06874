package ui

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Default truncation settings
const (
	DefaultMaxLines     = 15 // Default max lines for source text display
	DefaultContextLines = 5  // Lines to show at beginning and end when truncating
	DefaultMaxValueLen  = 60 // Default max chars for an inline value
)

// TruncateLines truncates text to maxLines, showing context from beginning and end.
// If the text has fewer lines than maxLines, returns it unchanged.
func TruncateLines(text string, maxLines, contextLines int) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	totalLines := len(lines)
	if totalLines <= maxLines {
		return text
	}

	if contextLines < 1 {
		contextLines = DefaultContextLines
	}
	// If maxLines is too small for context, just show first maxLines
	if maxLines < contextLines*2+1 {
		return strings.Join(lines[:maxLines], "\n") + "\n..."
	}

	hiddenLines := totalLines - 2*contextLines

	var result strings.Builder
	result.WriteString(strings.Join(lines[:contextLines], "\n"))
	result.WriteString("\n")
	result.WriteString(RenderMuted("... (" + strconv.Itoa(hiddenLines) + " lines hidden) ..."))
	result.WriteString("\n")
	result.WriteString(strings.Join(lines[totalLines-contextLines:], "\n"))
	return result.String()
}

// TruncateSimple performs simple end truncation with "..." suffix.
// UTF-8 safe.
func TruncateSimple(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
