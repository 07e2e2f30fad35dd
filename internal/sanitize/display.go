// Package sanitize makes backend-supplied text safe to print on a terminal.
// Event names and descriptions are user content: they may carry markup or
// escape sequences that would repaint the terminal.
package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips HTML and control characters. Newlines and tabs survive.
func Text(input string) string {
	stripped := html.UnescapeString(StrictPolicy.Sanitize(input))
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, stripped)
}

// Cell is Text flattened to one line and cut to max runes, for table output.
// max <= 0 means no limit.
func Cell(input string, max int) string {
	line := strings.Join(strings.Fields(Text(input)), " ")
	runes := []rune(line)
	if max <= 0 || len(runes) <= max {
		return line
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// TextSlice sanitizes each string in a slice.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}
