package sanitize

import (
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "script tag",
			input:    `Hello <script>alert('xss')</script> World`,
			expected: `Hello  World`,
		},
		{
			name:     "markup removed, text kept",
			input:    `<b>Bold</b> <i>Italic</i> <a href="http://example.com">Link</a>`,
			expected: `Bold Italic Link`,
		},
		{
			name:     "entities decoded for display",
			input:    `Rock & Roll <3`,
			expected: `Rock & Roll <3`,
		},
		{
			name:     "ansi escape stripped",
			input:    "Meetup\x1b[2J\x1b[31m!",
			expected: "Meetup[2J[31m!",
		},
		{
			name:     "newlines and tabs kept",
			input:    "line one\n\tline two",
			expected: "line one\n\tline two",
		},
		{
			name:     "plain text unchanged",
			input:    `Just plain text`,
			expected: `Just plain text`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"flattens whitespace", "a\n  b\tc", 0, "a b c"},
		{"fits", "Go Meetup", 9, "Go Meetup"},
		{"truncates", "Go Meetup Toronto", 8, "Go Meet…"},
		{"counts runes", "Café Montréal", 5, "Café…"},
		{"max one", "abc", 1, "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cell(tt.input, tt.max); got != tt.expected {
				t.Errorf("Cell(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
			}
		})
	}
}

func TestTextSlice(t *testing.T) {
	if TextSlice(nil) != nil {
		t.Fatal("nil input should return nil")
	}
	got := TextSlice([]string{"<b>a</b>", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected result %q", got)
	}
}
