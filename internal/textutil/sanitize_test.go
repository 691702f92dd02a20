package textutil

import (
	"strings"
	"testing"
)

func TestSafeFolderName(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"passthrough", "Abbey Road", "Abbey Road"},
		{"colon", "Shine: The Complete Classics", "Shine - The Complete Classics"},
		{"slash", "AC/DC Live", "AC-DC Live"},
		{"dropped chars", "What?s <This>", "Whats This"},
		{"collapse whitespace", "Buddha-Bar,   Vol. 7", "Buddha-Bar, Vol. 7"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SafeFolderName(tc.input, " -", 0)
			if got != tc.expected {
				t.Fatalf("SafeFolderName(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSafeFolderNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := SafeFolderName(long, " -", 0)
	if len(got) != DefaultMaxNameLength {
		t.Fatalf("expected %d runes, got %d", DefaultMaxNameLength, len(got))
	}
	got = SafeFolderName(long, " -", 50)
	if len(got) != 50 {
		t.Fatalf("expected 50 runes, got %d", len(got))
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Nujabes & Friends"); got != "nujabes___friends" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken(""); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
