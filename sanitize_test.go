package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty", "", ""},
		{"plain caption", "A dog runs on the beach", "A dog runs on the beach"},
		{"visit phrase and url", "A dog runs on the beach. Visit http://x.com now", "A dog runs on the beach"},
		{"bare url", "Sunset over the bay https://example.com/photo?id=1", "Sunset over the bay"},
		{"www url", "Harbor at dawn www.example.com", "Harbor at dawn"},
		{"caption marker", "Red¬ fox in snow", "Red fox in snow"},
		{"institutions", "Students at Harvard and MIT campus, cnn reports", "Students at and campus reports"},
		{"institution inside word kept", "Mitten on a table", "Mitten on a table"},
		{"accents kept", "Café crème in Zürich", "Café crème in Zürich"},
		{"decomposed accents recombined", "Cafe\u0301 in Zu\u0308rich", "Café in Zürich"},
		{"voiced kana kept", "ガラス の 窓", "ガラス の 窓"},
		{"special characters", "Mountains & lakes: (summer) #travel!", "Mountains lakes summer travel"},
		{"for more tail", "City skyline at night. For more, go to the gallery", "City skyline at night"},
		{"submit shots tail", "Snowy owl perched. Please submit your best shots this week", "Snowy owl perched"},
		{"only boilerplate", "Visit us at www.example.com", ""},
		{"whitespace collapsed", "  two   spaces\tand\ttabs \n", "two spaces and tabs"},
	}

	s := NewSanitizer(DefaultInstitutions)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.raw)
			if result != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, result, tt.expected)
			}
		})
	}
}

func TestSanitizeBounds(t *testing.T) {
	s := NewSanitizer(DefaultInstitutions)
	inputs := []string{
		strings.Repeat("word ", 100),
		strings.Repeat("x", 500),
		strings.Repeat("é", 300),
		"see https://a.example/" + strings.Repeat("b", 300) + " " + strings.Repeat("long caption ", 30),
		strings.Repeat("Visit http://x.com now ", 20),
	}

	for _, in := range inputs {
		out := s.Sanitize(in)
		if n := utf8.RuneCountInString(out); n > MaxTitleLength {
			t.Errorf("Sanitize() length = %d, want <= %d", n, MaxTitleLength)
		}
		if urlPattern.MatchString(out) {
			t.Errorf("Sanitize() = %q still contains a URL", out)
		}
	}
}

func TestSanitizeCustomInstitutions(t *testing.T) {
	s := NewSanitizer([]string{"Reuters", " "})
	result := s.Sanitize("Protest photographed by REUTERS staff near BBC offices")
	if result != "Protest photographed by staff near BBC offices" {
		t.Errorf("Sanitize() = %q", result)
	}
}

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"under limit", "short title", 20, "short title"},
		{"cut at space", "one two three four", 10, "one two"},
		{"no space", "abcdefghij", 4, "abcd"},
		{"runes not bytes", "ééé ééé", 5, "ééé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateAtWord(tt.input, tt.limit)
			if result != tt.expected {
				t.Errorf("truncateAtWord(%q, %d) = %q, want %q", tt.input, tt.limit, result, tt.expected)
			}
		})
	}
}
