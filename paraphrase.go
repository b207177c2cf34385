package main

import (
	"context"
	"strings"
)

// Paraphraser rewrites a sanitized title into a marketable sentence.
// Implementations own the model; the pipeline only wraps the result.
type Paraphraser interface {
	Paraphrase(ctx context.Context, title string) (string, error)
}

// ParaphraseLimits bounds the length of generated text
type ParaphraseLimits struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// passthroughParaphraser returns the title unchanged ("none" backend)
type passthroughParaphraser struct{}

func (passthroughParaphraser) Paraphrase(_ context.Context, title string) (string, error) {
	return title, nil
}

// FinalizeTitle drops repeated words (first occurrence wins) and ensures a
// terminal period.
func FinalizeTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(words))
	unique := make([]string, 0, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}

	title := strings.Join(unique, " ")
	if !strings.HasSuffix(title, ".") {
		title += "."
	}
	return title
}
