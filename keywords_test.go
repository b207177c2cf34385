package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected []string
	}{
		{"empty", "", nil},
		{"stop words removed", "The dog and the cat are on a mat.", []string{"dog", "cat", "mat"}},
		{"lowercased and deduplicated", "Dog dog DOG runs.", []string{"dog", "runs"}},
		{"digits and single letters dropped", "3 dogs x 2024 k9 runs", []string{"dogs", "runs"}},
		{"institutions blocked", "Students at harvard and Mit lab", []string{"students", "lab"}},
		{"accented letters kept", "café terrace", []string{"café", "terrace"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewKeywordExtractor(DefaultMaxKeywords, DefaultInstitutions, 1)
			result := k.Extract(tt.title)
			if len(result) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Extract(%q) = %v, want %v", tt.title, result, tt.expected)
			}
		})
	}
}

func manyWords(n int) []string {
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, string(rune('a'+i/26))+string(rune('a'+i%26))+"x")
	}
	return words
}

func TestExtractKeywordsCap(t *testing.T) {
	words := manyWords(80)
	title := strings.Join(words, " ") + " the and of"

	k := NewKeywordExtractor(DefaultMaxKeywords, DefaultInstitutions, 42)
	result := k.Extract(title)

	if len(result) != DefaultMaxKeywords {
		t.Fatalf("len(Extract()) = %d, want %d", len(result), DefaultMaxKeywords)
	}

	position := make(map[string]int, len(words))
	for i, w := range words {
		position[w] = i
	}
	last := -1
	for _, kw := range result {
		pos, ok := position[kw]
		if !ok {
			t.Fatalf("keyword %q is not a token of the title", kw)
		}
		if stopWords[kw] {
			t.Errorf("stop word %q in keywords", kw)
		}
		if pos <= last {
			t.Errorf("keyword %q out of title order", kw)
		}
		last = pos
	}
}

func TestExtractKeywordsSeeded(t *testing.T) {
	title := strings.Join(manyWords(70), " ")

	a := NewKeywordExtractor(DefaultMaxKeywords, nil, 7).Extract(title)
	b := NewKeywordExtractor(DefaultMaxKeywords, nil, 7).Extract(title)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different keyword samples")
	}
}

func TestExtractKeywordsCustomCap(t *testing.T) {
	k := NewKeywordExtractor(3, nil, 1)
	result := k.Extract("red fox jumps over lazy brown dog")
	if len(result) != 3 {
		t.Errorf("len(Extract()) = %d, want 3", len(result))
	}
}
