package main

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

// DefaultMaxKeywords is the marketplace limit on keywords per image
const DefaultMaxKeywords = 50

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "if": true, "in": true,
	"into": true, "is": true, "it": true, "no": true, "not": true, "of": true,
	"on": true, "or": true, "such": true, "that": true, "the": true, "their": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"to": true, "was": true, "will": true, "with": true,
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// KeywordExtractor derives a bounded keyword set from a title.
// It is not safe for concurrent use: the sampler is shared.
type KeywordExtractor struct {
	max          int
	institutions map[string]bool
	rng          *rand.Rand
}

// NewKeywordExtractor builds an extractor. A zero seed uses the clock, so
// sampling above the cap is only reproducible with an explicit seed.
func NewKeywordExtractor(max int, institutions []string, seed int64) *KeywordExtractor {
	if max <= 0 {
		max = DefaultMaxKeywords
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	blocked := make(map[string]bool, len(institutions))
	for _, name := range institutions {
		blocked[strings.ToLower(name)] = true
	}
	return &KeywordExtractor{
		max:          max,
		institutions: blocked,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Extract returns lowercase alphabetic keywords in first-occurrence order
func (k *KeywordExtractor) Extract(title string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, tok := range wordPattern.FindAllString(title, -1) {
		tok = strings.ToLower(tok)
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if stopWords[tok] || len([]rune(tok)) <= 1 || !isAlpha(tok) {
			continue
		}
		words = append(words, tok)
	}

	if len(words) > k.max {
		words = k.sample(words)
	}

	return k.removeBlocked(words)
}

// sample picks k.max entries at random, keeping their original order
func (k *KeywordExtractor) sample(words []string) []string {
	picked := k.rng.Perm(len(words))[:k.max]
	sort.Ints(picked)
	out := make([]string, 0, k.max)
	for _, i := range picked {
		out = append(out, words[i])
	}
	return out
}

// removeBlocked drops institution names and anything that looks like a URL
func (k *KeywordExtractor) removeBlocked(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if k.institutions[w] || urlPattern.MatchString(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
