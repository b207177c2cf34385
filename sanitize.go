package main

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength caps a sanitized title, counted in runes
const MaxTitleLength = 200

// DefaultInstitutions are names scrubbed from captions and keywords
var DefaultInstitutions = []string{"CNN", "BBC", "Harvard", "MIT"}

var (
	urlPattern         = regexp.MustCompile(`(https?://|www\.)\S+`)
	specialCharPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	promoPattern       = regexp.MustCompile(
		`(?is)(for more,?\s*go to\s*|visit\s+\S+|CNN\.com.*?gallery|submit.*?shots.*?week|Please submit.*?shots|visit.*?next\s+Wednesday).*?$`,
	)
)

// captionMarker is an artifact some captioning models leave in their output
const captionMarker = "¬"

// Sanitizer turns raw model captions into bounded, boilerplate-free titles
type Sanitizer struct {
	institutions []*regexp.Regexp
}

// NewSanitizer compiles a whole-word, case-insensitive matcher per institution name
func NewSanitizer(institutions []string) *Sanitizer {
	s := &Sanitizer{}
	for _, name := range institutions {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.institutions = append(s.institutions, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(name)+`\b`))
	}
	return s
}

// Sanitize never fails; input that is nothing but boilerplate comes back empty
func (s *Sanitizer) Sanitize(raw string) string {
	title := strings.ReplaceAll(raw, captionMarker, "")
	title = urlPattern.ReplaceAllString(title, "")

	for _, re := range s.institutions {
		title = re.ReplaceAllString(title, "")
	}

	// decomposed input (e + U+0301) would otherwise lose its mark to specialCharPattern
	title = norm.NFC.String(title)
	title = specialCharPattern.ReplaceAllString(title, "")
	title = promoPattern.ReplaceAllString(title, "")
	title = strings.TrimSpace(whitespacePattern.ReplaceAllString(title, " "))

	return truncateAtWord(title, MaxTitleLength)
}

// truncateAtWord cuts s to at most limit runes, backing up to the last space
func truncateAtWord(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
