package service

import (
	"html"
	"regexp"
	"strings"
)

// DefaultMaxQueryLength is the number of characters kept from a query
const DefaultMaxQueryLength = 1000

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTagPattern   = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)

	fencedCodePattern = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern = regexp.MustCompile("`[^`\n]*`")
	htmlTagPattern    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// Sanitizer cleans visitor input and model output
type Sanitizer struct {
	sqlPattern *regexp.Regexp
	maxLength  int
}

// NewSanitizer builds a sanitizer stripping the given SQL keywords
func NewSanitizer(sqlKeywords []string, maxLength int) *Sanitizer {
	if maxLength <= 0 {
		maxLength = DefaultMaxQueryLength
	}

	parts := make([]string, 0, len(sqlKeywords))
	for _, kw := range sqlKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		quoted := regexp.QuoteMeta(kw)
		if isWord(kw) {
			quoted = `\b` + quoted + `\b`
		}
		parts = append(parts, quoted)
	}

	s := &Sanitizer{maxLength: maxLength}
	if len(parts) > 0 {
		s.sqlPattern = regexp.MustCompile(`(?i)` + strings.Join(parts, "|"))
	}
	return s
}

// Query strips script tags and SQL keywords, truncates and HTML-encodes the
// query. An empty result means nothing usable was left.
func (s *Sanitizer) Query(raw string) string {
	q := scriptBlockPattern.ReplaceAllString(raw, "")
	q = scriptTagPattern.ReplaceAllString(q, "")
	if s.sqlPattern != nil {
		q = s.sqlPattern.ReplaceAllString(q, " ")
	}
	q = strings.TrimSpace(whitespacePattern.ReplaceAllString(q, " "))

	// Truncate before escaping so no entity is cut in half
	if runes := []rune(q); len(runes) > s.maxLength {
		q = strings.TrimSpace(string(runes[:s.maxLength]))
	}
	return html.EscapeString(q)
}

// Answer removes code blocks, inline code and HTML tags from a model answer
func (s *Sanitizer) Answer(raw string) string {
	a := fencedCodePattern.ReplaceAllString(raw, "")
	a = inlineCodePattern.ReplaceAllString(a, "")
	a = htmlTagPattern.ReplaceAllString(a, "")
	return strings.TrimSpace(a)
}

func isWord(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}
