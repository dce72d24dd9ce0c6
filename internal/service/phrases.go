package service

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed phrases.yaml
var phrasesYAML []byte

// Phrases holds the multi-language phrase lists driving follow-up
// resolution, the direct link shortcut, input sanitizing and keyword matching.
type Phrases struct {
	Version     int                 `yaml:"version"`
	FollowUp    map[string][]string `yaml:"follow_up"`
	DirectLink  map[string][]string `yaml:"direct_link"`
	SQLKeywords []string            `yaml:"sql_keywords"`
	Stopwords   map[string][]string `yaml:"stopwords"`

	stopwordSet map[string]struct{}
}

// LoadPhrases parses a phrase document
func LoadPhrases(data []byte) (*Phrases, error) {
	var p Phrases
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse phrases: %w", err)
	}
	if len(p.FollowUp) == 0 || len(p.DirectLink) == 0 {
		return nil, fmt.Errorf("phrases v%d: follow_up and direct_link are required", p.Version)
	}

	p.stopwordSet = make(map[string]struct{})
	for _, words := range p.Stopwords {
		for _, w := range words {
			p.stopwordSet[strings.ToLower(w)] = struct{}{}
		}
	}
	return &p, nil
}

// DefaultPhrases returns the embedded phrase lists
func DefaultPhrases() *Phrases {
	p, err := LoadPhrases(phrasesYAML)
	if err != nil {
		panic(err)
	}
	return p
}

// IsFollowUp reports whether query refers back to the last-mentioned exhibitor
func (p *Phrases) IsFollowUp(query string) bool {
	return containsAny(query, p.FollowUp)
}

// IsDirectLinkRequest reports whether query asks for an exhibitor's website
func (p *Phrases) IsDirectLinkRequest(query string) bool {
	return containsAny(query, p.DirectLink)
}

// IsStopword reports whether word carries no search meaning
func (p *Phrases) IsStopword(word string) bool {
	_, ok := p.stopwordSet[strings.ToLower(word)]
	return ok
}

// Keywords returns the lowercased words of query that are not stopwords.
// query may be HTML-encoded.
func (p *Phrases) Keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(html.UnescapeString(query)), func(r rune) bool {
		return !(r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 2 || p.IsStopword(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func containsAny(query string, byLang map[string][]string) bool {
	q := strings.ToLower(query)
	for _, phrases := range byLang {
		for _, phrase := range phrases {
			if strings.Contains(q, phrase) {
				return true
			}
		}
	}
	return false
}
