package dedup

import (
	"regexp"
	"strings"
)

// ConceptExtractor pulls a short phrase describing what an item probes out
// of its raw text. Implementations only have to be consistent: true
// duplicates must collide, distinct items must not. Pluggable so the regex
// default can later be swapped for an embedding-based extractor without
// touching the registry or assembler contracts.
type ConceptExtractor interface {
	Extract(questionText string) string
}

// patternExtractor matches the question against common pedagogical phrasings
// and falls back to the first content-bearing words.
type patternExtractor struct{}

// NewPatternExtractor returns the default regex-based extractor.
func NewPatternExtractor() ConceptExtractor { return patternExtractor{} }

var conceptPatterns = []*regexp.Regexp{
	// "key factors of X", "main causes of X", "the role of X"
	regexp.MustCompile(`(?i)(?:key|main|primary|major)?\s*(?:factors?|causes?|functions?|components?|role|purpose|stages?|steps?|features?|characteristics?)\s+of\s+([a-z0-9][a-z0-9\s\-]{2,40})`),
	// "what are the X of Y" / "what is the X of Y"
	regexp.MustCompile(`(?i)what\s+(?:is|are)\s+(?:the\s+)?([a-z0-9][a-z0-9\s\-]{2,40}?)\s*[?.]`),
	// "define X", "explain X", "describe X", "compare X", "evaluate X"
	regexp.MustCompile(`(?i)(?:define|explain|describe|compare|contrast|evaluate|analyze|analyse|justify|design|outline|discuss)\s+(?:the\s+|a\s+|an\s+|how\s+|why\s+)?([a-z0-9][a-z0-9\s\-]{2,40}?)(?:\s+(?:in|for|with|using|when|and)\b|[?.,]|$)`),
	// "how does X ..." / "why does X ..."
	regexp.MustCompile(`(?i)(?:how|why)\s+(?:does|do|did|is|are|can|would)\s+([a-z0-9][a-z0-9\s\-]{2,40}?)(?:\s+(?:work|affect|influence|change|happen|occur|differ)\b|[?.,]|$)`),
}

var conceptStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "on": true,
	"to": true, "and": true, "or": true, "for": true, "with": true,
	"what": true, "which": true, "how": true, "why": true, "is": true,
	"are": true, "does": true, "do": true, "be": true, "that": true,
	"this": true, "its": true, "their": true, "between": true, "following": true,
}

func (patternExtractor) Extract(questionText string) string {
	text := strings.TrimSpace(questionText)
	if text == "" {
		return ""
	}
	for _, re := range conceptPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if c := normalizeConcept(m[1]); c != "" {
				return c
			}
		}
	}
	// Fallback: first few content-bearing words.
	words := strings.Fields(strings.ToLower(stripPunct(text)))
	picked := make([]string, 0, 3)
	for _, w := range words {
		if conceptStopwords[w] {
			continue
		}
		picked = append(picked, w)
		if len(picked) == 3 {
			break
		}
	}
	return strings.Join(picked, " ")
}

func normalizeConcept(s string) string {
	words := strings.Fields(strings.ToLower(stripPunct(s)))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(out) == 0 && conceptStopwords[w] {
			continue
		}
		out = append(out, w)
	}
	// Keep concepts short; trailing qualifiers only add noise.
	if len(out) > 4 {
		out = out[:4]
	}
	return strings.Join(out, " ")
}

func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\t' || r == '\n':
			b.WriteRune(' ')
		}
	}
	return b.String()
}
