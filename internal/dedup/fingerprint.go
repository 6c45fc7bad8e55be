// Package dedup guarantees that no two items in a generation session probe
// the same concept with the same cognitive operation and answer shape. It
// holds the fingerprint store (structural uniqueness) and the intent
// registry (allocation of not-yet-used intents). Both are session-scoped:
// callers create one per assembly run, or one per explicit multi-call
// session, and discard it afterward.
package dedup

import (
	"fmt"
	"strings"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

// Fingerprint is the uniqueness key of an item. Concept describes WHAT the
// item probes; the cognitive operation (tracked by the registry) describes HOW.
type Fingerprint struct {
	Topic     string             `json:"topic"`
	Concept   string             `json:"concept"`
	Shape     taxonomy.Shape     `json:"answer_shape"`
	Level     taxonomy.Level     `json:"cognitive_level"`
	Dimension taxonomy.Dimension `json:"knowledge_dimension"`
}

func (f Fingerprint) exactKey() string {
	return strings.Join([]string{
		norm(f.Topic), norm(f.Concept), string(f.Shape), string(f.Level), string(f.Dimension),
	}, "|")
}

// broadKey ignores level and dimension: two items probing the same concept
// in the same shape are duplicates even when their taxonomy labels differ.
func (f Fingerprint) broadKey() string {
	return strings.Join([]string{norm(f.Topic), norm(f.Concept), string(f.Shape)}, "|")
}

func (f Fingerprint) conceptKey() string {
	return norm(f.Topic) + "|" + norm(f.Concept)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// UniqueResult reports whether a fingerprint may be registered.
type UniqueResult struct {
	Unique bool   `json:"unique"`
	Reason string `json:"reason,omitempty"`
}

// FingerprintStore is a session-scoped set of registered fingerprints.
// Single-writer: it is confined to one assembly flow and carries no lock.
type FingerprintStore struct {
	exact        map[string]struct{}
	broad        map[string]struct{}
	shapesByPair map[string]map[taxonomy.Shape]struct{}
	extractor    ConceptExtractor
}

func NewFingerprintStore(extractor ConceptExtractor) *FingerprintStore {
	if extractor == nil {
		extractor = NewPatternExtractor()
	}
	return &FingerprintStore{
		exact:        map[string]struct{}{},
		broad:        map[string]struct{}{},
		shapesByPair: map[string]map[taxonomy.Shape]struct{}{},
		extractor:    extractor,
	}
}

// FromText builds a fingerprint for an item, extracting the concept from its
// raw question text.
func (s *FingerprintStore) FromText(topic, questionText string, shape taxonomy.Shape, level taxonomy.Level, dim taxonomy.Dimension) Fingerprint {
	return Fingerprint{
		Topic:     topic,
		Concept:   s.extractor.Extract(questionText),
		Shape:     shape,
		Level:     level,
		Dimension: dim,
	}
}

// IsUnique checks the exact tuple first, then the stricter topic/concept/shape
// rule that catches "same question, relabeled taxonomy" duplicates.
func (s *FingerprintStore) IsUnique(f Fingerprint) UniqueResult {
	if _, hit := s.exact[f.exactKey()]; hit {
		return UniqueResult{Reason: fmt.Sprintf("exact duplicate: %s/%s already asked as %s at %s/%s",
			f.Topic, f.Concept, f.Shape, f.Level, f.Dimension)}
	}
	if _, hit := s.broad[f.broadKey()]; hit {
		return UniqueResult{Reason: fmt.Sprintf("concept %q already probed as %s under topic %s (different taxonomy labels)",
			f.Concept, f.Shape, f.Topic)}
	}
	return UniqueResult{Unique: true}
}

// Register inserts a fingerprint. Idempotent.
func (s *FingerprintStore) Register(f Fingerprint) {
	s.exact[f.exactKey()] = struct{}{}
	s.broad[f.broadKey()] = struct{}{}
	pair := f.conceptKey()
	if s.shapesByPair[pair] == nil {
		s.shapesByPair[pair] = map[taxonomy.Shape]struct{}{}
	}
	s.shapesByPair[pair][f.Shape] = struct{}{}
}

// SuggestAlternatives returns answer shapes not yet used for the
// topic/concept pair, so a rejected caller can retry with a shape that is
// guaranteed distinct.
func (s *FingerprintStore) SuggestAlternatives(f Fingerprint) []taxonomy.Shape {
	used := s.shapesByPair[f.conceptKey()]
	out := make([]taxonomy.Shape, 0, len(taxonomy.Shapes()))
	for _, shape := range taxonomy.Shapes() {
		if shape == f.Shape {
			continue
		}
		if _, taken := used[shape]; taken {
			continue
		}
		out = append(out, shape)
	}
	return out
}

// Len reports the number of registered exact fingerprints.
func (s *FingerprintStore) Len() int { return len(s.exact) }
