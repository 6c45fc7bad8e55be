// Package gensvc defines the remote text-generation contract and its
// implementations. The service is untrusted: it may return fewer items than
// requested, items violating structural constraints, or near-duplicates of
// each other. Every returned candidate is screened by the assembler before
// acceptance.
package gensvc

import (
	"context"

	"github.com/mind-engage/examgen/internal/dedup"
)

// Request asks for count candidate items under structural constraints. The
// intents and registry snapshot pin down concept/operation/shape choices so
// the remote service cannot pick its own.
type Request struct {
	Topic      string          `json:"topic"`
	Level      string          `json:"cognitive_level"`
	Dimension  string          `json:"knowledge_dimension,omitempty"`
	Difficulty string          `json:"difficulty"`
	Count      int             `json:"count"`
	ItemType   string          `json:"item_type"`
	Intents    []dedup.Intent  `json:"intents,omitempty"`
	Snapshot   *dedup.Snapshot `json:"registry_snapshot,omitempty"`
}

// Candidate is one generated item, unscreened.
type Candidate struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices,omitempty"`
	Answer  string   `json:"answer"`
	Shape   string   `json:"answer_shape,omitempty"`
}

// Response carries candidates plus the service's view of the registry, if it
// allocated intents of its own.
type Response struct {
	Questions []Candidate     `json:"questions"`
	Snapshot  *dedup.Snapshot `json:"updated_registry_snapshot,omitempty"`
}

// Service is the generation contract.
type Service interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
