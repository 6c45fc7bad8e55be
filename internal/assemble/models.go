// Package assemble builds complete exams from a specification matrix: it
// distributes per-category quotas over typed sections, drains the item bank,
// falls back to generation for shortfalls, and guarantees the result matches
// every requested quota exactly or fails with structured context.
package assemble

import "github.com/mind-engage/examgen/internal/bank"

// Requirement is one row of the specification matrix: how many items are
// needed for a topic/level/difficulty cell. Immutable input.
type Requirement struct {
	Topic              string `json:"topic"`
	CognitiveLevel     string `json:"cognitive_level"`
	KnowledgeDimension string `json:"knowledge_dimension,omitempty"`
	Difficulty         string `json:"difficulty"`
	Count              int    `json:"count"`
}

// Section is a contiguous numbered slice of the final exam dedicated to one
// item type. For essay sections, EssayGroupCount essays each cover a
// sub-range of the numbered slots.
type Section struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	Title           string  `json:"title"`
	ItemType        string  `json:"item_type"`
	StartNumber     int     `json:"start_number"`
	EndNumber       int     `json:"end_number"`
	PointsPerItem   float64 `json:"points_per_item"`
	EssayGroupCount int     `json:"essay_group_count,omitempty"`
}

// ItemCount is the number of items a section must receive: its numbered
// span, except for grouped essay sections where several slots share one essay.
func (s Section) ItemCount() int {
	if s.ItemType == bank.TypeEssay && s.EssayGroupCount > 0 {
		return s.EssayGroupCount
	}
	return s.EndNumber - s.StartNumber + 1
}

// Spec is the full input to one assembly run.
type Spec struct {
	Title        string        `json:"title"`
	Sections     []Section     `json:"sections"`
	Requirements []Requirement `json:"requirements"`
}

// KeyEntry maps a displayed item number (or slot range, for grouped essays)
// to its correct answer and point value.
type KeyEntry struct {
	Number    int     `json:"number"`
	NumberEnd int     `json:"number_end,omitempty"` // > Number only for grouped essays
	Answer    string  `json:"answer"`
	Points    float64 `json:"points"`
}

// SectionResult is one assembled section with its items in display order.
type SectionResult struct {
	Section Section     `json:"section"`
	Items   []bank.Item `json:"items"`
}

// Assembly is the finished exam handed to the presentation layer.
type Assembly struct {
	Title       string          `json:"title"`
	Sections    []SectionResult `json:"sections"`
	Items       []bank.Item     `json:"ordered_items"`
	AnswerKey   []KeyEntry      `json:"answer_key"`
	TotalItems  int             `json:"total_items"`
	TotalPoints float64         `json:"total_points"`
}
