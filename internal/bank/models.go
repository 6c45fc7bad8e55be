package bank

import "github.com/mind-engage/examgen/internal/taxonomy"

// Item is a bank record: an authored or generated question plus its
// classification. Items are never physically deleted by this core; Deleted
// is a soft flag owned upstream.
type Item struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	Type               string    `json:"type"` // mcq_single, true_false, short_word, essay
	Choices            []string  `json:"choices,omitempty"`
	CorrectAnswer      string    `json:"correct_answer"`
	Topic              string    `json:"topic"`
	CognitiveLevel     string    `json:"cognitive_level"`
	Difficulty         string    `json:"difficulty"` // easy|medium|hard
	KnowledgeDimension string    `json:"knowledge_dimension,omitempty"`
	AnswerShape        string    `json:"answer_shape,omitempty"`
	UsageCount         int       `json:"usage_count"`
	Approved           bool      `json:"approved"`
	Deleted            bool      `json:"-"`
	SemanticVector     []float64 `json:"semantic_vector,omitempty"`
	CreatedAt          int64     `json:"created_at,omitempty"`
}

// Filter selects items for assembly. Topic is substring-tolerant, level is
// case-insensitive, difficulty is exact. Zero-value fields match everything.
// Results are always approved, non-deleted, ordered ascending by usage count.
type Filter struct {
	Topic      string
	Level      string
	Difficulty string
	Limit      int
}

// canonicalize rewrites alias taxonomy spellings ("Remembering",
// "Analysis") to their canonical forms before storage, so that
// canonical queries always find previously written rows. Unrecognized values
// are stored as written.
func canonicalize(it Item) Item {
	if l, ok := taxonomy.ParseLevel(it.CognitiveLevel); ok {
		it.CognitiveLevel = string(l)
	}
	if d, ok := taxonomy.ParseDimension(it.KnowledgeDimension); ok {
		it.KnowledgeDimension = string(d)
	}
	return it
}

// Item type constants, shared with the assembler's section layout.
const (
	TypeMCQSingle = "mcq_single"
	TypeTrueFalse = "true_false"
	TypeShortWord = "short_word"
	TypeEssay     = "essay"
)
