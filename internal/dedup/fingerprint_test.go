package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

func TestIsUniqueExactAndBroadCollision(t *testing.T) {
	s := NewFingerprintStore(nil)
	fp := Fingerprint{
		Topic: "Cells", Concept: "cell membrane", Shape: taxonomy.ShapeExplanation,
		Level: taxonomy.LevelUnderstand, Dimension: taxonomy.DimConceptual,
	}
	require.True(t, s.IsUnique(fp).Unique)
	s.Register(fp)

	// Exact tuple collides.
	res := s.IsUnique(fp)
	assert.False(t, res.Unique)
	assert.Contains(t, res.Reason, "exact duplicate")

	// Same topic/concept/shape with relabeled taxonomy still collides.
	relabed := fp
	relabed.Level = taxonomy.LevelApply
	relabed.Dimension = taxonomy.DimProcedural
	res = s.IsUnique(relabed)
	assert.False(t, res.Unique)
	assert.Contains(t, res.Reason, "different taxonomy labels")

	// Different shape for the same concept is fine.
	other := fp
	other.Shape = taxonomy.ShapeComparison
	assert.True(t, s.IsUnique(other).Unique)

	// Different concept is fine.
	fresh := fp
	fresh.Concept = "mitochondria"
	assert.True(t, s.IsUnique(fresh).Unique)
}

func TestRegisterIdempotent(t *testing.T) {
	s := NewFingerprintStore(nil)
	fp := Fingerprint{Topic: "Cells", Concept: "osmosis", Shape: taxonomy.ShapeDefinition,
		Level: taxonomy.LevelRemember, Dimension: taxonomy.DimFactual}
	s.Register(fp)
	s.Register(fp)
	assert.Equal(t, 1, s.Len())
}

func TestSuggestAlternatives(t *testing.T) {
	s := NewFingerprintStore(nil)
	fp := Fingerprint{Topic: "Cells", Concept: "osmosis", Shape: taxonomy.ShapeDefinition,
		Level: taxonomy.LevelRemember, Dimension: taxonomy.DimFactual}
	s.Register(fp)

	alts := s.SuggestAlternatives(fp)
	require.NotEmpty(t, alts)
	assert.NotContains(t, alts, taxonomy.ShapeDefinition)

	// Using up a second shape narrows the suggestions.
	fp2 := fp
	fp2.Shape = taxonomy.ShapeExplanation
	s.Register(fp2)
	alts = s.SuggestAlternatives(fp)
	assert.NotContains(t, alts, taxonomy.ShapeExplanation)
}

func TestFromTextUsesExtractor(t *testing.T) {
	s := NewFingerprintStore(nil)
	a := s.FromText("Biology", "What are the key factors of photosynthesis?",
		taxonomy.ShapeExplanation, taxonomy.LevelUnderstand, taxonomy.DimConceptual)
	b := s.FromText("Biology", "List the key factors of photosynthesis.",
		taxonomy.ShapeExplanation, taxonomy.LevelUnderstand, taxonomy.DimConceptual)
	assert.Equal(t, a.Concept, b.Concept, "paraphrases of the same probe must share a concept")

	c := s.FromText("Biology", "Define the structure of a chloroplast.",
		taxonomy.ShapeDefinition, taxonomy.LevelRemember, taxonomy.DimFactual)
	assert.NotEqual(t, a.Concept, c.Concept)
}
