package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedShapesTotal(t *testing.T) {
	r := NewResolver(nil)
	for _, lvl := range Levels() {
		for _, dim := range Dimensions() {
			shapes := r.AllowedShapes(lvl, dim)
			require.NotEmpty(t, shapes, "cell %s/%s must have at least one shape", lvl, dim)
			seen := map[Shape]bool{}
			for _, s := range shapes {
				assert.False(t, seen[s], "duplicate shape %s in cell %s/%s", s, lvl, dim)
				seen[s] = true
			}
		}
	}
}

func TestAllowedShapesUnknownCellFallsBack(t *testing.T) {
	r := NewResolver(nil)
	shapes := r.AllowedShapes(Level("daydream"), DimFactual)
	require.Equal(t, []Shape{ShapeExplanation}, shapes)
}

func TestIsValid(t *testing.T) {
	r := NewResolver(nil)
	assert.True(t, r.IsValid(LevelAnalyze, DimConceptual, ShapeComparison))
	assert.True(t, r.IsValid(LevelAnalyze, DimConceptual, ShapeAnalysis))
	assert.False(t, r.IsValid(LevelAnalyze, DimConceptual, ShapeDefinition))
	assert.False(t, r.IsValid(LevelRemember, DimFactual, ShapeEvaluation))
}

func TestNormalizeDefaultsUnknown(t *testing.T) {
	r := NewResolver(nil)
	l, d := r.Normalize("Remembering", "Factual")
	assert.Equal(t, LevelRemember, l)
	assert.Equal(t, DimFactual, d)

	l, d = r.Normalize("galaxy-brain", "")
	assert.Equal(t, LevelUnderstand, l)
	assert.Equal(t, DimConceptual, d)
}

func TestParseLevelVariants(t *testing.T) {
	for raw, want := range map[string]Level{
		"Analyzing":  LevelAnalyze,
		"ANALYSIS":   LevelAnalyze,
		"evaluate":   LevelEvaluate,
		"Evaluating": LevelEvaluate,
		" creating ": LevelCreate,
	} {
		got, ok := ParseLevel(raw)
		require.True(t, ok, "parse %q", raw)
		assert.Equal(t, want, got)
	}
	if _, ok := ParseLevel("transcend"); ok {
		t.Fatal("expected parse failure for unknown level")
	}
}

func TestOperationsExcludeExplainAboveUnderstand(t *testing.T) {
	r := NewResolver(nil)
	for _, lvl := range []Level{LevelAnalyze, LevelEvaluate, LevelCreate} {
		for _, op := range r.Operations(lvl) {
			assert.NotEqual(t, "explain", op, "level %s must not permit explain", lvl)
		}
	}
	assert.Contains(t, r.Operations(LevelUnderstand), "explain")
	assert.Contains(t, r.Operations(LevelAnalyze), "differentiate")
}

func TestShapeRequirementNonEmpty(t *testing.T) {
	for _, s := range Shapes() {
		assert.NotEmpty(t, ShapeRequirement(s))
	}
}
