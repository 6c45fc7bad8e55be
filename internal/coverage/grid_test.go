package coverage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/taxonomy"
)

func item(level, dim string) bank.Item {
	return bank.Item{
		Text: "q", Topic: "Cells", CognitiveLevel: level, KnowledgeDimension: dim,
		Difficulty: "easy", Approved: true,
	}
}

func TestBuildCoversAllCells(t *testing.T) {
	grid := Build(nil, nil)
	assert.Len(t, grid.Cells, 24)
	assert.Len(t, grid.Gaps, 24, "empty bank: every cell is a gap")
	assert.Equal(t, 0, grid.TotalItems)
	for _, c := range grid.Cells {
		assert.Equal(t, StatusEmpty, c.Status)
	}
}

func TestBuildClassification(t *testing.T) {
	items := []bank.Item{}
	for i := 0; i < 8; i++ {
		items = append(items, item("remember", "factual"))
	}
	for i := 0; i < 3; i++ {
		items = append(items, item("analyze", "conceptual"))
	}
	items = append(items, item("evaluate", "metacognitive"))

	grid := Build(items, nil)
	assert.Equal(t, 12, grid.TotalItems)

	byCell := map[string]Cell{}
	for _, c := range grid.Cells {
		byCell[string(c.Level)+"/"+string(c.Dimension)] = c
	}
	assert.Equal(t, StatusRich, byCell["remember/factual"].Status)
	assert.Equal(t, StatusAdequate, byCell["analyze/conceptual"].Status)
	assert.Equal(t, StatusSparse, byCell["evaluate/metacognitive"].Status)
	assert.Equal(t, StatusEmpty, byCell["create/procedural"].Status)

	// Worst cells come first in priority order.
	require.NotEmpty(t, grid.Priorities)
	assert.Equal(t, 0, grid.Priorities[0].Count)
}

func TestBuildNormalizesSloppyMetadata(t *testing.T) {
	grid := Build([]bank.Item{item("Analyzing", ""), item("???", "fact-ish")}, nil)
	byCell := map[string]Cell{}
	for _, c := range grid.Cells {
		byCell[string(c.Level)+"/"+string(c.Dimension)] = c
	}
	assert.Equal(t, 1, byCell["analyze/conceptual"].Count)
	assert.Equal(t, 1, byCell["understand/conceptual"].Count, "unknowns default to understand/conceptual")
}

func TestBuildFromStore(t *testing.T) {
	store := bank.NewInMemoryStore()
	_, err := store.Insert(context.Background(), []bank.Item{
		item("remember", "factual"),
		item("remember", "factual"),
		item("analyze", "conceptual"),
	})
	require.NoError(t, err)

	grid, err := BuildFromStore(context.Background(), store, "Cells", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, grid.TotalItems)

	other, err := BuildFromStore(context.Background(), store, "Astronomy", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, other.TotalItems)
}

func TestBuildFromStoreSeesAliasWrittenItems(t *testing.T) {
	store := bank.NewInMemoryStore()
	_, err := store.Insert(context.Background(), []bank.Item{
		item("Analyzing", "Conceptual"),
		item("Remembering", "factual"),
	})
	require.NoError(t, err)

	grid, err := BuildFromStore(context.Background(), store, "Cells", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, grid.TotalItems, "alias-written metadata must still be counted")
	for _, c := range grid.Cells {
		switch {
		case c.Level == taxonomy.LevelAnalyze && c.Dimension == taxonomy.DimConceptual:
			assert.Equal(t, 1, c.Count)
		case c.Level == taxonomy.LevelRemember && c.Dimension == taxonomy.DimFactual:
			assert.Equal(t, 1, c.Count)
		}
	}
}
