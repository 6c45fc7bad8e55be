package dedup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

func TestIntentAllocationExhaustsCompatibilitySet(t *testing.T) {
	r := NewRegistry(nil, nil)

	// analyze/conceptual has exactly two compatible shapes; a third request
	// must come back nil, not panic or repeat.
	first := r.SelectNextIntent("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual)
	require.NotNil(t, first)
	r.MarkUsed(*first)

	second := r.SelectNextIntent("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual)
	require.NotNil(t, second)
	assert.NotEqual(t, first.Shape, second.Shape)
	r.MarkUsed(*second)

	third := r.SelectNextIntent("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual)
	assert.Nil(t, third)
}

func TestSelectNextIntentDeterministic(t *testing.T) {
	r := NewRegistry(nil, nil)
	in := r.SelectNextIntent("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual)
	require.NotNil(t, in)
	assert.Equal(t, taxonomy.ShapeAnalysis, in.Shape, "first pick follows compatibility order")

	// Uncommitted selection does not advance the sequence.
	again := r.SelectNextIntent("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual)
	require.NotNil(t, again)
	assert.Equal(t, in.Shape, again.Shape)
}

func TestSelectIntentsDoesNotPolluteRegistry(t *testing.T) {
	r := NewRegistry(nil, nil)
	batch := r.SelectIntents("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual, 5)
	assert.Len(t, batch, 2, "only two shapes exist for this cell")
	assert.NotEqual(t, batch[0].Shape, batch[1].Shape)

	// Nothing committed yet.
	for _, in := range batch {
		assert.False(t, r.IsUsed(in))
	}
	assert.Len(t, r.AvailableShapes("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual), 2)

	r.MarkUsed(batch[0])
	assert.True(t, r.IsUsed(batch[0]))
	assert.Len(t, r.AvailableShapes("Cells", taxonomy.LevelAnalyze, taxonomy.DimConceptual), 1)
}

func TestMarkUsedSticksUntilClear(t *testing.T) {
	r := NewRegistry(nil, nil)
	in := Intent{Topic: "Cells", Level: taxonomy.LevelRemember, Dimension: taxonomy.DimFactual, Shape: taxonomy.ShapeDefinition}
	r.MarkUsed(in)
	assert.True(t, r.IsUsed(in))
	r.Clear()
	assert.False(t, r.IsUsed(in))
}

func TestSelectConceptOperation(t *testing.T) {
	r := NewRegistry(nil, nil)
	concepts := []string{"osmosis", "diffusion"}

	a := r.SelectConceptOperation("Cells", taxonomy.LevelAnalyze, concepts)
	require.NotNil(t, a)
	assert.Equal(t, "osmosis", a.Concept)
	assert.Equal(t, "differentiate", a.Operation)

	b := r.SelectConceptOperation("Cells", taxonomy.LevelAnalyze, concepts)
	require.NotNil(t, b)
	assert.Equal(t, "diffusion", b.Concept)
	assert.NotEqual(t, a.Operation, b.Operation)

	// Pairs stay unique even once concepts start repeating.
	seen := map[string]bool{
		a.Concept + "|" + a.Operation: true,
		b.Concept + "|" + b.Operation: true,
	}
	for {
		co := r.SelectConceptOperation("Cells", taxonomy.LevelAnalyze, concepts)
		if co == nil {
			break
		}
		key := co.Concept + "|" + co.Operation
		require.False(t, seen[key], "repeated concept/operation pair %s", key)
		seen[key] = true
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.MarkUsed(Intent{Topic: "Cells", Level: taxonomy.LevelAnalyze, Dimension: taxonomy.DimConceptual, Shape: taxonomy.ShapeAnalysis})
	r.SelectConceptOperation("Cells", taxonomy.LevelAnalyze, []string{"osmosis"})

	snap := r.ToSnapshot()
	restored := FromSnapshot(snap, nil, nil)
	assert.Equal(t, snap, restored.ToSnapshot())

	// Snapshot survives a JSON boundary.
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var back Snapshot
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, snap.UsedIntents, back.UsedIntents)
	assert.Equal(t, snap.UsedPairs, back.UsedPairs)
}

func TestSnapshotMergeAlgebra(t *testing.T) {
	mk := func(topic string, shape taxonomy.Shape) Snapshot {
		r := NewRegistry(nil, nil)
		r.MarkUsed(Intent{Topic: topic, Level: taxonomy.LevelUnderstand, Dimension: taxonomy.DimConceptual, Shape: shape})
		r.SelectConceptOperation(topic, taxonomy.LevelUnderstand, []string{"energy flow"})
		return r.ToSnapshot()
	}
	a := mk("Cells", taxonomy.ShapeExplanation)
	b := mk("Genetics", taxonomy.ShapeComparison)
	c := mk("Ecology", taxonomy.ShapeExplanation)

	// Idempotent.
	assert.Equal(t, a, a.Merge(a))
	// Commutative.
	assert.Equal(t, a.Merge(b), b.Merge(a))
	// Associative.
	assert.Equal(t, a.Merge(b.Merge(c)), a.Merge(b).Merge(c))
}

func TestMergeSnapshotUnionsIntoRegistry(t *testing.T) {
	remote := NewRegistry(nil, nil)
	in := Intent{Topic: "Cells", Level: taxonomy.LevelApply, Dimension: taxonomy.DimProcedural, Shape: taxonomy.ShapeProcedure}
	remote.MarkUsed(in)

	local := NewRegistry(nil, nil)
	local.MergeSnapshot(remote.ToSnapshot())
	assert.True(t, local.IsUsed(in))

	// Merging twice changes nothing.
	before := local.ToSnapshot()
	local.MergeSnapshot(remote.ToSnapshot())
	assert.Equal(t, before, local.ToSnapshot())
}
