// Package coverage aggregates an item collection into a cognitive-level x
// knowledge-dimension matrix with per-cell gap classification. Read-only
// analytical view; the assembler consults it to prioritize allocation but it
// is never on the write path.
package coverage

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/taxonomy"
)

// Status classifies how well a cell is supplied.
type Status string

const (
	StatusEmpty    Status = "empty"
	StatusSparse   Status = "sparse"
	StatusAdequate Status = "adequate"
	StatusRich     Status = "rich"
)

// Cell counts thresholds: sparse < adequateMin, adequate < richMin.
const (
	adequateMin = 3
	richMin     = 8
)

type Cell struct {
	Level     taxonomy.Level     `json:"cognitive_level"`
	Dimension taxonomy.Dimension `json:"knowledge_dimension"`
	Count     int                `json:"count"`
	Status    Status             `json:"status"`
}

// Grid is the full 6x4 coverage matrix.
type Grid struct {
	Cells      []Cell `json:"cells"`
	TotalItems int    `json:"total_items"`
	Gaps       []Cell `json:"gaps,omitempty"`       // empty or sparse cells
	Priorities []Cell `json:"priorities,omitempty"` // gaps ordered worst-first
}

// Build aggregates items into a grid. Items with unrecognized taxonomy
// metadata land in the understand/conceptual cell via resolver
// normalization, mirroring allocation behavior.
func Build(items []bank.Item, resolver *taxonomy.Resolver) Grid {
	if resolver == nil {
		resolver = taxonomy.NewResolver(nil)
	}
	counts := map[taxonomy.Level]map[taxonomy.Dimension]int{}
	for _, lvl := range taxonomy.Levels() {
		counts[lvl] = map[taxonomy.Dimension]int{}
	}
	for _, it := range items {
		lvl, dim := resolver.Normalize(it.CognitiveLevel, it.KnowledgeDimension)
		counts[lvl][dim]++
	}
	return fromCounts(counts, len(items))
}

// BuildFromStore builds the grid for one topic by querying the bank per
// level. The per-level reads are independent and issued concurrently.
func BuildFromStore(ctx context.Context, store bank.Store, topic string, resolver *taxonomy.Resolver) (Grid, error) {
	if resolver == nil {
		resolver = taxonomy.NewResolver(nil)
	}
	levels := taxonomy.Levels()
	perLevel := make([][]bank.Item, len(levels))

	g, gctx := errgroup.WithContext(ctx)
	for i, lvl := range levels {
		i, lvl := i, lvl
		g.Go(func() error {
			items, err := store.List(gctx, bank.Filter{Topic: topic, Level: string(lvl)})
			if err != nil {
				return err
			}
			perLevel[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Grid{}, err
	}

	counts := map[taxonomy.Level]map[taxonomy.Dimension]int{}
	for _, lvl := range levels {
		counts[lvl] = map[taxonomy.Dimension]int{}
	}
	total := 0
	for i, lvl := range levels {
		for _, it := range perLevel[i] {
			_, dim := resolver.Normalize(it.CognitiveLevel, it.KnowledgeDimension)
			counts[lvl][dim]++
			total++
		}
	}
	return fromCounts(counts, total), nil
}

func fromCounts(counts map[taxonomy.Level]map[taxonomy.Dimension]int, total int) Grid {
	grid := Grid{TotalItems: total}
	for _, lvl := range taxonomy.Levels() {
		for _, dim := range taxonomy.Dimensions() {
			c := Cell{Level: lvl, Dimension: dim, Count: counts[lvl][dim], Status: classify(counts[lvl][dim])}
			grid.Cells = append(grid.Cells, c)
			if c.Status == StatusEmpty || c.Status == StatusSparse {
				grid.Gaps = append(grid.Gaps, c)
			}
		}
	}
	grid.Priorities = make([]Cell, len(grid.Gaps))
	copy(grid.Priorities, grid.Gaps)
	sort.SliceStable(grid.Priorities, func(i, j int) bool {
		return grid.Priorities[i].Count < grid.Priorities[j].Count
	})
	return grid
}

func classify(count int) Status {
	switch {
	case count == 0:
		return StatusEmpty
	case count < adequateMin:
		return StatusSparse
	case count < richMin:
		return StatusAdequate
	default:
		return StatusRich
	}
}
