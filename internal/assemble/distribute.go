package assemble

import (
	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/taxonomy"
)

// Allocation is a slice of a requirement assigned to one section. A
// requirement with count 5 may split 3/2 across two sections.
type Allocation struct {
	Requirement Requirement `json:"requirement"`
	Count       int         `json:"count"`
}

// preferredLevels maps item types to the cognitive levels they suit best.
// Essay sections prefer the higher-order levels; recognition formats prefer
// the lower ones.
var preferredLevels = map[string][]taxonomy.Level{
	bank.TypeEssay:     {taxonomy.LevelEvaluate, taxonomy.LevelCreate, taxonomy.LevelAnalyze},
	bank.TypeMCQSingle: {taxonomy.LevelRemember, taxonomy.LevelUnderstand, taxonomy.LevelApply},
	bank.TypeTrueFalse: {taxonomy.LevelRemember, taxonomy.LevelUnderstand},
	bank.TypeShortWord: {taxonomy.LevelUnderstand, taxonomy.LevelApply, taxonomy.LevelAnalyze},
}

func prefers(itemType string, level string) bool {
	lvl, ok := taxonomy.ParseLevel(level)
	if !ok {
		return false
	}
	for _, p := range preferredLevels[itemType] {
		if p == lvl {
			return true
		}
	}
	return false
}

// Distribute assigns requirement counts to sections. Pure function.
//
// Pass 1 gives each section requirements whose cognitive level is preferred
// for its item type; pass 2 backfills any still-short section from whatever
// remains, regardless of affinity. Every section reaches its numeric target
// when totals balance; occasional affinity mismatches are the accepted cost.
func Distribute(requirements []Requirement, sections []Section) (map[string][]Allocation, error) {
	capacity := 0
	for _, s := range sections {
		capacity += s.ItemCount()
	}
	total := 0
	for _, r := range requirements {
		total += r.Count
	}
	if capacity != total {
		return nil, &LayoutError{SectionCapacity: capacity, RequirementTotal: total}
	}

	remaining := make([]int, len(requirements))
	for i, r := range requirements {
		remaining[i] = r.Count
	}
	out := make(map[string][]Allocation, len(sections))
	need := make(map[string]int, len(sections))
	for _, s := range sections {
		need[s.ID] = s.ItemCount()
	}

	take := func(s Section, i int) {
		if need[s.ID] == 0 || remaining[i] == 0 {
			return
		}
		n := remaining[i]
		if n > need[s.ID] {
			n = need[s.ID]
		}
		remaining[i] -= n
		need[s.ID] -= n
		out[s.ID] = append(out[s.ID], Allocation{Requirement: requirements[i], Count: n})
	}

	// Pass 1: affinity.
	for _, s := range sections {
		for i, r := range requirements {
			if prefers(s.ItemType, r.CognitiveLevel) {
				take(s, i)
			}
		}
	}
	// Pass 2: backfill.
	for _, s := range sections {
		for i := range requirements {
			take(s, i)
		}
	}
	return out, nil
}
