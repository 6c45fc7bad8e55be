package similarity

import "sort"

// Pair is two bank items scoring at or above FlagThreshold.
type Pair struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// BankAudit is the health report for a whole item collection.
type BankAudit struct {
	Scanned        int        `json:"scanned"`
	DuplicatePairs []Pair     `json:"duplicate_pairs,omitempty"`
	Clusters       [][]string `json:"clusters,omitempty"`
}

// AuditBank scores every pair of items, reporting pairs at or above
// FlagThreshold and union-find clusters of items linked at ClusterThreshold
// or above. Quadratic; meant for offline bank-health runs, not the hot path.
func (d *Detector) AuditBank(docs []Doc) BankAudit {
	audit := BankAudit{Scanned: len(docs)}
	parent := make([]int, len(docs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			s := d.Score(docs[i].Text, docs[j].Text)
			if s >= FlagThreshold {
				audit.DuplicatePairs = append(audit.DuplicatePairs, Pair{A: docs[i].ID, B: docs[j].ID, Score: s})
			}
			if s >= ClusterThreshold {
				union(i, j)
			}
		}
	}
	sort.Slice(audit.DuplicatePairs, func(i, j int) bool {
		return audit.DuplicatePairs[i].Score > audit.DuplicatePairs[j].Score
	})

	groups := map[int][]string{}
	for i := range docs {
		root := find(i)
		groups[root] = append(groups[root], docs[i].ID)
	}
	roots := make([]int, 0, len(groups))
	for root, members := range groups {
		if len(members) > 1 {
			roots = append(roots, root)
		}
	}
	sort.Ints(roots)
	for _, root := range roots {
		audit.Clusters = append(audit.Clusters, groups[root])
	}
	return audit
}
