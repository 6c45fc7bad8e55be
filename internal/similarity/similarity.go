// Package similarity is the coarse, structure-agnostic duplicate backstop:
// a pairwise text scorer used for single-candidate checks during assembly
// and for whole-bank audits. It is independent of the structural
// fingerprints in dedup; an item can pass one filter and fail the other.
package similarity

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Blend weights and thresholds are fixed by design; changing them silently
// shifts every documented cutoff.
const (
	weightLevenshtein = 0.30
	weightToken       = 0.40
	weightTrigram     = 0.30

	// DuplicateThreshold marks a candidate as a blocking duplicate.
	DuplicateThreshold = 0.95
	// FlagThreshold marks a candidate for review without blocking.
	FlagThreshold = 0.85
	// ClusterThreshold groups related items in bank audits.
	ClusterThreshold = 0.75
)

// Doc is the minimal view of an item the scorer needs.
type Doc struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Match is one existing item found similar to a candidate.
type Match struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Redundancy is the outcome of checking one candidate against a set.
type Redundancy struct {
	IsDuplicate    bool    `json:"is_duplicate"`
	Similar        []Match `json:"similar_questions,omitempty"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

// Detector scores raw question text pairwise. Stateless; safe to share.
type Detector struct {
	threshold float64
	log       *zap.Logger
}

type Option func(*Detector)

// WithThreshold overrides the review threshold (default FlagThreshold).
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Detector) { d.log = log }
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{threshold: FlagThreshold, log: zap.NewNop()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Score blends normalized Levenshtein (30%), token Jaccard (40%) and
// character-trigram Jaccard (30%) over casefolded, punctuation-stripped text.
// Result is in [0,1]; 1 means the normalized texts are indistinguishable.
func (d *Detector) Score(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	lev := 1 - float64(levenshtein(na, nb))/float64(maxInt(len([]rune(na)), len([]rune(nb))))
	tok := jaccard(tokenSet(na), tokenSet(nb))
	tri := jaccard(trigramSet(na), trigramSet(nb))
	return weightLevenshtein*lev + weightToken*tok + weightTrigram*tri
}

// Check scores a candidate against existing items. IsDuplicate requires a
// score at or above DuplicateThreshold; scores between the detector's
// threshold and DuplicateThreshold are flagged but not blocking.
func (d *Detector) Check(candidate string, existing []Doc) Redundancy {
	out := Redundancy{Recommendation: "accept"}
	best := 0.0
	for _, doc := range existing {
		s := d.Score(candidate, doc.Text)
		if s > best {
			best = s
		}
		if s >= d.threshold {
			out.Similar = append(out.Similar, Match{ID: doc.ID, Text: doc.Text, Score: s})
		}
	}
	sort.Slice(out.Similar, func(i, j int) bool { return out.Similar[i].Score > out.Similar[j].Score })
	out.Confidence = best
	switch {
	case best >= DuplicateThreshold:
		out.IsDuplicate = true
		out.Recommendation = "reject: near-verbatim duplicate of an existing item"
	case best >= d.threshold:
		out.Recommendation = fmt.Sprintf("review: similarity %.2f against %d existing item(s)", best, len(out.Similar))
	}
	if out.IsDuplicate {
		d.log.Debug("duplicate candidate", zap.Float64("score", best))
	}
	return out
}

// --- text primitives ---

// normalize casefolds and strips punctuation, collapsing whitespace.
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
			// skip
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// levenshtein computes edit distance with a single rolling row.
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min3(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func trigramSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	runes := []rune(s)
	if len(runes) < 3 {
		if len(runes) > 0 {
			set[string(runes)] = struct{}{}
		}
		return set
	}
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
