package dedup

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

// Intent is the allocated tuple an item must satisfy before its text is
// written. Two intents are the same iff all four fields match.
type Intent struct {
	Topic     string             `json:"topic"`
	Level     taxonomy.Level     `json:"cognitive_level"`
	Dimension taxonomy.Dimension `json:"knowledge_dimension"`
	Shape     taxonomy.Shape     `json:"answer_shape"`
}

func (i Intent) key() string {
	return strings.Join([]string{norm(i.Topic), string(i.Level), string(i.Dimension), string(i.Shape)}, "|")
}

// ConceptOperation pairs WHAT an item probes with HOW it probes it.
type ConceptOperation struct {
	Concept   string `json:"concept"`
	Operation string `json:"operation"`
}

// Registry allocates non-repeating intents and concept/operation pairs for
// one generation session. It is an explicit session object: callers pass it
// through every allocation call, and concurrent sessions use independent
// instances. Single-writer, no lock.
type Registry struct {
	resolver *taxonomy.Resolver
	log      *zap.Logger

	usedIntents  map[string]struct{}
	usedConcepts map[string]map[string]struct{} // topic -> concepts
	usedOps      map[string]map[string]struct{} // topic|level -> operations
	usedPairs    map[string]struct{}            // topic|concept|operation
}

func NewRegistry(resolver *taxonomy.Resolver, log *zap.Logger) *Registry {
	if resolver == nil {
		resolver = taxonomy.NewResolver(log)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		resolver:     resolver,
		log:          log,
		usedIntents:  map[string]struct{}{},
		usedConcepts: map[string]map[string]struct{}{},
		usedOps:      map[string]map[string]struct{}{},
		usedPairs:    map[string]struct{}{},
	}
}

// AvailableShapes is the compatibility set minus shapes already allocated
// for this exact topic/level/dimension tuple.
func (r *Registry) AvailableShapes(topic string, level taxonomy.Level, dim taxonomy.Dimension) []taxonomy.Shape {
	out := make([]taxonomy.Shape, 0, 4)
	for _, shape := range r.resolver.AllowedShapes(level, dim) {
		in := Intent{Topic: topic, Level: level, Dimension: dim, Shape: shape}
		if _, used := r.usedIntents[in.key()]; !used {
			out = append(out, shape)
		}
	}
	return out
}

// SelectNextIntent returns the first available intent for the tuple, in the
// compatibility table's order (deterministic; tests assert sequences). Nil
// means the combination is exhausted: callers reduce batch size rather than
// treating this as fatal. The pick is not committed until MarkUsed.
func (r *Registry) SelectNextIntent(topic string, level taxonomy.Level, dim taxonomy.Dimension) *Intent {
	shapes := r.AvailableShapes(topic, level, dim)
	if len(shapes) == 0 {
		return nil
	}
	return &Intent{Topic: topic, Level: level, Dimension: dim, Shape: shapes[0]}
}

// SelectIntents picks up to count distinct intents atomically against a
// scratch copy of the registry, leaving the real registry untouched until
// the caller commits accepted intents with MarkUsed. Returns fewer than
// count when the combination runs out.
func (r *Registry) SelectIntents(topic string, level taxonomy.Level, dim taxonomy.Dimension, count int) []Intent {
	scratch := r.clone()
	out := make([]Intent, 0, count)
	for len(out) < count {
		in := scratch.SelectNextIntent(topic, level, dim)
		if in == nil {
			break
		}
		scratch.MarkUsed(*in)
		out = append(out, *in)
	}
	return out
}

// SelectConceptOperation allocates the first unused concept from the pool
// paired with the first operation allowed at the level that keeps the
// (concept, operation) pair unused. Once every concept has been touched,
// concepts may repeat under a fresh operation; pair uniqueness always holds.
// Nil when the pool and operation list are exhausted. The allocation is
// committed immediately.
func (r *Registry) SelectConceptOperation(topic string, level taxonomy.Level, concepts []string) *ConceptOperation {
	ops := r.resolver.Operations(level)
	opsKey := norm(topic) + "|" + string(level)

	pick := func(concept string) *ConceptOperation {
		for _, op := range ops {
			if _, opUsed := r.usedOps[opsKey][op]; opUsed {
				continue
			}
			pairKey := norm(topic) + "|" + norm(concept) + "|" + op
			if _, pairUsed := r.usedPairs[pairKey]; pairUsed {
				continue
			}
			r.commitConceptOperation(topic, level, concept, op)
			return &ConceptOperation{Concept: concept, Operation: op}
		}
		return nil
	}

	// Pass 1: concepts never used under this topic.
	for _, c := range concepts {
		if _, used := r.usedConcepts[norm(topic)][norm(c)]; used {
			continue
		}
		if co := pick(c); co != nil {
			return co
		}
	}
	// Pass 2: reuse a concept with a fresh operation.
	for _, c := range concepts {
		if co := pick(c); co != nil {
			return co
		}
	}
	return nil
}

func (r *Registry) commitConceptOperation(topic string, level taxonomy.Level, concept, op string) {
	t := norm(topic)
	if r.usedConcepts[t] == nil {
		r.usedConcepts[t] = map[string]struct{}{}
	}
	r.usedConcepts[t][norm(concept)] = struct{}{}
	opsKey := t + "|" + string(level)
	if r.usedOps[opsKey] == nil {
		r.usedOps[opsKey] = map[string]struct{}{}
	}
	r.usedOps[opsKey][op] = struct{}{}
	r.usedPairs[t+"|"+norm(concept)+"|"+op] = struct{}{}
}

// MarkUsed commits an intent. After MarkUsed, IsUsed holds for the
// registry's lifetime; Clear is the only reset.
func (r *Registry) MarkUsed(in Intent) {
	r.usedIntents[in.key()] = struct{}{}
}

func (r *Registry) IsUsed(in Intent) bool {
	_, used := r.usedIntents[in.key()]
	return used
}

// Clear resets every tracked collection.
func (r *Registry) Clear() {
	r.usedIntents = map[string]struct{}{}
	r.usedConcepts = map[string]map[string]struct{}{}
	r.usedOps = map[string]map[string]struct{}{}
	r.usedPairs = map[string]struct{}{}
}

func (r *Registry) clone() *Registry {
	c := NewRegistry(r.resolver, r.log)
	for k := range r.usedIntents {
		c.usedIntents[k] = struct{}{}
	}
	for t, set := range r.usedConcepts {
		c.usedConcepts[t] = map[string]struct{}{}
		for k := range set {
			c.usedConcepts[t][k] = struct{}{}
		}
	}
	for t, set := range r.usedOps {
		c.usedOps[t] = map[string]struct{}{}
		for k := range set {
			c.usedOps[t][k] = struct{}{}
		}
	}
	for k := range r.usedPairs {
		c.usedPairs[k] = struct{}{}
	}
	return c
}

// Snapshot is the serializable projection of a registry's internal sets, so
// allocation state can cross a process boundary and be merged back. Owned by
// the calling session. Slices are sorted: equal states marshal identically.
type Snapshot struct {
	UsedIntents    []string            `json:"used_intents"`
	UsedConcepts   map[string][]string `json:"used_concepts"`
	UsedOperations map[string][]string `json:"used_operations"`
	UsedPairs      []string            `json:"used_pairs"`
}

func (r *Registry) ToSnapshot() Snapshot {
	return Snapshot{
		UsedIntents:    sortedKeys(r.usedIntents),
		UsedConcepts:   sortedSets(r.usedConcepts),
		UsedOperations: sortedSets(r.usedOps),
		UsedPairs:      sortedKeys(r.usedPairs),
	}
}

// FromSnapshot restores a registry from a snapshot.
func FromSnapshot(s Snapshot, resolver *taxonomy.Resolver, log *zap.Logger) *Registry {
	r := NewRegistry(resolver, log)
	r.MergeSnapshot(s)
	return r
}

// MergeSnapshot unions snapshot state into the registry. Commutative and
// idempotent: merging the same snapshot twice is a no-op.
func (r *Registry) MergeSnapshot(s Snapshot) {
	for _, k := range s.UsedIntents {
		r.usedIntents[k] = struct{}{}
	}
	for t, list := range s.UsedConcepts {
		if r.usedConcepts[t] == nil {
			r.usedConcepts[t] = map[string]struct{}{}
		}
		for _, c := range list {
			r.usedConcepts[t][c] = struct{}{}
		}
	}
	for k, list := range s.UsedOperations {
		if r.usedOps[k] == nil {
			r.usedOps[k] = map[string]struct{}{}
		}
		for _, op := range list {
			r.usedOps[k][op] = struct{}{}
		}
	}
	for _, k := range s.UsedPairs {
		r.usedPairs[k] = struct{}{}
	}
}

// Merge returns the set-union of two snapshots.
func (s Snapshot) Merge(o Snapshot) Snapshot {
	return Snapshot{
		UsedIntents:    unionSorted(s.UsedIntents, o.UsedIntents),
		UsedConcepts:   unionSets(s.UsedConcepts, o.UsedConcepts),
		UsedOperations: unionSets(s.UsedOperations, o.UsedOperations),
		UsedPairs:      unionSorted(s.UsedPairs, o.UsedPairs),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSets(m map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, set := range m {
		out[k] = sortedKeys(set)
	}
	return out
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}

func unionSets(a, b map[string][]string) map[string][]string {
	out := make(map[string][]string, len(a)+len(b))
	for k, list := range a {
		out[k] = unionSorted(list, nil)
	}
	for k, list := range b {
		out[k] = unionSorted(out[k], list)
	}
	return out
}
