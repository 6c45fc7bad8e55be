package assemble

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/examgen/internal/audit"
	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/dedup"
	"github.com/mind-engage/examgen/internal/gensvc"
	"github.com/mind-engage/examgen/internal/similarity"
	"github.com/mind-engage/examgen/internal/taxonomy"
	"github.com/mind-engage/examgen/internal/validate"
)

// Assembler orchestrates one assembly run: distribute quotas, drain the
// bank, generate for shortfalls, dedupe globally, verify totals. Each run
// gets fresh registry and fingerprint state; an Assembler value is therefore
// single-session and must not be shared across concurrent runs.
type Assembler struct {
	bank      bank.Store
	gen       gensvc.Service
	fallback  gensvc.Service
	resolver  *taxonomy.Resolver
	validator *validate.Validator
	detector  *similarity.Detector
	extractor dedup.ConceptExtractor
	recorder  audit.Recorder
	log       *zap.Logger

	retryRounds int
}

type Option func(*Assembler)

// WithGenerator sets the remote generation service. Without one, shortfalls
// go straight to the template fallback.
func WithGenerator(g gensvc.Service) Option { return func(a *Assembler) { a.gen = g } }

// WithFallback overrides the template fallback engine. Nil keeps the default:
// the fallback must always be callable.
func WithFallback(g gensvc.Service) Option {
	return func(a *Assembler) {
		if g != nil {
			a.fallback = g
		}
	}
}

func WithRecorder(r audit.Recorder) Option {
	return func(a *Assembler) {
		if r != nil {
			a.recorder = r
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.log = log
		}
	}
}

// WithRetryRounds bounds generation retries per requirement (default 2).
func WithRetryRounds(n int) Option {
	return func(a *Assembler) {
		if n >= 0 {
			a.retryRounds = n
		}
	}
}

func WithConceptExtractor(e dedup.ConceptExtractor) Option {
	return func(a *Assembler) { a.extractor = e }
}

func WithDetector(d *similarity.Detector) Option { return func(a *Assembler) { a.detector = d } }

func New(store bank.Store, opts ...Option) *Assembler {
	a := &Assembler{
		bank:        store,
		fallback:    gensvc.NewTemplateEngine(),
		recorder:    audit.Nop{},
		log:         zap.NewNop(),
		retryRounds: 2,
	}
	for _, o := range opts {
		o(a)
	}
	if a.resolver == nil {
		a.resolver = taxonomy.NewResolver(a.log)
	}
	if a.validator == nil {
		a.validator = validate.New(a.log)
	}
	if a.detector == nil {
		a.detector = similarity.NewDetector(similarity.WithLogger(a.log))
	}
	if a.extractor == nil {
		a.extractor = dedup.NewPatternExtractor()
	}
	return a
}

// run carries the per-session mutable state of one assembly.
type run struct {
	id       string
	registry *dedup.Registry
	prints   *dedup.FingerprintStore
	accepted []bank.Item    // across all sections; global dedup scope
	created  []int          // indexes into accepted that need bank insertion
	fromBank []string       // bank item IDs to mark used
	counts   map[reqCell]int // accepted items per requirement cell
}

// reqCell keys quota bookkeeping by the requirement that an item was
// accepted for, not by the item's own metadata: substring-tolerant topic
// matching means the two may differ legitimately.
type reqCell struct{ topic, level, difficulty string }

func (a *Assembler) cellOf(req Requirement) reqCell {
	return reqCell{norm(req.Topic), normLevel(a.resolver, req.CognitiveLevel), req.Difficulty}
}

// Assemble executes the full state machine and returns a complete assembly
// or a fatal error; it never returns a partial result.
func (a *Assembler) Assemble(ctx context.Context, spec Spec) (*Assembly, error) {
	plan, err := Distribute(spec.Requirements, spec.Sections)
	if err != nil {
		return nil, err
	}

	r := &run{
		id:       uuid.NewString(),
		registry: dedup.NewRegistry(a.resolver, a.log),
		prints:   dedup.NewFingerprintStore(a.extractor),
		counts:   map[reqCell]int{},
	}
	a.record(ctx, r, audit.TypeRunStarted, spec.Title, map[string]any{
		"sections": len(spec.Sections), "requirements": len(spec.Requirements),
	})

	sections := make([]SectionResult, 0, len(spec.Sections))
	for _, sec := range spec.Sections {
		items, err := a.fillSection(ctx, r, sec, plan[sec.ID])
		if err != nil {
			a.record(ctx, r, audit.TypeRunFailed, sec.ID, map[string]any{"error": err.Error()})
			return nil, err
		}
		sections = append(sections, SectionResult{Section: sec, Items: items})
	}

	if err := a.verifyTotals(r, spec, sections); err != nil {
		a.record(ctx, r, audit.TypeRunFailed, spec.Title, map[string]any{"error": err.Error()})
		return nil, err
	}
	if err := a.persist(ctx, r, sections); err != nil {
		a.record(ctx, r, audit.TypeRunFailed, spec.Title, map[string]any{"error": err.Error()})
		return nil, err
	}

	asm := buildAssembly(spec, sections)
	a.record(ctx, r, audit.TypeRunCompleted, spec.Title, map[string]any{
		"total_items": asm.TotalItems, "total_points": asm.TotalPoints,
	})
	return asm, nil
}

// fillSection satisfies every allocation of one section:
// FETCH_BANK -> FILTER_DUPLICATES -> [SHORTFALL -> GENERATE -> VALIDATE ->
// FILTER -> RETRY<=N -> TEMPLATE] per allocation.
func (a *Assembler) fillSection(ctx context.Context, r *run, sec Section, allocs []Allocation) ([]bank.Item, error) {
	items := make([]bank.Item, 0, sec.ItemCount())
	for _, alloc := range allocs {
		got, err := a.fillAllocation(ctx, r, sec, alloc)
		if err != nil {
			return nil, err
		}
		items = append(items, got...)
	}
	return items, nil
}

func (a *Assembler) fillAllocation(ctx context.Context, r *run, sec Section, alloc Allocation) ([]bank.Item, error) {
	req := alloc.Requirement
	accepted := make([]bank.Item, 0, alloc.Count)

	// FETCH_BANK: least-used approved items first; over-fetch so the
	// duplicate filter has room to discard. Persisted items carry the
	// canonical level spelling, so the query must too or a requirement
	// written with an alias ("Remembering") never sees them.
	lvl, _ := a.resolver.Normalize(req.CognitiveLevel, req.KnowledgeDimension)
	fetched, err := a.bank.List(ctx, bank.Filter{
		Topic:      req.Topic,
		Level:      string(lvl),
		Difficulty: req.Difficulty,
		Limit:      alloc.Count * 3,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBankUnavailable, err)
	}
	for _, it := range fetched {
		if len(accepted) == alloc.Count {
			break
		}
		if a.acceptBankItem(ctx, r, req, it) {
			accepted = append(accepted, it)
		}
	}

	// SHORTFALL -> GENERATE with bounded retries.
	for round := 0; round < a.retryRounds && len(accepted) < alloc.Count && a.gen != nil; round++ {
		missing := alloc.Count - len(accepted)
		got, err := a.generateRound(ctx, r, sec, req, missing)
		if err != nil {
			a.log.Warn("generation round failed, degrading to template fallback",
				zap.String("topic", req.Topic), zap.Int("round", round), zap.Error(err))
			a.record(ctx, r, audit.TypeFallback, req.Topic, map[string]any{"reason": err.Error()})
			break
		}
		accepted = append(accepted, got...)
	}

	// TEMPLATE fallback: deterministic availability, still dedup-filtered.
	if len(accepted) < alloc.Count {
		missing := alloc.Count - len(accepted)
		a.record(ctx, r, audit.TypeFallback, req.Topic, map[string]any{"missing": missing})
		got, err := a.templateRound(ctx, r, sec, req, missing)
		if err != nil {
			return nil, err
		}
		accepted = append(accepted, got...)
	}

	if len(accepted) < alloc.Count {
		return nil, &ShortfallError{
			SectionID:   sec.ID,
			Requirement: req,
			Requested:   alloc.Count,
			Got:         len(accepted),
		}
	}
	r.counts[a.cellOf(req)] += len(accepted)
	return accepted, nil
}

// generateRound requests exactly the missing count from the remote service,
// pinned to registry-allocated intents, and screens every candidate.
func (a *Assembler) generateRound(ctx context.Context, r *run, sec Section, req Requirement, missing int) ([]bank.Item, error) {
	lvl, dim := a.resolver.Normalize(req.CognitiveLevel, req.KnowledgeDimension)
	intents := r.registry.SelectIntents(req.Topic, lvl, dim, missing)
	snap := r.registry.ToSnapshot()

	resp, err := a.gen.Generate(ctx, gensvc.Request{
		Topic:      req.Topic,
		Level:      string(lvl),
		Dimension:  string(dim),
		Difficulty: req.Difficulty,
		Count:      missing,
		ItemType:   sec.ItemType,
		Intents:    intents,
		Snapshot:   &snap,
	})
	if err != nil {
		return nil, err
	}
	if resp.Snapshot != nil {
		r.registry.MergeSnapshot(*resp.Snapshot)
	}

	out := make([]bank.Item, 0, missing)
	for i, cand := range resp.Questions {
		if len(out) == missing {
			break
		}
		var in *dedup.Intent
		if i < len(intents) {
			in = &intents[i]
		}
		it, ok := a.screenCandidate(ctx, r, sec, req, cand, in)
		if !ok {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// templateRound drains the deterministic generator, requesting extra
// candidates so the duplicate filter has headroom.
func (a *Assembler) templateRound(ctx context.Context, r *run, sec Section, req Requirement, missing int) ([]bank.Item, error) {
	resp, err := a.fallback.Generate(ctx, gensvc.Request{
		Topic:      req.Topic,
		Level:      req.CognitiveLevel,
		Difficulty: req.Difficulty,
		Count:      missing * 3,
		ItemType:   sec.ItemType,
	})
	if err != nil {
		return nil, fmt.Errorf("template fallback: %w", err)
	}
	out := make([]bank.Item, 0, missing)
	for _, cand := range resp.Questions {
		if len(out) == missing {
			break
		}
		it, ok := a.screenCandidate(ctx, r, sec, req, cand, nil)
		if !ok {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// screenCandidate runs a generated candidate through the structural
// validator, the fingerprint store and the redundancy detector. Accepted
// candidates join the run and are queued for bank insertion.
func (a *Assembler) screenCandidate(ctx context.Context, r *run, sec Section, req Requirement, cand gensvc.Candidate, in *dedup.Intent) (bank.Item, bool) {
	lvl, dim := a.resolver.Normalize(req.CognitiveLevel, req.KnowledgeDimension)

	shape := taxonomy.ShapeExplanation
	if in != nil {
		shape = in.Shape
	} else if s, ok := taxonomy.ParseShape(cand.Shape); ok {
		shape = s
	}

	if v := a.validator.Check(shape, cand.Answer, lvl); v.Reject {
		a.reject(ctx, r, req, cand.Text, "structural: "+v.Reason)
		return bank.Item{}, false
	}

	fp := r.prints.FromText(req.Topic, cand.Text, shape, lvl, dim)
	if res := r.prints.IsUnique(fp); !res.Unique {
		a.reject(ctx, r, req, cand.Text, "fingerprint: "+res.Reason)
		return bank.Item{}, false
	}
	if red := a.detector.Check(cand.Text, acceptedDocs(r)); red.IsDuplicate || len(red.Similar) > 0 {
		a.reject(ctx, r, req, cand.Text, "similarity: "+red.Recommendation)
		return bank.Item{}, false
	}

	it := bank.Item{
		Text:               cand.Text,
		Type:               sec.ItemType,
		Choices:            cand.Choices,
		CorrectAnswer:      cand.Answer,
		Topic:              req.Topic,
		CognitiveLevel:     string(lvl),
		Difficulty:         req.Difficulty,
		KnowledgeDimension: string(dim),
		AnswerShape:        string(shape),
		UsageCount:         1,
		Approved:           true,
	}
	r.prints.Register(fp)
	if in != nil {
		r.registry.MarkUsed(*in)
	}
	r.accepted = append(r.accepted, it)
	r.created = append(r.created, len(r.accepted)-1)
	return it, true
}

// acceptBankItem screens a bank item against the run's duplicate state.
// Deduplication is global across every section of the run.
func (a *Assembler) acceptBankItem(ctx context.Context, r *run, req Requirement, it bank.Item) bool {
	lvl, dim := a.resolver.Normalize(it.CognitiveLevel, it.KnowledgeDimension)
	shape := taxonomy.ShapeExplanation
	if s, ok := taxonomy.ParseShape(it.AnswerShape); ok {
		shape = s
	}

	fp := r.prints.FromText(it.Topic, it.Text, shape, lvl, dim)
	if res := r.prints.IsUnique(fp); !res.Unique {
		a.reject(ctx, r, req, it.Text, "fingerprint: "+res.Reason)
		return false
	}
	if red := a.detector.Check(it.Text, acceptedDocs(r)); red.IsDuplicate || len(red.Similar) > 0 {
		a.reject(ctx, r, req, it.Text, "similarity: "+red.Recommendation)
		return false
	}

	r.prints.Register(fp)
	r.accepted = append(r.accepted, it)
	r.fromBank = append(r.fromBank, it.ID)
	return true
}

// verifyTotals confirms the accepted count per requirement cell equals the
// requested count and the grand total matches. Any mismatch aborts the run;
// a partially-correct assembly is never returned.
func (a *Assembler) verifyTotals(r *run, spec Spec, sections []SectionResult) error {
	want := map[reqCell]int{}
	expected := 0
	for _, req := range spec.Requirements {
		want[a.cellOf(req)] += req.Count
		expected += req.Count
	}
	actual := 0
	for _, sr := range sections {
		actual += len(sr.Items)
	}

	var mismatches []QuotaMismatch
	for _, req := range spec.Requirements {
		c := a.cellOf(req)
		if r.counts[c] != want[c] {
			mismatches = append(mismatches, QuotaMismatch{Requirement: req, Expected: want[c], Actual: r.counts[c]})
		}
	}
	if actual != expected || len(mismatches) > 0 {
		return &QuotaError{ExpectedTotal: expected, ActualTotal: actual, Mismatches: mismatches}
	}
	return nil
}

// persist inserts generated items into the bank and increments usage on the
// bank items selected. Insert failure is fatal (no fallback for the
// authoritative store); MarkUsed is fire-and-forget.
func (a *Assembler) persist(ctx context.Context, r *run, sections []SectionResult) error {
	if len(r.created) > 0 {
		created := make([]bank.Item, 0, len(r.created))
		for _, idx := range r.created {
			created = append(created, r.accepted[idx])
		}
		inserted, err := a.bank.Insert(ctx, created)
		if err != nil {
			return fmt.Errorf("%w: persisting generated items: %v", ErrBankUnavailable, err)
		}
		// Propagate echoed IDs into the assembled sections.
		byText := map[string]string{}
		for _, it := range inserted {
			byText[it.Text] = it.ID
		}
		for si := range sections {
			for ii := range sections[si].Items {
				if sections[si].Items[ii].ID == "" {
					sections[si].Items[ii].ID = byText[sections[si].Items[ii].Text]
				}
			}
		}
	}
	for _, id := range r.fromBank {
		if err := a.bank.MarkUsed(ctx, id); err != nil {
			a.log.Warn("mark used failed", zap.String("item_id", id), zap.Error(err))
		}
	}
	return nil
}

func buildAssembly(spec Spec, sections []SectionResult) *Assembly {
	asm := &Assembly{Title: spec.Title, Sections: sections}
	for _, sr := range sections {
		sec := sr.Section
		asm.Items = append(asm.Items, sr.Items...)
		asm.TotalItems += len(sr.Items)

		slots := sec.EndNumber - sec.StartNumber + 1
		if sec.ItemType == bank.TypeEssay && sec.EssayGroupCount > 0 && sec.EssayGroupCount < slots {
			// Grouped essays: divide the numbered span evenly, remainder
			// absorbed by the final essay.
			span := slots / sec.EssayGroupCount
			num := sec.StartNumber
			for i, it := range sr.Items {
				end := num + span - 1
				if i == len(sr.Items)-1 {
					end = sec.EndNumber
				}
				asm.AnswerKey = append(asm.AnswerKey, KeyEntry{
					Number:    num,
					NumberEnd: end,
					Answer:    it.CorrectAnswer,
					Points:    sec.PointsPerItem * float64(end-num+1),
				})
				asm.TotalPoints += sec.PointsPerItem * float64(end-num+1)
				num = end + 1
			}
			continue
		}

		for i, it := range sr.Items {
			asm.AnswerKey = append(asm.AnswerKey, KeyEntry{
				Number: sec.StartNumber + i,
				Answer: it.CorrectAnswer,
				Points: sec.PointsPerItem,
			})
			asm.TotalPoints += sec.PointsPerItem
		}
	}
	return asm
}

func (a *Assembler) reject(ctx context.Context, r *run, req Requirement, text, reason string) {
	a.log.Info("candidate rejected",
		zap.String("topic", req.Topic),
		zap.String("reason", reason))
	a.record(ctx, r, audit.TypeCandidateReject, req.Topic, map[string]any{
		"text": text, "reason": reason,
	})
}

func (a *Assembler) record(ctx context.Context, r *run, typ, key string, data map[string]any) {
	if err := a.recorder.Record(ctx, audit.Event{
		RunID:    r.id,
		Type:     typ,
		Key:      key,
		DataJSON: audit.Payload(data),
	}); err != nil {
		a.log.Warn("audit record failed", zap.Error(err))
	}
}

func acceptedDocs(r *run) []similarity.Doc {
	docs := make([]similarity.Doc, len(r.accepted))
	for i, it := range r.accepted {
		docs[i] = similarity.Doc{ID: it.ID, Text: it.Text}
	}
	return docs
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normLevel(res *taxonomy.Resolver, s string) string {
	lvl, _ := res.Normalize(s, "")
	return string(lvl)
}
