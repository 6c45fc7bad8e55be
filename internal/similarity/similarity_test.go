package similarity

import (
	"math"
	"testing"
)

func TestScoreBounds(t *testing.T) {
	d := NewDetector()
	cases := []struct{ a, b string }{
		{"What is osmosis?", "What is osmosis?"},
		{"What is osmosis?", "Explain photosynthesis in plants."},
		{"", ""},
		{"short", ""},
	}
	for _, c := range cases {
		s := d.Score(c.a, c.b)
		if s < 0 || s > 1 {
			t.Errorf("Score(%q,%q) = %f out of [0,1]", c.a, c.b, s)
		}
	}
}

func TestScoreIdenticalAfterNormalization(t *testing.T) {
	d := NewDetector()
	s := d.Score("What is osmosis?", "what is OSMOSIS")
	if s < 0.999 {
		t.Fatalf("normalized-identical texts should score ~1, got %f", s)
	}
}

func TestScoreUnrelatedLow(t *testing.T) {
	d := NewDetector()
	s := d.Score(
		"Explain how the cell membrane regulates transport.",
		"Design an experiment to measure reaction rates in enzymes at varying temperatures.",
	)
	if s >= FlagThreshold {
		t.Fatalf("unrelated texts scored %f, above flag threshold", s)
	}
}

func TestScoreSymmetric(t *testing.T) {
	d := NewDetector()
	a := "Compare mitosis and meiosis."
	b := "Compare meiosis with mitosis in animal cells."
	if diff := math.Abs(d.Score(a, b) - d.Score(b, a)); diff > 1e-9 {
		t.Fatalf("score not symmetric, diff %g", diff)
	}
}

func TestCheckDuplicateAndFlagBands(t *testing.T) {
	d := NewDetector()
	existing := []Doc{
		{ID: "q1", Text: "What is the function of the cell membrane?"},
		{ID: "q2", Text: "Describe the stages of mitosis in detail."},
	}

	exact := d.Check("What is the function of the cell membrane?", existing)
	if !exact.IsDuplicate {
		t.Fatalf("verbatim copy not flagged as duplicate (confidence %f)", exact.Confidence)
	}
	if len(exact.Similar) == 0 || exact.Similar[0].ID != "q1" {
		t.Fatalf("expected q1 as best match, got %+v", exact.Similar)
	}

	fresh := d.Check("Evaluate whether prokaryotic cells are simpler than eukaryotic ones.", existing)
	if fresh.IsDuplicate || len(fresh.Similar) != 0 {
		t.Fatalf("unrelated candidate misflagged: %+v", fresh)
	}
	if fresh.Recommendation != "accept" {
		t.Fatalf("expected accept, got %q", fresh.Recommendation)
	}
}

func TestCheckCustomThreshold(t *testing.T) {
	d := NewDetector(WithThreshold(0.30))
	existing := []Doc{{ID: "q1", Text: "What is the function of the cell membrane?"}}
	res := d.Check("What is the role of the cell membrane in transport?", existing)
	if len(res.Similar) == 0 {
		t.Fatal("lowered threshold should surface the related item")
	}
	if res.IsDuplicate {
		t.Fatal("related-but-different item must not be a blocking duplicate")
	}
}

func TestAuditBankPairsAndClusters(t *testing.T) {
	d := NewDetector()
	docs := []Doc{
		{ID: "a", Text: "What is the function of the cell membrane?"},
		{ID: "b", Text: "What is the function of the cell membrane?"}, // verbatim dup of a
		{ID: "c", Text: "Design a food web for a freshwater pond ecosystem."},
	}
	audit := d.AuditBank(docs)
	if audit.Scanned != 3 {
		t.Fatalf("scanned = %d", audit.Scanned)
	}
	if len(audit.DuplicatePairs) != 1 || audit.DuplicatePairs[0].A != "a" || audit.DuplicatePairs[0].B != "b" {
		t.Fatalf("unexpected duplicate pairs: %+v", audit.DuplicatePairs)
	}
	if len(audit.Clusters) != 1 || len(audit.Clusters[0]) != 2 {
		t.Fatalf("unexpected clusters: %+v", audit.Clusters)
	}
}

func TestAnalyzeDiversity(t *testing.T) {
	uniform := make([]Profile, 0, 12)
	for _, topic := range []string{"Cells", "Genetics", "Ecology"} {
		for _, lvl := range []string{"remember", "apply", "analyze", "evaluate"} {
			uniform = append(uniform, Profile{Topic: topic, Level: lvl})
		}
	}
	d := AnalyzeDiversity(uniform)
	if d.Score <= 0.9 {
		t.Fatalf("uniform distribution should score high, got %f", d.Score)
	}

	skewed := make([]Profile, 20)
	for i := range skewed {
		skewed[i] = Profile{Topic: "Cells", Level: "remember"}
	}
	s := AnalyzeDiversity(skewed)
	if s.Score != 0 {
		t.Fatalf("single-category bank should score 0, got %f", s.Score)
	}
	if len(s.Recommendations) == 0 {
		t.Fatal("skewed bank must produce recommendations")
	}

	empty := AnalyzeDiversity(nil)
	if empty.Score != 0 || len(empty.Recommendations) == 0 {
		t.Fatalf("empty bank: %+v", empty)
	}
}
