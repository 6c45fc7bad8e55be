package gensvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

// TemplateEngine is the deterministic last-resort generator: seeded from the
// topic and level, it always returns the requested count, trading quality
// for availability. Its output still passes through the assembler's
// duplicate filters like any other candidate.
type TemplateEngine struct{}

func NewTemplateEngine() *TemplateEngine { return &TemplateEngine{} }

// aspects vary the generated text so successive calls for the same topic do
// not collide with each other in the similarity filter.
var aspects = []string{
	"core principles", "key processes", "underlying mechanisms",
	"practical applications", "common misconceptions", "limiting conditions",
	"historical development", "measurement techniques", "boundary cases",
	"real-world examples", "competing models", "typical failure modes",
}

type template struct {
	question string // fmt: topic, aspect
	answer   string // fmt: aspect, topic
	shape    taxonomy.Shape
}

var templatesByLevel = map[taxonomy.Level][]template{
	taxonomy.LevelRemember: {
		{"Define the %[2]s of %[1]s.", "The %[1]s of %[2]s are the defining properties taught in the standard treatment of the subject.", taxonomy.ShapeDefinition},
		{"State one fact about the %[2]s of %[1]s.", "A standard fact describes the %[1]s of %[2]s as presented in the reference material.", taxonomy.ShapeDefinition},
	},
	taxonomy.LevelUnderstand: {
		{"Explain the %[2]s of %[1]s in your own words.", "The %[1]s of %[2]s can be restated by connecting each mechanism to its observable effect.", taxonomy.ShapeExplanation},
		{"Summarize how the %[2]s of %[1]s relate to everyday experience.", "The %[1]s of %[2]s map onto familiar situations once each term is grounded in an example.", taxonomy.ShapeExplanation},
	},
	taxonomy.LevelApply: {
		{"Apply the %[2]s of %[1]s to a new situation of your choosing.", "Applying the %[1]s of %[2]s to a concrete case means first selecting the governing rule, then working the instance through it.", taxonomy.ShapeApplication},
		{"Outline the procedure for investigating the %[2]s of %[1]s.", "First identify the variables, then control all but one, next record observations, and finally compare outcomes.", taxonomy.ShapeProcedure},
	},
	taxonomy.LevelAnalyze: {
		{"Analyze how the %[2]s of %[1]s interact.", "Each part depends on the others: a change in one of the %[1]s of %[2]s causes a compensating shift elsewhere in the system.", taxonomy.ShapeAnalysis},
		{"Compare two of the %[2]s of %[1]s.", "One operates at a broader scale than the other, whereas both contribute to the behavior of %[2]s.", taxonomy.ShapeComparison},
	},
	taxonomy.LevelEvaluate: {
		{"Evaluate which of the %[2]s of %[1]s matters most, and defend your verdict.", "The strongest candidate is the first, because it constrains the others; on balance it is the better explanation for %[2]s.", taxonomy.ShapeEvaluation},
		{"Judge whether the %[2]s of %[1]s justify the standard model, giving reasons.", "They do, because each observation is better predicted by the standard model than by its rivals.", taxonomy.ShapeJustification},
	},
	taxonomy.LevelCreate: {
		{"Design an investigation of the %[2]s of %[1]s.", "A sound design pairs each of the %[1]s of %[2]s with a measurable proxy and a control condition.", taxonomy.ShapeDesign},
		{"Propose a model that accounts for the %[2]s of %[1]s.", "The proposed model links the %[1]s of %[2]s through a single governing relation plus stated assumptions.", taxonomy.ShapeDesign},
	},
}

// Generate returns exactly req.Count candidates, cycling through aspect and
// template combinations deterministically. Never errors.
func (t *TemplateEngine) Generate(_ context.Context, req Request) (Response, error) {
	lvl, _ := taxonomy.ParseLevel(req.Level)
	if lvl == "" {
		lvl = taxonomy.LevelUnderstand
	}
	tpls := templatesByLevel[lvl]

	resp := Response{Questions: make([]Candidate, 0, req.Count)}
	for i := 0; i < req.Count; i++ {
		aspect := aspects[i%len(aspects)]
		tpl := tpls[(i/len(aspects))%len(tpls)]
		c := Candidate{
			Text:   fmt.Sprintf(tpl.question, req.Topic, aspect),
			Answer: fmt.Sprintf(tpl.answer, aspect, req.Topic),
			Shape:  string(tpl.shape),
		}
		if req.ItemType == "mcq_single" {
			c.Choices = mcqChoices(c.Answer, req.Topic, i)
			c.Answer = c.Choices[0]
		}
		if req.ItemType == "true_false" {
			c.Text = fmt.Sprintf("True or false: the %s of %s are well characterized.", aspect, req.Topic)
			c.Answer = "true"
		}
		resp.Questions = append(resp.Questions, c)
	}
	return resp, nil
}

func mcqChoices(correct, topic string, seed int) []string {
	distractors := []string{
		fmt.Sprintf("An unrelated property of %s with no supporting evidence.", topic),
		fmt.Sprintf("A common misconception about %s contradicted by observation.", topic),
		fmt.Sprintf("A statement about %s that reverses cause and effect.", topic),
	}
	out := []string{strings.TrimSpace(correct)}
	for i := 0; i < 3; i++ {
		out = append(out, distractors[(seed+i)%len(distractors)])
	}
	return out[:4]
}
