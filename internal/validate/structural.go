// Package validate screens generated answer text against the structural
// contract of its declared answer shape. Verdicts are advisory: the caller
// decides whether to retry generation or accept anyway.
package validate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/examgen/internal/taxonomy"
)

// Verdict is the outcome of a structural check.
type Verdict struct {
	Reject bool   `json:"reject"`
	Reason string `json:"reason,omitempty"`
}

func accept() Verdict { return Verdict{} }

func reject(format string, args ...any) Verdict {
	return Verdict{Reject: true, Reason: fmt.Sprintf(format, args...)}
}

// listingConnectives enumerate rather than relate. Banned outright at the
// three highest levels (except for the definition shape, where enumeration
// is a legitimate definitional form).
var listingConnectives = []string{
	"include", "includes", "including", "such as", "consists of",
	"consist of", "are the following", "as follows",
}

// requiredMarkers are per-shape lexical cues the answer must carry.
var requiredMarkers = map[taxonomy.Shape][]string{
	taxonomy.ShapeComparison: {
		"than", "while", "whereas", "both", "compared", "differ", "differs",
		"similar", "unlike", "in contrast",
	},
	taxonomy.ShapeEvaluation: {
		"best", "better", "worse", "worst", "should", "superior", "inferior",
		"recommend", "most effective", "least effective", "preferable",
		"outweigh", "verdict", "judged",
	},
	taxonomy.ShapeJustification: {
		"because", "since", "therefore", "thus", "the reason", "so that",
		"justif",
	},
	taxonomy.ShapeProcedure: {
		"first", "then", "next", "step", "after", "finally", "begin",
	},
	taxonomy.ShapeAnalysis: {
		"because", "leads to", "causes", "caused", "relationship", "depends",
		"affects", "due to", "results in", "interact", "component", "relates",
	},
}

var shapeLabels = map[taxonomy.Shape]string{
	taxonomy.ShapeComparison:    "name two elements and how they relate",
	taxonomy.ShapeEvaluation:    "carry a judgment or verdict marker",
	taxonomy.ShapeJustification: "defend the position with an explicit reason",
	taxonomy.ShapeProcedure:     "order its steps with sequence language",
	taxonomy.ShapeAnalysis:      "state relationships between parts",
}

// higherLevels structurally require relational or evaluative language.
var higherLevels = map[taxonomy.Level]bool{
	taxonomy.LevelAnalyze:  true,
	taxonomy.LevelEvaluate: true,
	taxonomy.LevelCreate:   true,
}

type Validator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{log: log}
}

// Check applies the shape-specific marker rules and, at analyze/evaluate/
// create, the blanket ban on listing connectives.
func (v *Validator) Check(shape taxonomy.Shape, answerText string, level taxonomy.Level) Verdict {
	text := strings.ToLower(strings.TrimSpace(answerText))
	if text == "" {
		return reject("empty answer text")
	}

	if higherLevels[level] && shape != taxonomy.ShapeDefinition {
		for _, conn := range listingConnectives {
			if strings.Contains(text, conn) {
				verdict := reject("level %q forbids listing connective %q; relational or evaluative language required", level, conn)
				v.log.Debug("structural rejection", zap.String("shape", string(shape)), zap.String("reason", verdict.Reason))
				return verdict
			}
		}
	}

	markers, ok := requiredMarkers[shape]
	if !ok {
		return accept()
	}
	for _, m := range markers {
		if strings.Contains(text, m) {
			return accept()
		}
	}
	verdict := reject("%s answer must %s", shape, shapeLabels[shape])
	v.log.Debug("structural rejection", zap.String("shape", string(shape)), zap.String("reason", verdict.Reason))
	return verdict
}
