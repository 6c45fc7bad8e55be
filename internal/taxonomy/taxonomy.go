package taxonomy

import "strings"

// Level is a position in the six-level cognitive process taxonomy.
type Level string

const (
	LevelRemember   Level = "remember"
	LevelUnderstand Level = "understand"
	LevelApply      Level = "apply"
	LevelAnalyze    Level = "analyze"
	LevelEvaluate   Level = "evaluate"
	LevelCreate     Level = "create"
)

// Dimension classifies what kind of knowledge an item probes.
type Dimension string

const (
	DimFactual       Dimension = "factual"
	DimConceptual    Dimension = "conceptual"
	DimProcedural    Dimension = "procedural"
	DimMetacognitive Dimension = "metacognitive"
)

// Shape is the structural form a correct answer must take.
type Shape string

const (
	ShapeDefinition    Shape = "definition"
	ShapeExplanation   Shape = "explanation"
	ShapeComparison    Shape = "comparison"
	ShapeProcedure     Shape = "procedure"
	ShapeApplication   Shape = "application"
	ShapeEvaluation    Shape = "evaluation"
	ShapeJustification Shape = "justification"
	ShapeAnalysis      Shape = "analysis"
	ShapeDesign        Shape = "design"
	ShapeConstruction  Shape = "construction"
)

// Levels in ascending cognitive order.
func Levels() []Level {
	return []Level{LevelRemember, LevelUnderstand, LevelApply, LevelAnalyze, LevelEvaluate, LevelCreate}
}

func Dimensions() []Dimension {
	return []Dimension{DimFactual, DimConceptual, DimProcedural, DimMetacognitive}
}

func Shapes() []Shape {
	return []Shape{
		ShapeDefinition, ShapeExplanation, ShapeComparison, ShapeProcedure,
		ShapeApplication, ShapeEvaluation, ShapeJustification, ShapeAnalysis,
		ShapeDesign, ShapeConstruction,
	}
}

var levelAliases = map[string]Level{
	"remember":      LevelRemember,
	"remembering":   LevelRemember,
	"knowledge":     LevelRemember,
	"understand":    LevelUnderstand,
	"understanding": LevelUnderstand,
	"comprehension": LevelUnderstand,
	"apply":         LevelApply,
	"applying":      LevelApply,
	"application":   LevelApply,
	"analyze":       LevelAnalyze,
	"analyzing":     LevelAnalyze,
	"analysis":      LevelAnalyze,
	"evaluate":      LevelEvaluate,
	"evaluating":    LevelEvaluate,
	"evaluation":    LevelEvaluate,
	"create":        LevelCreate,
	"creating":      LevelCreate,
	"synthesis":     LevelCreate,
}

var dimensionAliases = map[string]Dimension{
	"factual":        DimFactual,
	"conceptual":     DimConceptual,
	"procedural":     DimProcedural,
	"metacognitive":  DimMetacognitive,
	"meta-cognitive": DimMetacognitive,
}

// ParseLevel accepts the canonical spelling plus the gerund/noun variants that
// appear in imported banks ("Analyzing", "Analysis"). Case-insensitive.
func ParseLevel(s string) (Level, bool) {
	l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

func ParseDimension(s string) (Dimension, bool) {
	d, ok := dimensionAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

func ParseShape(s string) (Shape, bool) {
	v := Shape(strings.ToLower(strings.TrimSpace(s)))
	for _, sh := range Shapes() {
		if sh == v {
			return sh, true
		}
	}
	return "", false
}
