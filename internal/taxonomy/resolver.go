package taxonomy

import "go.uber.org/zap"

// compat is the full level x dimension -> answer-shape table. Every cell is
// populated; order within a cell is the allocation order.
var compat = map[Level]map[Dimension][]Shape{
	LevelRemember: {
		DimFactual:       {ShapeDefinition},
		DimConceptual:    {ShapeDefinition, ShapeExplanation},
		DimProcedural:    {ShapeProcedure},
		DimMetacognitive: {ShapeExplanation},
	},
	LevelUnderstand: {
		DimFactual:       {ShapeExplanation, ShapeDefinition},
		DimConceptual:    {ShapeExplanation, ShapeComparison},
		DimProcedural:    {ShapeExplanation, ShapeProcedure},
		DimMetacognitive: {ShapeExplanation},
	},
	LevelApply: {
		DimFactual:       {ShapeApplication},
		DimConceptual:    {ShapeApplication, ShapeExplanation},
		DimProcedural:    {ShapeProcedure, ShapeApplication},
		DimMetacognitive: {ShapeApplication},
	},
	LevelAnalyze: {
		DimFactual:       {ShapeAnalysis},
		DimConceptual:    {ShapeAnalysis, ShapeComparison},
		DimProcedural:    {ShapeAnalysis},
		DimMetacognitive: {ShapeAnalysis, ShapeJustification},
	},
	LevelEvaluate: {
		DimFactual:       {ShapeEvaluation},
		DimConceptual:    {ShapeEvaluation, ShapeJustification},
		DimProcedural:    {ShapeEvaluation},
		DimMetacognitive: {ShapeEvaluation, ShapeJustification},
	},
	LevelCreate: {
		DimFactual:       {ShapeDesign},
		DimConceptual:    {ShapeDesign, ShapeConstruction},
		DimProcedural:    {ShapeConstruction, ShapeDesign},
		DimMetacognitive: {ShapeDesign},
	},
}

// operations holds the cognitive operations allowed at each level. "explain"
// is deliberately absent above understand: the higher levels require
// relational or generative operations, not restatement.
var operations = map[Level][]string{
	LevelRemember:   {"recognize", "recall", "identify", "retrieve"},
	LevelUnderstand: {"interpret", "exemplify", "classify", "summarize", "infer", "explain"},
	LevelApply:      {"execute", "implement", "demonstrate", "solve"},
	LevelAnalyze:    {"differentiate", "organize", "attribute", "compare", "deconstruct"},
	LevelEvaluate:   {"check", "critique", "judge", "justify", "appraise"},
	LevelCreate:     {"generate", "plan", "produce", "design"},
}

var shapeRequirements = map[Shape]string{
	ShapeDefinition:    "state the precise meaning of the term; a short enumeration of defining properties is acceptable",
	ShapeExplanation:   "explain the idea in the respondent's own words, connecting cause and meaning",
	ShapeComparison:    "name at least two elements and state how they are alike or how they differ",
	ShapeProcedure:     "give the steps in order, using sequence language (first, then, finally)",
	ShapeApplication:   "apply the concept to a concrete situation or worked instance",
	ShapeEvaluation:    "reach a judgment or verdict against stated criteria, not a list of features",
	ShapeJustification: "defend a position with explicit reasons (because, therefore)",
	ShapeAnalysis:      "break the subject into parts and state the relationships among them",
	ShapeDesign:        "propose an original plan or artifact meeting stated constraints",
	ShapeConstruction:  "build or assemble a concrete product or worked artifact step by step",
}

// Resolver answers which answer shapes are pedagogically valid for a
// level/dimension pair. Lookups are pure; unknown inputs normalize to
// understand/conceptual with a logged warning rather than failing, since
// imported banks routinely carry sloppy taxonomy metadata.
type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// Normalize maps raw level/dimension strings onto the canonical taxonomy,
// defaulting unknowns to understand/conceptual.
func (r *Resolver) Normalize(level, dimension string) (Level, Dimension) {
	l, ok := ParseLevel(level)
	if !ok {
		r.log.Warn("unknown cognitive level, defaulting",
			zap.String("level", level), zap.String("default", string(LevelUnderstand)))
		l = LevelUnderstand
	}
	d, okd := ParseDimension(dimension)
	if !okd {
		if dimension != "" {
			r.log.Warn("unknown knowledge dimension, defaulting",
				zap.String("dimension", dimension), zap.String("default", string(DimConceptual)))
		}
		d = DimConceptual
	}
	return l, d
}

// AllowedShapes returns the ordered valid answer shapes for a cell. Never
// empty: a cell missing from the table falls back to explanation.
func (r *Resolver) AllowedShapes(level Level, dim Dimension) []Shape {
	if row, ok := compat[level]; ok {
		if shapes, ok := row[dim]; ok && len(shapes) > 0 {
			out := make([]Shape, len(shapes))
			copy(out, shapes)
			return out
		}
	}
	r.log.Warn("no compatibility entry, falling back to explanation",
		zap.String("level", string(level)), zap.String("dimension", string(dim)))
	return []Shape{ShapeExplanation}
}

func (r *Resolver) IsValid(level Level, dim Dimension, shape Shape) bool {
	for _, s := range r.AllowedShapes(level, dim) {
		if s == shape {
			return true
		}
	}
	return false
}

// Operations returns the cognitive operations permitted at a level.
func (r *Resolver) Operations(level Level) []string {
	ops, ok := operations[level]
	if !ok {
		ops = operations[LevelUnderstand]
	}
	out := make([]string, len(ops))
	copy(out, ops)
	return out
}

// ShapeRequirement is the human-readable structural contract for a shape,
// used verbatim to constrain the text generator.
func ShapeRequirement(shape Shape) string {
	if req, ok := shapeRequirements[shape]; ok {
		return req
	}
	return shapeRequirements[ShapeExplanation]
}
