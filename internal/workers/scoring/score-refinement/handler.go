// internal/workers/scoring/score-refinement/handler.go
package scorerefinement

import (
	"context"

	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/models"
)

const TaskType = "score-refinement"

// Aggregation weights. They sum to 1.0 so the overall score is a convex
// combination of the eight sub-scores.
const (
	weightStructure         = 0.20
	weightContract          = 0.10
	weightDomain            = 0.10
	weightContextHandling   = 0.15
	weightConstraintClarity = 0.15
	weightGuidance          = 0.10
	weightReadability       = 0.10
	weightEfficiency        = 0.10
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute scores one (raw, refined) pair. Pure string computation: no
// I/O, no randomness, so identical inputs always produce identical
// output.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	structure, sections := structureScore(input.RefinedText)
	contextHandling := contextHandlingScore(input.RefinedText)
	constraintClarity, constraintHits, vague := constraintClarityScore(input.RefinedText)
	guidance, numbered, bullets, transitions := guidanceScore(input.RefinedText)
	readability, avgLineLen, longLines := readabilityScore(input.RefinedText)
	efficiency, ratio := efficiencyScore(len(input.RawText), len(input.RefinedText))
	domain, termHits := domainScore(input.Category, input.RefinedText)
	contract, formatSignals, contradiction, schemaVocab := contractScore(input.RefinedText)

	overall := weightStructure*structure +
		weightContract*contract +
		weightDomain*domain +
		weightContextHandling*contextHandling +
		weightConstraintClarity*constraintClarity +
		weightGuidance*guidance +
		weightReadability*readability +
		weightEfficiency*efficiency

	return &Output{
		StructureScore: structure,
		ContractScore:  contract,
		DomainScore:    domain,
		OverallScore:   clamp01(overall),
		Metrics: models.ScoreMetrics{
			Structure:         structure,
			ContextHandling:   contextHandling,
			ConstraintClarity: constraintClarity,
			Guidance:          guidance,
			Readability:       readability,
			Efficiency:        efficiency,
			Domain:            domain,
			Contract:          contract,

			SectionsDetected:    sections,
			ConstraintHits:      constraintHits,
			NumberedLines:       numbered,
			BulletLines:         bullets,
			TransitionWords:     transitions,
			DomainTermHits:      termHits,
			FormatSignals:       formatSignals,
			LengthRatio:         ratio,
			AvgLineLength:       avgLineLen,
			LongLines:           longLines,
			VagueFillerFound:    vague,
			FormatContradiction: contradiction,
			SchemaVocabulary:    schemaVocab,
		},
	}, nil
}
