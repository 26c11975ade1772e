// internal/models/score.go
package models

// LabScore records the heuristic evaluation of one done run. The three
// top-level sub-scores are kept for existing consumers; the full set of
// eight lives in Metrics.
type LabScore struct {
	ID          string       `json:"id"`
	LabRunID    string       `json:"labRunId"`
	Structure   float64      `json:"structureScore"`
	Contract    float64      `json:"contractScore"`
	Domain      float64      `json:"domainScore"`
	Overall     float64      `json:"overallScore"`
	Metrics     ScoreMetrics `json:"metrics"`
	MetricsJSON string       `json:"metricsJson,omitempty"`
}

// ScoreMetrics is the audit record: every sub-score plus the raw
// counters the heuristics derived them from.
type ScoreMetrics struct {
	Structure         float64 `json:"structureScore"`
	ContextHandling   float64 `json:"contextHandlingScore"`
	ConstraintClarity float64 `json:"constraintClarityScore"`
	Guidance          float64 `json:"guidanceScore"`
	Readability       float64 `json:"readabilityScore"`
	Efficiency        float64 `json:"efficiencyScore"`
	Domain            float64 `json:"domainScore"`
	Contract          float64 `json:"contractScore"`

	SectionsDetected    int     `json:"sectionsDetected"`
	ConstraintHits      int     `json:"constraintHits"`
	NumberedLines       int     `json:"numberedLines"`
	BulletLines         int     `json:"bulletLines"`
	TransitionWords     int     `json:"transitionWords"`
	DomainTermHits      int     `json:"domainTermHits"`
	FormatSignals       int     `json:"formatSignals"`
	LengthRatio         float64 `json:"lengthRatio"`
	AvgLineLength       float64 `json:"avgLineLength"`
	LongLines           int     `json:"longLines"`
	VagueFillerFound    bool    `json:"vagueFillerFound"`
	FormatContradiction bool    `json:"formatContradiction"`
	SchemaVocabulary    bool    `json:"schemaVocabulary"`
}
