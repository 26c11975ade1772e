// internal/workers/scoring/score-refinement/models.go
package scorerefinement

import "promptlab-workers/internal/models"

type Input struct {
	Category        string `json:"category"`
	TemplateSlug    string `json:"templateSlug"`
	TemplateVersion string `json:"templateVersion"`
	RawText         string `json:"rawText"`
	RefinedText     string `json:"refinedText"`
}

type Output struct {
	StructureScore float64             `json:"structureScore"`
	ContractScore  float64             `json:"contractScore"`
	DomainScore    float64             `json:"domainScore"`
	OverallScore   float64             `json:"overallScore"`
	Metrics        models.ScoreMetrics `json:"metrics"`
}
