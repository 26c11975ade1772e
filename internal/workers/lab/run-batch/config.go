// internal/workers/lab/run-batch/config.go
package runbatch

import "promptlab-workers/internal/models"

type Config struct {
	// MaxBatchSize is the hard ceiling. A batch asking for more is
	// rejected before any work starts.
	MaxBatchSize int

	// EvalPlan and EvalVariant pin every refinement call to one
	// policy so scores stay comparable across batches.
	EvalPlan    models.Plan
	EvalVariant models.ABVariant
}

func LoadConfig() *Config {
	return &Config{
		MaxBatchSize: 50,
		EvalPlan:     models.PlanPro,
		EvalVariant:  models.VariantControl,
	}
}
