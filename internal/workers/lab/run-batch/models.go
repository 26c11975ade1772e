// internal/workers/lab/run-batch/models.go
package runbatch

// Input selects how large the batch is and how runs are produced.
// ModelName overrides routing for every run when set. DryRun walks the
// whole pipeline without writing runs or scores.
type Input struct {
	Limit     int    `json:"limit"`
	ModelName string `json:"modelName,omitempty"`
	DryRun    bool   `json:"dryRun,omitempty"`
}

// Output summarizes one batch. RunsCreated counts every run record,
// terminal status regardless; ScoresCreated counts only persisted
// scores.
type Output struct {
	RunsCreated   int `json:"runsCreated"`
	ScoresCreated int `json:"scoresCreated"`
}
