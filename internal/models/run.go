// internal/models/run.go
package models

import "time"

// RunStatus is the lifecycle state of a lab run. A run is created
// pending and moves to exactly one of done or error; it never reverts.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusDone    RunStatus = "done"
	RunStatusError   RunStatus = "error"
)

// LabRun records one refinement attempt against one task.
type LabRun struct {
	ID               string    `json:"id"`
	TemplateSlug     string    `json:"templateSlug"`
	TemplateVersion  string    `json:"templateVersion"`
	TaskType         TaskType  `json:"taskType"`
	SourceTaskID     string    `json:"sourceTaskId"`
	ModelName        string    `json:"modelName"`
	Status           RunStatus `json:"status"`
	RawRefinedPrompt string    `json:"rawRefinedPrompt,omitempty"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
