// internal/models/task.go
package models

// TaskType tags which source a lab task was normalized from.
type TaskType string

const (
	TaskTypeSynthetic TaskType = "synthetic"
	TaskTypeSample    TaskType = "sample"
)

// SyntheticTaskRow is a row from the synthetic-task store.
type SyntheticTaskRow struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	InputText       string `json:"inputText"`
	TemplateSlug    string `json:"templateSlug"`
	TemplateVersion string `json:"templateVersion"`
}

// CuratedSampleRow is a row from the curated-sample store. Samples are
// captured from real traffic, so template metadata may be absent.
type CuratedSampleRow struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	InputText       string `json:"inputText"`
	TemplateSlug    string `json:"templateSlug,omitempty"`
	TemplateVersion string `json:"templateVersion,omitempty"`
}

// LabTask is the single shape the runner processes, regardless of source.
type LabTask struct {
	ID              string   `json:"id"`
	Type            TaskType `json:"type"`
	Category        string   `json:"category"`
	InputText       string   `json:"inputText"`
	TemplateSlug    string   `json:"templateSlug"`
	TemplateVersion string   `json:"templateVersion"`
}

// NormalizeSynthetic converts a synthetic-task row into a LabTask.
func NormalizeSynthetic(row SyntheticTaskRow) LabTask {
	return LabTask{
		ID:              row.ID,
		Type:            TaskTypeSynthetic,
		Category:        row.Category,
		InputText:       row.InputText,
		TemplateSlug:    row.TemplateSlug,
		TemplateVersion: row.TemplateVersion,
	}
}

// NormalizeSample converts a curated-sample row into a LabTask.
func NormalizeSample(row CuratedSampleRow) LabTask {
	return LabTask{
		ID:              row.ID,
		Type:            TaskTypeSample,
		Category:        row.Category,
		InputText:       row.InputText,
		TemplateSlug:    row.TemplateSlug,
		TemplateVersion: row.TemplateVersion,
	}
}
