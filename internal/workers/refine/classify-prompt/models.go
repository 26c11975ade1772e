// internal/workers/refine/classify-prompt/models.go
package classifyprompt

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	TemplateID string  `json:"templateId"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}
