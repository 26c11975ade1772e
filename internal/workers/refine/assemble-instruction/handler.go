// internal/workers/refine/assemble-instruction/handler.go
package assembleinstruction

import (
	"strings"

	"promptlab-workers/pkg/templates"
)

const TaskType = "assemble-instruction"

// Handler composes system instructions from the layered rule fragments.
type Handler struct {
	registry *templates.Registry
}

func NewHandler(registry *templates.Registry) *Handler {
	return &Handler{registry: registry}
}

// Build assembles the system instruction for a template. Layer order is
// fixed: core contract, user-priority rules, context packaging, quality
// bar, then the domain snippet selected by the template's category.
// Unknown template ids assemble with the general snippet. The result is
// a single string; callers never see the layers.
func (h *Handler) Build(templateID, modelStyle string) string {
	category := templates.CategoryGeneral
	if d, ok := h.registry.Lookup(templateID); ok {
		category = d.Category
	}

	snippet, ok := domainSnippets[category]
	if !ok {
		snippet = domainSnippets[templates.CategoryGeneral]
	}

	layers := []string{
		coreContract,
		priorityRules,
		packagingRules,
		qualityBar,
		snippet,
	}
	if line, ok := styleLines[strings.ToLower(modelStyle)]; ok {
		layers = append(layers, line)
	}

	return strings.Join(layers, "\n\n")
}
