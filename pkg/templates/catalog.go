// pkg/templates/catalog.go
package templates

import (
	"sort"
	"strings"

	"promptlab-workers/internal/models"
)

// Category groups templates by the kind of prompt they refine.
type Category string

const (
	CategoryCoding        Category = "coding"
	CategoryWriting       Category = "writing"
	CategoryResearch      Category = "research"
	CategoryPlanning      Category = "planning"
	CategoryCommunication Category = "communication"
	CategoryCreative      Category = "creative"
	CategoryGeneral       Category = "general"
)

// DefaultTemplateID is the catch-all template every fallback path lands on.
const DefaultTemplateID = "general_default"

// Descriptor describes one refinement template. Immutable after load.
type Descriptor struct {
	ID          string      `json:"id"`
	Category    Category    `json:"category"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	MinPlan     models.Plan `json:"minPlan"`
}

// builtinCatalog is the compiled-in template set. Order is stable so
// closed-vocabulary listings are deterministic.
var builtinCatalog = []Descriptor{
	{ID: "coding_tests", Category: CategoryCoding, Label: "Write Tests", Description: "Turn a rough testing request into a structured test-writing prompt.", MinPlan: models.PlanFree},
	{ID: "coding_debug", Category: CategoryCoding, Label: "Debug Code", Description: "Structure a bug report into a reproducible debugging prompt.", MinPlan: models.PlanFree},
	{ID: "coding_refactor", Category: CategoryCoding, Label: "Refactor Code", Description: "Frame a refactoring request with constraints and acceptance criteria.", MinPlan: models.PlanStarter},
	{ID: "coding_feature", Category: CategoryCoding, Label: "Build Feature", Description: "General feature-implementation prompt for coding requests.", MinPlan: models.PlanFree},
	{ID: "writing_landing_page", Category: CategoryWriting, Label: "Landing Page Copy", Description: "Marketing copy for landing pages, headlines and taglines.", MinPlan: models.PlanFree},
	{ID: "writing_blog_post", Category: CategoryWriting, Label: "Blog Post", Description: "Long-form article and blog-post drafting.", MinPlan: models.PlanFree},
	{ID: "writing_summary", Category: CategoryWriting, Label: "Summarize Text", Description: "Condense source material while keeping named concepts.", MinPlan: models.PlanFree},
	{ID: "research_deep_dive", Category: CategoryResearch, Label: "Deep Dive", Description: "Multi-source research briefs with explicit scope and sourcing rules.", MinPlan: models.PlanPro},
	{ID: "research_compare", Category: CategoryResearch, Label: "Compare Options", Description: "Side-by-side comparison across named alternatives.", MinPlan: models.PlanStarter},
	{ID: "planning_project_plan", Category: CategoryPlanning, Label: "Project Plan", Description: "Milestones, owners and dependencies for a project.", MinPlan: models.PlanFree},
	{ID: "planning_roadmap", Category: CategoryPlanning, Label: "Roadmap", Description: "Quarter-level roadmap with priorities and tradeoffs.", MinPlan: models.PlanPro},
	{ID: "communication_email", Category: CategoryCommunication, Label: "Email", Description: "Professional email with audience and tone requirements.", MinPlan: models.PlanFree},
	{ID: "communication_announcement", Category: CategoryCommunication, Label: "Announcement", Description: "Team or customer announcements.", MinPlan: models.PlanFree},
	{ID: "creative_story", Category: CategoryCreative, Label: "Story", Description: "Fiction and creative writing with voice and setting constraints.", MinPlan: models.PlanFree},
	{ID: DefaultTemplateID, Category: CategoryGeneral, Label: "General", Description: "Catch-all refinement when no specialized template applies.", MinPlan: models.PlanFree},
}

// categoryDefaults maps each category to the template a bare category
// string resolves to.
var categoryDefaults = map[Category]string{
	CategoryCoding:        "coding_feature",
	CategoryWriting:       "writing_blog_post",
	CategoryResearch:      "research_deep_dive",
	CategoryPlanning:      "planning_project_plan",
	CategoryCommunication: "communication_email",
	CategoryCreative:      "creative_story",
	CategoryGeneral:       DefaultTemplateID,
}

// Registry is the static template catalog. Construct once at process
// start and share by reference; lookups are read-only afterwards.
type Registry struct {
	ordered []Descriptor
	byID    map[string]Descriptor
}

// NewRegistry builds a registry over the compiled-in catalog.
func NewRegistry() *Registry {
	return newRegistry(builtinCatalog)
}

func newRegistry(catalog []Descriptor) *Registry {
	r := &Registry{
		ordered: make([]Descriptor, len(catalog)),
		byID:    make(map[string]Descriptor, len(catalog)),
	}
	copy(r.ordered, catalog)
	for _, d := range catalog {
		r.byID[d.ID] = d
	}
	return r
}

// Lookup returns the descriptor for a template id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Default returns the catch-all template.
func (r *Registry) Default() Descriptor {
	return r.byID[DefaultTemplateID]
}

// CategoryDefault returns the default template for a category string.
func (r *Registry) CategoryDefault(category string) (Descriptor, bool) {
	id, ok := categoryDefaults[Category(strings.ToLower(strings.TrimSpace(category)))]
	if !ok {
		return Descriptor{}, false
	}
	d, ok := r.byID[id]
	return d, ok
}

// ResolveSlug maps a task's template slug onto a catalog id. Slugs carry
// a conventional version suffix ("coding_debug_v3") which is stripped
// before lookup.
func (r *Registry) ResolveSlug(slug string) (Descriptor, bool) {
	s := strings.ToLower(strings.TrimSpace(slug))
	if s == "" {
		return Descriptor{}, false
	}
	if d, ok := r.byID[s]; ok {
		return d, true
	}
	if base := stripVersionSuffix(s); base != s {
		if d, ok := r.byID[base]; ok {
			return d, true
		}
	}
	return Descriptor{}, false
}

// stripVersionSuffix removes a trailing "_v<digits>" or "-v<digits>".
func stripVersionSuffix(slug string) string {
	i := strings.LastIndexAny(slug, "_-")
	if i < 0 || i+1 >= len(slug) {
		return slug
	}
	tail := slug[i+1:]
	if len(tail) < 2 || tail[0] != 'v' {
		return slug
	}
	for _, c := range tail[1:] {
		if c < '0' || c > '9' {
			return slug
		}
	}
	return slug[:i]
}

// AllowedFor reports whether the plan clears the template's gate.
// Unknown template ids are never allowed.
func (r *Registry) AllowedFor(id string, plan models.Plan) bool {
	d, ok := r.byID[id]
	if !ok {
		return false
	}
	return plan.AtLeast(d.MinPlan)
}

// IDs returns every template id in catalog order. This is the closed
// vocabulary handed to the LLM classification fallback.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		ids[i] = d.ID
	}
	return ids
}

// All returns the catalog entries sorted by id for stable listings.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
