// internal/workers/refine/route-model/handler_test.go
package routemodel

import (
	"testing"

	"promptlab-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		plan    models.Plan
		variant models.ABVariant
		want    string
	}{
		{"alt variant wins over everything", DomainCoding, models.PlanFree, models.VariantAlt, ModelAlternate},
		{"alt variant on default path", DomainGeneric, models.PlanPro, models.VariantAlt, ModelAlternate},
		{"coding beats low tier", DomainCoding, models.PlanFree, models.VariantControl, ModelCoding},
		{"coding on pro plan", DomainCoding, models.PlanPro, models.VariantControl, ModelCoding},
		{"free plan routes low cost", DomainGeneric, models.PlanFree, models.VariantControl, ModelLowCost},
		{"starter plan routes low cost", DomainGeneric, models.PlanStarter, models.VariantControl, ModelLowCost},
		{"pro plan routes default", DomainGeneric, models.PlanPro, models.VariantControl, ModelDefault},
		{"team plan routes default", DomainGeneric, models.PlanTeam, models.VariantControl, ModelDefault},
		{"domain is case insensitive", "Coding", models.PlanPro, models.VariantControl, ModelCoding},
		{"unknown domain treated as generic", "astrology", models.PlanPro, models.VariantControl, ModelDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.domain, tt.plan, tt.variant))
		})
	}
}

// Every input combination must land on one of the four pool models.
func TestResolve_Total(t *testing.T) {
	pool := map[string]bool{
		ModelDefault:   true,
		ModelCoding:    true,
		ModelLowCost:   true,
		ModelAlternate: true,
	}

	domains := []string{DomainCoding, DomainGeneric, "writing", "", "??"}
	plans := []models.Plan{models.PlanFree, models.PlanStarter, models.PlanPro, models.PlanTeam, models.Plan("unknown")}
	variants := []models.ABVariant{models.VariantControl, models.VariantAlt, models.ABVariant("")}

	for _, d := range domains {
		for _, p := range plans {
			for _, v := range variants {
				got := Resolve(d, p, v)
				assert.True(t, pool[got], "Resolve(%q, %q, %q) = %q outside pool", d, p, v, got)
			}
		}
	}
}

func TestInferDomain(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		templateID string
		want       string
	}{
		{"coding template prefix", "", "coding_debug", DomainCoding},
		{"prefix wins over category", "writing", "coding_tests", DomainCoding},
		{"coding category", "coding", "general_default", DomainCoding},
		{"category whitespace trimmed", " coding ", "", DomainCoding},
		{"writing is generic for routing", "writing", "writing_blog_post", DomainGeneric},
		{"empty everything", "", "", DomainGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDomain(tt.category, tt.templateID))
		})
	}
}
