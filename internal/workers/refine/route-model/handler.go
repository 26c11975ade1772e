// internal/workers/refine/route-model/handler.go
package routemodel

import (
	"strings"

	"promptlab-workers/internal/models"
	"promptlab-workers/pkg/templates"
)

const TaskType = "route-model"

// Fixed model pool. Routing only ever selects from these four.
const (
	ModelDefault   = "gpt-4.1-mini"
	ModelCoding    = "gpt-4.1"
	ModelLowCost   = "gpt-4o-mini"
	ModelAlternate = "o4-mini"
)

// Domain strings the router understands. Anything else routes as
// generic.
const (
	DomainCoding  = "coding"
	DomainGeneric = "general"
)

// Resolve maps (domain, plan, abVariant) to a model id. Pure function;
// precedence is fixed and the first matching rule wins:
//
//	1. alt experiment arm
//	2. coding domain
//	3. low-tier plan
//	4. default
func Resolve(domain string, plan models.Plan, abVariant models.ABVariant) string {
	if abVariant == models.VariantAlt {
		return ModelAlternate
	}
	if strings.EqualFold(domain, DomainCoding) {
		return ModelCoding
	}
	if plan.IsLowTier() {
		return ModelLowCost
	}
	return ModelDefault
}

// InferDomain derives a routing domain when the caller has only a
// category or template id. Template-id prefixes win over the category
// string; anything unrecognized is generic.
func InferDomain(category, templateID string) string {
	if strings.HasPrefix(strings.ToLower(templateID), "coding_") {
		return DomainCoding
	}
	if strings.EqualFold(strings.TrimSpace(category), string(templates.CategoryCoding)) {
		return DomainCoding
	}
	return DomainGeneric
}
