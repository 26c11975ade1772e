// internal/models/plan.go
package models

// Plan identifies a subscription tier. Templates may be gated to a
// minimum plan and the model router treats free/starter as low tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanTeam    Plan = "team"
)

var planRank = map[Plan]int{
	PlanFree:    0,
	PlanStarter: 1,
	PlanPro:     2,
	PlanTeam:    3,
}

// Rank returns the ordering of a plan within the tier ladder.
// Unknown plans rank below free so gated templates stay closed.
func (p Plan) Rank() int {
	if r, ok := planRank[p]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether p sits at or above min in the tier ladder.
func (p Plan) AtLeast(min Plan) bool {
	return p.Rank() >= min.Rank()
}

// IsLowTier reports whether the plan belongs to the low-cost routing set.
func (p Plan) IsLowTier() bool {
	return p == PlanFree || p == PlanStarter
}

// ABVariant identifies the experiment arm a refinement runs under.
type ABVariant string

const (
	VariantControl ABVariant = "control"
	VariantAlt     ABVariant = "alt"
)
