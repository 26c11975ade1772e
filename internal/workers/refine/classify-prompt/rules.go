// internal/workers/refine/classify-prompt/rules.go
package classifyprompt

import (
	"strings"

	"promptlab-workers/pkg/templates"
)

// rule is one entry of the classification cascade. The first rule whose
// keywords match wins, so specificity is encoded purely by position:
// within coding, tests beats debug beats refactor beats the feature
// catch-all; the other domains follow the same most-specific-first order.
type rule struct {
	templateID string
	category   templates.Category
	keywords   []string
}

// cascade is evaluated top to bottom against the lowercased input.
// Matching is case-insensitive substring containment.
var cascade = []rule{
	{"coding_tests", templates.CategoryCoding, []string{
		"unit test", "write tests", "write a test", "test case", "test coverage", "add tests", "integration test",
	}},
	{"coding_debug", templates.CategoryCoding, []string{
		"fix this bug", "fix a bug", "fix the bug", "debug", "stack trace", "traceback", "exception",
		"typeerror", "nullpointer", "segfault", "not working", "throws an error", "error in",
	}},
	{"coding_refactor", templates.CategoryCoding, []string{
		"refactor", "clean up this code", "simplify this function", "tech debt", "restructure the code",
	}},
	{"coding_feature", templates.CategoryCoding, []string{
		"implement", "build a feature", "add a feature", "write a function", "write code",
		"api endpoint", "pull request", "code review",
	}},
	{"writing_landing_page", templates.CategoryWriting, []string{
		"landing page", "headline", "tagline", "hero section", "marketing copy",
	}},
	{"writing_summary", templates.CategoryWriting, []string{
		"summarize", "summary of", "tl;dr", "condense",
	}},
	{"writing_blog_post", templates.CategoryWriting, []string{
		"blog post", "article", "newsletter", "essay",
	}},
	{"research_compare", templates.CategoryResearch, []string{
		"compare", " versus ", " vs ", "pros and cons", "trade-offs between",
	}},
	{"research_deep_dive", templates.CategoryResearch, []string{
		"research", "deep dive", "literature review", "investigate", "state of the art",
	}},
	{"planning_roadmap", templates.CategoryPlanning, []string{
		"roadmap", "quarterly plan", "okr",
	}},
	{"planning_project_plan", templates.CategoryPlanning, []string{
		"project plan", "milestones", "timeline", "plan for", "work breakdown",
	}},
	{"communication_announcement", templates.CategoryCommunication, []string{
		"announcement", "announce",
	}},
	{"communication_email", templates.CategoryCommunication, []string{
		"email to", "write an email", "reply to", "follow-up email", "follow up email",
	}},
	{"creative_story", templates.CategoryCreative, []string{
		"story", "poem", "fiction", "screenplay", "song lyrics",
	}},
}

// matchCascade returns the first firing rule.
func matchCascade(text string) (rule, bool) {
	lowered := strings.ToLower(text)
	for _, r := range cascade {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r, true
			}
		}
	}
	return rule{}, false
}
