// internal/workers/scoring/score-refinement/heuristics.go
package scorerefinement

import (
	"regexp"
	"strings"
)

// The thresholds and weights below are contractual constants carried
// over from the production scoring tables. They are reproduced exactly;
// recalibrating them would silently shift every historical comparison.

// sectionPatterns detect the six conceptual sections of a well-formed
// refined prompt.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(you are|act as|your role|as a[n]? )`),           // role
	regexp.MustCompile(`(?i)\b(goal|objective|your task|aim)\b`),               // goal
	regexp.MustCompile(`(?i)\b(context|background|given that|based on)\b`),     // context
	regexp.MustCompile(`(?i)\b(steps?|instructions?|do the following|first,)`), // instructions
	regexp.MustCompile(`(?i)\b(constraints?|must not|do not|requirements?)\b`), // constraints
	regexp.MustCompile(`(?i)\b(output|format|respond with|return)\b`),          // output format
}

func structureScore(refined string) (float64, int) {
	hits := 0
	for _, p := range sectionPatterns {
		if p.MatchString(refined) {
			hits++
		}
	}
	return float64(hits) / float64(len(sectionPatterns)), hits
}

var (
	contextLabelPattern  = regexp.MustCompile(`(?i)\b(context|background)\s*:`)
	attachmentPattern    = regexp.MustCompile("(?i)\\b(file|attachment|code block|image|screenshot|error message|log output)\\b|```")
	summarizationPattern = regexp.MustCompile(`(?i)(summar|condens|key points)`)
)

// contextHandlingScore weights an explicit context label 0.6, an
// attachment-style reference 0.25 and a summarization hint 0.15.
func contextHandlingScore(refined string) float64 {
	score := 0.0
	if contextLabelPattern.MatchString(refined) {
		score += 0.6
	}
	if attachmentPattern.MatchString(refined) {
		score += 0.25
	}
	if summarizationPattern.MatchString(refined) {
		score += 0.15
	}
	return clamp01(score)
}

var constraintKeywords = []string{
	"must not", "must", "at most", "at least", "no more than", "no fewer than",
	"exactly", "maximum", "minimum", "limit to", "not exceed", "within",
}

var vagueFillerPhrases = []string{
	"be concise", "be good", "high quality", "as appropriate", "do your best",
}

// constraintClarityScore is a step function of measurable-constraint
// keyword hits: 0 -> 0, 1-2 -> 0.4, 3-5 -> 0.7, 6+ -> 1.0, with a 0.15
// penalty when vague filler is present.
func constraintClarityScore(refined string) (float64, int, bool) {
	lowered := strings.ToLower(refined)
	hits := 0
	for _, kw := range constraintKeywords {
		hits += strings.Count(lowered, kw)
	}
	// "must not" also matches "must"; drop the double count.
	hits -= strings.Count(lowered, "must not")

	var score float64
	switch {
	case hits == 0:
		score = 0
	case hits <= 2:
		score = 0.4
	case hits <= 5:
		score = 0.7
	default:
		score = 1.0
	}

	vague := false
	for _, phrase := range vagueFillerPhrases {
		if strings.Contains(lowered, phrase) {
			vague = true
			break
		}
	}
	if vague {
		score -= 0.15
	}
	if score < 0 {
		score = 0
	}
	return score, hits, vague
}

var (
	numberedLinePattern = regexp.MustCompile(`(?m)^\s*\d+[.)]\s`)
	bulletLinePattern   = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	transitionPattern   = regexp.MustCompile(`(?i)\b(first|then|next|finally|after that|lastly)\b`)
)

// guidanceScore saturates at roughly eight weighted structural signals:
// numbered and bullet lines count 1.0 each, transition words 0.5.
func guidanceScore(refined string) (float64, int, int, int) {
	numbered := len(numberedLinePattern.FindAllString(refined, -1))
	bullets := len(bulletLinePattern.FindAllString(refined, -1))
	transitions := len(transitionPattern.FindAllString(refined, -1))

	weighted := float64(numbered) + float64(bullets) + 0.5*float64(transitions)
	return clamp01(weighted / 8.0), numbered, bullets, transitions
}

var headingLinePattern = regexp.MustCompile(`(?m)^#{1,6}\s`)

// readabilityScore rewards structured-line density and a line-length
// sweet spot, and penalizes walls of text.
func readabilityScore(refined string) (float64, float64, int) {
	lines := strings.Split(refined, "\n")
	var nonEmpty, totalLen, longLines int
	overlong := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		totalLen += len(trimmed)
		if len(trimmed) > 200 {
			longLines++
		}
		if len(trimmed) > 500 {
			overlong = true
		}
	}
	if nonEmpty == 0 {
		return 0, 0, 0
	}
	avgLen := float64(totalLen) / float64(nonEmpty)

	structured := len(headingLinePattern.FindAllString(refined, -1)) +
		len(bulletLinePattern.FindAllString(refined, -1)) +
		len(numberedLinePattern.FindAllString(refined, -1))
	density := float64(structured) / float64(nonEmpty)

	score := 0.5 * clamp01(3*density)
	switch {
	case avgLen >= 20 && avgLen < 120:
		score += 0.5
	case avgLen >= 120 && avgLen < 200:
		score += 0.3
	default:
		score += 0.15
	}

	score -= 0.05 * float64(longLines)
	if overlong {
		score -= 0.2
	}
	return clamp01(score), avgLen, longLines
}

// efficiencyScore peaks at a refined/raw length ratio of exactly 2.
// Within the acceptable band [1,4] it falls off linearly at 0.25 per
// unit of distance from 2; shrinking refinements score 0.75·ratio, and
// bloated ones decay to 0 by ratio 6.
func efficiencyScore(rawLen, refinedLen int) (float64, float64) {
	if rawLen == 0 {
		return 0, 0
	}
	r := float64(refinedLen) / float64(rawLen)
	switch {
	case r < 1:
		return clamp01(0.75 * r), r
	case r <= 4:
		return 1 - 0.25*abs(r-2), r
	case r < 6:
		return 0.25 * (6 - r), r
	default:
		return 0, r
	}
}

// domainTerms holds the per-category vocabulary; creative and anything
// unrecognized fall back to general.
var domainTerms = map[string][]string{
	"coding":        {"function", "test", "error", "code", "api", "bug", "class", "variable", "compile", "runtime", "dependency"},
	"writing":       {"audience", "tone", "voice", "draft", "paragraph", "headline", "narrative", "style"},
	"research":      {"source", "evidence", "citation", "study", "compare", "analysis", "findings", "methodology"},
	"planning":      {"milestone", "deadline", "timeline", "dependency", "risk", "resource", "scope", "owner"},
	"communication": {"recipient", "subject", "tone", "reply", "meeting", "follow-up", "signature"},
	"general":       {"task", "format", "requirement", "detail", "structure", "example"},
}

// domainScore divides distinct term hits by max(3, min(termCount, 8)).
func domainScore(category, refined string) (float64, int) {
	terms, ok := domainTerms[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		terms = domainTerms["general"]
	}
	lowered := strings.ToLower(refined)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			hits++
		}
	}
	denom := len(terms)
	if denom > 8 {
		denom = 8
	}
	if denom < 3 {
		denom = 3
	}
	return clamp01(float64(hits) / float64(denom)), hits
}

var (
	jsonSignal         = regexp.MustCompile("(?i)\\bjson\\b|```json")
	markdownSignal     = regexp.MustCompile(`(?i)\bmarkdown\b`)
	tableSignal        = regexp.MustCompile(`(?i)\btable\b`)
	bulletSignal       = regexp.MustCompile(`(?i)\b(bullet points?|bulleted list)\b`)
	narrativeSignal    = regexp.MustCompile(`(?i)\b(narrative|essay|prose|paragraph form)\b`)
	returnOnlySignal   = regexp.MustCompile(`(?i)\b(return only|respond only|output only)\b`)
	schemaVocabPattern = regexp.MustCompile(`(?i)\b(schema|field names?|keys|properties)\b`)
)

// contractScore counts distinct strong format-intent signals at 0.5
// each (capped at 1), subtracts 0.5 when contradictory formats co-occur
// (structured JSON or table intent alongside narrative-essay intent),
// and adds 0.25 for explicit schema vocabulary.
func contractScore(refined string) (float64, int, bool, bool) {
	signals := 0
	structured := false
	narrative := false

	if jsonSignal.MatchString(refined) {
		signals++
		structured = true
	}
	if markdownSignal.MatchString(refined) {
		signals++
	}
	if tableSignal.MatchString(refined) {
		signals++
		structured = true
	}
	if bulletSignal.MatchString(refined) {
		signals++
	}
	if narrativeSignal.MatchString(refined) {
		signals++
		narrative = true
	}
	if returnOnlySignal.MatchString(refined) {
		signals++
	}

	score := clamp01(0.5 * float64(signals))

	contradiction := structured && narrative
	if contradiction {
		score -= 0.5
		if score < 0 {
			score = 0
		}
	}

	schemaVocab := schemaVocabPattern.MatchString(refined)
	if schemaVocab {
		score += 0.25
	}
	return clamp01(score), signals, contradiction, schemaVocab
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
