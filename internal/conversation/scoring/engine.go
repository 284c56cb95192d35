// Package scoring computes lead quality scores from qualification data.
// All functions are pure: no I/O, no clocks, no side effects. Persisting
// and acting on a score is the caller's job.
package scoring

import (
	"strings"

	"leadflow_backend/internal/conversation/domain"
)

// scoreVersion tracks the scoring model for debugging and analysis.
// Bump this when changing scoring logic significantly.
const scoreVersion = "2026-v1"

// Maximum contribution per component. The five components sum to 0-100.
const (
	maxBudgetScore   = 30
	maxTimelineScore = 25
	maxClarityScore  = 20
	maxCountryScore  = 15
	maxBehaviorScore = 10
)

// avoidanceBudgetScore is the fixed budget score applied once a lead has
// dodged the budget question twice. It overrides any numeric budget
// supplied afterwards.
const avoidanceBudgetScore = 5

// specificProjectTypes earn the full clarity bonus; anything else that is
// non-empty earns the general bonus.
var specificProjectTypes = map[string]bool{
	"e-commerce":      true,
	"mobile-app":      true,
	"custom-software": true,
}

// Country tiers by ISO 3166-1 alpha-2 code. Codes outside both sets, and
// unknown countries, score neutral.
var (
	highValueCountries = map[string]bool{
		"US": true, "GB": true, "CA": true, "AU": true, "DE": true,
		"FR": true, "NL": true, "SE": true, "NO": true, "DK": true,
	}
	mediumValueCountries = map[string]bool{
		"IN": true, "BR": true, "MX": true, "ES": true,
		"IT": true, "PL": true, "SG": true, "AE": true,
	}
)

// Input carries the lead attributes the engine scores on.
// BudgetNumeric is nil when the lead never gave a usable number.
type Input struct {
	BudgetNumeric        *int
	BudgetAvoidanceCount int
	Timeline             string
	ProjectType          string
	CountryISO           string
	MessageCount         int
	ResponsePattern      string // "engaged", "evasive" or "normal"
}

// Breakdown holds the five component scores.
type Breakdown struct {
	Budget   int `json:"budget_score"`
	Timeline int `json:"timeline_score"`
	Clarity  int `json:"clarity_score"`
	Country  int `json:"country_score"`
	Behavior int `json:"behavior_score"`
}

// Result is a complete scoring outcome.
type Result struct {
	Total     int                  `json:"total_score"`
	Breakdown Breakdown            `json:"breakdown"`
	Category  domain.ScoreCategory `json:"category"`
	Reasoning string               `json:"reasoning"`
	Version   string               `json:"version"`
}

// Score computes the total lead score, its component breakdown, the
// category and a human-readable reasoning string. Deterministic for a
// given input.
func Score(in Input) Result {
	b := Breakdown{
		Budget:   BudgetScore(in.BudgetNumeric, in.BudgetAvoidanceCount),
		Timeline: TimelineScore(in.Timeline),
		Clarity:  ClarityScore(in.ProjectType, in.Timeline != "", in.BudgetNumeric != nil, in.MessageCount),
		Country:  CountryScore(in.CountryISO),
		Behavior: BehaviorScore(in.BudgetAvoidanceCount, in.MessageCount, in.ResponsePattern),
	}
	total := b.Budget + b.Timeline + b.Clarity + b.Country + b.Behavior

	return Result{
		Total:     total,
		Breakdown: b,
		Category:  domain.CategorizeScore(total),
		Reasoning: reasoning(b, in),
		Version:   scoreVersion,
	}
}

// BudgetScore scores the budget component (0-30). Two or more avoidances
// pin the score to 5 regardless of any numeric value; an absent value
// scores 0.
func BudgetScore(budget *int, avoidanceCount int) int {
	if avoidanceCount >= 2 {
		return avoidanceBudgetScore
	}
	if budget == nil {
		return 0
	}

	switch {
	case *budget >= 20000:
		return 30
	case *budget >= 10000:
		return 25
	case *budget >= 7000:
		return 20
	case *budget >= 5000:
		return 15
	case *budget >= 3000:
		return 10
	default:
		return 5
	}
}

// TimelineScore scores urgency from the free-text timeline (0-25).
func TimelineScore(timeline string) int {
	if timeline == "" {
		return 0
	}
	lower := strings.ToLower(timeline)

	if containsAny(lower, "urgent", "asap", "immediately", "1 week", "2 weeks") {
		return 25
	}
	if containsAny(lower, "1 month", "2 months", "1-2 months") {
		return 18
	}
	if containsAny(lower, "2-3 months", "3 months") {
		return 12
	}
	if containsAny(lower, "flexible", "no rush", "6 months", "later") {
		return 5
	}
	return 10
}

// ClarityScore scores how well-defined the request is (0-20): project
// type specificity, field completeness and message engagement.
func ClarityScore(projectType string, hasTimeline, hasBudget bool, messageCount int) int {
	score := 0

	if projectType != "" {
		if specificProjectTypes[strings.ToLower(projectType)] {
			score += 8
		} else {
			score += 5
		}
	}

	if hasTimeline {
		score += 4
	}
	if hasBudget {
		score += 4
	}

	if messageCount >= 6 {
		score += 4
	} else if messageCount >= 4 {
		score += 2
	}

	return min(score, maxClarityScore)
}

// CountryScore scores geography by market tier (0-15). Unknown countries
// score neutral rather than zero so a missing country never sinks an
// otherwise strong lead.
func CountryScore(iso string) int {
	code := strings.ToUpper(iso)
	switch {
	case highValueCountries[code]:
		return 15
	case mediumValueCountries[code]:
		return 10
	default:
		return 7
	}
}

// BehaviorScore scores communication behavior (0-10), starting at full
// points and penalizing avoidance, low engagement and evasive patterns.
func BehaviorScore(avoidanceCount, messageCount int, responsePattern string) int {
	score := maxBehaviorScore

	score -= avoidanceCount * 2

	if messageCount < 3 {
		score -= 3
	} else if messageCount < 5 {
		score -= 1
	}

	if responsePattern == "evasive" {
		score -= 2
	}

	return max(0, min(score, maxBehaviorScore))
}

// reasoning builds the semicolon-joined explanation from the score bands
// that were hit.
func reasoning(b Breakdown, in Input) string {
	var reasons []string

	switch {
	case b.Budget >= 25:
		reasons = append(reasons, "High budget ($10k+)")
	case b.Budget >= 15:
		reasons = append(reasons, "Medium budget ($5k-$10k)")
	case in.BudgetAvoidanceCount >= 2:
		reasons = append(reasons, "Budget information avoided")
	default:
		reasons = append(reasons, "Low budget")
	}

	switch {
	case b.Timeline >= 20:
		reasons = append(reasons, "Urgent timeline")
	case b.Timeline >= 10:
		reasons = append(reasons, "Normal timeline")
	default:
		reasons = append(reasons, "Flexible timeline")
	}

	switch {
	case b.Clarity >= 15:
		reasons = append(reasons, "Clear requirements")
	case b.Clarity >= 10:
		reasons = append(reasons, "Moderate clarity")
	default:
		reasons = append(reasons, "Vague requirements")
	}

	if b.Behavior >= 8 {
		reasons = append(reasons, "Engaged communication")
	} else if b.Behavior <= 5 {
		reasons = append(reasons, "Limited engagement")
	}

	return strings.Join(reasons, "; ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
