// Package qualification extracts the four intake fields (project type,
// budget, timeline, business type) from free-text lead messages, one
// field per conversational turn.
package qualification

import (
	"regexp"
	"strconv"
	"strings"
)

// Field identifies one of the required qualification fields.
type Field string

const (
	FieldProjectType  Field = "project_type"
	FieldBudget       Field = "budget"
	FieldTimeline     Field = "timeline"
	FieldBusinessType Field = "business_type"
)

// Lead is the extractor's view of qualification progress. Budget and
// BudgetNumeric are filled together; BudgetNumeric stays nil when no
// usable number was parsed.
type Lead struct {
	ProjectType          string
	Budget               string
	BudgetNumeric        *int
	Timeline             string
	BusinessType         string
	BudgetAvoidanceCount int
}

// StepResult describes what one message contributed.
type StepResult struct {
	// Extracted names the field this message filled, empty if none.
	Extracted Field
	// NextQuestion is the field to ask for next, empty when
	// qualification is complete.
	NextQuestion Field
	// AvoidanceFlagged is set when the second consecutive budget
	// avoidance forces the flow past the budget question.
	AvoidanceFlagged bool
	// AvoidanceDetected is set when this message dodged the budget
	// question, flagged or not.
	AvoidanceDetected bool
}

var projectTypes = []struct {
	value    string
	keywords []string
}{
	{"website", []string{"website", "web site", "web app", "web application"}},
	{"mobile-app", []string{"mobile app", "mobile application", "ios app", "android app"}},
	{"e-commerce", []string{"e-commerce", "ecommerce", "online store", "shop"}},
	{"custom-software", []string{"custom software", "software", "system", "platform"}},
}

var businessTypes = []struct {
	value    string
	keywords []string
}{
	{"startup", []string{"startup", "start-up", "new business"}},
	{"enterprise", []string{"enterprise", "large company", "corporation"}},
	{"agency", []string{"agency", "consulting"}},
	{"small-business", []string{"small business", "smb"}},
}

var avoidancePhrases = []string{
	"not sure",
	"don't know",
	"later",
	"discuss later",
	"flexible",
	"depends",
	"varies",
}

var questions = map[Field]string{
	FieldProjectType:  "What type of project are you looking to build?",
	FieldBudget:       "What's your budget range for this project?",
	FieldTimeline:     "When do you need this completed?",
	FieldBusinessType: "What type of business are you?",
}

const fallbackQuestion = "Can you tell me more about your needs?"

var (
	// $5,000 / $5k / $5 thousand
	budgetDollarRe = regexp.MustCompile(`(?i)\$\s*(\d+(?:,\d{3})*(?:\.\d{2})?)\s*(k|thousand)?`)
	// 5000 dollars / 5000 usd
	budgetWordRe = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*)\s*(?:dollars|usd)`)
	// 5-10k range, scored on the lower bound
	budgetRangeRe = regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*(k|thousand)?`)

	timelineDurationRe = regexp.MustCompile(`(?i)\d+\s*(?:week|month|day)s?`)
	timelineUrgentRe   = regexp.MustCompile(`(?i)urgent|asap|immediately`)
	timelineFlexibleRe = regexp.MustCompile(`(?i)flexible|no rush`)
)

// Budget is a parsed budget answer: the verbatim matched text plus its
// numeric interpretation in whole currency units.
type Budget struct {
	Raw     string
	Numeric int
}

// ProcessMessage applies one inbound message to the lead's qualification
// progress, targeting exactly one missing field in the fixed order
// project type, budget, timeline, business type. The lead is mutated in
// place. Budget answers get avoidance handling: the second consecutive
// dodge flags the lead and advances past the budget question.
func ProcessMessage(lead *Lead, message string) StepResult {
	switch {
	case lead.ProjectType == "":
		if pt, ok := ExtractProjectType(message); ok {
			lead.ProjectType = pt
			return StepResult{Extracted: FieldProjectType, NextQuestion: FieldBudget}
		}
		return StepResult{NextQuestion: FieldProjectType}

	case lead.Budget == "" && lead.BudgetAvoidanceCount < 2:
		if b, ok := ExtractBudget(message); ok {
			lead.Budget = b.Raw
			lead.BudgetNumeric = &b.Numeric
			return StepResult{Extracted: FieldBudget, NextQuestion: FieldTimeline}
		}
		if IsBudgetAvoidance(message) {
			lead.BudgetAvoidanceCount++
			if lead.BudgetAvoidanceCount >= 2 {
				return StepResult{
					NextQuestion:      FieldTimeline,
					AvoidanceFlagged:  true,
					AvoidanceDetected: true,
				}
			}
			return StepResult{NextQuestion: FieldBudget, AvoidanceDetected: true}
		}
		return StepResult{NextQuestion: FieldBudget}

	case lead.Timeline == "":
		if tl, ok := ExtractTimeline(message); ok {
			lead.Timeline = tl
			return StepResult{Extracted: FieldTimeline, NextQuestion: FieldBusinessType}
		}
		return StepResult{NextQuestion: FieldTimeline}

	case lead.BusinessType == "":
		if bt, ok := ExtractBusinessType(message); ok {
			lead.BusinessType = bt
			return StepResult{Extracted: FieldBusinessType}
		}
		return StepResult{NextQuestion: FieldBusinessType}
	}

	return StepResult{}
}

// IsComplete reports whether all four fields are collected. Two budget
// avoidances count as a (flagged) budget answer.
func IsComplete(lead *Lead) bool {
	return lead.ProjectType != "" &&
		(lead.Budget != "" || lead.BudgetAvoidanceCount >= 2) &&
		lead.Timeline != "" &&
		lead.BusinessType != ""
}

// ExtractProjectType matches the message against known project type
// keywords.
func ExtractProjectType(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, pt := range projectTypes {
		for _, kw := range pt.keywords {
			if strings.Contains(lower, kw) {
				return pt.value, true
			}
		}
	}
	return "", false
}

// ExtractBusinessType matches the message against known business type
// keywords.
func ExtractBusinessType(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, bt := range businessTypes {
		for _, kw := range bt.keywords {
			if strings.Contains(lower, kw) {
				return bt.value, true
			}
		}
	}
	return "", false
}

// ExtractBudget parses a budget mention from the message. A "k" or
// "thousand" suffix multiplies by 1000; ranges are scored on their lower
// bound.
func ExtractBudget(message string) (Budget, bool) {
	if m := budgetDollarRe.FindStringSubmatch(message); m != nil {
		if n, ok := parseAmount(m[1], m[2]); ok {
			return Budget{Raw: strings.TrimSpace(m[0]), Numeric: n}, true
		}
	}
	if m := budgetWordRe.FindStringSubmatch(message); m != nil {
		if n, ok := parseAmount(m[1], ""); ok {
			return Budget{Raw: strings.TrimSpace(m[0]), Numeric: n}, true
		}
	}
	if m := budgetRangeRe.FindStringSubmatch(message); m != nil {
		if n, ok := parseAmount(m[1], m[3]); ok {
			return Budget{Raw: strings.TrimSpace(m[0]), Numeric: n}, true
		}
	}
	return Budget{}, false
}

func parseAmount(digits, suffix string) (int, bool) {
	digits = strings.ReplaceAll(digits, ",", "")
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		digits = digits[:i]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	if suffix != "" {
		n *= 1000
	}
	return n, true
}

// ExtractTimeline pulls a timeline phrase from the message: an explicit
// duration, an urgency keyword or a flexibility keyword.
func ExtractTimeline(message string) (string, bool) {
	for _, re := range []*regexp.Regexp{timelineDurationRe, timelineUrgentRe, timelineFlexibleRe} {
		if m := re.FindString(message); m != "" {
			return m, true
		}
	}
	return "", false
}

// IsBudgetAvoidance reports whether the message dodges the budget
// question.
func IsBudgetAvoidance(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range avoidancePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// QuestionText returns the prompt for the next missing field.
func QuestionText(field Field) string {
	if q, ok := questions[field]; ok {
		return q
	}
	return fallbackQuestion
}
