// Package intent classifies inbound lead messages. The primary detector
// is an external capability; a rule-based pattern matcher backs it up
// whenever the external result is missing or not confident enough.
package intent

import (
	"context"
	"regexp"
	"strings"
)

// Known intents.
const (
	IntentGreeting         = "greeting"
	IntentProjectInquiry   = "project_inquiry"
	IntentPricingInquiry   = "pricing_inquiry"
	IntentBudgetQuestion   = "budget_question"
	IntentTimelineQuestion = "timeline_question"
	IntentGeneralQuestion  = "general_question"
)

// ConfidenceThreshold is the minimum primary-detector confidence below
// which the orchestrator must fall back to pattern matching.
const ConfidenceThreshold = 0.7

// Result is one classification outcome.
type Result struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method,omitempty"`
}

// Detector classifies a message.
type Detector interface {
	Detect(ctx context.Context, message string) (Result, error)
}

// patternRules are checked in order; the first match wins.
var patternRules = []struct {
	intent string
	re     *regexp.Regexp
}{
	{IntentGreeting, regexp.MustCompile(`(?i)\b(hi|hello|hey|good morning|good afternoon|good evening)\b`)},
	{IntentProjectInquiry, regexp.MustCompile(`(?i)\b(need|want|looking for|require)\b.*\b(website|app|mobile|platform|system)\b`)},
	{IntentPricingInquiry, regexp.MustCompile(`(?i)\b(price|cost|how much|pricing|quote|estimate)\b`)},
	{IntentBudgetQuestion, regexp.MustCompile(`(?i)\b(budget|afford|spend|investment)\b`)},
	{IntentTimelineQuestion, regexp.MustCompile(`(?i)\b(when|timeline|deadline|how long|duration)\b`)},
}

var pricingKeywords = []string{
	"price", "cost", "how much", "pricing", "quote", "estimate", "payment", "pay",
}

// PatternDetector is the rule-based fallback classifier. It never fails.
type PatternDetector struct{}

func NewPatternDetector() *PatternDetector {
	return &PatternDetector{}
}

// Detect matches the message against the rule set. Pattern hits are
// fairly reliable; anything unmatched becomes a low-confidence general
// question.
func (d *PatternDetector) Detect(_ context.Context, message string) (Result, error) {
	for _, rule := range patternRules {
		if rule.re.MatchString(message) {
			return Result{Intent: rule.intent, Confidence: 0.85, Method: "pattern"}, nil
		}
	}
	return Result{Intent: IntentGeneralQuestion, Confidence: 0.6, Method: "default"}, nil
}

// GatedDetector runs the primary detector and falls back to pattern
// matching when the primary fails or reports confidence below the
// threshold. Its own Detect never returns an error.
type GatedDetector struct {
	primary  Detector
	fallback *PatternDetector
}

// NewGatedDetector wraps primary with the pattern fallback. A nil
// primary degrades to pure pattern matching.
func NewGatedDetector(primary Detector) *GatedDetector {
	return &GatedDetector{primary: primary, fallback: NewPatternDetector()}
}

func (d *GatedDetector) Detect(ctx context.Context, message string) (Result, error) {
	if d.primary != nil {
		res, err := d.primary.Detect(ctx, message)
		if err == nil && res.Confidence >= ConfidenceThreshold {
			return res, nil
		}
	}
	return d.fallback.Detect(ctx, message)
}

// IsPricingInquiry reports whether the message asks for concrete prices.
// Pricing always routes to a human, so this check is independent of the
// classified intent.
func IsPricingInquiry(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range pricingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
