package intent

import (
	"context"
	"errors"
	"testing"
)

func TestPatternDetector(t *testing.T) {
	d := NewPatternDetector()

	tests := []struct {
		message string
		want    string
	}{
		{"Hi there", IntentGreeting},
		{"good morning!", IntentGreeting},
		{"I need a website for my shop", IntentProjectInquiry},
		{"we are looking for a mobile platform", IntentProjectInquiry},
		{"how much does it cost", IntentPricingInquiry},
		{"can you give me a quote", IntentPricingInquiry},
		{"our budget is limited", IntentBudgetQuestion},
		{"when can you deliver", IntentTimelineQuestion},
		{"tell me about your company", IntentGeneralQuestion},
	}

	for _, tc := range tests {
		res, err := d.Detect(context.Background(), tc.message)
		if err != nil {
			t.Fatalf("Detect(%q): %v", tc.message, err)
		}
		if res.Intent != tc.want {
			t.Errorf("Detect(%q) = %s, want %s", tc.message, res.Intent, tc.want)
		}
		if res.Intent == IntentGeneralQuestion && res.Confidence >= ConfidenceThreshold {
			t.Errorf("default classification must be low confidence, got %v", res.Confidence)
		}
	}
}

type stubDetector struct {
	res Result
	err error
}

func (s *stubDetector) Detect(context.Context, string) (Result, error) {
	return s.res, s.err
}

func TestGatedDetectorTrustsConfidentPrimary(t *testing.T) {
	d := NewGatedDetector(&stubDetector{res: Result{Intent: IntentProjectInquiry, Confidence: 0.92}})

	res, err := d.Detect(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if res.Intent != IntentProjectInquiry || res.Confidence != 0.92 {
		t.Fatalf("got %+v, want confident primary result", res)
	}
}

func TestGatedDetectorFallsBackOnLowConfidence(t *testing.T) {
	d := NewGatedDetector(&stubDetector{res: Result{Intent: IntentGeneralQuestion, Confidence: 0.5}})

	res, err := d.Detect(context.Background(), "hi there")
	if err != nil {
		t.Fatal(err)
	}
	if res.Intent != IntentGreeting || res.Method != "pattern" {
		t.Fatalf("expected pattern fallback, got %+v", res)
	}
}

func TestGatedDetectorFallsBackOnError(t *testing.T) {
	d := NewGatedDetector(&stubDetector{err: errors.New("upstream timeout")})

	res, err := d.Detect(context.Background(), "how much would this cost")
	if err != nil {
		t.Fatalf("gated detect must not surface primary errors: %v", err)
	}
	if res.Intent != IntentPricingInquiry {
		t.Fatalf("expected pricing inquiry from fallback, got %+v", res)
	}
}

func TestGatedDetectorWithoutPrimary(t *testing.T) {
	d := NewGatedDetector(nil)

	res, err := d.Detect(context.Background(), "hey")
	if err != nil {
		t.Fatal(err)
	}
	if res.Intent != IntentGreeting {
		t.Fatalf("got %+v", res)
	}
}

func TestIsPricingInquiry(t *testing.T) {
	positive := []string{
		"what's the price?",
		"how much for an app like this",
		"send me an estimate",
		"can I pay in installments",
	}
	for _, msg := range positive {
		if !IsPricingInquiry(msg) {
			t.Errorf("IsPricingInquiry(%q) = false, want true", msg)
		}
	}

	if IsPricingInquiry("I need a website") {
		t.Error("project inquiry misclassified as pricing")
	}
}
