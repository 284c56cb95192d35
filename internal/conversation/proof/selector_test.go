package proof

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestSelector() *Selector {
	return NewSelector(func() time.Time { return testNow })
}

func daysAgo(d int) *time.Time {
	t := testNow.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func TestShouldInject(t *testing.T) {
	s := newTestSelector()

	tests := []struct {
		name        string
		injected    int
		projectType string
		state       domain.State
		want        bool
	}{
		{"qualification with type", 0, "e-commerce", domain.StateQualification, true},
		{"proof delivery with type", 0, "mobile-app", domain.StateProofDelivery, true},
		{"cap reached", 1, "e-commerce", domain.StateQualification, false},
		{"no project type", 0, "", domain.StateQualification, false},
		{"wrong state", 0, "e-commerce", domain.StateGreeting, false},
		{"scoring state", 0, "e-commerce", domain.StateScoring, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.ShouldInject(tc.injected, tc.projectType, tc.state)
			if got != tc.want {
				t.Errorf("ShouldInject(%d, %q, %s) = %v, want %v",
					tc.injected, tc.projectType, tc.state, got, tc.want)
			}
		})
	}
}

func TestTypeMatchScore(t *testing.T) {
	tests := []struct {
		assetType string
		leadType  string
		want      float64
	}{
		{"e-commerce", "e-commerce", 1.0},
		{"E-Commerce", "e-commerce", 1.0},
		{"e-commerce", "e-commerce-website", 0.7},
		{"mobile-app redesign", "mobile-app", 0.7},
		{"testimonial", "e-commerce", 0.0},
		{"", "e-commerce", 0.0},
		{"e-commerce", "", 0.0},
	}

	for _, tc := range tests {
		if got := typeMatchScore(tc.assetType, tc.leadType); got != tc.want {
			t.Errorf("typeMatchScore(%q, %q) = %v, want %v", tc.assetType, tc.leadType, got, tc.want)
		}
	}
}

func TestSelectPrefersExactMatch(t *testing.T) {
	s := newTestSelector()

	exact := Asset{ID: uuid.New(), ProjectType: "e-commerce", Active: true}
	partial := Asset{ID: uuid.New(), ProjectType: "e-commerce-website", Active: true}
	unrelated := Asset{ID: uuid.New(), ProjectType: "branding", Active: true}

	got, ok := s.Select("e-commerce", []Asset{unrelated, partial, exact})
	if !ok {
		t.Fatal("expected a selection")
	}
	if got.ID != exact.ID {
		t.Fatalf("selected %s, want exact match %s", got.ProjectType, exact.ProjectType)
	}
}

func TestSelectSkipsInactiveAndWeakMatches(t *testing.T) {
	s := newTestSelector()

	inactive := Asset{ID: uuid.New(), ProjectType: "e-commerce", Active: false}
	unrelated := Asset{ID: uuid.New(), ProjectType: "branding", Active: true}

	if _, ok := s.Select("e-commerce", []Asset{inactive, unrelated}); ok {
		t.Fatal("expected no selection from inactive and unrelated assets")
	}
	if _, ok := s.Select("e-commerce", nil); ok {
		t.Fatal("expected no selection from empty candidate list")
	}
}

func TestLessRecentlyUsedScoresAtLeastAsHigh(t *testing.T) {
	s := newTestSelector()

	stale := Asset{ProjectType: "mobile-app", UsageCount: 3, LastUsedAt: daysAgo(40)}
	fresh := Asset{ProjectType: "mobile-app", UsageCount: 3, LastUsedAt: daysAgo(1)}
	never := Asset{ProjectType: "mobile-app", UsageCount: 3}

	if s.RelevanceScore(stale, "mobile-app") < s.RelevanceScore(fresh, "mobile-app") {
		t.Fatal("less recently used asset must score at least as high")
	}
	if s.RelevanceScore(never, "mobile-app") < s.RelevanceScore(stale, "mobile-app") {
		t.Fatal("never-used asset must score at least as high as any used one")
	}
}

func TestSelectTieKeepsInputOrder(t *testing.T) {
	s := newTestSelector()

	first := Asset{ID: uuid.New(), ProjectType: "mobile-app", Active: true}
	second := Asset{ID: uuid.New(), ProjectType: "mobile-app", Active: true}

	for i := 0; i < 5; i++ {
		got, ok := s.Select("mobile-app", []Asset{first, second})
		if !ok {
			t.Fatal("expected a selection")
		}
		if got.ID != first.ID {
			t.Fatal("tie must resolve to the earliest candidate")
		}
	}
}

func TestUsageScoreSteps(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 1.0}, {1, 0.95}, {2, 0.9}, {3, 0.85}, {4, 0.8}, {5, 0.75},
		{6, 0.6}, {10, 0.6}, {11, 0.4}, {20, 0.4}, {21, 0.2}, {50, 0.2}, {51, 0.1},
	}

	for _, tc := range tests {
		if got := usageScore(tc.count); got != tc.want {
			t.Errorf("usageScore(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	full := Asset{
		Title:       "Webshop relaunch for Fieldnote",
		Description: "Conversion up 40% in the first quarter.",
		ContentText: "\"They shipped in six weeks.\"",
		ContentURL:  "https://example.com/case/fieldnote",
	}

	msg := FormatMessage(full)
	for _, want := range []string{full.Title, full.Description, full.ContentText, full.ContentURL} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	bare := FormatMessage(Asset{Title: "Portfolio"})
	if !strings.Contains(bare, "Portfolio") || strings.Contains(bare, "https://") {
		t.Errorf("unexpected bare message: %q", bare)
	}
}
