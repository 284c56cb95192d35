// Package proof selects credibility content (portfolio items, case
// studies, testimonials) to inject into a qualification conversation.
package proof

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
)

// Relevance weights. Project type match dominates; usage pressure and
// recency spread exposure across the catalog.
const (
	typeMatchWeight = 0.6
	usageWeight     = 0.25
	recencyWeight   = 0.15

	// minRelevance filters out weak matches entirely. Sending a
	// mismatched case study is worse than sending nothing.
	minRelevance = 0.5
)

// injectionStates are the only states where sending an asset reads
// naturally in the conversation flow.
var injectionStates = map[domain.State]bool{
	domain.StateQualification: true,
	domain.StateProofDelivery: true,
}

// Asset is the selector's view of a catalog proof asset.
type Asset struct {
	ID          uuid.UUID
	Type        domain.ProofAssetType
	ProjectType string
	Title       string
	Description string
	ContentURL  string
	ContentText string
	UsageCount  int
	LastUsedAt  *time.Time
	Active      bool
}

// Selector scores and picks proof assets. The clock is injected so
// recency scoring is testable.
type Selector struct {
	now func() time.Time
}

func NewSelector(now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{now: now}
}

// ShouldInject reports whether an asset may be injected in the current
// conversation context: under the per-conversation cap, with a known
// project type, in an injection-appropriate state.
func (s *Selector) ShouldInject(injectedCount int, projectType string, state domain.State) bool {
	if injectedCount >= domain.MaxProofAssetsPerConversation {
		return false
	}
	if projectType == "" {
		return false
	}
	return injectionStates[state]
}

// Select returns the most relevant active asset for the project type, or
// false when nothing clears the relevance threshold. Ties keep the
// earliest candidate, so selection is deterministic for a given input
// order.
func (s *Selector) Select(projectType string, candidates []Asset) (Asset, bool) {
	var (
		best      Asset
		bestScore float64
		found     bool
	)

	for _, a := range candidates {
		if !a.Active {
			continue
		}
		score := s.RelevanceScore(a, projectType)
		if score < minRelevance {
			continue
		}
		if !found || score > bestScore {
			best = a
			bestScore = score
			found = true
		}
	}

	return best, found
}

// RelevanceScore computes the weighted relevance of an asset for a
// project type, in [0, 1].
func (s *Selector) RelevanceScore(a Asset, projectType string) float64 {
	score := typeMatchScore(a.ProjectType, projectType)*typeMatchWeight +
		usageScore(a.UsageCount)*usageWeight +
		s.recencyScore(a.LastUsedAt)*recencyWeight
	return min(score, 1.0)
}

// typeMatchScore: exact case-insensitive match scores full, a substring
// match in either direction scores partial, anything else scores zero.
func typeMatchScore(assetType, leadType string) float64 {
	if assetType == "" || leadType == "" {
		return 0.0
	}

	at := strings.ToLower(strings.TrimSpace(assetType))
	lt := strings.ToLower(strings.TrimSpace(leadType))

	switch {
	case at == lt:
		return 1.0
	case strings.Contains(lt, at) || strings.Contains(at, lt):
		return 0.7
	default:
		return 0.0
	}
}

// usageScore prefers assets that have been shown less often.
func usageScore(usageCount int) float64 {
	switch {
	case usageCount == 0:
		return 1.0
	case usageCount == 1:
		return 0.95
	case usageCount == 2:
		return 0.9
	case usageCount == 3:
		return 0.85
	case usageCount == 4:
		return 0.8
	case usageCount == 5:
		return 0.75
	case usageCount <= 10:
		return 0.6
	case usageCount <= 20:
		return 0.4
	case usageCount <= 50:
		return 0.2
	default:
		return 0.1
	}
}

// recencyScore prefers assets that have not been shown recently. Never
// used scores highest.
func (s *Selector) recencyScore(lastUsedAt *time.Time) float64 {
	if lastUsedAt == nil {
		return 1.0
	}

	days := int(s.now().Sub(*lastUsedAt).Hours() / 24)
	switch {
	case days >= 30:
		return 1.0
	case days >= 14:
		return 0.8
	case days >= 7:
		return 0.6
	case days >= 3:
		return 0.4
	default:
		return 0.2
	}
}

// FormatMessage renders an asset as outbound channel text. Only the
// populated parts are included.
func FormatMessage(a Asset) string {
	var parts []string

	if a.Title != "" {
		parts = append(parts, "\U0001F4C1 "+a.Title)
	}
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if a.ContentText != "" {
		parts = append(parts, "\n"+a.ContentText)
	}
	if a.ContentURL != "" {
		parts = append(parts, "\n\U0001F517 "+a.ContentURL)
	}

	return strings.Join(parts, "\n")
}
