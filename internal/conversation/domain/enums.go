package domain

// ScoreCategory buckets a total lead score.
type ScoreCategory string

const (
	ScoreLow    ScoreCategory = "LOW"
	ScoreMedium ScoreCategory = "MEDIUM"
	ScoreHigh   ScoreCategory = "HIGH"
)

// Category thresholds. HIGH gates human handover, so these values are
// load-bearing: changing them changes who gets a human.
const (
	HighScoreThreshold   = 70
	MediumScoreThreshold = 40
)

// CategorizeScore maps a total score (0-100) onto a category.
func CategorizeScore(total int) ScoreCategory {
	switch {
	case total >= HighScoreThreshold:
		return ScoreHigh
	case total >= MediumScoreThreshold:
		return ScoreMedium
	default:
		return ScoreLow
	}
}

// FollowUpScenario identifies why a follow-up chain was started.
type FollowUpScenario string

const (
	ScenarioInactive      FollowUpScenario = "INACTIVE"
	ScenarioCallNotBooked FollowUpScenario = "CALL_NOT_BOOKED"
	ScenarioCallMissed    FollowUpScenario = "CALL_MISSED"
	ScenarioProposalSent  FollowUpScenario = "PROPOSAL_SENT"
)

// MaxFollowUpAttempts is the hard cap on re-engagement attempts per chain.
const MaxFollowUpAttempts = 3

// Sender identifies who authored a message.
type Sender string

const (
	SenderLead  Sender = "LEAD"
	SenderBot   Sender = "BOT"
	SenderAgent Sender = "AGENT"
)

// ProofAssetType classifies catalog proof content.
type ProofAssetType string

const (
	AssetPortfolio   ProofAssetType = "PORTFOLIO"
	AssetCaseStudy   ProofAssetType = "CASE_STUDY"
	AssetTestimonial ProofAssetType = "TESTIMONIAL"
)

// MaxProofAssetsPerConversation caps asset injections per conversation.
const MaxProofAssetsPerConversation = 1

// Outcome is the result of processing one inbound message.
type Outcome string

const (
	OutcomeReplied     Outcome = "replied"
	OutcomeHumanActive Outcome = "human_active"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeError       Outcome = "error"
)
