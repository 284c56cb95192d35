// Package repository persists leads, conversations and everything that
// hangs off them. All multi-row consistency requirements (state
// transitions with their audit entries, asset injections with their
// usage counters) are enforced here with transactions so callers can
// never observe torn state.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/conversation/domain"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                   uuid.UUID
	PhoneNumber          string
	Country              *string
	ProjectType          *string
	Budget               *string
	BudgetNumeric        *int
	Timeline             *string
	BusinessType         *string
	BudgetAvoidanceCount int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Conversation struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	CurrentState    domain.State
	PreviousState   *domain.State
	IsBotActive     bool
	AssignedAgentID *uuid.UUID
	MessageCount    int
	ProofAssetCount int
	StartedAt       time.Time
	EndedAt         *time.Time
	UpdatedAt       time.Time
}

type Message struct {
	ID                uuid.UUID
	ConversationID    uuid.UUID
	Sender            domain.Sender
	Content           string
	DetectedIntent    *string
	IntentConfidence  *float64
	ExternalMessageID *string
	CreatedAt         time.Time
}

type LeadScore struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	TotalScore        int
	BudgetScore       int
	TimelineScore     int
	ClarityScore      int
	CountryScore      int
	BehaviorScore     int
	Category          domain.ScoreCategory
	Reasoning         string
	TriggeredHandover bool
	CreatedAt         time.Time
}

type FollowUp struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	Scenario       domain.FollowUpScenario
	AttemptNumber  int
	ScheduledAt    time.Time
	MessageContent string
	SentAt         *time.Time
	Cancelled      bool
	RespondedAt    *time.Time
	CreatedAt      time.Time
}

type StateTransition struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	FromState      domain.State
	ToState        domain.State
	Trigger        string
	CreatedAt      time.Time
}

type ProofAsset struct {
	ID          uuid.UUID
	AssetType   domain.ProofAssetType
	ProjectType string
	Title       string
	Description *string
	ContentURL  *string
	ContentText *string
	UsageCount  int
	LastUsedAt  *time.Time
	IsActive    bool
	CreatedAt   time.Time
}

type Agent struct {
	ID          uuid.UUID
	Name        string
	Email       string
	IsAvailable bool
	CreatedAt   time.Time
}

// Health pings the database.
func (r *Repository) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
