package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/conversation/domain"
)

const scoreColumns = `id, lead_id, total_score, budget_score, timeline_score, clarity_score,
	country_score, behavior_score, category, reasoning, triggered_handover, created_at`

func scanScore(row pgx.Row) (LeadScore, error) {
	var s LeadScore
	err := row.Scan(
		&s.ID, &s.LeadID, &s.TotalScore, &s.BudgetScore, &s.TimelineScore, &s.ClarityScore,
		&s.CountryScore, &s.BehaviorScore, &s.Category, &s.Reasoning, &s.TriggeredHandover, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeadScore{}, ErrNotFound
	}
	return s, err
}

type CreateScoreParams struct {
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
}

// CreateScore appends a score record. Scores are never updated; each
// scoring run produces a new row.
func (r *Repository) CreateScore(ctx context.Context, params CreateScoreParams) (LeadScore, error) {
	return scanScore(r.pool.QueryRow(ctx, `
		INSERT INTO lead_scores (
			lead_id, total_score, budget_score, timeline_score, clarity_score,
			country_score, behavior_score, category, reasoning, triggered_handover
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+scoreColumns,
		params.LeadID, params.TotalScore, params.BudgetScore, params.TimelineScore,
		params.ClarityScore, params.CountryScore, params.BehaviorScore,
		params.Category, params.Reasoning, params.TriggeredHandover))
}

func (r *Repository) GetLatestScoreByLead(ctx context.Context, leadID uuid.UUID) (LeadScore, error) {
	return scanScore(r.pool.QueryRow(ctx, `
		SELECT `+scoreColumns+`
		FROM lead_scores
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, leadID))
}
