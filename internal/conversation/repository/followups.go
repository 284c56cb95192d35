package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/conversation/domain"
)

const followUpColumns = `id, lead_id, scenario, attempt_number, scheduled_at,
	message_content, sent_at, cancelled, responded_at, created_at`

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var f FollowUp
	err := row.Scan(
		&f.ID, &f.LeadID, &f.Scenario, &f.AttemptNumber, &f.ScheduledAt,
		&f.MessageContent, &f.SentAt, &f.Cancelled, &f.RespondedAt, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrNotFound
	}
	return f, err
}

type CreateFollowUpParams struct {
	LeadID         uuid.UUID
	Scenario       domain.FollowUpScenario
	AttemptNumber  int
	ScheduledAt    time.Time
	MessageContent string
}

func (r *Repository) CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error) {
	return scanFollowUp(r.pool.QueryRow(ctx, `
		INSERT INTO follow_ups (lead_id, scenario, attempt_number, scheduled_at, message_content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+followUpColumns,
		params.LeadID, params.Scenario, params.AttemptNumber, params.ScheduledAt, params.MessageContent))
}

func (r *Repository) GetFollowUp(ctx context.Context, id uuid.UUID) (FollowUp, error) {
	return scanFollowUp(r.pool.QueryRow(ctx, `
		SELECT `+followUpColumns+`
		FROM follow_ups
		WHERE id = $1
	`, id))
}

// CancelPendingFollowUps cancels every unsent, non-cancelled follow-up
// for a lead. Called when the lead sends any inbound message.
func (r *Repository) CancelPendingFollowUps(ctx context.Context, leadID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE follow_ups
		SET cancelled = true
		WHERE lead_id = $1 AND sent_at IS NULL AND cancelled = false
	`, leadID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListDueFollowUps returns follow-ups whose scheduled time has passed
// and that are still pending.
func (r *Repository) ListDueFollowUps(ctx context.Context, now time.Time) ([]FollowUp, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+followUpColumns+`
		FROM follow_ups
		WHERE scheduled_at <= $1 AND sent_at IS NULL AND cancelled = false
		ORDER BY scheduled_at ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FollowUp, 0)
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(
			&f.ID, &f.LeadID, &f.Scenario, &f.AttemptNumber, &f.ScheduledAt,
			&f.MessageContent, &f.SentAt, &f.Cancelled, &f.RespondedAt, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// MarkFollowUpSent claims a follow-up for sending. The WHERE clause
// makes the claim atomic: only one dispatcher can flip sent_at, so
// overlapping dispatch runs cannot double-send. ErrNotFound means
// another run already claimed it, or it was cancelled in the meantime.
func (r *Repository) MarkFollowUpSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (FollowUp, error) {
	return scanFollowUp(r.pool.QueryRow(ctx, `
		UPDATE follow_ups
		SET sent_at = $2
		WHERE id = $1 AND sent_at IS NULL AND cancelled = false
		RETURNING `+followUpColumns, id, sentAt))
}

// MarkFollowUpResponded records that the lead replied after this
// follow-up went out.
func (r *Repository) MarkFollowUpResponded(ctx context.Context, id uuid.UUID, respondedAt time.Time) (FollowUp, error) {
	return scanFollowUp(r.pool.QueryRow(ctx, `
		UPDATE follow_ups
		SET responded_at = $2
		WHERE id = $1
		RETURNING `+followUpColumns, id, respondedAt))
}

// GetLatestSentFollowUp returns the most recently sent follow-up for a
// lead, used by the attempt-progression hook.
func (r *Repository) GetLatestSentFollowUp(ctx context.Context, leadID uuid.UUID) (FollowUp, error) {
	return scanFollowUp(r.pool.QueryRow(ctx, `
		SELECT `+followUpColumns+`
		FROM follow_ups
		WHERE lead_id = $1 AND sent_at IS NOT NULL
		ORDER BY sent_at DESC
		LIMIT 1
	`, leadID))
}
