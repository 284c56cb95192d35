package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/conversation/domain"
)

const conversationColumns = `id, lead_id, current_state, previous_state, is_bot_active,
	assigned_agent_id, message_count, proof_asset_count, started_at, ended_at, updated_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID, &c.LeadID, &c.CurrentState, &c.PreviousState, &c.IsBotActive,
		&c.AssignedAgentID, &c.MessageCount, &c.ProofAssetCount, &c.StartedAt, &c.EndedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) GetConversation(ctx context.Context, id uuid.UUID) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1
	`, id))
}

// GetActiveConversationByLead returns the lead's open conversation:
// not ended, not in the terminal state.
func (r *Repository) GetActiveConversationByLead(ctx context.Context, leadID uuid.UUID) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE lead_id = $1 AND ended_at IS NULL AND current_state <> $2
		ORDER BY started_at DESC
		LIMIT 1
	`, leadID, domain.StateExit))
}

func (r *Repository) CreateConversation(ctx context.Context, leadID uuid.UUID) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `
		INSERT INTO conversations (lead_id, current_state)
		VALUES ($1, $2)
		RETURNING `+conversationColumns, leadID, domain.InitialState))
}

// TransitionState moves a conversation to a new state and appends the
// audit entry in the same transaction. The WHERE clause re-checks the
// expected current state so a concurrent writer cannot apply a stale
// transition.
func (r *Repository) TransitionState(ctx context.Context, conversationID uuid.UUID, from, to domain.State, trigger string) (Conversation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Conversation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	conv, err := scanConversation(tx.QueryRow(ctx, `
		UPDATE conversations
		SET previous_state = current_state,
			current_state = $3,
			ended_at = CASE WHEN $3 = $4 THEN now() ELSE ended_at END,
			updated_at = now()
		WHERE id = $1 AND current_state = $2
		RETURNING `+conversationColumns,
		conversationID, from, to, domain.StateExit))
	if err != nil {
		return Conversation{}, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO state_transitions (conversation_id, from_state, to_state, trigger)
		VALUES ($1, $2, $3, $4)
	`, conversationID, from, to, trigger); err != nil {
		return Conversation{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// IncrementMessageCount bumps the exchanged-message counter and returns
// the new value.
func (r *Repository) IncrementMessageCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		UPDATE conversations
		SET message_count = message_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING message_count
	`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return count, err
}

// SetBotActive flips conversational control between bot and human. The
// agent is recorded on takeover and kept for the audit trail on release.
func (r *Repository) SetBotActive(ctx context.Context, id uuid.UUID, botActive bool, agentID *uuid.UUID) (Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx, `
		UPDATE conversations
		SET is_bot_active = $2,
			assigned_agent_id = COALESCE($3, assigned_agent_id),
			updated_at = now()
		WHERE id = $1
		RETURNING `+conversationColumns, id, botActive, agentID))
}

// ListTransitions returns the append-only audit trail for a
// conversation, oldest first.
func (r *Repository) ListTransitions(ctx context.Context, conversationID uuid.UUID) ([]StateTransition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, from_state, to_state, trigger, created_at
		FROM state_transitions
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StateTransition, 0)
	for rows.Next() {
		var t StateTransition
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.FromState, &t.ToState, &t.Trigger, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
