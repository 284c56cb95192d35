package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/conversation/domain"
)

const messageColumns = `id, conversation_id, sender, content, detected_intent,
	intent_confidence, external_message_id, created_at`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.DetectedIntent,
		&m.IntentConfidence, &m.ExternalMessageID, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

type CreateMessageParams struct {
	ConversationID    uuid.UUID
	Sender            domain.Sender
	Content           string
	DetectedIntent    *string
	IntentConfidence  *float64
	ExternalMessageID *string
}

func (r *Repository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender, content, detected_intent, intent_confidence, external_message_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		params.ConversationID, params.Sender, params.Content,
		params.DetectedIntent, params.IntentConfidence, params.ExternalMessageID))
}

// GetMessageByExternalID looks up a message by the channel-provided id,
// the dedup key for webhook replays.
func (r *Repository) GetMessageByExternalID(ctx context.Context, externalID string) (Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE external_message_id = $1
	`, externalID))
}

func (r *Repository) ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.DetectedIntent,
			&m.IntentConfidence, &m.ExternalMessageID, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
