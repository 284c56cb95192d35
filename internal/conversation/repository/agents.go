package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, name, email, is_available, created_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.IsAvailable, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

func (r *Repository) CreateAgent(ctx context.Context, name, email string) (Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `
		INSERT INTO agents (name, email)
		VALUES ($1, $2)
		RETURNING `+agentColumns, name, email))
}

func (r *Repository) GetAgent(ctx context.Context, id uuid.UUID) (Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		WHERE id = $1
	`, id))
}

// ListAvailableAgents returns agents currently accepting handovers,
// least-loaded first by open handover count.
func (r *Repository) ListAvailableAgents(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.name, a.email, a.is_available, a.created_at
		FROM agents a
		LEFT JOIN conversations c
			ON c.assigned_agent_id = a.id AND c.ended_at IS NULL AND c.is_bot_active = false
		WHERE a.is_available = true
		GROUP BY a.id
		ORDER BY COUNT(c.id) ASC, a.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Agent, 0)
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.IsAvailable, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// SetAgentAvailability toggles whether an agent receives new handovers.
func (r *Repository) SetAgentAvailability(ctx context.Context, id uuid.UUID, available bool) (Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `
		UPDATE agents
		SET is_available = $2
		WHERE id = $1
		RETURNING `+agentColumns, id, available))
}
