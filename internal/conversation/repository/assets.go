package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/conversation/domain"
)

const assetColumns = `id, asset_type, project_type, title, description, content_url,
	content_text, usage_count, last_used_at, is_active, created_at`

func scanAsset(row pgx.Row) (ProofAsset, error) {
	var a ProofAsset
	err := row.Scan(
		&a.ID, &a.AssetType, &a.ProjectType, &a.Title, &a.Description, &a.ContentURL,
		&a.ContentText, &a.UsageCount, &a.LastUsedAt, &a.IsActive, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProofAsset{}, ErrNotFound
	}
	return a, err
}

type CreateAssetParams struct {
	AssetType   domain.ProofAssetType
	ProjectType string
	Title       string
	Description *string
	ContentURL  *string
	ContentText *string
}

func (r *Repository) CreateAsset(ctx context.Context, params CreateAssetParams) (ProofAsset, error) {
	return scanAsset(r.pool.QueryRow(ctx, `
		INSERT INTO proof_assets (asset_type, project_type, title, description, content_url, content_text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+assetColumns,
		params.AssetType, params.ProjectType, params.Title,
		params.Description, params.ContentURL, params.ContentText))
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (ProofAsset, error) {
	return scanAsset(r.pool.QueryRow(ctx, `
		SELECT `+assetColumns+`
		FROM proof_assets
		WHERE id = $1
	`, id))
}

func (r *Repository) ListAssets(ctx context.Context, activeOnly bool) ([]ProofAsset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assetColumns+`
		FROM proof_assets
		WHERE ($1 = false OR is_active = true)
		ORDER BY created_at ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ProofAsset, 0)
	for rows.Next() {
		var a ProofAsset
		if err := rows.Scan(
			&a.ID, &a.AssetType, &a.ProjectType, &a.Title, &a.Description, &a.ContentURL,
			&a.ContentText, &a.UsageCount, &a.LastUsedAt, &a.IsActive, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// SetAssetActive activates or retires an asset.
func (r *Repository) SetAssetActive(ctx context.Context, id uuid.UUID, active bool) (ProofAsset, error) {
	return scanAsset(r.pool.QueryRow(ctx, `
		UPDATE proof_assets
		SET is_active = $2
		WHERE id = $1
		RETURNING `+assetColumns, id, active))
}

// RecordAssetInjection commits the bookkeeping for a delivered asset in
// one transaction: asset usage tracking and the conversation's
// injection counter. The counter enforces the one-asset-per-conversation
// cap, so it must never advance without the usage update (or vice
// versa).
func (r *Repository) RecordAssetInjection(ctx context.Context, assetID, conversationID uuid.UUID, usedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE proof_assets
		SET usage_count = usage_count + 1, last_used_at = $2
		WHERE id = $1
	`, assetID, usedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}

	tag, err = tx.Exec(ctx, `
		UPDATE conversations
		SET proof_asset_count = proof_asset_count + 1, updated_at = now()
		WHERE id = $1
	`, conversationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}

	err = tx.Commit(ctx)
	return err
}
