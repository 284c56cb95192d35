package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, phone_number, country, project_type, budget, budget_numeric,
	timeline, business_type, budget_avoidance_count, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.PhoneNumber, &l.Country, &l.ProjectType, &l.Budget, &l.BudgetNumeric,
		&l.Timeline, &l.BusinessType, &l.BudgetAvoidanceCount, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (r *Repository) GetLeadByPhone(ctx context.Context, phone string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone_number = $1
	`, phone))
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1
	`, id))
}

// CreateLead inserts a new lead for a phone number. Country may be nil
// when the number could not be resolved to a region.
func (r *Repository) CreateLead(ctx context.Context, phone string, country *string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (phone_number, country)
		VALUES ($1, $2)
		RETURNING `+leadColumns, phone, country))
}

// UpdateLeadQualification persists the qualification fields. Writes are
// first-write-wins via COALESCE: a field already present on the row is
// never overwritten by a later extraction.
func (r *Repository) UpdateLeadQualification(ctx context.Context, id uuid.UUID, projectType, budget *string, budgetNumeric *int, timeline, businessType *string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			project_type = COALESCE(project_type, $2),
			budget = COALESCE(budget, $3),
			budget_numeric = COALESCE(budget_numeric, $4),
			timeline = COALESCE(timeline, $5),
			business_type = COALESCE(business_type, $6),
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, projectType, budget, budgetNumeric, timeline, businessType))
}

// IncrementBudgetAvoidance bumps the avoidance counter and returns the
// new value.
func (r *Repository) IncrementBudgetAvoidance(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET budget_avoidance_count = budget_avoidance_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING budget_avoidance_count
	`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return count, err
}

// DeleteLeadByPhone removes a lead and everything referencing it, for
// data erasure requests. Child rows go through ON DELETE CASCADE.
func (r *Repository) DeleteLeadByPhone(ctx context.Context, phone string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE phone_number = $1`, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
