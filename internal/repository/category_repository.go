package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

// CategoryRepository persists per-ticket category overrides.
type CategoryRepository interface {
	Upsert(ctx context.Context, ticketKey string, category domain.Category) (*domain.CategoryOverride, error)
	// Get returns nil, nil when no override row exists.
	Get(ctx context.Context, ticketKey string) (*domain.CategoryOverride, error)
	GetMany(ctx context.Context, ticketKeys []string) (map[string]domain.CategoryOverride, error)
	List(ctx context.Context) ([]domain.CategoryOverride, error)
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.CategoryOverride, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Upsert(ctx context.Context, ticketKey string, category domain.Category) (*domain.CategoryOverride, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	const query = `
        INSERT INTO ticket_categories (ticket_key, category, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (ticket_key) DO UPDATE SET category = EXCLUDED.category, updated_at = EXCLUDED.updated_at
        RETURNING ticket_key, category, updated_at`
	var row domain.CategoryOverride
	if err := r.pool.QueryRow(ctx, query, ticketKey, category).Scan(&row.TicketKey, &row.Category, &row.UpdatedAt); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *categoryRepository) Get(ctx context.Context, ticketKey string) (*domain.CategoryOverride, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	const query = `SELECT ticket_key, category, updated_at FROM ticket_categories WHERE ticket_key=$1`
	var row domain.CategoryOverride
	err := r.pool.QueryRow(ctx, query, ticketKey).Scan(&row.TicketKey, &row.Category, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *categoryRepository) GetMany(ctx context.Context, ticketKeys []string) (map[string]domain.CategoryOverride, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	result := make(map[string]domain.CategoryOverride, len(ticketKeys))
	if len(ticketKeys) == 0 {
		return result, nil
	}
	const query = `SELECT ticket_key, category, updated_at FROM ticket_categories WHERE ticket_key = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ticketKeys)
	if err != nil {
		return nil, err
	}
	overrides, err := scanOverrides(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		result[o.TicketKey] = o
	}
	return result, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.CategoryOverride, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	rows, err := r.pool.Query(ctx, `SELECT ticket_key, category, updated_at FROM ticket_categories ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanOverrides(rows)
}

func (r *categoryRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.CategoryOverride, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	const query = `SELECT ticket_key, category, updated_at FROM ticket_categories WHERE category=$1 ORDER BY updated_at ASC`
	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	return scanOverrides(rows)
}

func scanOverrides(rows pgx.Rows) ([]domain.CategoryOverride, error) {
	defer rows.Close()
	var result []domain.CategoryOverride
	for rows.Next() {
		var row domain.CategoryOverride
		if err := rows.Scan(&row.TicketKey, &row.Category, &row.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
