package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

// CategoryHistoryRepository stores category audit entries.
type CategoryHistoryRepository interface {
	Create(ctx context.Context, change *domain.CategoryChange) error
	ListByTicket(ctx context.Context, ticketKey string) ([]domain.CategoryChange, error)
}

type categoryHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryHistoryRepository builds repository.
func NewCategoryHistoryRepository(pool *pgxpool.Pool) CategoryHistoryRepository {
	return &categoryHistoryRepository{pool: pool}
}

func (r *categoryHistoryRepository) Create(ctx context.Context, change *domain.CategoryChange) error {
	if r.pool == nil {
		return persistence.ErrNotConfigured
	}
	const query = `
        INSERT INTO category_history (ticket_key, old_category, new_category, reason, actor)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		change.TicketKey,
		change.OldCategory,
		change.NewCategory,
		change.Reason,
		change.Actor,
	).Scan(&change.ID, &change.CreatedAt)
}

func (r *categoryHistoryRepository) ListByTicket(ctx context.Context, ticketKey string) ([]domain.CategoryChange, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	const query = `
        SELECT id, ticket_key, old_category, new_category, reason, actor, created_at
        FROM category_history WHERE ticket_key=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CategoryChange
	for rows.Next() {
		var change domain.CategoryChange
		if err := rows.Scan(
			&change.ID,
			&change.TicketKey,
			&change.OldCategory,
			&change.NewCategory,
			&change.Reason,
			&change.Actor,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
