package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

// PendingTicketRepository stores provisional ticket records.
type PendingTicketRepository interface {
	Create(ctx context.Context, pt *domain.PendingTicket) error
	GetByID(ctx context.Context, id string) (*domain.PendingTicket, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]domain.PendingTicket, error)
	Update(ctx context.Context, pt *domain.PendingTicket) error
}

type pendingTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPendingTicketRepository builds repository.
func NewPendingTicketRepository(pool *pgxpool.Pool) PendingTicketRepository {
	return &pendingTicketRepository{pool: pool}
}

const pendingColumns = `id, user_email, status, email_timestamp, ticket_key, error_message, attempts, created_at, updated_at`

func (r *pendingTicketRepository) Create(ctx context.Context, pt *domain.PendingTicket) error {
	if r.pool == nil {
		return persistence.ErrNotConfigured
	}
	const query = `
        INSERT INTO pending_tickets (id, user_email, status, email_timestamp, ticket_key, error_message, attempts)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		pt.ID,
		pt.UserEmail,
		pt.Status,
		pt.EmailTimestamp,
		pt.TicketKey,
		pt.ErrorMessage,
		pt.Attempts,
	).Scan(&pt.CreatedAt, &pt.UpdatedAt)
}

func (r *pendingTicketRepository) GetByID(ctx context.Context, id string) (*domain.PendingTicket, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	row := r.pool.QueryRow(ctx, `SELECT `+pendingColumns+` FROM pending_tickets WHERE id=$1`, id)
	pt, err := scanPending(row)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *pendingTicketRepository) ListByEmail(ctx context.Context, email string, limit int) ([]domain.PendingTicket, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+pendingColumns+` FROM pending_tickets WHERE lower(user_email)=lower($1) ORDER BY created_at DESC LIMIT $2`,
		email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.PendingTicket
	for rows.Next() {
		pt, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}

func (r *pendingTicketRepository) Update(ctx context.Context, pt *domain.PendingTicket) error {
	if r.pool == nil {
		return persistence.ErrNotConfigured
	}
	const query = `
        UPDATE pending_tickets SET status=$1, ticket_key=$2, error_message=$3, attempts=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		pt.Status,
		pt.TicketKey,
		pt.ErrorMessage,
		pt.Attempts,
		pt.ID,
	).Scan(&pt.UpdatedAt)
}

func scanPending(row pgx.Row) (domain.PendingTicket, error) {
	var pt domain.PendingTicket
	err := row.Scan(
		&pt.ID,
		&pt.UserEmail,
		&pt.Status,
		&pt.EmailTimestamp,
		&pt.TicketKey,
		&pt.ErrorMessage,
		&pt.Attempts,
		&pt.CreatedAt,
		&pt.UpdatedAt,
	)
	return pt, err
}
