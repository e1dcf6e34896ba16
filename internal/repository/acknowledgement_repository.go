package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

// AcknowledgementRepository stores verified acknowledgement records.
type AcknowledgementRepository interface {
	Create(ctx context.Context, ack *domain.Acknowledgement) error
	// GetLatestVerified returns nil, nil when the customer has no verified record.
	GetLatestVerified(ctx context.Context, customerEmail string) (*domain.Acknowledgement, error)
}

type acknowledgementRepository struct {
	pool *pgxpool.Pool
}

// NewAcknowledgementRepository builds repository.
func NewAcknowledgementRepository(pool *pgxpool.Pool) AcknowledgementRepository {
	return &acknowledgementRepository{pool: pool}
}

func (r *acknowledgementRepository) Create(ctx context.Context, ack *domain.Acknowledgement) error {
	if r.pool == nil {
		return persistence.ErrNotConfigured
	}
	const query = `
        INSERT INTO acknowledgements (customer_email, ticket_key, message_id, email_timestamp, acknowledged, verified)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ack.CustomerEmail,
		ack.TicketKey,
		ack.MessageID,
		ack.EmailTimestamp,
		ack.Acknowledged,
		ack.Verified,
	).Scan(&ack.ID, &ack.CreatedAt)
}

func (r *acknowledgementRepository) GetLatestVerified(ctx context.Context, customerEmail string) (*domain.Acknowledgement, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	const query = `
        SELECT id, customer_email, ticket_key, message_id, email_timestamp, acknowledged, verified, created_at
        FROM acknowledgements
        WHERE lower(customer_email) = lower($1) AND verified
        ORDER BY created_at DESC LIMIT 1`
	var ack domain.Acknowledgement
	err := r.pool.QueryRow(ctx, query, customerEmail).Scan(
		&ack.ID,
		&ack.CustomerEmail,
		&ack.TicketKey,
		&ack.MessageID,
		&ack.EmailTimestamp,
		&ack.Acknowledged,
		&ack.Verified,
		&ack.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
