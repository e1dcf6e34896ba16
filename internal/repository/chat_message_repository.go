package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

// ChatMessageRepository manages ticket chat messages.
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByTicket(ctx context.Context, ticketKey string) ([]domain.ChatMessage, error)
}

type chatMessageRepository struct {
	pool *pgxpool.Pool
}

// NewChatMessageRepository builds repository.
func NewChatMessageRepository(pool *pgxpool.Pool) ChatMessageRepository {
	return &chatMessageRepository{pool: pool}
}

func (r *chatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if r.pool == nil {
		return persistence.ErrNotConfigured
	}
	const query = `
        INSERT INTO chat_messages (ticket_key, user_email, message, role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketKey,
		msg.UserEmail,
		msg.Message,
		msg.Role,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *chatMessageRepository) ListByTicket(ctx context.Context, ticketKey string) ([]domain.ChatMessage, error) {
	if r.pool == nil {
		return nil, persistence.ErrNotConfigured
	}
	const query = `
        SELECT id, ticket_key, user_email, message, role, created_at
        FROM chat_messages WHERE ticket_key=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketKey,
			&msg.UserEmail,
			&msg.Message,
			&msg.Role,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
