package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

const pendingLookupLimit = 10

// PendingTicketService tracks tickets the mail pipeline has not created yet.
type PendingTicketService struct {
	pending    repository.PendingTicketRepository
	tracker    tracker.Client
	portal     config.PortalConfig
	dispatcher events.Dispatcher
	sleep      func(context.Context, time.Duration) error
	logger     *zap.Logger
}

// PendingTicketDependencies bundles collaborators for the service.
type PendingTicketDependencies struct {
	PendingRepo repository.PendingTicketRepository
	Tracker     tracker.Client
	Portal      config.PortalConfig
	Dispatcher  events.Dispatcher
	Sleep       func(context.Context, time.Duration) error
	Logger      *zap.Logger
}

// NewPendingTicketService constructs the service.
func NewPendingTicketService(deps PendingTicketDependencies) *PendingTicketService {
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &PendingTicketService{
		pending:    deps.PendingRepo,
		tracker:    deps.Tracker,
		portal:     deps.Portal,
		dispatcher: deps.Dispatcher,
		sleep:      sleep,
		logger:     nopLogger(deps.Logger),
	}
}

// Create records a ticket the customer just emailed in.
func (s *PendingTicketService) Create(ctx context.Context, email string, emailTimestamp time.Time) (*domain.PendingTicket, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || emailTimestamp.IsZero() {
		return nil, apperrors.NewValidationError("userEmail and emailTimestamp are required", nil)
	}
	pt := &domain.PendingTicket{
		ID:             uuid.NewString(),
		UserEmail:      email,
		Status:         domain.PendingStatusPending,
		EmailTimestamp: emailTimestamp.UTC(),
	}
	if err := s.pending.Create(ctx, pt); err != nil {
		return nil, classify(err)
	}
	s.logger.Info("pending ticket recorded", zap.String("pending_id", pt.ID), zap.String("user_email", email))
	return pt, nil
}

// Get returns the record after one resolution attempt if it is still pending.
func (s *PendingTicketService) Get(ctx context.Context, id string) (*domain.PendingTicket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("invalid pending ticket id", map[string]any{"id": id})
	}
	pt, err := s.pending.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	if pt.Status.Terminal() {
		return pt, nil
	}
	if err := s.attempt(ctx, pt); err != nil {
		return nil, classify(err)
	}
	return pt, nil
}

// List returns recent pending records for email.
func (s *PendingTicketService) List(ctx context.Context, email string) ([]domain.PendingTicket, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	items, err := s.pending.ListByEmail(ctx, email, 20)
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// AwaitTicket polls until the record settles. It never runs more than the
// configured number of attempts.
func (s *PendingTicketService) AwaitTicket(ctx context.Context, id string) (*domain.PendingTicket, error) {
	maxAttempts := s.maxAttempts()
	for i := 0; ; i++ {
		pt, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if pt.Status.Terminal() || i >= maxAttempts {
			return pt, nil
		}
		if err := s.sleep(ctx, s.portal.PendingPollInterval); err != nil {
			return pt, err
		}
	}
}

func (s *PendingTicketService) maxAttempts() int {
	if s.portal.PendingMaxAttempts <= 0 {
		return 30
	}
	return s.portal.PendingMaxAttempts
}

// attempt looks for the tracker ticket created at or after the email was sent.
// Lookup errors count as an attempt.
func (s *PendingTicketService) attempt(ctx context.Context, pt *domain.PendingTicket) error {
	pt.Attempts++
	tickets, err := s.tracker.GetTicketsByUser(ctx, pt.UserEmail, pendingLookupLimit)
	if err != nil {
		s.logger.Warn("pending ticket lookup failed", zap.String("pending_id", pt.ID), zap.Error(err))
	}
	if match := earliestSince(tickets, pt.EmailTimestamp); match != nil {
		key := match.Key
		pt.Status = domain.PendingStatusCreated
		pt.TicketKey = &key
		pt.ErrorMessage = nil
	} else if pt.Attempts >= s.maxAttempts() {
		msg := fmt.Sprintf("no ticket found after %d attempts", pt.Attempts)
		if err != nil {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		pt.Status = domain.PendingStatusFailed
		pt.ErrorMessage = &msg
	}
	if err := s.pending.Update(ctx, pt); err != nil {
		return err
	}
	if pt.Status.Terminal() {
		payload := events.PendingTicketSettledPayload{PendingID: pt.ID, UserEmail: pt.UserEmail, Status: pt.Status}
		ticketKey := ""
		if pt.TicketKey != nil {
			ticketKey = *pt.TicketKey
		}
		if pt.ErrorMessage != nil {
			payload.Error = *pt.ErrorMessage
		}
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventPendingTicketSettled, ticketKey, pt.UserEmail, payload))
	}
	return nil
}

// earliestSince returns the oldest ticket created at or after since.
func earliestSince(tickets []domain.Ticket, since time.Time) *domain.Ticket {
	var match *domain.Ticket
	for i := range tickets {
		t := &tickets[i]
		if t.CreatedAt.Before(since) {
			continue
		}
		if match == nil || t.CreatedAt.Before(match.CreatedAt) {
			match = t
		}
	}
	return match
}
