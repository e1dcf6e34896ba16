package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/cache"
	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// VerifyResult is the outcome of correlating an acknowledgement with a ticket.
// Verified=false is a normal answer; lookup failures are returned as errors.
type VerifyResult struct {
	Verified bool
	Ticket   *domain.Ticket
	Reason   string
	Delta    time.Duration
}

// AckStatus is the cached answer for the acknowledgement status endpoint.
type AckStatus struct {
	Acknowledged   bool       `json:"acknowledged"`
	Verified       bool       `json:"verified,omitempty"`
	TicketKey      string     `json:"ticketKey,omitempty"`
	MessageID      string     `json:"messageId,omitempty"`
	EmailTimestamp *time.Time `json:"emailTimestamp,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// SubmissionInput is the client's acknowledgement claim.
type SubmissionInput struct {
	TicketKey           string
	CustomerEmail       string
	MessageID           string
	SubmissionTimestamp time.Time
}

// AcknowledgementService verifies acknowledgement claims against tracker tickets.
type AcknowledgementService struct {
	tracker    tracker.Client
	acks       repository.AcknowledgementRepository
	cache      cache.Cache
	cacheTTL   time.Duration
	portal     config.PortalConfig
	dispatcher events.Dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

// AcknowledgementDependencies bundles collaborators for the service.
type AcknowledgementDependencies struct {
	Tracker    tracker.Client
	AckRepo    repository.AcknowledgementRepository
	Cache      cache.Cache
	CacheTTL   time.Duration
	Portal     config.PortalConfig
	Dispatcher events.Dispatcher
	Now        func() time.Time
	Logger     *zap.Logger
}

// NewAcknowledgementService constructs the service.
func NewAcknowledgementService(deps AcknowledgementDependencies) *AcknowledgementService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AcknowledgementService{
		tracker:    deps.Tracker,
		acks:       deps.AckRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		portal:     deps.Portal,
		dispatcher: deps.Dispatcher,
		now:        now,
		logger:     nopLogger(deps.Logger),
	}
}

// Verify checks the customer's latest ticket against the claimed send time, or
// against now when no time is claimed.
func (s *AcknowledgementService) Verify(ctx context.Context, customerEmail string, claimed *time.Time) (*VerifyResult, error) {
	ticket, err := s.tracker.GetLatestTicketByUser(ctx, customerEmail)
	if errors.Is(err, tracker.ErrNotFound) {
		return &VerifyResult{Reason: "no ticket found for " + customerEmail}, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	res := &VerifyResult{Ticket: ticket}
	if claimed != nil {
		res.Delta = absDuration(ticket.CreatedAt.Sub(*claimed))
		res.Verified = res.Delta <= s.portal.AckMatchWindow
		if !res.Verified {
			res.Reason = fmt.Sprintf("ticket %s was created %s from the email time, outside the %s window",
				ticket.Key, res.Delta.Round(time.Second), s.portal.AckMatchWindow)
		}
		return res, nil
	}
	res.Delta = s.now().Sub(ticket.CreatedAt)
	res.Verified = res.Delta <= s.portal.AckRecentWindow
	if !res.Verified {
		res.Reason = fmt.Sprintf("latest ticket %s is older than %s", ticket.Key, s.portal.AckRecentWindow)
	}
	return res, nil
}

// CheckSubmissionWindow enforces the minimum and maximum wait after submission.
func (s *AcknowledgementService) CheckSubmissionWindow(submittedAt time.Time) error {
	elapsed := s.now().Sub(submittedAt)
	if elapsed < s.portal.SubmissionMinWait {
		remaining := int(math.Ceil((s.portal.SubmissionMinWait - elapsed).Seconds()))
		return apperrors.NewValidationError("verification requested too early", map[string]any{
			"timeRemaining": remaining,
		})
	}
	if elapsed > s.portal.SubmissionMaxWait {
		return apperrors.NewValidationError("verification link has expired", map[string]any{
			"maxWaitSeconds": int(s.portal.SubmissionMaxWait.Seconds()),
		})
	}
	return nil
}

// VerifySubmission runs the window check, then Verify, and records a verified claim.
func (s *AcknowledgementService) VerifySubmission(ctx context.Context, input SubmissionInput) (*VerifyResult, error) {
	input.CustomerEmail = strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	input.TicketKey = strings.TrimSpace(input.TicketKey)
	if input.CustomerEmail == "" || input.SubmissionTimestamp.IsZero() {
		return nil, apperrors.NewValidationError("customerEmail and submissionTimestamp are required", nil)
	}
	if err := s.CheckSubmissionWindow(input.SubmissionTimestamp); err != nil {
		return nil, err
	}

	submitted := input.SubmissionTimestamp
	res, err := s.Verify(ctx, input.CustomerEmail, &submitted)
	if err != nil {
		return nil, err
	}
	if res.Verified && input.TicketKey != "" && !strings.EqualFold(input.TicketKey, res.Ticket.Key) {
		res.Verified = false
		res.Reason = fmt.Sprintf("latest ticket for %s is %s, not %s", input.CustomerEmail, res.Ticket.Key, input.TicketKey)
	}
	if !res.Verified {
		s.logger.Info("acknowledgement not verified",
			zap.String("customer_email", input.CustomerEmail),
			zap.String("reason", res.Reason))
		return res, nil
	}

	ack := &domain.Acknowledgement{
		CustomerEmail:  input.CustomerEmail,
		TicketKey:      res.Ticket.Key,
		MessageID:      input.MessageID,
		EmailTimestamp: &submitted,
		Acknowledged:   true,
		Verified:       true,
	}
	if err := s.acks.Create(ctx, ack); err != nil {
		return nil, classify(err)
	}
	s.remember(ctx, ack.CustomerEmail, statusFrom(ack))

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAcknowledgementVerified, ack.TicketKey, ack.CustomerEmail,
		events.AcknowledgementVerifiedPayload{
			CustomerEmail:  ack.CustomerEmail,
			TicketSummary:  res.Ticket.Summary,
			TicketCreated:  res.Ticket.CreatedAt,
			EmailTimestamp: submitted,
		}))
	return res, nil
}

// Status returns the latest verified acknowledgement for email.
func (s *AcknowledgementService) Status(ctx context.Context, email string) (*AckStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if cached, ok := s.cached(ctx, email); ok {
		return cached, nil
	}
	ack, err := s.acks.GetLatestVerified(ctx, email)
	if err != nil {
		return nil, classify(err)
	}
	if ack == nil {
		return &AckStatus{Acknowledged: false}, nil
	}
	status := statusFrom(ack)
	s.remember(ctx, email, status)
	return status, nil
}

func statusFrom(ack *domain.Acknowledgement) *AckStatus {
	created := ack.CreatedAt
	return &AckStatus{
		Acknowledged:   ack.Acknowledged,
		Verified:       ack.Verified,
		TicketKey:      ack.TicketKey,
		MessageID:      ack.MessageID,
		EmailTimestamp: ack.EmailTimestamp,
		CreatedAt:      &created,
	}
}

func ackCacheKey(email string) string {
	return "ack:" + strings.ToLower(email)
}

func (s *AcknowledgementService) cached(ctx context.Context, email string) (*AckStatus, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, ackCacheKey(email))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("ack cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var status AckStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, false
	}
	return &status, true
}

func (s *AcknowledgementService) remember(ctx context.Context, email string, status *AckStatus) {
	if s.cache == nil || status == nil {
		return
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, ackCacheKey(email), raw, s.cacheTTL); err != nil {
		s.logger.Warn("ack cache write failed", zap.Error(err))
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
