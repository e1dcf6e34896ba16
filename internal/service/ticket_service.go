package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

const defaultTicketListLimit = 50

// TicketService serves the customer facing ticket views.
type TicketService struct {
	tracker    tracker.Client
	categories repository.CategoryRepository
	messages   repository.ChatMessageRepository
	sync       *CategorySyncService
	portal     config.PortalConfig
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	Tracker      tracker.Client
	CategoryRepo repository.CategoryRepository
	MessageRepo  repository.ChatMessageRepository
	Sync         *CategorySyncService
	Portal       config.PortalConfig
	Logger       *zap.Logger
}

// TicketView is a tracker ticket with its effective category.
type TicketView struct {
	Ticket   domain.Ticket
	Category domain.Category
	Source   domain.CategorySource
}

// TicketDetail is a ticket with its merged conversation.
type TicketDetail struct {
	TicketView
	Conversation []domain.ConversationEntry
}

// ResolveResult reports the store write and whether the tracker followed.
type ResolveResult struct {
	Override      *domain.CategoryOverride
	TrackerSynced bool
	TrackerError  string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tracker:    deps.Tracker,
		categories: deps.CategoryRepo,
		messages:   deps.MessageRepo,
		sync:       deps.Sync,
		portal:     deps.Portal,
		logger:     nopLogger(deps.Logger),
	}
}

// ListUserTickets lists tickets attributed to email, newest first.
func (s *TicketService) ListUserTickets(ctx context.Context, email string, limit int) ([]TicketView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if limit <= 0 {
		limit = defaultTicketListLimit
	}
	tickets, err := s.tracker.GetTicketsByUser(ctx, email, limit)
	if err != nil {
		return nil, classify(err)
	}
	keys := make([]string, 0, len(tickets))
	for _, t := range tickets {
		keys = append(keys, t.Key)
	}
	overrides, err := s.categories.GetMany(ctx, keys)
	if err != nil {
		return nil, classify(err)
	}
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		var override *domain.CategoryOverride
		if o, ok := overrides[t.Key]; ok {
			override = &o
		}
		views = append(views, s.view(t, override))
	}
	return views, nil
}

// GetTicketDetail returns the ticket with stored messages and tracker comments merged.
func (s *TicketService) GetTicketDetail(ctx context.Context, ticketKey string) (*TicketDetail, error) {
	ticket, err := s.tracker.GetTicket(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	override, err := s.categories.Get(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	messages, err := s.messages.ListByTicket(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	comments, err := s.tracker.GetComments(ctx, ticketKey)
	if err != nil {
		s.logger.Warn("comments unavailable", zap.String("ticket_key", ticketKey), zap.Error(err))
		comments = nil
	}
	return &TicketDetail{
		TicketView:   s.view(*ticket, override),
		Conversation: MergeConversation(messages, comments, s.portal.IsMaster),
	}, nil
}

// Resolve marks a ticket Resolved for its owner or the support account, then
// moves the tracker on a best-effort basis.
func (s *TicketService) Resolve(ctx context.Context, ticketKey, callerEmail string) (*ResolveResult, error) {
	ticket, err := s.tracker.GetTicket(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	if !s.portal.IsMaster(callerEmail) && !strings.EqualFold(ticket.ReporterEmail, strings.TrimSpace(callerEmail)) {
		return nil, apperrors.NewForbidden("only the ticket owner or support can resolve this ticket")
	}
	from := s.sync.Mapper().Map(ticket.TrackerStatus)
	override, err := s.sync.upsert(ctx, ticketKey, from, domain.CategoryResolved, "resolve", callerEmail)
	if err != nil {
		return nil, classify(err)
	}
	res := &ResolveResult{Override: override, TrackerSynced: true}
	if from == domain.CategoryResolved {
		return res, nil
	}
	if err := s.sync.SyncCategoryToTracker(ctx, ticketKey, domain.CategoryResolved); err != nil {
		s.logger.Warn("resolve not mirrored to tracker", zap.String("ticket_key", ticketKey), zap.Error(err))
		res.TrackerSynced = false
		res.TrackerError = err.Error()
	}
	return res, nil
}

// FetchAttachment proxies an attachment download.
func (s *TicketService) FetchAttachment(ctx context.Context, attachmentID string) (*domain.AttachmentContent, error) {
	if strings.TrimSpace(attachmentID) == "" {
		return nil, apperrors.NewValidationError("attachment id is required", nil)
	}
	content, err := s.tracker.FetchAttachment(ctx, attachmentID)
	if err != nil {
		return nil, classify(err)
	}
	return content, nil
}

func (s *TicketService) view(t domain.Ticket, override *domain.CategoryOverride) TicketView {
	eff := s.sync.derive(t, override)
	return TicketView{Ticket: t, Category: eff.Category, Source: eff.Source}
}

// MergeConversation interleaves stored messages and tracker comments by time.
// A comment whose sender and text match a stored message is dropped from the view.
func MergeConversation(messages []domain.ChatMessage, comments []domain.Comment, isSupport func(string) bool) []domain.ConversationEntry {
	seen := make(map[string]struct{}, len(messages))
	entries := make([]domain.ConversationEntry, 0, len(messages)+len(comments))
	for _, m := range messages {
		seen[domain.DedupKey(m.UserEmail, m.Message)] = struct{}{}
		entries = append(entries, domain.ConversationEntry{
			ID:          m.ID,
			SenderEmail: m.UserEmail,
			Message:     m.Message,
			Role:        m.Role,
			Source:      domain.MessageSourceStore,
			CreatedAt:   m.CreatedAt,
		})
	}
	for _, c := range comments {
		sender, text, mirrored := tracker.ParseMirroredComment(c.Body)
		role := domain.RoleSupport
		if mirrored {
			if !isSupport(sender) {
				role = domain.RoleUser
			}
		} else {
			sender, text = strings.ToLower(c.AuthorEmail), strings.TrimSpace(c.Body)
		}
		if _, dup := seen[domain.DedupKey(sender, text)]; dup {
			continue
		}
		entries = append(entries, domain.ConversationEntry{
			ID:          c.ID,
			SenderEmail: sender,
			Message:     text,
			Role:        role,
			Source:      domain.MessageSourceTracker,
			CreatedAt:   c.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries
}
