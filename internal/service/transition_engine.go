package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
)

// Decision is the engine's verdict for one chat message.
type Decision struct {
	From    domain.Category
	To      domain.Category
	Changed bool
}

// Decide applies the message rules to the current category. An empty current
// category means no override exists and the tracker could not be read.
func Decide(current domain.Category, senderIsMaster bool) Decision {
	d := Decision{From: current, To: current}
	switch {
	case current == domain.CategoryPendingReply:
		d.To = domain.CategoryInProgress
	case !senderIsMaster && (current == domain.CategoryInProgress || current == ""):
		d.To = domain.CategoryPendingReply
	}
	d.Changed = d.To != d.From
	return d
}

// TrackerNudge reports whether the tracker's own status text warrants a move
// for this message, and which way the status text alone points.
func TrackerNudge(trackerStatus string, senderIsMaster bool) (domain.Category, bool) {
	status := strings.ToLower(trackerStatus)
	switch {
	case strings.Contains(status, "pending"):
		return domain.CategoryInProgress, true
	case !senderIsMaster && (strings.Contains(status, "progress") || strings.Contains(status, "in development")):
		return domain.CategoryPendingReply, true
	}
	return "", false
}

// EngineOutcome records what Apply attempted. Errors are informational only.
type EngineOutcome struct {
	Decision   Decision
	Nudge      domain.Category
	StoreErr   error
	TrackerErr error
}

// TransitionEngine flips categories when chat messages arrive.
type TransitionEngine struct {
	sync       *CategorySyncService
	tracker    tracker.Client
	categories repository.CategoryRepository
	portal     config.PortalConfig
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TransitionEngineDependencies bundles collaborators for the engine.
type TransitionEngineDependencies struct {
	Sync         *CategorySyncService
	Tracker      tracker.Client
	CategoryRepo repository.CategoryRepository
	Portal       config.PortalConfig
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTransitionEngine constructs the engine.
func NewTransitionEngine(deps TransitionEngineDependencies) *TransitionEngine {
	return &TransitionEngine{
		sync:       deps.Sync,
		tracker:    deps.Tracker,
		categories: deps.CategoryRepo,
		portal:     deps.Portal,
		dispatcher: deps.Dispatcher,
		logger:     nopLogger(deps.Logger),
	}
}

// RegisterHandlers subscribes the engine to chat message events.
func (e *TransitionEngine) RegisterHandlers() {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Subscribe(events.EventChatMessagePosted, e.handleChatMessagePosted)
}

func (e *TransitionEngine) handleChatMessagePosted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChatMessagePostedPayload)
	if !ok {
		return nil
	}
	e.apply(ctx, payload.Message.TicketKey, payload.Message.UserEmail, payload.SenderIsMaster)
	return nil
}

// Apply runs the store upsert and the tracker nudge as independent writes.
// Neither failure affects the other; both are logged.
func (e *TransitionEngine) Apply(ctx context.Context, ticketKey, senderEmail string) EngineOutcome {
	return e.apply(ctx, ticketKey, senderEmail, e.portal.IsMaster(senderEmail))
}

// apply uses the sender role decided when the message was posted.
func (e *TransitionEngine) apply(ctx context.Context, ticketKey, senderEmail string, senderIsMaster bool) EngineOutcome {
	logger := e.logger.With(zap.String("ticket_key", ticketKey))

	ticket, err := e.tracker.GetTicket(ctx, ticketKey)
	if err != nil {
		logger.Warn("engine could not read tracker ticket", zap.Error(err))
		ticket = nil
	}
	override, err := e.categories.Get(ctx, ticketKey)
	if err != nil {
		logger.Warn("engine could not read category override", zap.Error(err))
		override = nil
	}

	var current domain.Category
	switch {
	case override != nil:
		current = override.Category
	case ticket != nil:
		current = e.sync.Mapper().Map(ticket.TrackerStatus)
	}

	out := EngineOutcome{Decision: Decide(current, senderIsMaster)}
	var wg sync.WaitGroup

	if out.Decision.Changed {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.sync.upsert(ctx, ticketKey, out.Decision.From, out.Decision.To, "chat_message", senderEmail); err != nil {
				out.StoreErr = err
				logger.Warn("category upsert failed",
					zap.String("category", string(out.Decision.To)), zap.Error(err))
			}
		}()
	}

	// The tracker follows the store decision. Its own status text only gates
	// whether a move is warranted, so a Resolved ticket never moves.
	if ticket != nil && out.Decision.Changed {
		if _, ok := TrackerNudge(ticket.TrackerStatus, senderIsMaster); ok {
			out.Nudge = out.Decision.To
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := e.sync.SyncCategoryToTracker(ctx, ticketKey, out.Nudge); err != nil {
					out.TrackerErr = err
					logger.Warn("tracker nudge failed",
						zap.String("status", ticket.TrackerStatus),
						zap.String("target", string(out.Nudge)), zap.Error(err))
				}
			}()
		}
	}

	wg.Wait()
	logger.Debug("transition engine applied",
		zap.String("from", string(out.Decision.From)),
		zap.String("to", string(out.Decision.To)),
		zap.Bool("sender_is_master", senderIsMaster))
	return out
}
