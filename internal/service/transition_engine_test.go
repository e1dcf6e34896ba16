package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name    string
		current domain.Category
		master  bool
		want    domain.Category
		changed bool
	}{
		{"reopen by customer", domain.CategoryPendingReply, false, domain.CategoryInProgress, true},
		{"reopen by support", domain.CategoryPendingReply, true, domain.CategoryInProgress, true},
		{"customer on in progress", domain.CategoryInProgress, false, domain.CategoryPendingReply, true},
		{"customer on unset", "", false, domain.CategoryPendingReply, true},
		{"support on in progress", domain.CategoryInProgress, true, domain.CategoryInProgress, false},
		{"support on unset", "", true, "", false},
		{"resolved customer", domain.CategoryResolved, false, domain.CategoryResolved, false},
		{"resolved support", domain.CategoryResolved, true, domain.CategoryResolved, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.current, tc.master)
			if d.To != tc.want || d.Changed != tc.changed || d.From != tc.current {
				t.Fatalf("Decide(%q, %v) = %+v", tc.current, tc.master, d)
			}
		})
	}
}

func TestTrackerNudge(t *testing.T) {
	cases := []struct {
		status string
		master bool
		want   domain.Category
		ok     bool
	}{
		{"Pending", false, domain.CategoryInProgress, true},
		{"Pending Reply", true, domain.CategoryInProgress, true},
		{"In Progress", false, domain.CategoryPendingReply, true},
		{"In Progress", true, "", false},
		{"In Development", false, domain.CategoryPendingReply, true},
		{"Done", false, "", false},
		{"", false, "", false},
	}
	for _, tc := range cases {
		got, ok := TrackerNudge(tc.status, tc.master)
		if got != tc.want || ok != tc.ok {
			t.Errorf("TrackerNudge(%q, %v) = %q, %v", tc.status, tc.master, got, ok)
		}
	}
}

type engineFixture struct {
	tracker    *fakeTracker
	categories *fakeCategoryRepo
	sync       *CategorySyncService
	engine     *TransitionEngine
}

func newEngineFixture() *engineFixture {
	tr := newFakeTracker()
	cats := newFakeCategoryRepo()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	syncSvc := NewCategorySyncService(CategorySyncDependencies{Tracker: tr, CategoryRepo: cats, Dispatcher: dispatcher})
	engine := NewTransitionEngine(TransitionEngineDependencies{
		Sync:         syncSvc,
		Tracker:      tr,
		CategoryRepo: cats,
		Portal:       testPortal(),
		Dispatcher:   dispatcher,
	})
	return &engineFixture{tracker: tr, categories: cats, sync: syncSvc, engine: engine}
}

func TestHelp42EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.tracker.addTicket("HELP-42", "Pending", customerEmail, time.Now())

	eff, err := f.sync.EffectiveCategory(ctx, "HELP-42")
	if err != nil {
		t.Fatalf("effective category: %v", err)
	}
	if eff.Category != domain.CategoryPendingReply || eff.Source != domain.CategorySourceTracker {
		t.Fatalf("effective = %+v", eff)
	}

	out := f.engine.Apply(ctx, "HELP-42", customerEmail)
	if out.Decision.From != domain.CategoryPendingReply || out.Decision.To != domain.CategoryInProgress {
		t.Fatalf("decision = %+v", out.Decision)
	}
	if got, ok := f.categories.category("HELP-42"); !ok || got != domain.CategoryInProgress {
		t.Fatalf("override = %q, %v", got, ok)
	}
	calls := f.tracker.calls()
	if len(calls) != 1 || calls[0].TransitionID != "11" {
		t.Fatalf("expected one In Progress transition, got %+v", calls)
	}
	if out.StoreErr != nil || out.TrackerErr != nil {
		t.Fatalf("unexpected errors: %+v", out)
	}
}

func TestApplyCustomerMessageOnInProgress(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.tracker.addTicket("HELP-1", "In Progress", customerEmail, time.Now())

	out := f.engine.Apply(ctx, "HELP-1", customerEmail)
	if out.Decision.To != domain.CategoryPendingReply {
		t.Fatalf("decision = %+v", out.Decision)
	}
	if got, _ := f.categories.category("HELP-1"); got != domain.CategoryPendingReply {
		t.Fatalf("override = %q", got)
	}
	calls := f.tracker.calls()
	if len(calls) != 1 || calls[0].TransitionID != "21" {
		t.Fatalf("expected pending-reply transition, got %+v", calls)
	}
}

func TestApplySupportReplyIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.tracker.addTicket("HELP-2", "In Progress", customerEmail, time.Now())
	_, _ = f.categories.Upsert(ctx, "HELP-2", domain.CategoryInProgress)
	before := f.categories.upsertCount()

	out := f.engine.Apply(ctx, "HELP-2", "Support@Example.com")
	if out.Decision.Changed {
		t.Fatalf("decision = %+v", out.Decision)
	}
	if f.categories.upsertCount() != before {
		t.Fatal("support reply wrote a category")
	}
	if len(f.tracker.calls()) != 0 {
		t.Fatalf("support reply moved the tracker: %+v", f.tracker.calls())
	}
}

func TestApplyResolvedIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.tracker.addTicket("HELP-3", "Done", customerEmail, time.Now())
	_, _ = f.categories.Upsert(ctx, "HELP-3", domain.CategoryResolved)

	for _, sender := range []string{customerEmail, masterEmail} {
		out := f.engine.Apply(ctx, "HELP-3", sender)
		if out.Decision.Changed {
			t.Fatalf("resolved ticket changed for %s: %+v", sender, out.Decision)
		}
	}
	if got, _ := f.categories.category("HELP-3"); got != domain.CategoryResolved {
		t.Fatalf("override = %q", got)
	}
}

func TestApplyResolvedNeverMovesTracker(t *testing.T) {
	ctx := context.Background()
	for _, status := range []string{"In Progress", "Pending", "Pending Reply"} {
		t.Run(status, func(t *testing.T) {
			f := newEngineFixture()
			f.tracker.addTicket("HELP-7", status, customerEmail, time.Now())
			_, _ = f.categories.Upsert(ctx, "HELP-7", domain.CategoryResolved)

			out := f.engine.Apply(ctx, "HELP-7", customerEmail)
			if out.Decision.Changed || out.Nudge != "" {
				t.Fatalf("outcome = %+v", out)
			}
			if calls := f.tracker.calls(); len(calls) != 0 {
				t.Fatalf("resolved ticket moved the tracker: %+v", calls)
			}
			if got, _ := f.categories.category("HELP-7"); got != domain.CategoryResolved {
				t.Fatalf("override = %q", got)
			}
		})
	}
}

func TestApplyTrackerFollowsStoreDecision(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.tracker.addTicket("HELP-8", "In Progress", customerEmail, time.Now())
	_, _ = f.categories.Upsert(ctx, "HELP-8", domain.CategoryPendingReply)

	out := f.engine.Apply(ctx, "HELP-8", customerEmail)
	if out.Decision.To != domain.CategoryInProgress {
		t.Fatalf("decision = %+v", out.Decision)
	}
	if got, _ := f.categories.category("HELP-8"); got != domain.CategoryInProgress {
		t.Fatalf("override = %q", got)
	}
	if out.Nudge != out.Decision.To {
		t.Fatalf("tracker target %q differs from store %q", out.Nudge, out.Decision.To)
	}
	for _, c := range f.tracker.calls() {
		if c.TransitionID == "21" {
			t.Fatalf("tracker pushed to Pending Reply: %+v", f.tracker.calls())
		}
	}
}

func TestChatEventUsesPostedSenderRole(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.tracker.addTicket("HELP-9", "In Progress", customerEmail, time.Now())
	_, _ = f.categories.Upsert(ctx, "HELP-9", domain.CategoryInProgress)
	before := f.categories.upsertCount()
	f.engine.RegisterHandlers()

	// The role is fixed when the message is posted, even if the email alone would say customer.
	msg := domain.ChatMessage{TicketKey: "HELP-9", UserEmail: customerEmail, Message: "on it", Role: domain.RoleSupport}
	event := events.New(events.EventChatMessagePosted, "HELP-9", customerEmail,
		events.ChatMessagePostedPayload{Message: msg, SenderIsMaster: true})
	if err := f.engine.dispatcher.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if f.categories.upsertCount() != before || len(f.tracker.calls()) != 0 {
		t.Fatalf("support-flagged message changed the category: %+v", f.tracker.calls())
	}
}

func TestApplyWritesAreIndependent(t *testing.T) {
	ctx := context.Background()

	t.Run("tracker failure keeps store write", func(t *testing.T) {
		f := newEngineFixture()
		f.tracker.addTicket("HELP-4", "Pending", customerEmail, time.Now())
		f.tracker.transitionErr["HELP-4"] = errors.New("jira down")

		out := f.engine.Apply(ctx, "HELP-4", customerEmail)
		if out.TrackerErr == nil {
			t.Fatal("expected tracker error to be reported")
		}
		if got, _ := f.categories.category("HELP-4"); got != domain.CategoryInProgress {
			t.Fatalf("override = %q", got)
		}
	})

	t.Run("store failure keeps tracker write", func(t *testing.T) {
		f := newEngineFixture()
		f.tracker.addTicket("HELP-5", "Pending", customerEmail, time.Now())
		f.categories.upsertErr = errors.New("db down")

		out := f.engine.Apply(ctx, "HELP-5", customerEmail)
		if out.StoreErr == nil {
			t.Fatal("expected store error to be reported")
		}
		if len(f.tracker.calls()) != 1 {
			t.Fatalf("tracker transition not attempted: %+v", f.tracker.calls())
		}
	})

	t.Run("unreadable tracker still records category", func(t *testing.T) {
		f := newEngineFixture()
		f.tracker.getErr["HELP-6"] = errors.New("timeout")

		out := f.engine.Apply(ctx, "HELP-6", customerEmail)
		if out.Decision.To != domain.CategoryPendingReply {
			t.Fatalf("decision = %+v", out.Decision)
		}
		if got, _ := f.categories.category("HELP-6"); got != domain.CategoryPendingReply {
			t.Fatalf("override = %q", got)
		}
	})
}
