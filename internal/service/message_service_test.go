package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
)

type messageFixture struct {
	tracker    *fakeTracker
	categories *fakeCategoryRepo
	messages   *fakeMessageRepo
	svc        *MessageService
}

func newMessageFixture() *messageFixture {
	tr := newFakeTracker()
	cats := newFakeCategoryRepo()
	msgs := &fakeMessageRepo{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	syncSvc := NewCategorySyncService(CategorySyncDependencies{Tracker: tr, CategoryRepo: cats, Dispatcher: dispatcher})
	svc := NewMessageService(MessageDependencies{MessageRepo: msgs, Tracker: tr, Portal: testPortal(), Dispatcher: dispatcher})
	engine := NewTransitionEngine(TransitionEngineDependencies{
		Sync: syncSvc, Tracker: tr, CategoryRepo: cats, Portal: testPortal(), Dispatcher: dispatcher,
	})
	svc.RegisterHandlers()
	engine.RegisterHandlers()
	return &messageFixture{tracker: tr, categories: cats, messages: msgs, svc: svc}
}

func TestPostMessageMirrorsAndRunsEngine(t *testing.T) {
	f := newMessageFixture()
	f.tracker.addTicket("HELP-42", "Pending", customerEmail, time.Now())

	msg, err := f.svc.PostMessage(context.Background(), PostMessageInput{
		TicketKey: "HELP-42",
		UserEmail: "User@Example.com",
		Message:   " still broken ",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if msg.ID == "" || msg.Role != domain.RoleUser || msg.Message != "still broken" {
		t.Fatalf("message = %+v", msg)
	}
	if len(f.tracker.addedComments) != 1 || !strings.Contains(f.tracker.addedComments[0], "From: user@example.com") {
		t.Fatalf("comments = %v", f.tracker.addedComments)
	}
	if got, _ := f.categories.category("HELP-42"); got != domain.CategoryInProgress {
		t.Fatalf("override = %q", got)
	}
}

func TestPostMessageSideChannelFailuresAreSwallowed(t *testing.T) {
	f := newMessageFixture()
	f.tracker.commentErr = errors.New("jira down")
	f.tracker.getErr["HELP-7"] = errors.New("jira down")
	f.categories.upsertErr = errors.New("db hiccup")

	msg, err := f.svc.PostMessage(context.Background(), PostMessageInput{
		TicketKey: "HELP-7",
		UserEmail: masterEmail,
		Message:   "on it",
	})
	if err != nil {
		t.Fatalf("post must succeed: %v", err)
	}
	if msg.Role != domain.RoleSupport {
		t.Fatalf("role = %q", msg.Role)
	}
}

func TestPostMessageValidation(t *testing.T) {
	f := newMessageFixture()
	cases := []PostMessageInput{
		{UserEmail: customerEmail, Message: "x"},
		{TicketKey: "HELP-1", Message: "x"},
		{TicketKey: "HELP-1", UserEmail: customerEmail, Message: "   "},
		{TicketKey: "HELP-1", UserEmail: customerEmail, Message: "x", Role: "admin"},
	}
	for i, in := range cases {
		if _, err := f.svc.PostMessage(context.Background(), in); domainCode(err) != "VALIDATION_FAILED" {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
	if len(f.messages.messages) != 0 {
		t.Fatal("invalid messages were stored")
	}
}

func TestPostMessageStoreFailure(t *testing.T) {
	f := newMessageFixture()
	f.messages.createErr = errors.New("db down")
	if _, err := f.svc.PostMessage(context.Background(), PostMessageInput{
		TicketKey: "HELP-1", UserEmail: customerEmail, Message: "hi",
	}); err == nil {
		t.Fatal("store failure must fail the post")
	}
	if len(f.tracker.addedComments) != 0 {
		t.Fatal("nothing should be mirrored when the store write fails")
	}
}
