package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
)

const (
	masterEmail   = "support@example.com"
	customerEmail = "user@example.com"
)

func testPortal() config.PortalConfig {
	return config.PortalConfig{
		MasterEmail:         masterEmail,
		BulkDelay:           300 * time.Millisecond,
		AckMatchWindow:      10 * time.Minute,
		AckRecentWindow:     15 * time.Minute,
		SubmissionMinWait:   time.Minute,
		SubmissionMaxWait:   10 * time.Minute,
		PendingMaxAttempts:  3,
		PendingPollInterval: time.Millisecond,
	}
}

type transitionCall struct {
	Key          string
	TransitionID string
	Resolution   string
}

// fakeTracker is an in-memory tracker.Client.
type fakeTracker struct {
	mu              sync.Mutex
	configuredErr   error
	tickets         map[string]*domain.Ticket
	transitions     map[string][]domain.Transition
	getErr          map[string]error
	transitionErr   map[string]error
	userErr         error
	commentErr      error
	comments        map[string][]domain.Comment
	transitionCalls []transitionCall
	addedComments   []string
	reads           int
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		tickets:       map[string]*domain.Ticket{},
		transitions:   map[string][]domain.Transition{},
		getErr:        map[string]error{},
		transitionErr: map[string]error{},
		comments:      map[string][]domain.Comment{},
	}
}

// standardTransitions mirrors a typical service-desk workflow.
func standardTransitions() []domain.Transition {
	return []domain.Transition{
		{ID: "11", Name: "Start progress", ToName: "In Progress"},
		{ID: "21", Name: "Wait for customer", ToName: "Pending Reply"},
		{ID: "31", Name: "Resolve", ToName: "Done", Fields: []string{"resolution"}},
	}
}

func (f *fakeTracker) addTicket(key, status, reporter string, created time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets[key] = &domain.Ticket{Key: key, Summary: "Summary " + key, TrackerStatus: status, ReporterEmail: reporter, CreatedAt: created}
	f.transitions[key] = standardTransitions()
}

func (f *fakeTracker) Configured() error { return f.configuredErr }

func (f *fakeTracker) GetTicket(_ context.Context, key string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.configuredErr != nil {
		return nil, f.configuredErr
	}
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	t, ok := f.tickets[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, tracker.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTracker) ProjectTickets(_ context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configuredErr != nil {
		return nil, f.configuredErr
	}
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeTracker) GetTicketsByUser(_ context.Context, email string, limit int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configuredErr != nil {
		return nil, f.configuredErr
	}
	if f.userErr != nil {
		return nil, f.userErr
	}
	var out []domain.Ticket
	for _, t := range f.tickets {
		if strings.EqualFold(t.ReporterEmail, email) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTracker) GetLatestTicketByUser(ctx context.Context, email string) (*domain.Ticket, error) {
	tickets, err := f.GetTicketsByUser(ctx, email, 1)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("latest for %s: %w", email, tracker.ErrNotFound)
	}
	return &tickets[0], nil
}

func (f *fakeTracker) GetAvailableTransitions(_ context.Context, key string) ([]domain.Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configuredErr != nil {
		return nil, f.configuredErr
	}
	return append([]domain.Transition(nil), f.transitions[key]...), nil
}

func (f *fakeTracker) Transition(_ context.Context, key, transitionID, resolution string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.transitionErr[key]; err != nil {
		return err
	}
	f.transitionCalls = append(f.transitionCalls, transitionCall{Key: key, TransitionID: transitionID, Resolution: resolution})
	if t, ok := f.tickets[key]; ok {
		for _, tr := range f.transitions[key] {
			if tr.ID == transitionID {
				t.TrackerStatus = tr.ToName
			}
		}
	}
	return nil
}

func (f *fakeTracker) AddComment(_ context.Context, key, body string) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	f.addedComments = append(f.addedComments, key+"|"+body)
	c := domain.Comment{ID: fmt.Sprint(len(f.addedComments)), Body: body, CreatedAt: time.Now()}
	f.comments[key] = append(f.comments[key], c)
	return &c, nil
}

func (f *fakeTracker) GetComments(_ context.Context, key string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Comment(nil), f.comments[key]...), nil
}

func (f *fakeTracker) FetchAttachment(_ context.Context, id string) (*domain.AttachmentContent, error) {
	if id == "10000" {
		return &domain.AttachmentContent{Filename: "log.txt", ContentType: "text/plain", Data: []byte("hello")}, nil
	}
	return nil, fmt.Errorf("attachment %s: %w", id, tracker.ErrNotFound)
}

func (f *fakeTracker) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transitionCalls) + len(f.addedComments)
}

func (f *fakeTracker) calls() []transitionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transitionCall(nil), f.transitionCalls...)
}

// fakeCategoryRepo is an in-memory repository.CategoryRepository.
type fakeCategoryRepo struct {
	mu        sync.Mutex
	rows      map[string]domain.CategoryOverride
	upsertErr error
	readErr   error
	upserts   int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{rows: map[string]domain.CategoryOverride{}}
}

func (r *fakeCategoryRepo) Upsert(_ context.Context, key string, c domain.Category) (*domain.CategoryOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	r.upserts++
	row := domain.CategoryOverride{TicketKey: key, Category: c, UpdatedAt: time.Now()}
	r.rows[key] = row
	return &row, nil
}

func (r *fakeCategoryRepo) Get(_ context.Context, key string) (*domain.CategoryOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	row, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *fakeCategoryRepo) GetMany(_ context.Context, keys []string) (map[string]domain.CategoryOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]domain.CategoryOverride{}
	for _, k := range keys {
		if row, ok := r.rows[k]; ok {
			out[k] = row
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]domain.CategoryOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	out := make([]domain.CategoryOverride, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketKey < out[j].TicketKey })
	return out, nil
}

func (r *fakeCategoryRepo) ListByCategory(ctx context.Context, c domain.Category) ([]domain.CategoryOverride, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.CategoryOverride
	for _, row := range all {
		if row.Category == c {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) category(key string) (domain.Category, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	return row.Category, ok
}

func (r *fakeCategoryRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

// fakeMessageRepo is an in-memory repository.ChatMessageRepository.
type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []domain.ChatMessage
	createErr error
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	msg.ID = fmt.Sprintf("msg-%d", len(r.messages)+1)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, key string) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.messages {
		if m.TicketKey == key {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeAckRepo is an in-memory repository.AcknowledgementRepository.
type fakeAckRepo struct {
	mu    sync.Mutex
	rows  []domain.Acknowledgement
	reads int
}

func (r *fakeAckRepo) Create(_ context.Context, ack *domain.Acknowledgement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ack.ID = fmt.Sprintf("ack-%d", len(r.rows)+1)
	ack.CreatedAt = time.Now()
	r.rows = append(r.rows, *ack)
	return nil
}

func (r *fakeAckRepo) GetLatestVerified(_ context.Context, email string) (*domain.Acknowledgement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	for i := len(r.rows) - 1; i >= 0; i-- {
		if strings.EqualFold(r.rows[i].CustomerEmail, email) && r.rows[i].Verified {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

// fakePendingRepo is an in-memory repository.PendingTicketRepository.
type fakePendingRepo struct {
	mu      sync.Mutex
	rows    map[string]domain.PendingTicket
	updates int
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{rows: map[string]domain.PendingTicket{}}
}

func (r *fakePendingRepo) Create(_ context.Context, pt *domain.PendingTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt.CreatedAt = time.Now()
	pt.UpdatedAt = pt.CreatedAt
	r.rows[pt.ID] = *pt
	return nil
}

func (r *fakePendingRepo) GetByID(_ context.Context, id string) (*domain.PendingTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (r *fakePendingRepo) ListByEmail(_ context.Context, email string, _ int) ([]domain.PendingTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PendingTicket
	for _, row := range r.rows {
		if row.UserEmail == email {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakePendingRepo) Update(_ context.Context, pt *domain.PendingTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	pt.UpdatedAt = time.Now()
	r.rows[pt.ID] = *pt
	return nil
}
