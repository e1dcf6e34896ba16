// Package tracker is the Jira REST client consumed by the portal.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

var (
	// ErrNotConfigured is returned by every call when credentials are absent.
	ErrNotConfigured = errors.New("tracker not configured")
	// ErrNotFound is returned when the issue, attachment, or user ticket does not exist.
	ErrNotFound = errors.New("tracker resource not found")
	// ErrTransitionUnavailable means the requested workflow state is not reachable from the current one.
	ErrTransitionUnavailable = errors.New("transition unavailable")
)

const searchPageSize = 50

// APIError carries a non-2xx tracker response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client is the issue tracker contract used by the services.
type Client interface {
	GetTicket(ctx context.Context, key string) (*domain.Ticket, error)
	ProjectTickets(ctx context.Context) ([]domain.Ticket, error)
	GetTicketsByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error)
	GetLatestTicketByUser(ctx context.Context, email string) (*domain.Ticket, error)
	GetAvailableTransitions(ctx context.Context, key string) ([]domain.Transition, error)
	Transition(ctx context.Context, key, transitionID, resolution string) error
	AddComment(ctx context.Context, key, body string) (*domain.Comment, error)
	GetComments(ctx context.Context, key string) ([]domain.Comment, error)
	FetchAttachment(ctx context.Context, attachmentID string) (*domain.AttachmentContent, error)
	Configured() error
}

type restClient struct {
	http   *resty.Client
	cfg    config.TrackerConfig
	logger *zap.Logger
}

// NewClient builds a Jira client. Missing credentials are reported per call, not here.
func NewClient(cfg config.TrackerConfig, logger *zap.Logger) Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.Email, cfg.APIToken).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout())
	return &restClient{http: httpClient, cfg: cfg, logger: logger}
}

func (c *restClient) Configured() error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return nil
}

func (c *restClient) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

func (c *restClient) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Warn("jira request failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("jira %s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("jira %s: %w", op, ErrNotFound)
	}
	if resp.IsError() {
		c.logger.Warn("jira returned error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 500)))
		return &APIError{Op: op, StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 500)}
	}
	return nil
}

func (c *restClient) GetTicket(ctx context.Context, key string) (*domain.Ticket, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	var issue jiraIssue
	resp, err := c.request(ctx).
		SetPathParam("key", key).
		SetQueryParam("fields", strings.Join(issueFields, ",")).
		SetResult(&issue).
		Get("/rest/api/2/issue/{key}")
	if err := c.check("get issue", resp, err); err != nil {
		return nil, err
	}
	ticket := issue.toDomain()
	return &ticket, nil
}

func (c *restClient) search(ctx context.Context, jql string, limit int) ([]domain.Ticket, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	var tickets []domain.Ticket
	startAt := 0
	for {
		pageSize := searchPageSize
		if limit > 0 && limit-len(tickets) < pageSize {
			pageSize = limit - len(tickets)
		}
		var page searchResponse
		resp, err := c.request(ctx).
			SetBody(searchRequest{JQL: jql, StartAt: startAt, MaxResults: pageSize, Fields: issueFields}).
			SetResult(&page).
			Post("/rest/api/2/search")
		if err := c.check("search", resp, err); err != nil {
			return nil, err
		}
		for _, issue := range page.Issues {
			tickets = append(tickets, issue.toDomain())
		}
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
		if limit > 0 && len(tickets) >= limit {
			break
		}
	}
	return tickets, nil
}

// ProjectTickets returns every ticket in the configured project, newest first.
func (c *restClient) ProjectTickets(ctx context.Context) ([]domain.Ticket, error) {
	jql := fmt.Sprintf(`project = "%s" ORDER BY created DESC`, jqlEscape(c.cfg.ProjectKey))
	return c.search(ctx, jql, 0)
}

// GetTicketsByUser narrows by a text search on the email, then keeps only tickets
// whose attributed email matches exactly.
func (c *restClient) GetTicketsByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	jql := fmt.Sprintf(`project = "%s" AND text ~ "\"%s\"" ORDER BY created DESC`,
		jqlEscape(c.cfg.ProjectKey), jqlEscape(email))
	candidates, err := c.search(ctx, jql, 0)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Ticket, 0, len(candidates))
	for _, t := range candidates {
		if t.ReporterEmail != email {
			continue
		}
		matched = append(matched, t)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	if len(matched) == 0 && len(candidates) > 0 {
		c.logger.Warn("text search hit tickets but none are attributed to the email",
			zap.Int("candidates", len(candidates)))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (c *restClient) GetLatestTicketByUser(ctx context.Context, email string) (*domain.Ticket, error) {
	tickets, err := c.GetTicketsByUser(ctx, email, 1)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("latest ticket for %s: %w", email, ErrNotFound)
	}
	return &tickets[0], nil
}

func (c *restClient) GetAvailableTransitions(ctx context.Context, key string) ([]domain.Transition, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	var payload transitionsResponse
	resp, err := c.request(ctx).
		SetPathParam("key", key).
		SetQueryParam("expand", "transitions.fields").
		SetResult(&payload).
		Get("/rest/api/2/issue/{key}/transitions")
	if err := c.check("get transitions", resp, err); err != nil {
		return nil, err
	}
	out := make([]domain.Transition, 0, len(payload.Transitions))
	for _, t := range payload.Transitions {
		out = append(out, t.toDomain())
	}
	return out, nil
}

func (c *restClient) Transition(ctx context.Context, key, transitionID, resolution string) error {
	if err := c.Configured(); err != nil {
		return err
	}
	body := transitionRequest{Transition: transitionRef{ID: transitionID}}
	if resolution != "" {
		body.Fields = map[string]any{"resolution": namedRef{Name: resolution}}
	}
	resp, err := c.request(ctx).
		SetPathParam("key", key).
		SetBody(body).
		Post("/rest/api/2/issue/{key}/transitions")
	if err := c.check("transition", resp, err); err != nil {
		return err
	}
	c.logger.Debug("jira transition applied", zap.String("ticket_key", key), zap.String("transition_id", transitionID))
	return nil
}

func (c *restClient) AddComment(ctx context.Context, key, body string) (*domain.Comment, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	var created jiraComment
	resp, err := c.request(ctx).
		SetPathParam("key", key).
		SetBody(commentRequest{Body: body}).
		SetResult(&created).
		Post("/rest/api/2/issue/{key}/comment")
	if err := c.check("add comment", resp, err); err != nil {
		return nil, err
	}
	comment := created.toDomain()
	return &comment, nil
}

func (c *restClient) GetComments(ctx context.Context, key string) ([]domain.Comment, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	var comments []domain.Comment
	startAt := 0
	for {
		var page commentsResponse
		resp, err := c.request(ctx).
			SetPathParam("key", key).
			SetQueryParam("startAt", fmt.Sprint(startAt)).
			SetQueryParam("orderBy", "created").
			SetResult(&page).
			Get("/rest/api/2/issue/{key}/comment")
		if err := c.check("get comments", resp, err); err != nil {
			return nil, err
		}
		for _, cm := range page.Comments {
			comments = append(comments, cm.toDomain())
		}
		startAt += len(page.Comments)
		if len(page.Comments) == 0 || startAt >= page.Total {
			break
		}
	}
	return comments, nil
}

func (c *restClient) FetchAttachment(ctx context.Context, attachmentID string) (*domain.AttachmentContent, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	var meta jiraAttachment
	resp, err := c.request(ctx).
		SetPathParam("id", attachmentID).
		SetResult(&meta).
		Get("/rest/api/2/attachment/{id}")
	if err := c.check("get attachment", resp, err); err != nil {
		return nil, err
	}
	if meta.Content == "" {
		return nil, fmt.Errorf("attachment %s has no content url: %w", attachmentID, ErrNotFound)
	}
	content, err := c.request(ctx).
		SetHeader("Accept", "*/*").
		Get(meta.Content)
	if err := c.check("download attachment", content, err); err != nil {
		return nil, err
	}
	contentType := meta.MimeType
	if contentType == "" {
		contentType = content.Header().Get("Content-Type")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &domain.AttachmentContent{
		Filename:    meta.Filename,
		ContentType: contentType,
		Data:        content.Body(),
	}, nil
}

func jqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
