package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.TrackerConfig{
		BaseURL:    srv.URL,
		Email:      "bot@example.com",
		APIToken:   "token",
		ProjectKey: "HELP",
	}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetTicketAttributesFromMarker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/HELP-42", func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "bot@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{
			"key": "HELP-42",
			"fields": map[string]any{
				"summary":     "Printer on fire",
				"description": "From: Jane Doe <Jane@Example.com>\n\nIt is on fire.",
				"status":      map[string]any{"name": "Pending"},
				"reporter":    map[string]any{"emailAddress": "bot@example.com"},
				"created":     "2026-10-16T09:30:00.000+0000",
			},
		})
	})
	c := newTestClient(t, mux)

	ticket, err := c.GetTicket(context.Background(), "HELP-42")
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if ticket.ReporterEmail != "jane@example.com" {
		t.Fatalf("reporter = %q", ticket.ReporterEmail)
	}
	if ticket.TrackerStatus != "Pending" {
		t.Fatalf("status = %q", ticket.TrackerStatus)
	}
	if ticket.CreatedAt.IsZero() || ticket.CreatedAt.Hour() != 9 {
		t.Fatalf("created = %v", ticket.CreatedAt)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.GetTicket(context.Background(), "HELP-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnconfiguredClientFailsEveryCall(t *testing.T) {
	c := NewClient(config.TrackerConfig{}, zap.NewNop())
	if _, err := c.GetTicket(context.Background(), "HELP-1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("GetTicket err = %v", err)
	}
	if err := c.Transition(context.Background(), "HELP-1", "31", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Transition err = %v", err)
	}
}

func TestGetTicketsByUserFiltersOnAttribution(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.JQL, `project = "HELP"`) {
			t.Errorf("unexpected jql %q", req.JQL)
		}
		writeJSON(w, map[string]any{
			"startAt": 0, "maxResults": 50, "total": 3,
			"issues": []map[string]any{
				{"key": "HELP-3", "fields": map[string]any{"description": "From: other@example.com\nCC user@example.com", "created": "2026-10-16T10:00:00.000+0000"}},
				{"key": "HELP-2", "fields": map[string]any{"description": "From: user@example.com", "created": "2026-10-16T09:00:00.000+0000"}},
				{"key": "HELP-1", "fields": map[string]any{"description": "no marker", "reporter": map[string]any{"emailAddress": "USER@example.com"}, "created": "2026-10-15T09:00:00.000+0000"}},
			},
		})
	})
	c := newTestClient(t, mux)

	tickets, err := c.GetTicketsByUser(context.Background(), "user@example.com", 10)
	if err != nil {
		t.Fatalf("GetTicketsByUser: %v", err)
	}
	if len(tickets) != 2 || tickets[0].Key != "HELP-2" || tickets[1].Key != "HELP-1" {
		t.Fatalf("unexpected tickets %+v", tickets)
	}

	latest, err := c.GetLatestTicketByUser(context.Background(), "user@example.com")
	if err != nil || latest.Key != "HELP-2" {
		t.Fatalf("latest = %+v, %v", latest, err)
	}
	if _, err := c.GetLatestTicketByUser(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransitionSendsResolution(t *testing.T) {
	var got transitionRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/HELP-7/transitions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]any{"transitions": []map[string]any{
				{"id": "31", "name": "Resolve", "to": map[string]any{"name": "Done"}, "fields": map[string]any{"resolution": map[string]any{}}},
			}})
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	c := newTestClient(t, mux)

	transitions, err := c.GetAvailableTransitions(context.Background(), "HELP-7")
	if err != nil {
		t.Fatalf("GetAvailableTransitions: %v", err)
	}
	if len(transitions) != 1 || transitions[0].ToName != "Done" || !transitions[0].HasField("resolution") {
		t.Fatalf("unexpected transitions %+v", transitions)
	}
	if err := c.Transition(context.Background(), "HELP-7", "31", "Done"); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got.Transition.ID != "31" {
		t.Fatalf("transition id = %q", got.Transition.ID)
	}
	res, ok := got.Fields["resolution"].(map[string]any)
	if !ok || res["name"] != "Done" {
		t.Fatalf("resolution field = %#v", got.Fields)
	}
}

func TestTransitionAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/HELP-7/transitions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["bad transition"]}`))
	})
	c := newTestClient(t, mux)
	err := c.Transition(context.Background(), "HELP-7", "99", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected APIError 400, got %v", err)
	}
}

func TestCommentsRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/HELP-9/comment", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var req commentRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, map[string]any{"id": "100", "body": req.Body, "author": map[string]any{"emailAddress": "bot@example.com"}})
			return
		}
		writeJSON(w, map[string]any{"startAt": 0, "total": 1, "comments": []map[string]any{
			{"id": "100", "body": "From: user@example.com\n\nhello", "author": map[string]any{"emailAddress": "Bot@example.com", "displayName": "Bot"}},
		}})
	})
	c := newTestClient(t, mux)

	created, err := c.AddComment(context.Background(), "HELP-9", FormatMirroredComment("user@example.com", "hello"))
	if err != nil || created.ID != "100" {
		t.Fatalf("AddComment = %+v, %v", created, err)
	}
	comments, err := c.GetComments(context.Background(), "HELP-9")
	if err != nil || len(comments) != 1 {
		t.Fatalf("GetComments = %+v, %v", comments, err)
	}
	if comments[0].AuthorEmail != "bot@example.com" {
		t.Fatalf("author = %q", comments[0].AuthorEmail)
	}
}

func TestFetchAttachment(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/attachment/555", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "555", "filename": "log.txt", "mimeType": "text/plain", "content": base + "/secure/attachment/555/log.txt"})
	})
	mux.HandleFunc("/secure/attachment/555/log.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("line one"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL
	c := NewClient(config.TrackerConfig{BaseURL: srv.URL, Email: "bot@example.com", APIToken: "t", ProjectKey: "HELP"}, zap.NewNop())

	content, err := c.FetchAttachment(context.Background(), "555")
	if err != nil {
		t.Fatalf("FetchAttachment: %v", err)
	}
	if content.Filename != "log.txt" || content.ContentType != "text/plain" || string(content.Data) != "line one" {
		t.Fatalf("unexpected content %+v", content)
	}
}
