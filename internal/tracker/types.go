package tracker

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

type jiraUser struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

type jiraStatus struct {
	Name string `json:"name"`
}

type jiraAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
	Content  string `json:"content"`
}

type jiraIssueFields struct {
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	Status      jiraStatus       `json:"status"`
	Reporter    *jiraUser        `json:"reporter"`
	Created     string           `json:"created"`
	Updated     string           `json:"updated"`
	Attachment  []jiraAttachment `json:"attachment"`
}

type jiraIssue struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Fields jiraIssueFields `json:"fields"`
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []jiraIssue `json:"issues"`
}

type jiraTransition struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	To     jiraStatus     `json:"to"`
	Fields map[string]any `json:"fields"`
}

type transitionsResponse struct {
	Transitions []jiraTransition `json:"transitions"`
}

type transitionRef struct {
	ID string `json:"id"`
}

type namedRef struct {
	Name string `json:"name"`
}

type transitionRequest struct {
	Transition transitionRef  `json:"transition"`
	Fields     map[string]any `json:"fields,omitempty"`
}

type jiraComment struct {
	ID      string    `json:"id"`
	Author  *jiraUser `json:"author"`
	Body    string    `json:"body"`
	Created string    `json:"created"`
}

type commentsResponse struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Comments   []jiraComment `json:"comments"`
}

type commentRequest struct {
	Body string `json:"body"`
}

var issueFields = []string{"summary", "description", "status", "reporter", "created", "updated", "attachment"}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{jiraTimeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (i jiraIssue) toDomain() domain.Ticket {
	ticket := domain.Ticket{
		Key:           i.Key,
		Summary:       i.Fields.Summary,
		Description:   i.Fields.Description,
		TrackerStatus: i.Fields.Status.Name,
		CreatedAt:     parseTime(i.Fields.Created),
		UpdatedAt:     parseTime(i.Fields.Updated),
	}
	ticket.ReporterEmail = AttributedEmail(i.Fields.Description, reporterEmail(i.Fields.Reporter))
	for _, a := range i.Fields.Attachment {
		ticket.Attachments = append(ticket.Attachments, domain.Attachment{
			ID:        a.ID,
			Filename:  a.Filename,
			MimeType:  a.MimeType,
			SizeBytes: a.Size,
			CreatedAt: parseTime(a.Created),
		})
	}
	return ticket
}

func (t jiraTransition) toDomain() domain.Transition {
	tr := domain.Transition{ID: t.ID, Name: t.Name, ToName: t.To.Name}
	for name := range t.Fields {
		tr.Fields = append(tr.Fields, name)
	}
	return tr
}

func (c jiraComment) toDomain() domain.Comment {
	comment := domain.Comment{ID: c.ID, Body: c.Body, CreatedAt: parseTime(c.Created)}
	if c.Author != nil {
		comment.AuthorEmail = strings.ToLower(c.Author.EmailAddress)
		comment.AuthorName = c.Author.DisplayName
	}
	return comment
}

func reporterEmail(u *jiraUser) string {
	if u == nil {
		return ""
	}
	return strings.ToLower(u.EmailAddress)
}
