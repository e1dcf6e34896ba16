package domain

import "time"

// Ticket is a tracker issue as seen by the portal.
type Ticket struct {
	Key           string
	Summary       string
	Description   string
	TrackerStatus string
	ReporterEmail string
	Attachments   []Attachment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transition is a workflow move currently available on a ticket.
type Transition struct {
	ID     string
	Name   string
	ToName string
	Fields []string
}

// HasField reports whether the transition screen accepts the named field.
func (t Transition) HasField(name string) bool {
	for _, f := range t.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Comment is a tracker comment.
type Comment struct {
	ID          string
	AuthorEmail string
	AuthorName  string
	Body        string
	CreatedAt   time.Time
}

// Attachment describes a tracker attachment.
type Attachment struct {
	ID        string
	Filename  string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}

// AttachmentContent is the downloaded body of an attachment.
type AttachmentContent struct {
	Filename    string
	ContentType string
	Data        []byte
}
