package tracker

import (
	"fmt"
	"regexp"
	"strings"
)

// fromMarker matches "From: jane@example.com" or "From: Jane Doe <jane@example.com>"
// on its own line, optionally wrapped in wiki bold markers.
var fromMarker = regexp.MustCompile(`(?im)^[\s*]*from:[\s*]*(?:[^<\r\n]*<)?([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})>?`)

// commentHeader only accepts the marker as the first non-blank line of a comment.
var commentHeader = regexp.MustCompile(`(?i)\A[\s*]*from:[ \t*]*(?:[^<\r\n]*<)?([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})>?[ \t*]*(?:\r?\n|\z)`)

// ParseFromMarker extracts the customer email embedded in a ticket description.
func ParseFromMarker(text string) (string, bool) {
	m := fromMarker.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// AttributedEmail prefers the embedded marker over the native reporter, which is
// usually the shared service account that files tickets from inbound mail.
func AttributedEmail(description, reporter string) string {
	if email, ok := ParseFromMarker(description); ok {
		return email
	}
	return strings.ToLower(strings.TrimSpace(reporter))
}

// FormatMirroredComment renders a portal chat message as a tracker comment body.
func FormatMirroredComment(senderEmail, message string) string {
	return fmt.Sprintf("From: %s\n\n%s", strings.ToLower(strings.TrimSpace(senderEmail)), strings.TrimSpace(message))
}

// ParseMirroredComment recovers sender and text from a body written by FormatMirroredComment.
func ParseMirroredComment(body string) (sender, message string, ok bool) {
	m := commentHeader.FindStringSubmatchIndex(body)
	if m == nil {
		return "", "", false
	}
	sender = strings.ToLower(body[m[2]:m[3]])
	return sender, strings.TrimSpace(body[m[1]:]), true
}
