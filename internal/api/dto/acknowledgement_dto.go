package dto

import "time"

// VerifyAcknowledgementRequest payload. SubmissionTimestamp is epoch milliseconds.
type VerifyAcknowledgementRequest struct {
	TicketID            string `json:"ticketId"`
	CustomerEmail       string `json:"customerEmail"`
	SubmissionTimestamp int64  `json:"submissionTimestamp"`
	MessageID           string `json:"messageId"`
}

// VerifyAcknowledgementResponse reports a verification outcome.
type VerifyAcknowledgementResponse struct {
	Verified        bool       `json:"verified"`
	Reason          string     `json:"reason,omitempty"`
	TicketKey       string     `json:"ticketKey,omitempty"`
	TicketCreatedAt *time.Time `json:"ticketCreatedAt,omitempty"`
	DeltaSeconds    float64    `json:"deltaSeconds,omitempty"`
}
