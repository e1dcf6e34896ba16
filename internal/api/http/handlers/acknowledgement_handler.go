package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// AcknowledgementHandler exposes acknowledgement verification.
type AcknowledgementHandler struct {
	acks *service.AcknowledgementService
}

// NewAcknowledgementHandler constructs handler.
func NewAcknowledgementHandler(acks *service.AcknowledgementService) *AcknowledgementHandler {
	return &AcknowledgementHandler{acks: acks}
}

// Verify POST /verify-acknowledgement.
func (h *AcknowledgementHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyAcknowledgementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerEmail == "" || req.SubmissionTimestamp <= 0 {
		return apperrors.NewValidationError("customerEmail and submissionTimestamp are required", nil)
	}
	res, err := h.acks.VerifySubmission(c.UserContext(), service.SubmissionInput{
		TicketKey:           req.TicketID,
		CustomerEmail:       req.CustomerEmail,
		MessageID:           req.MessageID,
		SubmissionTimestamp: time.UnixMilli(req.SubmissionTimestamp),
	})
	if err != nil {
		return err
	}
	resp := dto.VerifyAcknowledgementResponse{
		Verified:     res.Verified,
		Reason:       res.Reason,
		DeltaSeconds: res.Delta.Seconds(),
	}
	if res.Ticket != nil {
		created := res.Ticket.CreatedAt
		resp.TicketKey = res.Ticket.Key
		resp.TicketCreatedAt = &created
	}
	return c.JSON(resp)
}

// Status GET /acknowledgement/status?email=.
func (h *AcknowledgementHandler) Status(c *fiber.Ctx) error {
	status, err := h.acks.Status(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(status)
}
