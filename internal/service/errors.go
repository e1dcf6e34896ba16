package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// classify converts package sentinels into DomainErrors for the HTTP layer.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, tracker.ErrNotConfigured), errors.Is(err, persistence.ErrNotConfigured):
		return apperrors.NewConfigurationError(err)
	case errors.Is(err, tracker.ErrNotFound):
		return apperrors.NewNotFound("ticket", nil)
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("record", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUpstreamError("tracker", err)
	}
	var apiErr *tracker.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewUpstreamError("tracker", err)
	}
	return err
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nopLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
