package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// IdentityProvider exchanges an OAuth code for the caller identity.
type IdentityProvider interface {
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*domain.Identity, error)
}

// AuthService issues portal session tokens for OAuth-authenticated callers.
type AuthService struct {
	provider IdentityProvider
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// AuthDependencies encapsulates collaborators for auth service.
type AuthDependencies struct {
	Provider IdentityProvider
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	provider := deps.Provider
	if provider == nil {
		provider = auth.NewOAuthExchanger(cfg.Auth)
	}
	return &AuthService{provider: provider, tokenMgr: tokens, logger: nopLogger(deps.Logger)}
}

// LoginURL returns where to send the browser to start the flow.
func (s *AuthService) LoginURL(state string) (string, error) {
	url, err := s.provider.AuthCodeURL(state)
	if errors.Is(err, auth.ErrOAuthDisabled) {
		return "", apperrors.NewConfigurationError(err)
	}
	return url, err
}

// Callback completes the authorization-code flow and returns a signed token.
func (s *AuthService) Callback(ctx context.Context, code string) (*domain.Identity, string, time.Time, error) {
	if strings.TrimSpace(code) == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("code is required", nil)
	}
	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, auth.ErrOAuthDisabled) {
			return nil, "", time.Time{}, apperrors.NewConfigurationError(err)
		}
		s.logger.Warn("oauth exchange failed", zap.Error(err))
		return nil, "", time.Time{}, apperrors.NewUnauthorized("authorization failed")
	}
	token, exp, err := s.tokenMgr.GenerateToken(identity.Email, identity.Name)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	identity.ExpiresAt = exp
	s.logger.Info("portal session issued", zap.String("email", identity.Email))
	return identity, token, exp, nil
}

// TokenManager exposes the JWT manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
