package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// ErrOAuthDisabled is returned when no OAuth client is configured.
var ErrOAuthDisabled = errors.New("oauth not configured")

// OAuthExchanger turns an authorization code into the caller's email.
type OAuthExchanger struct {
	cfg         *oauth2.Config
	userInfoURL string
	enabled     bool
}

// NewOAuthExchanger builds an exchanger from config.
func NewOAuthExchanger(cfg config.AuthConfig) *OAuthExchanger {
	return &OAuthExchanger{
		cfg: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		userInfoURL: cfg.OAuthUserInfoURL,
		enabled:     cfg.OAuthEnabled(),
	}
}

// AuthCodeURL returns the provider consent URL.
func (o *OAuthExchanger) AuthCodeURL(state string) (string, error) {
	if !o.enabled {
		return "", ErrOAuthDisabled
	}
	return o.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades code for a token and reads the user's email from the provider.
func (o *OAuthExchanger) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	if !o.enabled {
		return nil, ErrOAuthDisabled
	}
	token, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	var info userInfo
	resp, err := resty.NewWithClient(o.cfg.Client(ctx, token)).R().
		SetContext(ctx).
		SetResult(&info).
		Get(o.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode())
	}
	if info.Email == "" {
		return nil, errors.New("provider returned no email")
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return nil, errors.New("provider email is not verified")
	}
	return &domain.Identity{Email: strings.ToLower(info.Email), Name: info.Name}, nil
}
