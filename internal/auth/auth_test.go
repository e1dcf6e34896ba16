package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken("Support@Example.com", "Support")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if exp.IsZero() {
		t.Fatal("expected expiry")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "support@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if id := claims.Identity(); id.Email != "support@example.com" || id.ExpiresAt.IsZero() {
		t.Fatalf("identity = %+v", id)
	}

	if _, err := NewTokenManager("other", 5).ParseToken(token); err == nil {
		t.Fatal("expected signature failure with a different secret")
	}
}

func errorStatus(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return c.SendStatus(de.HTTPStatus)
	}
	return fiber.DefaultErrorHandler(c, err)
}

func TestRequireMaster(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tm)
	portal := config.PortalConfig{MasterEmail: "support@example.com"}

	app := fiber.New(fiber.Config{ErrorHandler: errorStatus})
	app.Post("/bulk", mw.Handle, RequireMaster(portal), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	master, _, _ := tm.GenerateToken("support@example.com", "")
	other, _, _ := tm.GenerateToken("random@attacker.com", "")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"non master", "Bearer " + other, http.StatusForbidden},
		{"master", "Bearer " + master, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bulk", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestOAuthExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"email": "User@Example.com", "email_verified": true, "name": "User"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewOAuthExchanger(config.AuthConfig{
		OAuthClientID:     "client",
		OAuthClientSecret: "secret",
		OAuthRedirectURL:  "http://localhost/auth/callback",
		OAuthAuthURL:      srv.URL + "/auth",
		OAuthTokenURL:     srv.URL + "/token",
		OAuthUserInfoURL:  srv.URL + "/userinfo",
	})

	id, err := ex.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if id.Email != "user@example.com" || id.Name != "User" {
		t.Fatalf("identity = %+v", id)
	}
	if _, err := ex.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected failure for rejected code")
	}
}

func TestOAuthDisabled(t *testing.T) {
	ex := NewOAuthExchanger(config.AuthConfig{})
	if _, err := ex.Exchange(context.Background(), "x"); !errors.Is(err, ErrOAuthDisabled) {
		t.Fatalf("expected ErrOAuthDisabled, got %v", err)
	}
	if _, err := ex.AuthCodeURL("state"); !errors.Is(err, ErrOAuthDisabled) {
		t.Fatalf("expected ErrOAuthDisabled, got %v", err)
	}
}
