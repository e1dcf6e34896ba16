package dto

import "time"

// AuthTokenResponse is returned by the OAuth callback.
type AuthTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
}
