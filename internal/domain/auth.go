package domain

import "time"

// Identity is the authenticated portal caller, established through OAuth.
type Identity struct {
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
