package domain

import "time"

// Session represents an authenticated session for a user within an org.
type Session struct {
	ID               string
	UserID           string
	OrgID            string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	IPAddress        string
	RefreshJti       string // current refresh token jti for rotation
	RefreshTokenHash string // SHA-256 hash of current refresh token
	CreatedAt        time.Time
}
