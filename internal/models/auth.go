package models

import "time"

// Account is the authenticated user's profile as reported by the Accounts API.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Credits       int       `json:"credits"`
	Plan          string    `json:"plan,omitempty"` // "free", "monthly", "yearly"
	CreatedAt     time.Time `json:"created_at"`
}

// Session holds the persisted bearer token and account snapshot for the
// single active login. Stored in Badger under a fixed key.
type Session struct {
	ID            string    `json:"id"` // Fixed storage key
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	Expiry        time.Time `json:"expiry"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     int64     `json:"created_at"`
	UpdatedAt     int64     `json:"updated_at"`
}

// SessionKey is the fixed Badger key for the active session.
const SessionKey = "session"

// Expired reports whether the access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expiry.IsZero() && now.After(s.Expiry)
}
