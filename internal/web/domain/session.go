package domain

import "time"

// DefaultSessionTTL is how long an idle browser session row is kept.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session is one browser's stored login. The row is found by TokenHash, the
// fingerprint of the opaque cookie value; the bearer tokens are kept sealed.
type Session struct {
	ID            string
	TokenHash     string
	AccessSealed  string
	RefreshSealed string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the row is past ExpiresAt at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
