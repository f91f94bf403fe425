package jwtx

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants used by the development API.
const (
	DefaultAccessTokenTTL  = 5 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of tokens issued by the blog API. Only user_id,
// username and is_admin are relied on by the front end.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the numeric account id. Sent as a JSON number.
	UserID UserID `json:"user_id"`

	// Username for the authenticated user
	Username string `json:"username,omitempty"`

	// IsAdmin grants the admin console.
	IsAdmin bool `json:"is_admin"`

	// TokenType distinguishes "access" from "refresh" tokens.
	TokenType string `json:"token_type,omitempty"`
}

// NewAccessClaims builds minimally-correct access-token claims.
func NewAccessClaims(userID UserID, username string, isAdmin bool, ttl time.Duration, now time.Time) Claims {
	return newClaims(TokenTypeAccess, userID, username, isAdmin, ttl, now)
}

// NewRefreshClaims builds refresh-token claims.
func NewRefreshClaims(userID UserID, username string, isAdmin bool, ttl time.Duration, now time.Time) Claims {
	return newClaims(TokenTypeRefresh, userID, username, isAdmin, ttl, now)
}

func newClaims(typ string, userID UserID, username string, isAdmin bool, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID:    userID,
		Username:  username,
		IsAdmin:   isAdmin,
		TokenType: typ,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// UserID is a user identifier that may arrive as a JSON number or string.
type UserID string

// UnmarshalJSON accepts a JSON number or string.
func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("jwtx: user_id: %w", err)
		}
		*id = UserID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("jwtx: user_id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// MarshalJSON writes canonical integers as numbers, anything else as a string.
func (id UserID) MarshalJSON() ([]byte, error) {
	var n json.Number = json.Number(id)
	if i, err := n.Int64(); err == nil && fmt.Sprint(i) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}
