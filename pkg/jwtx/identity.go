package jwtx

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user view of an access token.
type Identity struct {
	UserID    string
	Username  string
	IsAdmin   bool
	ExpiresAt time.Time // zero when the token carries no exp
}

// Expired reports whether the identity's token is past its exp at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// DecodeIdentity reads the payload of an access token without verifying its
// signature; the front end holds no key and the API re-checks every request.
// It never panics: an empty token yields ErrMissing and anything that is not a
// three-part JWT with a JSON payload yields ErrMalformed.
func DecodeIdentity(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissing
	}

	claims, err := decodeClaims(raw)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		UserID:   string(claims.UserID),
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}

	return id, nil
}

func decodeClaims(raw string) (claims *Claims, err error) {
	defer func() {
		if recover() != nil {
			claims, err = nil, ErrMalformed
		}
	}()

	claims = &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, ErrMalformed
	}
	return claims, nil
}
