package jwtx_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestDecodeIdentity(t *testing.T) {
	signer, err := jwtx.NewHS256([]byte("test-secret"))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)

	t.Run("admin token", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.NewAccessClaims("42", "ada", true, time.Minute, now))
		require.NoError(t, err)

		id, err := jwtx.DecodeIdentity(tok)
		require.NoError(t, err)
		require.Equal(t, "42", id.UserID)
		require.Equal(t, "ada", id.Username)
		require.True(t, id.IsAdmin)
		require.Equal(t, now.Add(time.Minute), id.ExpiresAt.UTC())
		require.False(t, id.Expired(now))
		require.True(t, id.Expired(now.Add(2*time.Minute)))
	})

	t.Run("expired token still decodes", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.NewAccessClaims("7", "bob", false, time.Minute, now.Add(-time.Hour)))
		require.NoError(t, err)

		id, err := jwtx.DecodeIdentity(tok)
		require.NoError(t, err)
		require.False(t, id.IsAdmin)
		require.True(t, id.Expired(now))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := jwtx.DecodeIdentity("  ")
		require.ErrorIs(t, err, jwtx.ErrMissing)
	})

	enc := base64.RawURLEncoding.EncodeToString
	malformed := map[string]string{
		"garbage":          "not-a-jwt",
		"two parts":        "a.b",
		"bad base64":       "a.%%%.c",
		"non json payload": enc([]byte(`{"alg":"HS256"}`)) + "." + enc([]byte("hello")) + ".sig",
		"array payload":    enc([]byte(`{"alg":"HS256"}`)) + "." + enc([]byte("[1,2]")) + ".sig",
	}
	for name, raw := range malformed {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := jwtx.DecodeIdentity(raw)
				require.ErrorIs(t, err, jwtx.ErrMalformed)
			})
		})
	}

	t.Run("subject fallback", func(t *testing.T) {
		raw := enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(`{"sub":"99","username":"eve"}`)) + "."
		id, err := jwtx.DecodeIdentity(raw)
		require.NoError(t, err)
		require.Equal(t, "99", id.UserID)
		require.False(t, id.IsAdmin)
		require.True(t, id.ExpiresAt.IsZero())
	})
}

func TestHS256Verify(t *testing.T) {
	signer, err := jwtx.NewHS256([]byte("secret-a"))
	require.NoError(t, err)
	other, err := jwtx.NewHS256([]byte("secret-b"))
	require.NoError(t, err)

	now := time.Now().UTC()
	access, err := signer.Sign(jwtx.NewAccessClaims("1", "ada", false, time.Minute, now))
	require.NoError(t, err)

	claims, err := signer.Verify(access)
	require.NoError(t, err)
	require.Equal(t, jwtx.UserID("1"), claims.UserID)

	_, err = other.Verify(access)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	_, err = signer.VerifyType(access, jwtx.TokenTypeRefresh)
	require.ErrorIs(t, err, jwtx.ErrWrongType)

	expired, err := signer.Sign(jwtx.NewRefreshClaims("1", "ada", false, time.Minute, now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = signer.Verify(expired)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	_, err = jwtx.NewHS256(nil)
	require.Error(t, err)
}
