package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/quill/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slogx.NewHandler(slogx.Config{Output: &buf}))

	logger.Info("login", "refresh_token", "r-123", "OTP", "654321", "email", "a@b.com")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "[redacted]", entry["refresh_token"])
	require.Equal(t, "[redacted]", entry["OTP"])
	require.Equal(t, "a@b.com", entry["email"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))

	l := slogx.Discard()
	ctx := slogx.WithContext(context.Background(), l)
	require.Equal(t, l, slogx.FromContext(ctx))
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slogx.NewHandler(slogx.Config{Output: &buf}))

	h := slogx.HTTPMiddleware(base, "/livez")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("logs and echoes request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/post/abc", nil)
		req.Header.Set(slogx.RequestIDHeader, "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "req-1", rec.Header().Get(slogx.RequestIDHeader))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
		require.Equal(t, "http_request", entry["msg"])
		require.Equal(t, "req-1", entry["req_id"])
		require.EqualValues(t, http.StatusTeapot, entry["status"])
	})

	t.Run("generates id and skips quiet paths", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

		require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
		require.NotContains(t, buf.String(), "http_request")
	})
}
