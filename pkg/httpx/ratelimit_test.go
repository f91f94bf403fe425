package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "peer address", want: "192.0.2.7"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, want: "203.0.113.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 203.0.113.2 "}, want: "203.0.113.2"},
		{name: "blank forwarded falls through", headers: map[string]string{"X-Forwarded-For": " ,10.0.0.1"}, want: "192.0.2.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.7:5555"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ClientIP(req))
		})
	}
}

func TestFormFieldAndJoinKeys(t *testing.T) {
	form := url.Values{"email": {"  Ada@Example.COM "}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.7:5555"

	require.Equal(t, "ada@example.com", httpx.FormField("email")(req))
	require.Equal(t, "", httpx.FormField("missing")(req))

	key := httpx.JoinKeys(httpx.ClientIP, httpx.FormField("missing"), httpx.FormField("email"))
	require.Equal(t, "192.0.2.7|ada@example.com", key(req))
}

func serve(h http.Handler, remote string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	}
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestLimitByIP(t *testing.T) {
	l := httpx.RateLimit{Name: "test", Requests: 2, Per: time.Minute, Burst: 2}
	h := httpx.LimitByIP(l)(ok)

	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", nil).Code)
	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:2", nil).Code)

	rec := serve(h, "10.0.0.1:3", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "30", rec.Header().Get("Retry-After"))
	require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
	require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// Other clients have their own bucket.
	require.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1", nil).Code)
}

func TestLimitByIPAndField(t *testing.T) {
	l := httpx.RateLimit{Name: "test", Requests: 1, Per: time.Minute, Burst: 1}
	h := httpx.LimitByIPAndField(l, "email")(ok)

	ada := url.Values{"email": {"ada@example.com"}}
	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", ada).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1", url.Values{"email": {"ADA@example.com"}}).Code)
	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", url.Values{"email": {"bob@example.com"}}).Code)
}

func TestLimitWithRejector(t *testing.T) {
	l := httpx.RateLimit{Name: "test", Requests: 1, Per: time.Minute, Burst: 1}

	var got time.Duration
	h := httpx.LimitByIP(l, httpx.WithRejector(func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
		got = retryAfter
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}))(ok)

	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", nil).Code)
	rec := serve(h, "10.0.0.1:1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, time.Minute, got)
}

func TestLimitFromEnv(t *testing.T) {
	def := httpx.RateLimit{Name: "probe", Requests: 10, Per: time.Minute, Burst: 10}

	t.Run("defaults", func(t *testing.T) {
		require.Equal(t, def, httpx.LimitFromEnv(def))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_PROBE_REQUESTS", "50")
		t.Setenv("RATELIMIT_PROBE_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_PROBE_BURST", "7")

		got := httpx.LimitFromEnv(def)
		require.Equal(t, 50, got.Requests)
		require.Equal(t, 30*time.Second, got.Per)
		require.Equal(t, 7, got.Burst)
	})

	t.Run("bad values keep defaults", func(t *testing.T) {
		t.Setenv("RATELIMIT_PROBE_REQUESTS", "lots")
		t.Setenv("RATELIMIT_PROBE_WINDOW_SEC", "-10")
		t.Setenv("RATELIMIT_PROBE_BURST", "0")

		require.Equal(t, def, httpx.LimitFromEnv(def))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func BenchmarkLimitManyClients(b *testing.B) {
	h := httpx.LimitByIP(httpx.RateLimit{Name: "bench", Requests: 1_000_000, Per: time.Minute, Burst: 1000})(ok)

	for i := 0; b.Loop(); i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:1", i%250, (i/250)%250)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
