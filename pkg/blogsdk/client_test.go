package blogsdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal API that accepts one access token at a time and
// counts refresh calls.
type fakeAPI struct {
	mu          sync.Mutex
	validAccess string
	refresh     string
	nextAccess  string

	// rejectAll makes every authenticated call fail with 401.
	rejectAll bool

	refreshCalls atomic.Int32
	seenAuth     []string
	seenBodies   []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		var body struct {
			Refresh string `json:"refresh"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Header.Get("Authorization") != "" {
			http.Error(w, "refresh must be sent bare", http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if body.Refresh == "" || body.Refresh != f.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
			return
		}
		f.validAccess = f.nextAccess
		_ = json.NewEncoder(w).Encode(map[string]string{"access": f.nextAccess})
	})

	protected := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.seenAuth = append(f.seenAuth, r.Header.Get("Authorization"))
		f.seenBodies = append(f.seenBodies, string(body))
		ok := !f.rejectAll && r.Header.Get("Authorization") == "Bearer "+f.validAccess
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"secure_id":"p1","title":"Hello"}]}`))
	}
	mux.HandleFunc("GET /user-posts/", protected)
	mux.HandleFunc("POST /user-posts/", protected)

	mux.HandleFunc("GET /post/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.seenAuth = append(f.seenAuth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
	})

	return mux
}

func (f *fakeAPI) auths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seenAuth...)
}

func (f *fakeAPI) bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seenBodies...)
}

func newTestClient(t *testing.T, api *fakeAPI, tokens Tokens) (*Client, *MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	store := NewMemoryTokenStore(tokens)
	return NewClient(srv.URL, store), store
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	t.Run("token present", func(t *testing.T) {
		api := &fakeAPI{validAccess: "access-1"}
		client, _ := newTestClient(t, api, Tokens{Access: "access-1", Refresh: "refresh-1"})

		_, err := client.ListPosts(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"Bearer access-1"}, api.auths())
	})

	t.Run("no token", func(t *testing.T) {
		api := &fakeAPI{}
		client, _ := newTestClient(t, api, Tokens{})

		_, err := client.ListPosts(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{""}, api.auths())
	})
}

func TestClientRefreshesOnceAndRetries(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{validAccess: "access-2", refresh: "refresh-1", nextAccess: "access-2"}
	client, store := newTestClient(t, api, Tokens{Access: "access-1", Refresh: "refresh-1"})

	posts, err := client.ListUserPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "p1", posts[0].SecureID)

	require.EqualValues(t, 1, api.refreshCalls.Load())
	require.Equal(t, []string{"Bearer access-1", "Bearer access-2"}, api.auths())

	tokens, _ := store.Load(context.Background())
	require.Equal(t, Tokens{Access: "access-2", Refresh: "refresh-1"}, tokens)
}

func TestClientResendsIdenticalBody(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{validAccess: "access-2", refresh: "refresh-1", nextAccess: "access-2"}
	client, _ := newTestClient(t, api, Tokens{Access: "access-1", Refresh: "refresh-1"})

	_, err := client.CreateUserPost(context.Background(), PostInput{
		Title:      "Hello world",
		Content:    "Some content here",
		CategoryID: "c1",
	})
	// The fake answers with a list envelope, which decodes into an empty post.
	require.NoError(t, err)
	bodies := api.bodies()
	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0], bodies[1])
	require.Contains(t, bodies[0], "Hello world")
}

func TestClientSecondUnauthorizedPropagates(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{refresh: "refresh-1", nextAccess: "access-2", rejectAll: true}
	expired := false
	client, store := newTestClient(t, api, Tokens{Access: "access-1", Refresh: "refresh-1"})
	client.OnSessionExpired = func(context.Context) { expired = true }

	_, err := client.ListUserPosts(context.Background())
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.False(t, errors.Is(err, ErrSessionExpired))

	require.EqualValues(t, 1, api.refreshCalls.Load())
	require.Len(t, api.auths(), 2)
	require.False(t, expired)

	// The refresh itself succeeded, so the session keeps the new token.
	tokens, _ := store.Load(context.Background())
	require.Equal(t, "access-2", tokens.Access)
}

func TestClientRefreshFailureClearsSession(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{validAccess: "other", refresh: "refresh-good", nextAccess: "access-2"}
	var expiredCalls int
	client, store := newTestClient(t, api, Tokens{Access: "access-1", Refresh: "refresh-bad"})
	client.OnSessionExpired = func(context.Context) { expiredCalls++ }

	_, err := client.ListUserPosts(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok, "original error is preserved")
	require.Equal(t, "Given token not valid for any token type", apiErr.Detail)

	require.EqualValues(t, 1, api.refreshCalls.Load())
	require.Len(t, api.auths(), 1, "original request is not resent")
	require.Equal(t, 1, expiredCalls)

	tokens, _ := store.Load(context.Background())
	require.Equal(t, Tokens{}, tokens)
}

func TestClientRefreshWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{validAccess: "other"}
	client, store := newTestClient(t, api, Tokens{Access: "access-1"})

	_, err := client.ListUserPosts(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.EqualValues(t, 0, api.refreshCalls.Load())

	tokens, _ := store.Load(context.Background())
	require.False(t, tokens.HasAccess())
}

func TestClientUnauthenticatedFailureDoesNotRefresh(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	client, _ := newTestClient(t, api, Tokens{})

	_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrSessionExpired))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, "Invalid credentials", apiErr.Detail)
	require.EqualValues(t, 0, api.refreshCalls.Load())
}

func TestClientTransportErrorPropagates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := NewMemoryTokenStore(Tokens{Access: "a", Refresh: "r"})
	client := NewClient(srv.URL, store)

	_, err := client.ListUserPosts(context.Background())
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrSessionExpired))

	tokens, _ := store.Load(context.Background())
	require.Equal(t, "a", tokens.Access, "network failures leave the session alone")
}

func TestRequestRetryIsImmutable(t *testing.T) {
	t.Parallel()

	first := newRequest(http.MethodGet, "post/")
	second := first.retry()

	require.False(t, first.retried())
	require.True(t, second.retried())
	require.Equal(t, 0, first.attempt)
	require.Equal(t, 1, second.attempt)
}
