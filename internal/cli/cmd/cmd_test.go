package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/internal/cli/tokenfile"
	devhttp "github.com/aussiebroadwan/quill/internal/devapi/http"
	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/internal/devapi/store"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// scripted answers questions in order and fails the test if it runs out.
type scripted struct {
	t       *testing.T
	answers []string
	asked   []string
}

func (s *scripted) Ask(qs ...Question) error {
	for _, q := range qs {
		if *q.Value != "" {
			continue
		}
		require.NotEmpty(s.t, s.answers, "unexpected prompt %q", q.Title)
		s.asked = append(s.asked, q.Title)
		*q.Value, s.answers = s.answers[0], s.answers[1:]
	}
	return nil
}

func newDevAPI(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.NewMemory()
	require.NoError(t, service.Seed(st, service.DefaultSeedUsers))
	signer, err := jwtx.NewHS256([]byte("cli-test-secret"))
	require.NoError(t, err)

	r := devhttp.NewRouter(signer, "test", slogx.Discard())
	r.AuthService = &service.AuthService{
		Store:      st,
		Codes:      service.NewCodes("123456", time.Minute),
		Signer:     signer,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	r.PostService = &service.PostService{Store: st}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEnv(t *testing.T, srv *httptest.Server, answers ...string) (*env, *bytes.Buffer, *scripted) {
	t.Helper()

	out := &bytes.Buffer{}
	prompt := &scripted{t: t, answers: answers}
	tokens := tokenfile.New(filepath.Join(t.TempDir(), "tokens.json"))
	return &env{
		out:    out,
		client: blogsdk.NewClient(srv.URL+"/api/", tokens),
		prompt: prompt,
	}, out, prompt
}

func TestLoginWhoamiLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newDevAPI(t)

	e, out, prompt := newTestEnv(t, srv, "secret1", "123456")
	require.NoError(t, runLogin(ctx, e, loginOptions{email: "a@b.com"}))
	require.Equal(t, []string{"Password", "One-time code"}, prompt.asked)
	require.Contains(t, out.String(), "Logged in as a@b.com")

	tokens, err := e.client.Tokens.Load(ctx)
	require.NoError(t, err)
	require.True(t, tokens.HasAccess())
	require.NotEmpty(t, tokens.Refresh)

	out.Reset()
	require.NoError(t, runWhoami(ctx, e))
	require.Contains(t, out.String(), "@alice")

	require.NoError(t, runLogout(ctx, e))
	tokens, err = e.client.Tokens.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, blogsdk.Tokens{}, tokens)

	require.ErrorIs(t, runWhoami(ctx, e), errNotLoggedIn)
}

func TestLoginRejectsWrongCode(t *testing.T) {
	t.Parallel()
	srv := newDevAPI(t)

	e, _, _ := newTestEnv(t, srv)
	err := runLogin(context.Background(), e, loginOptions{email: "a@b.com", password: "secret1", otp: "000000"})
	require.Error(t, err)
	require.Equal(t, "Invalid or expired OTP.", describe(err))
}

func TestRejectedAccessTokenIsRefreshed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newDevAPI(t)

	e, out, _ := newTestEnv(t, srv)
	require.NoError(t, runLogin(ctx, e, loginOptions{email: "a@b.com", password: "secret1", otp: "123456"}))
	before, err := e.client.Tokens.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, e.client.Tokens.Save(ctx, blogsdk.Tokens{Access: "stale", Refresh: before.Refresh}))

	out.Reset()
	require.NoError(t, runWhoami(ctx, e))
	require.Contains(t, out.String(), "a@b.com")

	after, err := e.client.Tokens.Load(ctx)
	require.NoError(t, err)
	require.NotEqual(t, "stale", after.Access)
	require.Equal(t, before.Refresh, after.Refresh)
}

func TestFailedRefreshClearsTokenFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newDevAPI(t)

	e, _, _ := newTestEnv(t, srv)
	require.NoError(t, e.client.Tokens.Save(ctx, blogsdk.Tokens{Access: "stale", Refresh: "revoked"}))

	err := runWhoami(ctx, e)
	require.ErrorIs(t, err, blogsdk.ErrSessionExpired)
	require.Contains(t, describe(err), "quillctl login")

	tokens, err := e.client.Tokens.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, blogsdk.Tokens{}, tokens)
}

func TestPostsAndCategories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newDevAPI(t)

	e, out, _ := newTestEnv(t, srv)
	require.NoError(t, runPostsList(ctx, e, ""))
	require.Contains(t, out.String(), "Hello, quill")
	require.NotContains(t, out.String(), "Unfinished draft")

	e.json = true
	out.Reset()
	require.NoError(t, runCategories(ctx, e))
	var cats []blogsdk.Category
	require.NoError(t, json.Unmarshal(out.Bytes(), &cats))
	require.NotEmpty(t, cats)

	out.Reset()
	require.NoError(t, runPostsList(ctx, e, cats[0].SecureID))
	var posts []blogsdk.Post
	require.NoError(t, json.Unmarshal(out.Bytes(), &posts))
	require.NotEmpty(t, posts)

	e.json = false
	out.Reset()
	require.NoError(t, runPostsShow(ctx, e, posts[0].SecureID))
	require.Contains(t, out.String(), posts[0].Content)

	require.Error(t, runPostsShow(ctx, e, "missing"))
}

func TestResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newDevAPI(t)

	t.Run("mismatch is rejected before sending", func(t *testing.T) {
		e, _, _ := newTestEnv(t, srv, "123456", "Pass123!", "Other123!")
		err := runResetPassword(ctx, e, resetOptions{email: "a@b.com"})
		var verr *blogsdk.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("wrong code", func(t *testing.T) {
		e, _, _ := newTestEnv(t, srv)
		err := runResetPassword(ctx, e, resetOptions{email: "a@b.com", otp: "000000"})
		_, ok := blogsdk.AsAPIError(err)
		require.True(t, ok)
	})

	t.Run("success", func(t *testing.T) {
		e, out, _ := newTestEnv(t, srv, "Pass123!", "Pass123!")
		require.NoError(t, runResetPassword(ctx, e, resetOptions{email: "a@b.com", otp: "123456"}))
		require.Contains(t, out.String(), "Password updated")

		require.NoError(t, runLogin(ctx, e, loginOptions{email: "a@b.com", password: "Pass123!", otp: "123456"}))
	})
}
