package web_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	devapp "github.com/aussiebroadwan/quill/internal/devapi/app"
	webapp "github.com/aussiebroadwan/quill/internal/web/app"
	"github.com/stretchr/testify/require"
)

/*
 * Helpers for end-to-end tests of the web front end. Each test gets its own
 * seeded development API and front end, both served in process.
 */

const (
	staticOTP = "123456"
	wrongOTP  = "000000"

	userEmail     = "a@b.com"
	userPassword  = "secret1"
	adminEmail    = "admin@quill.local"
	adminPassword = "admin123"
)

type stack struct {
	api *httptest.Server
	web *httptest.Server
}

// newStack starts a seeded API and a front end pointed at it.
func newStack(t *testing.T, accessTTL time.Duration) *stack {
	t.Helper()

	api, err := devapp.New(devapp.Config{
		JWTSecret:            "e2e-secret",
		StaticOTP:            staticOTP,
		CodeTTL:              10 * time.Minute,
		AccessTokenTTL:       accessTTL,
		RefreshTokenTTL:      time.Hour,
		Seed:                 true,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Minute,
	})
	require.NoError(t, err)
	apiSrv := httptest.NewServer(api.Handler())
	t.Cleanup(apiSrv.Close)

	web, err := webapp.New(webapp.Config{
		APIURL:               apiSrv.URL + "/api/",
		APITimeout:           5 * time.Second,
		DatabaseFile:         ":memory:",
		SessionSecret:        "e2e-session-secret-0123456789abcdef",
		SessionTTL:           time.Hour,
		ChallengeTTL:         10 * time.Minute,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Minute,
	})
	require.NoError(t, err)
	webSrv := httptest.NewServer(web.Handler())
	t.Cleanup(webSrv.Close)

	return &stack{api: apiSrv, web: webSrv}
}

// browser keeps cookies and never follows redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (s *stack) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: s.web.URL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.csrf())
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

// postMultipart submits fields the way the post forms do.
func (b *browser) postMultipart(path string, fields map[string]string) (*http.Response, string) {
	b.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(b.t, mw.WriteField("csrf_token", b.csrf()))
	for k, v := range fields {
		require.NoError(b.t, mw.WriteField(k, v))
	}
	require.NoError(b.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.base+path, &buf)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) csrf() string {
	b.t.Helper()
	u, err := url.Parse(b.base)
	require.NoError(b.t, err)

	find := func() string {
		for _, c := range b.client.Jar.Cookies(u) {
			if c.Name == "quill_csrf" {
				return c.Value
			}
		}
		return ""
	}
	if v := find(); v != "" {
		return v
	}
	b.get("/about")
	v := find()
	require.NotEmpty(b.t, v, "no csrf cookie issued")
	return v
}

// login runs both steps of the OTP login. It costs one password attempt.
func (b *browser) login(email, password string) {
	b.t.Helper()

	resp, _ := b.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(b.t, "/login/otp", resp.Header.Get("Location"))

	resp, _ = b.post("/login/otp", url.Values{"otp": {staticOTP}})
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(b.t, "/", resp.Header.Get("Location"))
}

func requireRedirect(t *testing.T, resp *http.Response, code int, location string) {
	t.Helper()
	require.Equal(t, code, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
