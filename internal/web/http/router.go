// Package http is the server-rendered front end: HTML pages for the blog,
// the OTP-gated auth flows and the admin console, all backed by the blog
// REST API through blogsdk.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/authstate"
	"github.com/aussiebroadwan/quill/internal/web/flow"
	"github.com/aussiebroadwan/quill/internal/web/guard"
	"github.com/aussiebroadwan/quill/internal/web/session"
	"github.com/aussiebroadwan/quill/internal/web/store"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// Config carries the router's dependencies.
type Config struct {
	// Client is the unauthenticated base client; each request gets a copy
	// bound to its own session.
	Client   *blogsdk.Client
	Sessions *session.Manager
	Flows    *flow.Flows
	Store    store.Store
	Logger   *slog.Logger

	BuildVersion  string
	SecureCookies bool
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	handlers     *Handlers
	store        store.Store
	buildVersion string
	startTime    time.Time
}

func NewRouter(cfg Config) (*Router, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slogx.Discard()
	}

	r := &Router{
		Mux: http.NewServeMux(),
		handlers: &Handlers{
			client:    cfg.Client,
			flows:     cfg.Flows,
			templates: tmpl,
		},
		store:        cfg.Store,
		buildVersion: cfg.BuildVersion,
		startTime:    time.Now(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(logger, "/livez", "/readyz"),
		cfg.Sessions.Middleware(),
		authstate.Middleware(session.Tokens),
		csrfMiddleware(cfg.SecureCookies),
	}

	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerPublic()
	r.registerAuth()
	r.registerPasswordReset()
	r.registerAccount()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPublic() {
	h := r.handlers

	r.Mux.HandleFunc("GET /{$}", h.Home)
	r.Mux.HandleFunc("GET /about", h.About)
	r.Mux.HandleFunc("GET /contact", h.Contact)
	r.Mux.HandleFunc("GET /category/{secure_id}", h.Category)
	r.Mux.HandleFunc("GET /post/{secure_id}", h.Post)
	r.Mux.HandleFunc("GET /search", h.Search)
	r.Mux.HandleFunc("/", h.NotFound)
}

func (r *Router) registerAuth() {
	h := r.handlers
	publicOnly := guard.PublicOnly(guard.HomePath)

	r.Mux.Handle("GET /login", httpx.Chain(http.HandlerFunc(h.LoginForm), publicOnly))
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.LoginSubmit),
			publicOnly,
			httpx.LimitByIPAndField(httpx.LoginLimit, "email", httpx.WithRejector(rejectForm)),
		),
	)

	r.Mux.Handle("GET /login/otp", httpx.Chain(http.HandlerFunc(h.LoginOTPForm), publicOnly))
	r.Mux.Handle("POST /login/otp",
		httpx.Chain(http.HandlerFunc(h.LoginOTPSubmit),
			publicOnly,
			httpx.LimitByIP(httpx.LoginLimit, httpx.WithRejector(rejectForm)),
		),
	)

	r.Mux.Handle("GET /register", httpx.Chain(http.HandlerFunc(h.RegisterForm), publicOnly))
	r.Mux.Handle("POST /register",
		httpx.Chain(http.HandlerFunc(h.RegisterSubmit),
			publicOnly,
			httpx.LimitByIP(httpx.FormLimit, httpx.WithRejector(rejectForm)),
		),
	)

	r.Mux.Handle("GET /register/verify", httpx.Chain(http.HandlerFunc(h.RegisterVerifyForm), publicOnly))
	r.Mux.Handle("POST /register/verify",
		httpx.Chain(http.HandlerFunc(h.RegisterVerifySubmit),
			publicOnly,
			httpx.LimitByIP(httpx.LoginLimit, httpx.WithRejector(rejectForm)),
		),
	)

	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(h.Logout), guard.AuthenticatedOnly(guard.LoginPath)),
	)
}

// The reset pages are reachable signed in or not.
func (r *Router) registerPasswordReset() {
	h := r.handlers

	r.Mux.HandleFunc("GET /password-reset", h.ResetForm)
	r.Mux.Handle("POST /password-reset",
		httpx.Chain(http.HandlerFunc(h.ResetRequest),
			httpx.LimitByIPAndField(httpx.LoginLimit, "email", httpx.WithRejector(rejectForm)),
		),
	)
	r.Mux.Handle("POST /password-reset/verify",
		httpx.Chain(http.HandlerFunc(h.ResetVerify),
			httpx.LimitByIP(httpx.LoginLimit, httpx.WithRejector(rejectForm)),
		),
	)
	r.Mux.Handle("POST /password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.ResetConfirm),
			httpx.LimitByIP(httpx.FormLimit, httpx.WithRejector(rejectForm)),
		),
	)
	r.Mux.HandleFunc("POST /password-reset/cancel", h.ResetCancel)
}

func (r *Router) registerAccount() {
	h := r.handlers
	authed := guard.AuthenticatedOnly(guard.LoginPath)

	r.Mux.Handle("GET /profile", httpx.Chain(http.HandlerFunc(h.Profile), authed))
	r.Mux.Handle("GET /dashboard", httpx.Chain(http.HandlerFunc(h.Dashboard), authed))

	r.Mux.Handle("GET /post/create", httpx.Chain(http.HandlerFunc(h.CreatePostForm), authed))
	r.Mux.Handle("POST /post/create",
		httpx.Chain(http.HandlerFunc(h.CreatePostSubmit),
			authed,
			httpx.LimitByUser(httpx.AccountLimit, httpx.WithRejector(rejectForm)),
		),
	)
	r.Mux.Handle("GET /post/update/{secure_id}", httpx.Chain(http.HandlerFunc(h.UpdatePostForm), authed))
	r.Mux.Handle("POST /post/update/{secure_id}",
		httpx.Chain(http.HandlerFunc(h.UpdatePostSubmit),
			authed,
			httpx.LimitByUser(httpx.AccountLimit, httpx.WithRejector(rejectForm)),
		),
	)
	r.Mux.Handle("POST /post/delete/{secure_id}", httpx.Chain(http.HandlerFunc(h.DeletePost), authed))
}

func (r *Router) registerAdmin() {
	h := r.handlers
	admin := guard.AdminOnly(guard.HomePath)

	r.Mux.Handle("GET /admin/dashboard", httpx.Chain(http.HandlerFunc(h.AdminDashboard), admin))
	r.Mux.Handle("GET /admin/posts/new", httpx.Chain(http.HandlerFunc(h.AdminNewPostForm), admin))
	r.Mux.Handle("POST /admin/posts/new", httpx.Chain(http.HandlerFunc(h.AdminNewPostSubmit), admin))
	r.Mux.Handle("GET /admin/posts/{id}/edit", httpx.Chain(http.HandlerFunc(h.AdminEditPostForm), admin))
	r.Mux.Handle("POST /admin/posts/{id}/edit", httpx.Chain(http.HandlerFunc(h.AdminEditPostSubmit), admin))
	r.Mux.Handle("POST /admin/posts/{id}/delete", httpx.Chain(http.HandlerFunc(h.AdminDeletePost), admin))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", httpx.LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", httpx.ReadyzHandler(r.startTime, r.buildVersion, map[string]httpx.Check{
		"database": r.store.Ping,
	}))
}

// rejectForm answers a throttled form POST with a flash and a redirect back
// to the form.
func rejectForm(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	setFlash(w, flashError, fmt.Sprintf("Too many attempts. Please try again in %d seconds.", int(retryAfter.Seconds())))
	guard.Redirect(w, r, formPath(r.URL.Path))
}

// formPath maps a POST target to the page that shows its form.
func formPath(p string) string {
	switch p {
	case "/password-reset/verify", "/password-reset/confirm":
		return "/password-reset"
	}
	return p
}
