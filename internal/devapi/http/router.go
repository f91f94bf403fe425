package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/aussiebroadwan/quill/pkg/slogx"

	_ "github.com/aussiebroadwan/quill/api/devapi" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	AuthService *service.AuthService
	PostService *service.PostService
}

func NewRouter(verifier jwtx.Verifier, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz"),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerPosts()
	r.registerUserPosts()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Quill Development API
//	@version		0.1.0
//	@description	In-memory stand-in for the blog REST API consumed by the quill front end.
//	@description
//	@description				One-time codes are written to the log instead of being e-mailed.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/quill
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8000
//	@BasePath					/
//
//	@schemes					http
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				HS256 access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authed(h http.HandlerFunc, extra ...httpx.Middleware) http.Handler {
	mws := append([]httpx.Middleware{httpx.AuthnMiddleware(r.verifier)}, extra...)
	mws = append(mws, httpx.LimitByUser(httpx.APILimit))
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService}

	// The web front end calls from a single address, so the auth endpoints
	// use the API limit per address rather than the login one.
	limit := httpx.LimitByIP(httpx.APILimit)

	r.Mux.Handle("POST /api/auth/login/{$}", httpx.Chain(http.HandlerFunc(h.Login), limit))
	r.Mux.Handle("POST /api/auth/login-verify-otp/{$}", httpx.Chain(http.HandlerFunc(h.VerifyLogin), limit))
	r.Mux.Handle("POST /api/auth/register/{$}", httpx.Chain(http.HandlerFunc(h.Register), limit))
	r.Mux.Handle("POST /api/auth/verify-email/{$}", httpx.Chain(http.HandlerFunc(h.VerifyEmail), limit))
	r.Mux.Handle("POST /api/auth/token/refresh/{$}", httpx.Chain(http.HandlerFunc(h.Refresh), limit))
	r.Mux.Handle("POST /api/auth/logout/{$}", httpx.Chain(http.HandlerFunc(h.Logout), limit))

	r.Mux.Handle("GET /api/auth/user/{$}", r.authed(h.Profile))
}

func (r *Router) registerPasswordReset() {
	h := &AuthHandler{Auth: r.AuthService}
	limit := httpx.LimitByIP(httpx.APILimit)

	r.Mux.Handle("POST /api/auth/password-reset/request-otp/{$}", httpx.Chain(http.HandlerFunc(h.RequestReset), limit))
	r.Mux.Handle("POST /api/auth/password-reset/verify-otp/{$}", httpx.Chain(http.HandlerFunc(h.VerifyReset), limit))
}

func (r *Router) registerPosts() {
	h := &PostHandler{Posts: r.PostService, Verifier: r.verifier}
	limit := httpx.LimitByIP(httpx.ReadLimit)

	r.Mux.Handle("GET /api/post/{$}", httpx.Chain(http.HandlerFunc(h.List), limit))
	r.Mux.Handle("GET /api/post/{secure_id}/{$}", httpx.Chain(http.HandlerFunc(h.Get), limit))
	r.Mux.Handle("GET /api/categories/{$}", httpx.Chain(http.HandlerFunc(h.Categories), limit))
	r.Mux.Handle("GET /api/category-list/{$}", httpx.Chain(http.HandlerFunc(h.ByCategory), limit))
	r.Mux.Handle("GET /api/search/{$}", httpx.Chain(http.HandlerFunc(h.Search), limit))
}

func (r *Router) registerUserPosts() {
	h := &PostHandler{Posts: r.PostService, Verifier: r.verifier}

	r.Mux.Handle("GET /api/user-posts/{$}", r.authed(h.UserPosts))
	r.Mux.Handle("POST /api/user-posts/{$}", r.authed(h.CreateUserPost))
	r.Mux.Handle("GET /api/user-posts/{secure_id}/{$}", r.authed(h.UserPost))
	r.Mux.Handle("PUT /api/user-posts/{secure_id}/{$}", r.authed(h.UpdateUserPost))
	r.Mux.Handle("DELETE /api/user-posts/{secure_id}/{$}", r.authed(h.DeleteUserPost))
}

func (r *Router) registerAdmin() {
	h := &PostHandler{Posts: r.PostService, Verifier: r.verifier}
	admin := httpx.RequireAdmin()

	r.Mux.Handle("POST /api/post/{$}", r.authed(h.AdminCreate, admin))
	r.Mux.Handle("GET /api/admin/retrieve/{id}/{$}", r.authed(h.AdminGet, admin))
	r.Mux.Handle("PUT /api/admin/update/{id}/{$}", r.authed(h.AdminUpdate, admin))
	r.Mux.Handle("DELETE /api/admin/delete/{id}/{$}", r.authed(h.AdminDelete, admin))
}

// Everything lives in memory, so readiness has nothing to check.
func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", httpx.LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", httpx.ReadyzHandler(r.startTime, r.buildVersion, nil))
}
