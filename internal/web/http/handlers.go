package http

import (
	"context"
	"errors"
	"maps"
	"net/http"

	"github.com/aussiebroadwan/quill/internal/web/flow"
	"github.com/aussiebroadwan/quill/internal/web/guard"
	"github.com/aussiebroadwan/quill/internal/web/session"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const (
	msgGeneric        = "Something went wrong. Please try again."
	msgSessionExpired = "Your session has expired. Please log in again."
)

// Handlers renders every page. It is stateless apart from its dependencies.
type Handlers struct {
	client    *blogsdk.Client
	flows     *flow.Flows
	templates templates
}

// api returns a client bound to the request's session. Refreshed tokens are
// written back to the session row; a failed refresh clears it.
func (h *Handlers) api(r *http.Request) *blogsdk.Client {
	hd := session.FromContext(r.Context())
	if hd == nil {
		return h.client.WithTokens(blogsdk.NewMemoryTokenStore(blogsdk.Tokens{}), nil)
	}
	return h.client.WithTokens(hd, func(ctx context.Context) {
		slogx.FromContext(ctx).Info("session expired, signing out")
	})
}

// sessionKey identifies the browser for the auth flows.
func (h *Handlers) sessionKey(r *http.Request) (string, error) {
	hd := session.FromContext(r.Context())
	if hd == nil {
		return "", errors.New("no session on request")
	}
	return hd.Key(r.Context())
}

// expired sends the user to the login page when err reports a session that
// could not be refreshed. It reports whether it wrote the response.
func (h *Handlers) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, blogsdk.ErrSessionExpired) {
		return false
	}
	setFlash(w, flashError, msgSessionExpired)
	guard.Redirect(w, r, guard.LoginPath)
	return true
}

// describe folds err into f and returns the page-level message. Field
// errors from local validation or from the API land on their inputs.
func (h *Handlers) describe(r *http.Request, err error, f *Form, fallback string) string {
	var vErr *blogsdk.ValidationError
	if errors.As(err, &vErr) {
		maps.Copy(f.Errors, vErr.Fields)
		return ""
	}

	if apiErr, ok := blogsdk.AsAPIError(err); ok {
		maps.Copy(f.Errors, apiErr.FieldErrors)
		if apiErr.StatusCode >= http.StatusInternalServerError {
			slogx.FromContext(r.Context()).Error("api request failed", "status", apiErr.StatusCode, "err", err)
			return fallback
		}
		if apiErr.Detail == "" && len(apiErr.FieldErrors) > 0 {
			return ""
		}
		return apiErr.Message(fallback)
	}

	slogx.FromContext(r.Context()).Error("api request failed", "err", err)
	return fallback
}

// notFound reports whether err is a 404 from the API.
func notFound(err error) bool {
	apiErr, ok := blogsdk.AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// fail renders the error page for a failed page load.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if h.expired(w, r, err) {
		return
	}
	if notFound(err) {
		h.NotFound(w, r)
		return
	}
	if apiErr, ok := blogsdk.AsAPIError(err); ok && apiErr.IsUnauthorized() {
		h.render(w, r, http.StatusForbidden, "error", Page{
			Title:   "Not allowed",
			Message: "You are not allowed to view this page.",
		})
		return
	}
	slogx.FromContext(r.Context()).Error("failed to load page", "path", r.URL.Path, "err", err)
	h.render(w, r, http.StatusBadGateway, "error", Page{
		Title:   "Error",
		Message: "We could not reach the blog right now. Please try again.",
	})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "error", Page{
		Title:   "Not found",
		Message: "The page you are looking for does not exist.",
	})
}

// done redirects with a success flash.
func done(w http.ResponseWriter, r *http.Request, location, text string) {
	setFlash(w, flashSuccess, text)
	guard.Redirect(w, r, location)
}
