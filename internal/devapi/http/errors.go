package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// writeError maps service errors onto the API's status codes and bodies.
// Field errors are sent as arrays of messages keyed by field.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields service.FieldErrors
	switch {
	case errors.As(err, &fields):
		body := make(map[string][]string, len(fields))
		for k, v := range fields {
			body[k] = []string{v}
		}
		httpx.WriteJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid email or password.")
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteDetail(w, http.StatusForbidden, "Email address is not verified.")
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteDetail(w, http.StatusBadRequest, "Invalid or expired OTP.")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteDetail(w, http.StatusInternalServerError, "A server error occurred.")
	}
}

func badRequest(w http.ResponseWriter, detail string) {
	httpx.WriteDetail(w, http.StatusBadRequest, detail)
}
