package blogsdk

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrSessionExpired is returned when a request failed authorization and the
// session could not be refreshed. The stored tokens have been cleared by the
// time a caller sees it; the original *APIError is wrapped alongside.
var ErrSessionExpired = errors.New("blogsdk: session expired")

// ErrValidation is wrapped by ValidationError.
var ErrValidation = errors.New("blogsdk: validation failed")

// ============================================================================
// APIError - server-side failures
// ============================================================================

// APIError is a non-2xx response from the API.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Detail is the general message ("detail", "message", "error" or
	// "non_field_errors" in the body). Empty when the server sent none.
	Detail string

	// FieldErrors maps request field names to the server's messages.
	FieldErrors map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" && len(e.FieldErrors) > 0 {
		keys := make([]string, 0, len(e.FieldErrors))
		for k := range e.FieldErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.FieldErrors[k])
		}
		msg = strings.Join(parts, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

// IsUnauthorized reports a 401.
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// Message returns Detail, or fallback when the server gave no general message.
func (e *APIError) Message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// AsAPIError unwraps err into an *APIError if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ============================================================================
// ValidationError - client-side failures
// ============================================================================

// ValidationError is returned before any request is sent when the input fails
// client-side checks. Fields maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// validationError wraps a non-empty field map, or returns nil.
func validationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// detailKeys are body keys treated as the general message, in priority order.
var detailKeys = []string{"detail", "message", "error", "non_field_errors"}

// parseErrorResponse turns a non-2xx response body into an *APIError.
// Bodies that are not JSON objects still yield an error with only the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if !gjson.ValidBytes(body) {
		return apiErr
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		if root.Type == gjson.String {
			apiErr.Detail = root.String()
		}
		return apiErr
	}

	for _, key := range detailKeys {
		if msg := messageOf(root.Get(key)); msg != "" {
			apiErr.Detail = msg
			break
		}
	}

	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		for _, dk := range detailKeys {
			if name == dk {
				return true
			}
		}
		if msg := messageOf(value); msg != "" {
			if apiErr.FieldErrors == nil {
				apiErr.FieldErrors = make(map[string]string)
			}
			apiErr.FieldErrors[name] = msg
		}
		return true
	})

	return apiErr
}

// messageOf flattens a string or an array of strings into one message.
func messageOf(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.String()
	case v.IsArray():
		var parts []string
		for _, item := range v.Array() {
			if item.Type == gjson.String && item.String() != "" {
				parts = append(parts, item.String())
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
