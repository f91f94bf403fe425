package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/aussiebroadwan/quill/internal/devapi/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid or expired otp")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrNotFound           = store.ErrNotFound
)

// FieldErrors rejects a request with one message per offending field.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func required(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = "This field may not be blank."
	}
}

func orNil(errs FieldErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
