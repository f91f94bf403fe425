package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
	"github.com/aussiebroadwan/quill/internal/devapi/store"
	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const minPasswordLength = 6

// AuthService implements the OTP-gated account endpoints. Codes that a real
// deployment would e-mail are written to the log instead.
type AuthService struct {
	Store      *store.Memory
	Codes      *Codes
	Signer     *jwtx.HS256
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *AuthService) mail(ctx context.Context, p Purpose, to, code string) {
	slogx.FromContext(ctx).Info("dev mailer: one-time code issued",
		slog.String("purpose", string(p)),
		slog.String("to", to),
		slog.String("dev_code", code),
	)
}

// Login checks credentials and issues a login code. The returned id names
// the pending login.
func (s *AuthService) Login(ctx context.Context, email, password string) (int64, error) {
	errs := FieldErrors{}
	required(errs, "email", email)
	required(errs, "password", password)
	if err := orNil(errs); err != nil {
		return 0, err
	}

	u, err := s.Store.UserByEmail(strings.TrimSpace(email))
	if err != nil {
		// Hash anyway so a missing account costs the same as a wrong password.
		_, _ = cryptox.HashPassword(password)
		return 0, ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return 0, ErrInvalidCredentials
	}
	if !u.Verified {
		return 0, ErrEmailNotVerified
	}

	code, err := s.Codes.Issue(PurposeLogin, strconv.FormatInt(u.ID, 10))
	if err != nil {
		return 0, err
	}
	s.mail(ctx, PurposeLogin, u.Email, code)
	return u.ID, nil
}

// VerifyLogin exchanges a login code for a token pair.
func (s *AuthService) VerifyLogin(ctx context.Context, userID int64, code string) (domain.TokenPair, error) {
	subject := strconv.FormatInt(userID, 10)
	if !s.Codes.Check(PurposeLogin, subject, strings.TrimSpace(code)) {
		return domain.TokenPair{}, ErrInvalidCode
	}

	u, err := s.Store.UserByID(userID)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidCode
	}
	s.Codes.Forget(PurposeLogin, subject)

	return s.issue(u, time.Now())
}

func (s *AuthService) issue(u domain.User, now time.Time) (domain.TokenPair, error) {
	id := jwtx.UserID(strconv.FormatInt(u.ID, 10))

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(id, u.Username, u.IsAdmin, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.Signer.Sign(jwtx.NewRefreshClaims(id, u.Username, u.IsAdmin, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh returns a new access token for a live, unrevoked refresh token.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.Signer.VerifyType(refresh, jwtx.TokenTypeRefresh)
	if err != nil || s.Store.RefreshRevoked(claims.ID) {
		return "", ErrInvalidToken
	}

	userID, err := strconv.ParseInt(string(claims.UserID), 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	u, err := s.Store.UserByID(userID)
	if err != nil {
		return "", ErrInvalidToken
	}

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(claims.UserID, u.Username, u.IsAdmin, s.AccessTTL, time.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	slogx.FromContext(ctx).Debug("access token refreshed", "user_id", userID)
	return access, nil
}

// Logout revokes a refresh token. Unknown or expired tokens are ignored.
func (s *AuthService) Logout(_ context.Context, refresh string) {
	claims, err := s.Signer.VerifyType(refresh, jwtx.TokenTypeRefresh)
	if err != nil || claims.ExpiresAt == nil {
		return
	}
	s.Store.RevokeRefresh(claims.ID, claims.ExpiresAt.Time)
}

// RegisterInput is the body of auth/register/.
type RegisterInput struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (in RegisterInput) validate(s *store.Memory) error {
	errs := FieldErrors{}
	required(errs, "first_name", in.FirstName)
	required(errs, "last_name", in.LastName)
	required(errs, "email", in.Email)
	required(errs, "username", in.Username)

	if _, ok := errs["email"]; !ok {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			errs["email"] = "Enter a valid email address."
		} else if s.EmailTaken(in.Email) {
			errs["email"] = "user with this email already exists."
		}
	}
	if _, ok := errs["username"]; !ok && s.UsernameTaken(in.Username) {
		errs["username"] = "A user with that username already exists."
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		errs["password"] = "Ensure this field has at least 6 characters."
	}
	if in.Password != in.ConfirmPassword {
		errs["non_field_errors"] = "Passwords do not match"
	}
	return orNil(errs)
}

// Register creates an unverified account and issues an email code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := in.validate(s.Store); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.Store.CreateUser(domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return FieldErrors{"email": "user with this email already exists."}
	}
	if err != nil {
		return err
	}

	code, err := s.Codes.Issue(PurposeVerifyEmail, strings.ToLower(in.Email))
	if err != nil {
		return err
	}
	s.mail(ctx, PurposeVerifyEmail, in.Email, code)
	return nil
}

// VerifyEmail marks the account verified.
func (s *AuthService) VerifyEmail(_ context.Context, email, code string) error {
	subject := strings.ToLower(strings.TrimSpace(email))
	if !s.Codes.Check(PurposeVerifyEmail, subject, strings.TrimSpace(code)) {
		return ErrInvalidCode
	}

	u, err := s.Store.UserByEmail(subject)
	if err != nil {
		return ErrInvalidCode
	}
	if err := s.Store.UpdateUser(u.ID, func(u *domain.User) { u.Verified = true }); err != nil {
		return err
	}

	s.Codes.Forget(PurposeVerifyEmail, subject)
	return nil
}

// RequestReset issues a reset code if the account exists. Unknown addresses
// succeed silently so the endpoint does not reveal who is registered.
func (s *AuthService) RequestReset(ctx context.Context, email string) error {
	errs := FieldErrors{}
	required(errs, "email", email)
	if err := orNil(errs); err != nil {
		return err
	}

	subject := strings.ToLower(strings.TrimSpace(email))
	if _, err := s.Store.UserByEmail(subject); err != nil {
		slogx.FromContext(ctx).Debug("password reset requested for unknown email")
		return nil
	}

	code, err := s.Codes.Issue(PurposeReset, subject)
	if err != nil {
		return err
	}
	s.mail(ctx, PurposeReset, subject, code)
	return nil
}

// ResetInput is the body of auth/password-reset/verify-otp/. Without the
// password fields the code is only checked.
type ResetInput struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// VerifyReset checks the code and, when a new password is supplied, sets it
// and consumes the code.
func (s *AuthService) VerifyReset(_ context.Context, in ResetInput) error {
	errs := FieldErrors{}
	required(errs, "email", in.Email)
	required(errs, "otp", in.OTP)
	if err := orNil(errs); err != nil {
		return err
	}

	subject := strings.ToLower(strings.TrimSpace(in.Email))
	if !s.Codes.Check(PurposeReset, subject, strings.TrimSpace(in.OTP)) {
		return ErrInvalidCode
	}

	if in.NewPassword == "" && in.ConfirmPassword == "" {
		return nil
	}

	switch {
	case utf8.RuneCountInString(in.NewPassword) < minPasswordLength:
		return FieldErrors{"new_password": "Ensure this field has at least 6 characters."}
	case in.NewPassword != in.ConfirmPassword:
		return FieldErrors{"confirm_password": "Passwords do not match"}
	}

	u, err := s.Store.UserByEmail(subject)
	if err != nil {
		return ErrInvalidCode
	}
	hash, err := cryptox.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Store.UpdateUser(u.ID, func(u *domain.User) { u.PasswordHash = hash }); err != nil {
		return err
	}

	s.Codes.Forget(PurposeReset, subject)
	return nil
}

// Profile returns the account behind an access token's user id.
func (s *AuthService) Profile(_ context.Context, userID string) (domain.User, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return domain.User{}, ErrNotFound
	}
	return s.Store.UserByID(id)
}
