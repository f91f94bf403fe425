// Package flow drives the OTP-gated login, registration and password reset
// steps. Each step is one API call; a failed step leaves the challenge where
// it was so the user can resubmit, and nothing is retried automatically.
package flow

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// ErrNoChallenge means the step was reached without (or after expiry of) the
// previous step. Callers send the user back to the start of the flow.
var ErrNoChallenge = errors.New("flow: no pending challenge")

// AuthAPI is the slice of the blog API the flows need. *blogsdk.Client
// satisfies it.
type AuthAPI interface {
	Login(ctx context.Context, req blogsdk.LoginRequest) (*blogsdk.LoginChallenge, error)
	VerifyLoginOTP(ctx context.Context, userID blogsdk.UserID, otp string) (*blogsdk.TokenPair, error)
	Register(ctx context.Context, req blogsdk.RegisterRequest) error
	VerifyEmail(ctx context.Context, email, code string) error
	RequestPasswordResetOTP(ctx context.Context, email string) error
	VerifyPasswordResetOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, req blogsdk.PasswordResetRequest) error
}

// Flows binds the step machines to a challenge cache.
type Flows struct {
	Challenges *ChallengeCache
}

func New(challenges *ChallengeCache) *Flows {
	return &Flows{Challenges: challenges}
}

// Pending returns the challenge of kind for session, if still live.
func (f *Flows) Pending(session string, kind Kind) (Challenge, bool) {
	return f.Challenges.Get(session, kind)
}

// Abandon discards a flow in progress.
func (f *Flows) Abandon(session string, kind Kind) {
	f.Challenges.Delete(session, kind)
}

// ============================================================================
// Login: credentials -> OTP -> tokens
// ============================================================================

// StartLogin submits credentials. On success the OTP step is armed with the
// pending user id from the server.
func (f *Flows) StartLogin(ctx context.Context, api AuthAPI, session string, req blogsdk.LoginRequest) (Challenge, error) {
	req.Email = strings.TrimSpace(req.Email)

	res, err := api.Login(ctx, req)
	if err != nil {
		return Challenge{}, err
	}

	ch := Challenge{Kind: KindLogin, Step: StepOTP, Email: req.Email, UserID: res.UserID}
	f.Challenges.Put(session, ch)
	slogx.FromContext(ctx).Debug("login otp issued", "user_id", res.UserID.String())
	return ch, nil
}

// VerifyLogin submits the OTP. The API call stores the issued tokens in the
// client's TokenStore; the challenge is consumed only on success.
func (f *Flows) VerifyLogin(ctx context.Context, api AuthAPI, session, otp string) error {
	ch, ok := f.Challenges.Get(session, KindLogin)
	if !ok || ch.Step != StepOTP {
		return ErrNoChallenge
	}

	if _, err := api.VerifyLoginOTP(ctx, ch.UserID, strings.TrimSpace(otp)); err != nil {
		return err
	}

	f.Challenges.Delete(session, KindLogin)
	return nil
}

// ============================================================================
// Registration: profile -> email code -> (go log in)
// ============================================================================

// StartRegistration creates the unverified account and arms the code step.
func (f *Flows) StartRegistration(ctx context.Context, api AuthAPI, session string, req blogsdk.RegisterRequest) (Challenge, error) {
	req.Email = strings.TrimSpace(req.Email)

	if err := api.Register(ctx, req); err != nil {
		return Challenge{}, err
	}

	ch := Challenge{Kind: KindRegister, Step: StepOTP, Email: req.Email}
	f.Challenges.Put(session, ch)
	return ch, nil
}

// VerifyRegistration submits the e-mailed code for the pending email. No
// tokens are issued; the caller sends the user to the login page.
func (f *Flows) VerifyRegistration(ctx context.Context, api AuthAPI, session, code string) error {
	ch, ok := f.Challenges.Get(session, KindRegister)
	if !ok || ch.Step != StepOTP {
		return ErrNoChallenge
	}

	if err := api.VerifyEmail(ctx, ch.Email, strings.TrimSpace(code)); err != nil {
		return err
	}

	f.Challenges.Delete(session, KindRegister)
	return nil
}

// ============================================================================
// Password reset: email -> OTP -> new password -> (go log in)
// ============================================================================

// StartReset requests a reset code for email.
func (f *Flows) StartReset(ctx context.Context, api AuthAPI, session, email string) (Challenge, error) {
	email = strings.TrimSpace(email)

	if err := api.RequestPasswordResetOTP(ctx, email); err != nil {
		return Challenge{}, err
	}

	ch := Challenge{Kind: KindReset, Step: StepOTP, Email: email}
	f.Challenges.Put(session, ch)
	return ch, nil
}

// VerifyResetOTP checks the code with the server and, if accepted, caches it
// and advances to the new-password step. A rejected code stays on StepOTP.
func (f *Flows) VerifyResetOTP(ctx context.Context, api AuthAPI, session, otp string) error {
	ch, ok := f.Challenges.Get(session, KindReset)
	if !ok || ch.Step != StepOTP {
		return ErrNoChallenge
	}

	otp = strings.TrimSpace(otp)
	if err := api.VerifyPasswordResetOTP(ctx, ch.Email, otp); err != nil {
		return err
	}

	ch.Step = StepNewPassword
	ch.OTP = otp
	f.Challenges.Put(session, ch)
	return nil
}

// CompleteReset sends the new password with the cached code. A confirmation
// mismatch is rejected by the client before any request and leaves the flow
// on StepNewPassword.
func (f *Flows) CompleteReset(ctx context.Context, api AuthAPI, session, newPassword, confirm string) error {
	ch, ok := f.Challenges.Get(session, KindReset)
	if !ok || ch.Step != StepNewPassword {
		return ErrNoChallenge
	}

	err := api.ResetPassword(ctx, blogsdk.PasswordResetRequest{
		Email:           ch.Email,
		OTP:             ch.OTP,
		NewPassword:     newPassword,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}

	f.Challenges.Delete(session, KindReset)
	return nil
}
