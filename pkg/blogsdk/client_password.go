package blogsdk

import (
	"context"
	"net/http"
)

const passwordResetVerifyPath = "auth/password-reset/verify-otp/"

// RequestPasswordResetOTP asks the server to e-mail a reset code.
func (c *Client) RequestPasswordResetOTP(ctx context.Context, email string) error {
	req := PasswordResetOTPRequest{Email: email}
	if err := validationError(req.Validate()); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, "auth/password-reset/request-otp/", req, nil)
}

// VerifyPasswordResetOTP checks a reset code without changing the password.
// The endpoint is shared with ResetPassword; leaving the password fields out
// selects verify-only.
func (c *Client) VerifyPasswordResetOTP(ctx context.Context, email, otp string) error {
	req := PasswordResetRequest{Email: email, OTP: otp}
	if err := validationError(req.validateCode()); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, passwordResetVerifyPath, req, nil)
}

// ResetPassword verifies the code and sets the new password in one call.
// Mismatched or missing passwords fail validation before anything is sent.
func (c *Client) ResetPassword(ctx context.Context, req PasswordResetRequest) error {
	if err := validationError(req.Validate()); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, passwordResetVerifyPath, req, nil)
}
