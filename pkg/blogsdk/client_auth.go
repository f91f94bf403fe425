package blogsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login submits credentials. On success the server e-mails an OTP and returns
// the pending user id to pass to VerifyLoginOTP. No tokens are issued yet.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginChallenge, error) {
	if err := validationError(req.Validate()); err != nil {
		return nil, err
	}

	var challenge LoginChallenge
	if err := c.sendJSON(ctx, http.MethodPost, "auth/login/", req, &challenge); err != nil {
		return nil, err
	}
	if challenge.UserID == "" {
		return nil, errors.New("login response did not include a user id")
	}

	return &challenge, nil
}

// VerifyLoginOTP completes the login and stores the issued tokens in the
// client's TokenStore.
func (c *Client) VerifyLoginOTP(ctx context.Context, userID UserID, otp string) (*TokenPair, error) {
	req := LoginOTPRequest{UserID: userID, OTP: otp}
	if err := validationError(req.Validate()); err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := c.sendJSON(ctx, http.MethodPost, "auth/login-verify-otp/", req, &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return nil, errors.New("login response did not include both tokens")
	}

	if err := c.Tokens.Save(ctx, Tokens{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &pair, nil
}

// Register creates an unverified account; the server e-mails a code to pass
// to VerifyEmail.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := validationError(req.Validate()); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, "auth/register/", req, nil)
}

// VerifyEmail marks a registered account as verified. It issues no tokens;
// the user logs in afterwards.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	req := VerifyEmailRequest{Email: email, Code: code}
	if err := validationError(req.Validate()); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, "auth/verify-email/", req, nil)
}

// Logout revokes the refresh token server-side and clears the session. The
// session is cleared even when the server call fails; that error is returned
// for logging.
func (c *Client) Logout(ctx context.Context) error {
	tokens, err := c.Tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	var callErr error
	if tokens.Refresh != "" {
		callErr = c.sendJSON(ctx, http.MethodPost, "auth/logout/",
			map[string]string{"refresh_token": tokens.Refresh}, nil)
	}

	if err := c.Tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return callErr
}

// RefreshToken exchanges a refresh token for a new access token. It bypasses
// the refresh state machine and does not touch the TokenStore.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	req, err := newJSONRequest(http.MethodPost, "auth/token/refresh/", map[string]string{"refresh": refresh})
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, "")
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := decodeJSON(resp, &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, errors.New("refresh response did not include an access token")
	}

	return &pair, nil
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.getJSON(ctx, "auth/user/", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
