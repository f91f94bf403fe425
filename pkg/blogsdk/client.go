package blogsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// Client talks to the blog REST API. Every request carries the access token
// from Tokens when one is present; an expired token is refreshed once per
// request and the request resent, so callers only see the final outcome.
//
// A Client is safe for concurrent use. Concurrent requests that hit an
// expired token each refresh independently.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Tokens is the session provider. It is read before every request and
	// written after a successful refresh.
	Tokens TokenStore

	// OnSessionExpired runs after a failed refresh has cleared Tokens. Front
	// ends use it to send the user back to the login page.
	OnSessionExpired func(ctx context.Context)
}

// NewClient creates a client for baseURL. A nil store means the client starts
// unauthenticated with an in-memory session.
func NewClient(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore(Tokens{})
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Tokens: tokens,
	}
}

// WithTokens returns a shallow copy bound to another session. Front ends
// build one per incoming request from a shared base client.
func (c *Client) WithTokens(tokens TokenStore, onExpired func(ctx context.Context)) *Client {
	cp := *c
	cp.Tokens = tokens
	cp.OnSessionExpired = onExpired
	return &cp
}

// do runs req through the refresh state machine:
//
//	no token        -> send as is, any response is final
//	token attached  -> send; a 401 on the first attempt refreshes
//	refresh ok      -> resend once with the new token, that response is final
//	refresh failed  -> clear the session, notify, return the original error
//
// A 401 on the resend is returned to the caller without another refresh.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	tokens, err := c.Tokens.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	resp, err := c.send(ctx, req, tokens.Access)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || req.retried() || !tokens.HasAccess() {
		return resp, nil
	}

	log := slogx.FromContext(ctx)
	original := drainError(resp)
	log.Debug("access token rejected, refreshing", "method", req.method, "path", req.path)

	access, err := c.refresh(ctx, tokens)
	if err != nil {
		log.Info("session refresh failed, clearing session", "err", err)
		c.expire(ctx)
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, original)
	}

	return c.send(ctx, req.retry(), access)
}

// send builds and performs one attempt. It never refreshes, which makes it
// the bare transport used by the refresh call itself.
func (c *Client) send(ctx context.Context, req request, token string) (*http.Response, error) {
	httpReq, err := req.build(ctx, c.BaseURL, token)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// refresh exchanges the refresh token for a new access token and stores the
// result. It returns the new access token.
func (c *Client) refresh(ctx context.Context, tokens Tokens) (string, error) {
	if tokens.Refresh == "" {
		return "", errors.New("no refresh token in session")
	}

	pair, err := c.RefreshToken(ctx, tokens.Refresh)
	if err != nil {
		return "", err
	}

	next := Tokens{Access: pair.Access, Refresh: tokens.Refresh}
	if pair.Refresh != "" {
		next.Refresh = pair.Refresh
	}
	if err := c.Tokens.Save(ctx, next); err != nil {
		return "", fmt.Errorf("failed to store refreshed session: %w", err)
	}

	return pair.Access, nil
}

// expire tears down the session after an unrecoverable refresh failure.
func (c *Client) expire(ctx context.Context) {
	if err := c.Tokens.Clear(ctx); err != nil {
		slogx.FromContext(ctx).Error("failed to clear session", "err", err)
	}
	if c.OnSessionExpired != nil {
		c.OnSessionExpired(ctx)
	}
}

// drainError consumes a failed response and returns it as an *APIError.
func drainError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return parseErrorResponse(resp, body)
}
