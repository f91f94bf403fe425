package blogsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// readBody reads and closes resp.Body, returning a typed error for non-2xx
// statuses.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp, bodyBytes)
	}

	return bodyBytes, nil
}

// decodeJSON decodes a successful response into target. A nil target or an
// empty body (204 No Content) is accepted.
func decodeJSON(resp *http.Response, target any) error {
	bodyBytes, err := readBody(resp)
	if err != nil {
		return err
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeResults extracts the "results" array of a list envelope. A body
// without a usable results array (missing, null, wrong type, undecodable)
// yields an empty slice rather than an error.
func decodeResults[T any](body []byte) []T {
	out := []T{}
	if !gjson.ValidBytes(body) {
		return out
	}

	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return out
	}

	var items []T
	if err := json.Unmarshal([]byte(results.Raw), &items); err != nil || items == nil {
		return out
	}
	return items
}

// call sends req through the refresh state machine and decodes the response.
func (c *Client) call(ctx context.Context, req request, target any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	return c.call(ctx, newRequest(http.MethodGet, path).withQuery(query), target)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, target any) error {
	req, err := newJSONRequest(method, path, payload)
	if err != nil {
		return err
	}
	return c.call(ctx, req, target)
}

// list fetches a paginated list endpoint.
func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	resp, err := c.do(ctx, newRequest(http.MethodGet, path).withQuery(query))
	if err != nil {
		return nil, err
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	return decodeResults[T](body), nil
}
