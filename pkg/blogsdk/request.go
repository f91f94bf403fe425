package blogsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const contentTypeJSON = "application/json"

// request is one logical API call. It is a value: retry returns a copy with
// a higher attempt count, so no flag is ever mutated on a shared request.
// The body is buffered so every attempt sends identical bytes.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	attempt     int
}

func newRequest(method, path string) request {
	return request{method: method, path: path}
}

// newJSONRequest encodes payload as the request body.
func newJSONRequest(method, path string, payload any) (request, error) {
	req := newRequest(method, path)
	if payload == nil {
		return req, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	req.body = body
	req.contentType = contentTypeJSON
	return req, nil
}

func (r request) withQuery(q url.Values) request {
	r.query = q
	return r
}

func (r request) withBody(body []byte, contentType string) request {
	r.body = body
	r.contentType = contentType
	return r
}

func (r request) retry() request {
	r.attempt++
	return r
}

func (r request) retried() bool { return r.attempt > 0 }

// build creates the *http.Request for this attempt. token may be empty.
func (r request) build(ctx context.Context, baseURL, token string) (*http.Request, error) {
	target := joinURL(baseURL, r.path)
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", contentTypeJSON)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	} else if r.body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// joinURL appends path to base with exactly one slash between them.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
