package blogsdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "envelope", body: `{"count":2,"results":[{"secure_id":"a"},{"secure_id":"b"}]}`, want: 2},
		{name: "empty object", body: `{}`, want: 0},
		{name: "null", body: `null`, want: 0},
		{name: "empty body", body: ``, want: 0},
		{name: "results null", body: `{"results":null}`, want: 0},
		{name: "results not array", body: `{"results":"nope"}`, want: 0},
		{name: "bare array", body: `[{"secure_id":"a"}]`, want: 0},
		{name: "malformed items", body: `{"results":[1,2,3]}`, want: 0},
		{name: "invalid json", body: `{"results":[`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeResults[Post]([]byte(tt.body))
			require.NotNil(t, got)
			require.Len(t, got, tt.want)
		})
	}
}

func TestListEndpointsDegradeToEmpty(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"/post/":          `{}`,
		"/categories/":    `null`,
		"/category-list/": `{"results":{}}`,
		"/search/":        `{"detail":"ok"}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	posts, err := client.ListPosts(ctx)
	require.NoError(t, err)
	require.Empty(t, posts)

	cats, err := client.ListCategories(ctx)
	require.NoError(t, err)
	require.Empty(t, cats)

	posts, err = client.ListPostsByCategory(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, posts)

	posts, err = client.SearchPosts(ctx, "go")
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestListQueryParameters(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL+"/api/", nil)
	ctx := context.Background()

	_, err := client.ListPostsByCategory(ctx, "abc def")
	require.NoError(t, err)
	_, err = client.SearchPosts(ctx, "go & rust")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{
		"/api/category-list/?category=abc+def",
		"/api/search/?search=go+%26+rust",
	}, seen)
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	parse := func(status int, body string) *APIError {
		err := parseErrorResponse(&http.Response{StatusCode: status}, []byte(body))
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		return apiErr
	}

	t.Run("detail", func(t *testing.T) {
		e := parse(http.StatusBadRequest, `{"detail":"Invalid OTP"}`)
		require.Equal(t, "Invalid OTP", e.Detail)
		require.Empty(t, e.FieldErrors)
	})

	t.Run("field errors as arrays", func(t *testing.T) {
		e := parse(http.StatusBadRequest,
			`{"email":["user with this email already exists."],"username":["Too short.","Taken."]}`)
		require.Empty(t, e.Detail)
		require.Equal(t, map[string]string{
			"email":    "user with this email already exists.",
			"username": "Too short. Taken.",
		}, e.FieldErrors)
		require.Contains(t, e.Error(), "email: user with this email already exists.")
	})

	t.Run("non field errors become detail", func(t *testing.T) {
		e := parse(http.StatusBadRequest, `{"non_field_errors":["Passwords do not match"]}`)
		require.Equal(t, "Passwords do not match", e.Detail)
		require.Empty(t, e.FieldErrors)
	})

	t.Run("non json body", func(t *testing.T) {
		e := parse(http.StatusBadGateway, `<html>bad gateway</html>`)
		require.Equal(t, http.StatusBadGateway, e.StatusCode)
		require.Empty(t, e.Detail)
		require.Equal(t, "fallback", e.Message("fallback"))
	})

	t.Run("success yields nil", func(t *testing.T) {
		require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
	})
}
