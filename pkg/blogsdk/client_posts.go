package blogsdk

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
)

// ============================================================================
// Public content
// ============================================================================

// ListPosts returns the published posts.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	return list[Post](ctx, c, "post/", nil)
}

// GetPost returns one post by secure id.
func (c *Client) GetPost(ctx context.Context, secureID string) (*Post, error) {
	var post Post
	if err := c.getJSON(ctx, "post/"+url.PathEscape(secureID)+"/", nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return list[Category](ctx, c, "categories/", nil)
}

// ListPostsByCategory returns the posts of one category.
func (c *Client) ListPostsByCategory(ctx context.Context, categorySecureID string) ([]Post, error) {
	return list[Post](ctx, c, "category-list/", url.Values{"category": {categorySecureID}})
}

// SearchPosts runs a full-text search.
func (c *Client) SearchPosts(ctx context.Context, query string) ([]Post, error) {
	return list[Post](ctx, c, "search/", url.Values{"search": {query}})
}

// ============================================================================
// Signed-in user's posts
// ============================================================================

// ListUserPosts returns the posts owned by the signed-in user.
func (c *Client) ListUserPosts(ctx context.Context) ([]Post, error) {
	return list[Post](ctx, c, "user-posts/", nil)
}

// GetUserPost returns one of the signed-in user's posts.
func (c *Client) GetUserPost(ctx context.Context, secureID string) (*Post, error) {
	var post Post
	if err := c.getJSON(ctx, userPostPath(secureID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreateUserPost creates a post owned by the signed-in user.
func (c *Client) CreateUserPost(ctx context.Context, in PostInput) (*Post, error) {
	return c.writePost(ctx, http.MethodPost, "user-posts/", in, false)
}

// UpdateUserPost replaces a post owned by the signed-in user. A nil Cover
// keeps the current image.
func (c *Client) UpdateUserPost(ctx context.Context, secureID string, in PostInput) (*Post, error) {
	return c.writePost(ctx, http.MethodPut, userPostPath(secureID), in, false)
}

// DeleteUserPost deletes a post owned by the signed-in user.
func (c *Client) DeleteUserPost(ctx context.Context, secureID string) error {
	return c.call(ctx, newRequest(http.MethodDelete, userPostPath(secureID)), nil)
}

func userPostPath(secureID string) string {
	return "user-posts/" + url.PathEscape(secureID) + "/"
}

// writePost validates in and sends it as multipart form data.
func (c *Client) writePost(ctx context.Context, method, path string, in PostInput, admin bool) (*Post, error) {
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	body, contentType, err := encodePostForm(in, admin)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.call(ctx, newRequest(method, path).withBody(body, contentType), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// encodePostForm writes the multipart body of a post write. is_published is
// only sent on admin writes.
func encodePostForm(in PostInput, admin bool) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", in.Title},
		{"content", in.Content},
		{"category_id", in.CategoryID},
	}
	if admin && in.IsPublished != nil {
		fields = append(fields, [2]string{"is_published", strconv.FormatBool(*in.IsPublished)})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to encode %s: %w", f[0], err)
		}
	}

	if in.Cover != nil && len(in.Cover.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="cover_image"; filename=%q`, in.Cover.Filename))
		ct := in.Cover.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode cover_image: %w", err)
		}
		if _, err := part.Write(in.Cover.Data); err != nil {
			return nil, "", fmt.Errorf("failed to encode cover_image: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode form: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}
