package blogsdk

import (
	"context"
	"net/http"
	"strconv"
)

// The admin endpoints address posts by numeric id, unlike the rest of the API.

// AdminGetPost returns any post by numeric id.
func (c *Client) AdminGetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := c.getJSON(ctx, adminPath("retrieve", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// AdminCreatePost creates a post, optionally published straight away.
func (c *Client) AdminCreatePost(ctx context.Context, in PostInput) (*Post, error) {
	return c.writePost(ctx, http.MethodPost, "post/", in, true)
}

// AdminUpdatePost replaces any post by numeric id.
func (c *Client) AdminUpdatePost(ctx context.Context, id int64, in PostInput) (*Post, error) {
	return c.writePost(ctx, http.MethodPut, adminPath("update", id), in, true)
}

// AdminDeletePost deletes any post by numeric id.
func (c *Client) AdminDeletePost(ctx context.Context, id int64) error {
	return c.call(ctx, newRequest(http.MethodDelete, adminPath("delete", id)), nil)
}

func adminPath(action string, id int64) string {
	return "admin/" + action + "/" + strconv.FormatInt(id, 10) + "/"
}
