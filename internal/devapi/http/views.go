package http

import (
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
	"github.com/aussiebroadwan/quill/internal/devapi/service"
)

// CategoryJSON is a category on the wire.
type CategoryJSON struct {
	ID       int64  `json:"id"`
	SecureID string `json:"secure_id"`
	Name     string `json:"name"`
}

// AuthorJSON is the public view of a post's author.
type AuthorJSON struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PostJSON is a post on the wire.
type PostJSON struct {
	ID          int64         `json:"id"`
	SecureID    string        `json:"secure_id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Category    *CategoryJSON `json:"category"`
	Author      *AuthorJSON   `json:"author"`
	CoverImage  *string       `json:"cover_image"`
	IsPublished bool          `json:"is_published"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ListResponse is the paginated list envelope. Pagination is not
// implemented, so next and previous are always null.
type ListResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// UserJSON is the signed-in user's profile.
type UserJSON struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResponse starts the OTP step of a login.
type LoginResponse struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// VerifyLoginRequest is the body of auth/login-verify-otp/.
type VerifyLoginRequest struct {
	UserID int64  `json:"user_id"`
	OTP    string `json:"otp"`
}

// RefreshResponse carries a new access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// DetailResponse is the error shape for non-field errors.
type DetailResponse struct {
	Detail string `json:"detail"`
}

func categoryJSON(c domain.Category) *CategoryJSON {
	return &CategoryJSON{ID: c.ID, SecureID: c.SecureID, Name: c.Name}
}

func postJSON(v service.PostView) PostJSON {
	p := v.Post
	out := PostJSON{
		ID:          p.ID,
		SecureID:    p.SecureID,
		Title:       p.Title,
		Content:     p.Content,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.CoverImage != "" {
		cover := p.CoverImage
		out.CoverImage = &cover
	}
	if v.Category != nil {
		out.Category = categoryJSON(*v.Category)
	}
	if v.Author != nil {
		out.Author = &AuthorJSON{
			ID:        v.Author.ID,
			Username:  v.Author.Username,
			FirstName: v.Author.FirstName,
			LastName:  v.Author.LastName,
		}
	}
	return out
}

func postList(views []service.PostView) ListResponse[PostJSON] {
	out := make([]PostJSON, 0, len(views))
	for _, v := range views {
		out = append(out, postJSON(v))
	}
	return ListResponse[PostJSON]{Count: len(out), Results: out}
}

func userJSON(u domain.User) UserJSON {
	return UserJSON{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
