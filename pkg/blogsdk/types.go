package blogsdk

import "time"

// ============================================================================
// Auth Types
// ============================================================================

// Tokens is the persisted session: an access/refresh token pair. Either token
// may be empty, which means absent.
type Tokens struct {
	Access  string `json:"access_token,omitempty"`
	Refresh string `json:"refresh_token,omitempty"`
}

// HasAccess reports whether an access token is present.
func (t Tokens) HasAccess() bool { return t.Access != "" }

// LoginRequest is the first step of the OTP-gated login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginChallenge is returned once the credentials are accepted and an OTP has
// been sent to the user. UserID identifies the pending login.
type LoginChallenge struct {
	UserID  UserID `json:"user_id"`
	Message string `json:"message,omitempty"`
}

// LoginOTPRequest completes the login.
type LoginOTPRequest struct {
	UserID UserID `json:"user_id"`
	OTP    string `json:"otp"`
}

// TokenPair is returned by login-verify-otp.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest carries the profile fields of a new account.
type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// VerifyEmailRequest confirms a registration with the e-mailed code.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// PasswordResetOTPRequest asks for a reset code.
type PasswordResetOTPRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest is sent to the verify-otp endpoint. With the password
// fields empty the server only verifies the code; with them set it verifies
// and resets.
type PasswordResetRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"new_password,omitempty"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// MessageResponse is the loose acknowledgement most auth endpoints return.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// UserProfile is returned by GET auth/user/.
type UserProfile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins first and last name.
func (p UserProfile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ============================================================================
// Content Types
// ============================================================================

// Category groups posts. SecureID is the public identifier.
type Category struct {
	ID       int64  `json:"id,omitempty"`
	SecureID string `json:"secure_id"`
	Name     string `json:"name"`
}

// Author is the public view of a post's owner.
type Author struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Post is a blog entry. ID is the numeric identifier used only by the admin
// endpoints; everything else addresses posts by SecureID.
type Post struct {
	ID          int64     `json:"id,omitempty"`
	SecureID    string    `json:"secure_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    *Category `json:"category,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Image       string    `json:"image,omitempty"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Cover returns the cover image URL, whichever field the server filled.
func (p Post) Cover() string {
	if p.CoverImage != "" {
		return p.CoverImage
	}
	return p.Image
}

// CoverUpload is an image attached to a post write.
type CoverUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PostInput is the multipart payload of post create/update requests.
// IsPublished is only sent by the admin endpoints.
type PostInput struct {
	Title       string
	Content     string
	CategoryID  string
	IsPublished *bool
	Cover       *CoverUpload
}
