// Package domain holds the records served by the development API.
package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	Verified     bool
	CreatedAt    time.Time
}

type Category struct {
	ID       int64
	SecureID string
	Name     string
}

type Post struct {
	ID          int64
	SecureID    string
	Title       string
	Content     string
	CategoryID  int64
	AuthorID    int64
	CoverImage  string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostInput is a create or update request after form decoding.
type PostInput struct {
	Title       string
	Content     string
	CategoryID  string // secure id or numeric id
	IsPublished *bool
	CoverImage  string // data URL of an uploaded cover, empty to keep the current one
}

// TokenPair is what a completed login returns.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
