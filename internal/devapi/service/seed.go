package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
	"github.com/aussiebroadwan/quill/internal/devapi/store"
	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/idx"
)

// SeedUser is an account created at startup.
type SeedUser struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

// DefaultSeedUsers are the accounts a fresh dev API knows about.
var DefaultSeedUsers = []SeedUser{
	{Username: "alice", Email: "a@b.com", Password: "secret1"},
	{Username: "admin", Email: "admin@quill.local", Password: "admin123", IsAdmin: true},
}

var seedCategories = []string{"Engineering", "Travel", "Food"}

var seedPosts = []struct {
	title, content, category string
	published                bool
}{
	{"Hello, quill", "The first post on a fresh dev API. Edit or delete it freely.", "Engineering", true},
	{"Packing light", "One bag, three shirts and a good pair of shoes.", "Travel", true},
	{"Sourdough notes", "Feed the starter twice a day and keep it warm.", "Food", true},
	{"Unfinished draft", "Only admins can see this one.", "Engineering", false},
}

// Seed fills an empty store with users, categories and posts. Seeded users
// are verified; posts are authored by the first user.
func Seed(st *store.Memory, users []SeedUser) error {
	now := time.Now().UTC()

	var authorID int64
	for i, su := range users {
		hash, err := cryptox.HashPassword(su.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", su.Email, err)
		}
		u, err := st.CreateUser(domain.User{
			Username:     su.Username,
			Email:        su.Email,
			FirstName:    su.Username,
			PasswordHash: hash,
			IsAdmin:      su.IsAdmin,
			Verified:     true,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.Email, err)
		}
		if i == 0 {
			authorID = u.ID
		}
	}

	categories := map[string]int64{}
	for _, name := range seedCategories {
		c := st.CreateCategory(domain.Category{SecureID: idx.NewAt(now), Name: name})
		categories[name] = c.ID
	}

	if authorID == 0 {
		return nil
	}
	for i, sp := range seedPosts {
		at := now.Add(-time.Duration(len(seedPosts)-i) * time.Hour)
		st.CreatePost(domain.Post{
			SecureID:    idx.NewAt(at),
			Title:       sp.title,
			Content:     sp.content,
			CategoryID:  categories[sp.category],
			AuthorID:    authorID,
			IsPublished: sp.published,
			CreatedAt:   at,
			UpdatedAt:   at,
		})
	}
	return nil
}
