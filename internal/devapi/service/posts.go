package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
	"github.com/aussiebroadwan/quill/internal/devapi/store"
	"github.com/aussiebroadwan/quill/pkg/idx"
)

// ErrForbidden is returned when a user touches a post they do not own.
var ErrForbidden = errors.New("you do not have permission to perform this action")

const maxTitleLength = 200

// PostView is a post joined with its category and author.
type PostView struct {
	Post     domain.Post
	Category *domain.Category
	Author   *domain.User
}

type PostService struct {
	Store *store.Memory
}

func (s *PostService) view(p domain.Post) PostView {
	v := PostView{Post: p}
	if c, err := s.Store.Category("", p.CategoryID); err == nil {
		v.Category = &c
	}
	if u, err := s.Store.UserByID(p.AuthorID); err == nil {
		v.Author = &u
	}
	return v
}

func (s *PostService) views(posts []domain.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.view(p))
	}
	return out
}

func published(p domain.Post) bool { return p.IsPublished }

// List returns published posts, newest first. Admins also see drafts.
func (s *PostService) List(_ context.Context, admin bool) []PostView {
	if admin {
		return s.views(s.Store.Posts(nil))
	}
	return s.views(s.Store.Posts(published))
}

// Get returns a published post by secure id.
func (s *PostService) Get(_ context.Context, secureID string) (PostView, error) {
	p, err := s.Store.PostBySecureID(secureID)
	if err != nil || !p.IsPublished {
		return PostView{}, ErrNotFound
	}
	return s.view(p), nil
}

func (s *PostService) Categories(_ context.Context) []domain.Category {
	return s.Store.Categories()
}

// ByCategory lists published posts in a category. An unknown category
// yields an empty list.
func (s *PostService) ByCategory(_ context.Context, categorySecureID string) []PostView {
	c, err := s.Store.Category(categorySecureID, 0)
	if err != nil {
		return []PostView{}
	}
	return s.views(s.Store.Posts(func(p domain.Post) bool {
		return p.IsPublished && p.CategoryID == c.ID
	}))
}

// Search matches published posts whose title or content contains q,
// ignoring case. A blank query matches nothing.
func (s *PostService) Search(_ context.Context, q string) []PostView {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []PostView{}
	}
	return s.views(s.Store.Posts(func(p domain.Post) bool {
		return p.IsPublished &&
			(strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q))
	}))
}

// ============================================================================
// Owner operations
// ============================================================================

// UserPosts lists every post authored by userID, drafts included.
func (s *PostService) UserPosts(_ context.Context, userID int64) []PostView {
	return s.views(s.Store.Posts(func(p domain.Post) bool { return p.AuthorID == userID }))
}

func (s *PostService) owned(userID int64, secureID string) (domain.Post, error) {
	p, err := s.Store.PostBySecureID(secureID)
	if err != nil {
		return domain.Post{}, ErrNotFound
	}
	if p.AuthorID != userID {
		return domain.Post{}, ErrForbidden
	}
	return p, nil
}

func (s *PostService) UserPost(_ context.Context, userID int64, secureID string) (PostView, error) {
	p, err := s.owned(userID, secureID)
	if err != nil {
		return PostView{}, err
	}
	return s.view(p), nil
}

// Create stores a new post. Posts created by non-admins are always published.
func (s *PostService) Create(_ context.Context, authorID int64, in domain.PostInput, admin bool) (PostView, error) {
	category, err := s.validate(in)
	if err != nil {
		return PostView{}, err
	}

	isPublished := true
	if admin && in.IsPublished != nil {
		isPublished = *in.IsPublished
	}

	now := time.Now().UTC()
	p := s.Store.CreatePost(domain.Post{
		SecureID:    idx.NewAt(now),
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		CategoryID:  category.ID,
		AuthorID:    authorID,
		CoverImage:  in.CoverImage,
		IsPublished: isPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return s.view(p), nil
}

func (s *PostService) UpdateOwned(ctx context.Context, userID int64, secureID string, in domain.PostInput) (PostView, error) {
	p, err := s.owned(userID, secureID)
	if err != nil {
		return PostView{}, err
	}
	return s.update(ctx, p.ID, in, false)
}

func (s *PostService) DeleteOwned(_ context.Context, userID int64, secureID string) error {
	p, err := s.owned(userID, secureID)
	if err != nil {
		return err
	}
	return s.Store.DeletePost(p.ID)
}

// ============================================================================
// Admin operations
// ============================================================================

// AdminGet returns any post by numeric id, drafts included.
func (s *PostService) AdminGet(_ context.Context, id int64) (PostView, error) {
	p, err := s.Store.PostByID(id)
	if err != nil {
		return PostView{}, ErrNotFound
	}
	return s.view(p), nil
}

func (s *PostService) AdminUpdate(ctx context.Context, id int64, in domain.PostInput) (PostView, error) {
	if _, err := s.Store.PostByID(id); err != nil {
		return PostView{}, ErrNotFound
	}
	return s.update(ctx, id, in, true)
}

func (s *PostService) AdminDelete(_ context.Context, id int64) error {
	return s.Store.DeletePost(id)
}

func (s *PostService) update(_ context.Context, id int64, in domain.PostInput, admin bool) (PostView, error) {
	category, err := s.validate(in)
	if err != nil {
		return PostView{}, err
	}

	p, err := s.Store.UpdatePost(id, func(p *domain.Post) {
		p.Title = strings.TrimSpace(in.Title)
		p.Content = in.Content
		p.CategoryID = category.ID
		if in.CoverImage != "" {
			p.CoverImage = in.CoverImage
		}
		if admin && in.IsPublished != nil {
			p.IsPublished = *in.IsPublished
		}
		p.UpdatedAt = time.Now().UTC()
	})
	if err != nil {
		return PostView{}, err
	}
	return s.view(p), nil
}

// validate checks the fields and resolves the category.
func (s *PostService) validate(in domain.PostInput) (domain.Category, error) {
	errs := FieldErrors{}
	required(errs, "title", in.Title)
	required(errs, "content", in.Content)
	required(errs, "category_id", in.CategoryID)
	if len([]rune(strings.TrimSpace(in.Title))) > maxTitleLength {
		errs["title"] = "Ensure this field has no more than 200 characters."
	}

	var category domain.Category
	if _, blank := errs["category_id"]; !blank {
		ref := strings.TrimSpace(in.CategoryID)
		numeric, _ := strconv.ParseInt(ref, 10, 64)

		c, err := s.Store.Category(ref, numeric)
		if err != nil {
			errs["category_id"] = "Invalid category."
		}
		category = c
	}

	return category, orNil(errs)
}
