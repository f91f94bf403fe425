// Package store keeps the development API's data in memory. Everything is
// lost on restart, which is the point of a dev stand-in.
package store

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Memory is a mutex-guarded set of tables. Records are returned by value so
// callers cannot mutate shared state.
type Memory struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]domain.User
	categories []domain.Category
	posts      map[int64]domain.Post
	revoked    map[string]time.Time // refresh jti -> token expiry
}

func NewMemory() *Memory {
	return &Memory{
		users:   map[int64]domain.User{},
		posts:   map[int64]domain.Post{},
		revoked: map[string]time.Time{},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// ============================================================================
// Users
// ============================================================================

// CreateUser assigns u an id. Email and username are unique, case-insensitively.
func (m *Memory) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return domain.User{}, ErrAlreadyExists
		}
	}

	u.ID = m.id()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UserByID(id int64) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UserByEmail(email string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

// EmailTaken and UsernameTaken back the registration field errors.
func (m *Memory) EmailTaken(email string) bool {
	_, err := m.UserByEmail(email)
	return err == nil
}

func (m *Memory) UsernameTaken(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// UpdateUser applies fn to the stored user.
func (m *Memory) UpdateUser(id int64, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

// ============================================================================
// Categories
// ============================================================================

func (m *Memory) CreateCategory(c domain.Category) domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.id()
	m.categories = append(m.categories, c)
	return c
}

func (m *Memory) Categories() []domain.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.categories)
}

// Category finds a category by secure id or, failing that, numeric id.
func (m *Memory) Category(ref string, numericID int64) (domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.SecureID == ref || (numericID > 0 && c.ID == numericID) {
			return c, nil
		}
	}
	return domain.Category{}, ErrNotFound
}

// ============================================================================
// Posts
// ============================================================================

func (m *Memory) CreatePost(p domain.Post) domain.Post {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.id()
	m.posts[p.ID] = p
	return p
}

func (m *Memory) PostByID(id int64) (domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) PostBySecureID(secureID string) (domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.posts {
		if p.SecureID == secureID {
			return p, nil
		}
	}
	return domain.Post{}, ErrNotFound
}

// Posts returns the posts keep accepts, newest first.
func (m *Memory) Posts(keep func(domain.Post) bool) []domain.Post {
	m.mu.RLock()
	out := make([]domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (m *Memory) UpdatePost(id int64, fn func(*domain.Post)) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	fn(&p)
	m.posts[id] = p
	return p, nil
}

func (m *Memory) DeletePost(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

// ============================================================================
// Refresh token revocation
// ============================================================================

func (m *Memory) RevokeRefresh(jti string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = expiresAt
}

func (m *Memory) RefreshRevoked(jti string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[jti]
	return ok
}

// PurgeRevoked forgets revocations whose tokens have expired anyway.
func (m *Memory) PurgeRevoked(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
			n++
		}
	}
	return n
}
