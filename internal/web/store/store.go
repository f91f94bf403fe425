package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the web front end. Drivers
// expose sub-repositories so transactions stay explicit.
type Store interface {
	Sessions() Sessions

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Sessions() Sessions
}

type Sessions interface {
	// CreateSession inserts a new row. ErrAlreadyExists on a duplicate hash.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByHash returns a live session; expired rows are ErrNotFound.
	GetSessionByHash(ctx context.Context, hash string, now time.Time) (domain.Session, error)

	// UpdateSessionTokens overwrites both sealed tokens and slides expiry.
	UpdateSessionTokens(ctx context.Context, id, accessSealed, refreshSealed string, expiresAt time.Time) error

	// ClearSessionTokens empties both tokens, keeping the row for flash and
	// flow state.
	ClearSessionTokens(ctx context.Context, id string) error

	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes rows past expiry and reports the count.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
