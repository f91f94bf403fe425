package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/domain"
	"github.com/aussiebroadwan/quill/internal/web/store"
)

type sessionsRepo struct {
	q querier
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, access_sealed, refresh_sealed, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenHash, s.AccessSealed, s.RefreshSealed,
		toMillis(s.CreatedAt), toMillis(s.UpdatedAt), toMillis(s.ExpiresAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *sessionsRepo) GetSessionByHash(ctx context.Context, hash string, now time.Time) (domain.Session, error) {
	var (
		s                           domain.Session
		created, updated, expiresAt int64
	)

	err := r.q.QueryRowContext(ctx, `
		SELECT id, token_hash, access_sealed, refresh_sealed, created_at, updated_at, expires_at
		FROM sessions
		WHERE token_hash = ? AND expires_at > ?`,
		hash, toMillis(now),
	).Scan(&s.ID, &s.TokenHash, &s.AccessSealed, &s.RefreshSealed, &created, &updated, &expiresAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(updated)
	s.ExpiresAt = fromMillis(expiresAt)
	return s, nil
}

func (r *sessionsRepo) UpdateSessionTokens(
	ctx context.Context,
	id, accessSealed, refreshSealed string,
	expiresAt time.Time,
) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sessions
		SET access_sealed = ?, refresh_sealed = ?, updated_at = ?, expires_at = ?
		WHERE id = ?`,
		accessSealed, refreshSealed, toMillis(time.Now()), toMillis(expiresAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return requireOneRow(res)
}

func (r *sessionsRepo) ClearSessionTokens(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sessions
		SET access_sealed = '', refresh_sealed = '', updated_at = ?
		WHERE id = ?`,
		toMillis(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return requireOneRow(res)
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireOneRow(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
