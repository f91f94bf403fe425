package sqlite

import (
	"database/sql"

	"github.com/aussiebroadwan/quill/internal/web/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Sessions() store.Sessions { return &sessionsRepo{q: t.tx} }
