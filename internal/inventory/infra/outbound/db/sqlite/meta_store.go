package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// MetaStoreSQLite guarda los campos de metadatos de productos (postmeta) o
// categorías (termmeta).
type MetaStoreSQLite struct {
	db       *sql.DB
	table    string
	idColumn string
}

var _ domain.MetaStore = (*MetaStoreSQLite)(nil)

func NewProductMetaStore(db *sql.DB) *MetaStoreSQLite {
	return &MetaStoreSQLite{db: db, table: TablePostMeta, idColumn: "post_id"}
}

func NewCategoryMetaStore(db *sql.DB) *MetaStoreSQLite {
	return &MetaStoreSQLite{db: db, table: TableTermMeta, idColumn: "term_id"}
}

// GetField devuelve "" si el campo no existe.
func (s *MetaStoreSQLite) GetField(ctx context.Context, entityID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT meta_value FROM %s WHERE %s = ? AND meta_key = ?`, s.table, s.idColumn),
		entityID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s.%s for %d: %w", s.table, key, entityID, err)
	}
	return value, nil
}

func (s *MetaStoreSQLite) SetField(ctx context.Context, entityID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, meta_key, meta_value) VALUES (?, ?, ?)
         ON CONFLICT(%s, meta_key) DO UPDATE SET meta_value = excluded.meta_value`, s.table, s.idColumn, s.idColumn),
		entityID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s.%s for %d: %w", s.table, key, entityID, err)
	}
	return nil
}
