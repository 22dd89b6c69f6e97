package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	sharedPostgres "github.com/davicafu/catalogsync/internal/shared/infra/platform/db/postgres"
)

// InitPostgres crea las tablas de metadatos, borrados y outbox.
func InitPostgres(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS postmeta (
            post_id BIGINT NOT NULL,
            meta_key TEXT NOT NULL,
            meta_value TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (post_id, meta_key)
        )`,
		`CREATE TABLE IF NOT EXISTS termmeta (
            term_id BIGINT NOT NULL,
            meta_key TEXT NOT NULL,
            meta_value TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (term_id, meta_key)
        )`,
		`CREATE TABLE IF NOT EXISTS containers (
            id BIGSERIAL PRIMARY KEY,
            name TEXT UNIQUE NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS deleted_items (
            container_id BIGINT NOT NULL REFERENCES containers(id),
            type TEXT NOT NULL,
            dinkassa_id TEXT NOT NULL,
            PRIMARY KEY (container_id, type, dinkassa_id)
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return sharedPostgres.InitOutbox(ctx, db)
}

// MetaStorePostgres implementa domain.MetaStore sobre postmeta o termmeta.
type MetaStorePostgres struct {
	db       *sql.DB
	table    string
	idColumn string
}

var _ domain.MetaStore = (*MetaStorePostgres)(nil)

func NewProductMetaStore(db *sql.DB) *MetaStorePostgres {
	return &MetaStorePostgres{db: db, table: "postmeta", idColumn: "post_id"}
}

func NewCategoryMetaStore(db *sql.DB) *MetaStorePostgres {
	return &MetaStorePostgres{db: db, table: "termmeta", idColumn: "term_id"}
}

func (s *MetaStorePostgres) GetField(ctx context.Context, entityID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT meta_value FROM %s WHERE %s = $1 AND meta_key = $2`, s.table, s.idColumn),
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

func (s *MetaStorePostgres) SetField(ctx context.Context, entityID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, meta_key, meta_value) VALUES ($1, $2, $3)
		 ON CONFLICT (%s, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`, s.table, s.idColumn, s.idColumn),
		entityID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s.%s for %d: %w", s.table, key, entityID, err)
	}
	return nil
}
