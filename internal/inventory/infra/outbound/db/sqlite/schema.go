package sqlite

import (
	"database/sql"

	// _ "github.com/mattn/go-sqlite3" // mejor rendimiento pero requiere gcc
	_ "modernc.org/sqlite"

	sharedSQLite "github.com/davicafu/catalogsync/internal/shared/infra/platform/db/sqlite"
)

// Tablas de metadatos de la tienda.
const (
	TablePostMeta = "postmeta"
	TableTermMeta = "termmeta"
)

// InitSQLite crea las tablas de metadatos, borrados pendientes y outbox si no existen.
func InitSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS postmeta (
            post_id INTEGER NOT NULL,
            meta_key TEXT NOT NULL,
            meta_value TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (post_id, meta_key)
        )`,
		`CREATE TABLE IF NOT EXISTS termmeta (
            term_id INTEGER NOT NULL,
            meta_key TEXT NOT NULL,
            meta_value TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (term_id, meta_key)
        )`,
		`CREATE TABLE IF NOT EXISTS containers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT UNIQUE NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS deleted_items (
            container_id INTEGER NOT NULL,
            type TEXT NOT NULL,
            dinkassa_id TEXT NOT NULL,
            PRIMARY KEY (container_id, type, dinkassa_id)
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return sharedSQLite.InitOutbox(db)
}
