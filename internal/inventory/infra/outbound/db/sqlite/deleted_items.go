package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// DeletedItemsSQLite registra los borrados remotos que quedaron pendientes.
type DeletedItemsSQLite struct {
	db *sql.DB
}

var _ domain.DeletedItemStore = (*DeletedItemsSQLite)(nil)

func NewDeletedItemsSQLite(db *sql.DB) *DeletedItemsSQLite {
	return &DeletedItemsSQLite{db: db}
}

// ContainerID resuelve el id del contenedor centinela, creándolo si no existe.
func (s *DeletedItemsSQLite) ContainerID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM containers WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup container %q: %w", name, err)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO containers (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("create container %q: %w", name, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM containers WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup container %q: %w", name, err)
	}
	return id, nil
}

func (s *DeletedItemsSQLite) Exists(ctx context.Context, containerID int64, item domain.DeletedItem) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM deleted_items WHERE container_id = ? AND type = ? AND dinkassa_id = ?`,
		containerID, string(item.Type), item.RemoteID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return n > 0, nil
}

func (s *DeletedItemsSQLite) Attach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO deleted_items (container_id, type, dinkassa_id) VALUES (?, ?, ?)`,
		containerID, string(item.Type), item.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("attach deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return nil
}

func (s *DeletedItemsSQLite) Detach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM deleted_items WHERE container_id = ? AND type = ? AND dinkassa_id = ?`,
		containerID, string(item.Type), item.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("detach deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return nil
}
