package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// DeletedItemsPostgres implementa domain.DeletedItemStore.
type DeletedItemsPostgres struct {
	db *sql.DB
}

var _ domain.DeletedItemStore = (*DeletedItemsPostgres)(nil)

func NewDeletedItemsPostgres(db *sql.DB) *DeletedItemsPostgres {
	return &DeletedItemsPostgres{db: db}
}

// ContainerID hace un upsert del contenedor y devuelve su id en una sola consulta.
func (s *DeletedItemsPostgres) ContainerID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO containers (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolve container %q: %w", name, err)
	}
	return id, nil
}

func (s *DeletedItemsPostgres) Exists(ctx context.Context, containerID int64, item domain.DeletedItem) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM deleted_items WHERE container_id = $1 AND type = $2 AND dinkassa_id = $3)`,
		containerID, string(item.Type), item.RemoteID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return exists, nil
}

func (s *DeletedItemsPostgres) Attach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deleted_items (container_id, type, dinkassa_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		containerID, string(item.Type), item.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("attach deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return nil
}

func (s *DeletedItemsPostgres) Detach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM deleted_items WHERE container_id = $1 AND type = $2 AND dinkassa_id = $3`,
		containerID, string(item.Type), item.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("detach deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return nil
}
