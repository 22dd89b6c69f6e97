package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
)

// pendingByID filtra los eventos de este test; la tabla puede traer filas de
// otras ejecuciones.
func pendingByID(t *testing.T, repo *OutboxRepoPostgres, ids ...uuid.UUID) []sharedDomain.OutboxEvent {
	t.Helper()
	all, err := repo.FetchPendingOutbox(context.Background(), 1000)
	require.NoError(t, err)
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []sharedDomain.OutboxEvent
	for _, evt := range all {
		if want[evt.ID] {
			out = append(out, evt)
		}
	}
	return out
}

func TestOutboxRepoPostgres_SaveFetchMark(t *testing.T) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		t.Skip("DATABASE_URL no definido, saltando test de integración con Postgres")
	}
	ctx := context.Background()
	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, InitOutbox(ctx, db))

	repo := NewOutboxRepoPostgres(db)
	first := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "product",
		AggregateID:   "7",
		EventType:     "product-updated",
		Payload:       map[string]interface{}{"post_id": 7},
		CreatedAt:     time.Now().UTC().Add(-time.Minute),
	}
	second := first
	second.ID = uuid.New()
	second.CreatedAt = time.Now().UTC()

	require.NoError(t, repo.SaveOutboxEvent(ctx, second))
	require.NoError(t, repo.SaveOutboxEvent(ctx, first))

	pending := pendingByID(t, repo, first.ID, second.ID)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "7", pending[0].AggregateID)
	assert.JSONEq(t, `{"post_id":7}`, string(pending[0].Payload.(json.RawMessage)))

	require.NoError(t, repo.MarkOutboxProcessed(ctx, first.ID))
	pending = pendingByID(t, repo, first.ID, second.ID)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	require.NoError(t, repo.MarkOutboxProcessed(ctx, second.ID))
	assert.Error(t, repo.MarkOutboxProcessed(ctx, uuid.New()))
}
