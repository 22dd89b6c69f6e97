package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/application"
	"github.com/davicafu/catalogsync/internal/inventory/domain"
	"github.com/davicafu/catalogsync/internal/inventory/infra/outbound/storefront"
	"github.com/davicafu/catalogsync/tests/mocks"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Una sola conexión: cada conexión a :memory: es una base distinta.
	db.SetMaxOpenConns(1)
	require.NoError(t, InitSQLite(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMetaStoreSQLite_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewProductMetaStore(openTestDB(t))

	v, err := store.GetField(ctx, 1, "wh_meta_id")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, store.SetField(ctx, 1, "wh_meta_id", "R1"))
	require.NoError(t, store.SetField(ctx, 1, "wh_meta_id", "R2"))

	v, err = store.GetField(ctx, 1, "wh_meta_id")
	require.NoError(t, err)
	assert.Equal(t, "R2", v)
}

func TestMetaStoreSQLite_NamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	products := NewProductMetaStore(db)
	categories := NewCategoryMetaStore(db)

	require.NoError(t, products.SetField(ctx, 5, "wh_meta_pending_crud", "1"))

	v, err := categories.GetField(ctx, 5, "wh_meta_pending_crud")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestDeletedItemsSQLite_Toggle(t *testing.T) {
	ctx := context.Background()
	store := NewDeletedItemsSQLite(openTestDB(t))

	id, err := store.ContainerID(ctx, "deleted-items")
	require.NoError(t, err)
	again, err := store.ContainerID(ctx, "deleted-items")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	item := domain.DeletedItem{Type: domain.ItemProduct, RemoteID: "R9"}
	exists, err := store.Exists(ctx, id, item)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Attach(ctx, id, item))
	require.NoError(t, store.Attach(ctx, id, item))
	exists, err = store.Exists(ctx, id, item)
	require.NoError(t, err)
	assert.True(t, exists)

	other := domain.DeletedItem{Type: domain.ItemCategory, RemoteID: "R9"}
	exists, err = store.Exists(ctx, id, other)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Detach(ctx, id, item))
	exists, err = store.Exists(ctx, id, item)
	require.NoError(t, err)
	assert.False(t, exists)
}

// Escenarios A y D de extremo a extremo contra sqlite.
func TestReconcileServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	products := NewProductMetaStore(db)
	deleted := NewDeletedItemsSQLite(db)
	keys := domain.DefaultMetaKeys("wh_meta_")
	sf := storefront.NewMetaStorefront(products, keys.Visibility)
	svc := application.NewReconcileService(products, NewCategoryMetaStore(db), deleted, sf, &mocks.CountingLock{}, keys, "deleted-items", zap.NewNop())

	require.NoError(t, svc.Reconcile(ctx, domain.ProductCreated, 500, nil, 7, ""))
	v, _ := products.GetField(ctx, 7, keys.ProductPending)
	assert.Equal(t, "1", v)

	body := map[string]interface{}{"Item": map[string]interface{}{"Id": "R1", "CategoryName": "Shoes"}}
	require.NoError(t, svc.Reconcile(ctx, domain.ProductCreated, 200, body, 7, ""))
	v, _ = products.GetField(ctx, 7, keys.ProductPending)
	assert.Equal(t, "0", v)
	v, _ = products.GetField(ctx, 7, "wh_meta_id")
	assert.Equal(t, "R1", v)
	v, _ = products.GetField(ctx, 7, keys.Visibility)
	assert.Equal(t, application.VisibilityVisible, v)

	require.NoError(t, svc.Reconcile(ctx, domain.ProductDeleted, 503, nil, 0, "R1"))
	containerID, _ := deleted.ContainerID(ctx, "deleted-items")
	exists, _ := deleted.Exists(ctx, containerID, domain.DeletedItem{Type: domain.ItemProduct, RemoteID: "R1"})
	assert.True(t, exists)
}
