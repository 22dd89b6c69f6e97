package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/application"
	"github.com/davicafu/catalogsync/internal/inventory/domain"
	"github.com/davicafu/catalogsync/internal/inventory/infra/outbound/storefront"
	"github.com/davicafu/catalogsync/tests/mocks"
)

// Necesita un MongoDB real: MONGO_TEST_URI=mongodb://localhost:27017 go test ./...
// Cada test usa su propia base y la borra al terminar.
func openTestClient(t *testing.T) (*mongo.Client, string) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI no definido, saltando test de integración con MongoDB")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, Ping(ctx, client))

	dbName := "catalogsync_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return client, dbName
}

func TestMetaStoreMongoDB_Upsert(t *testing.T) {
	ctx := context.Background()
	client, dbName := openTestClient(t)
	products := NewProductMetaStore(client, dbName)
	categories := NewCategoryMetaStore(client, dbName)
	require.NoError(t, products.EnsureIndexes(ctx))

	v, err := products.GetField(ctx, 1, "wh_meta_id")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, products.SetField(ctx, 1, "wh_meta_id", "R1"))
	require.NoError(t, products.SetField(ctx, 1, "wh_meta_id", "R2"))

	v, err = products.GetField(ctx, 1, "wh_meta_id")
	require.NoError(t, err)
	assert.Equal(t, "R2", v)

	n, err := client.Database(dbName).Collection("postmeta").CountDocuments(ctx, bson.M{"entityId": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v, err = categories.GetField(ctx, 1, "wh_meta_id")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestDeletedItemsMongoDB_Toggle(t *testing.T) {
	ctx := context.Background()
	client, dbName := openTestClient(t)
	store := NewDeletedItemsMongoDB(client, dbName)

	id, err := store.ContainerID(ctx, "deleted-items")
	require.NoError(t, err)
	again, err := store.ContainerID(ctx, "deleted-items")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Positive(t, id)

	item := domain.DeletedItem{Type: domain.ItemProduct, RemoteID: "R9"}
	require.NoError(t, store.Attach(ctx, id, item))
	require.NoError(t, store.Attach(ctx, id, item))
	exists, err := store.Exists(ctx, id, item)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := client.Database(dbName).Collection("deleted_items").CountDocuments(ctx, filterFor(id, item))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	other := domain.DeletedItem{Type: domain.ItemCategory, RemoteID: "R9"}
	exists, err = store.Exists(ctx, id, other)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Detach(ctx, id, item))
	exists, err = store.Exists(ctx, id, item)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconcileServiceOverMongoDB(t *testing.T) {
	ctx := context.Background()
	client, dbName := openTestClient(t)
	products := NewProductMetaStore(client, dbName)
	categories := NewCategoryMetaStore(client, dbName)
	deleted := NewDeletedItemsMongoDB(client, dbName)
	keys := domain.DefaultMetaKeys("wh_meta_")
	lock := &mocks.CountingLock{}
	sf := storefront.NewMetaStorefront(products, keys.Visibility)
	svc := application.NewReconcileService(products, categories, deleted, sf, lock, keys, "deleted-items", zap.NewNop())

	// Bits pendientes: cada fallo enciende el suyo, cada éxito apaga solo el suyo.
	require.NoError(t, svc.Reconcile(ctx, domain.CategoryCreated, 500, nil, 3, ""))
	require.NoError(t, svc.Reconcile(ctx, domain.CategoryUpdated, 500, nil, 3, ""))
	v, _ := categories.GetField(ctx, 3, keys.CategoryPending)
	assert.Equal(t, "3", v)
	require.NoError(t, svc.Reconcile(ctx, domain.CategoryUpdated, 200, nil, 3, ""))
	v, _ = categories.GetField(ctx, 3, keys.CategoryPending)
	assert.Equal(t, "1", v)

	require.NoError(t, svc.Reconcile(ctx, domain.StockQuantityUpdated, 500, nil, 8, ""))
	v, _ = products.GetField(ctx, 8, keys.ProductPending)
	assert.Equal(t, "4", v)
	_, released := lock.Counts()
	assert.Equal(t, 1, released)

	// Borrado fallido registrado, borrado correcto posterior lo retira.
	containerID, err := deleted.ContainerID(ctx, "deleted-items")
	require.NoError(t, err)
	item := domain.DeletedItem{Type: domain.ItemCategory, RemoteID: "C9"}

	require.NoError(t, svc.Reconcile(ctx, domain.CategoryDeleted, 500, nil, 0, "C9"))
	exists, err := deleted.Exists(ctx, containerID, item)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, svc.Reconcile(ctx, domain.CategoryDeleted, 200, nil, 0, "C9"))
	exists, err = deleted.Exists(ctx, containerID, item)
	require.NoError(t, err)
	assert.False(t, exists)
}
