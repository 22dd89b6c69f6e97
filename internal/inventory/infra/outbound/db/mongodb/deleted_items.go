package mongodb

import (
	"context"
	"fmt"
	"hash/fnv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

type mongoDeletedItem struct {
	ContainerID int64  `bson:"containerId"`
	Type        string `bson:"type"`
	RemoteID    string `bson:"dinkassa_id"`
}

// DeletedItemsMongoDB implementa domain.DeletedItemStore sobre una colección.
type DeletedItemsMongoDB struct {
	coll *mongo.Collection
}

var _ domain.DeletedItemStore = (*DeletedItemsMongoDB)(nil)

func NewDeletedItemsMongoDB(client *mongo.Client, dbName string) *DeletedItemsMongoDB {
	return &DeletedItemsMongoDB{coll: client.Database(dbName).Collection("deleted_items")}
}

// ContainerID deriva un id estable del nombre; Mongo no necesita una fila
// de contenedor para agrupar documentos.
func (s *DeletedItemsMongoDB) ContainerID(ctx context.Context, name string) (int64, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64() &^ (1 << 63)), nil
}

func filterFor(containerID int64, item domain.DeletedItem) bson.M {
	return bson.M{"containerId": containerID, "type": string(item.Type), "dinkassa_id": item.RemoteID}
}

func (s *DeletedItemsMongoDB) Exists(ctx context.Context, containerID int64, item domain.DeletedItem) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, filterFor(containerID, item), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return n > 0, nil
}

func (s *DeletedItemsMongoDB) Attach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	doc := mongoDeletedItem{ContainerID: containerID, Type: string(item.Type), RemoteID: item.RemoteID}
	_, err := s.coll.UpdateOne(ctx, filterFor(containerID, item), bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("attach deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return nil
}

func (s *DeletedItemsMongoDB) Detach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	if _, err := s.coll.DeleteMany(ctx, filterFor(containerID, item)); err != nil {
		return fmt.Errorf("detach deleted item %s/%s: %w", item.Type, item.RemoteID, err)
	}
	return nil
}
