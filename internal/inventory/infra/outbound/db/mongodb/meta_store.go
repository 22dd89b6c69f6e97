package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// Ping comprueba la conexión antes de montar los repositorios.
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return nil
}

type mongoMetaField struct {
	EntityID int64  `bson:"entityId"`
	Key      string `bson:"key"`
	Value    string `bson:"value"`
}

// MetaStoreMongoDB guarda cada campo como un documento {entityId, key, value}.
type MetaStoreMongoDB struct {
	coll *mongo.Collection
}

var _ domain.MetaStore = (*MetaStoreMongoDB)(nil)

func NewProductMetaStore(client *mongo.Client, dbName string) *MetaStoreMongoDB {
	return &MetaStoreMongoDB{coll: client.Database(dbName).Collection("postmeta")}
}

func NewCategoryMetaStore(client *mongo.Client, dbName string) *MetaStoreMongoDB {
	return &MetaStoreMongoDB{coll: client.Database(dbName).Collection("termmeta")}
}

// EnsureIndexes crea el índice único (entityId, key).
func (s *MetaStoreMongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "entityId", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MetaStoreMongoDB) GetField(ctx context.Context, entityID int64, key string) (string, error) {
	var doc mongoMetaField
	err := s.coll.FindOne(ctx, bson.M{"entityId": entityID, "key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s.%s for %d: %w", s.coll.Name(), key, entityID, err)
	}
	return doc.Value, nil
}

func (s *MetaStoreMongoDB) SetField(ctx context.Context, entityID int64, key, value string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"entityId": entityID, "key": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set %s.%s for %d: %w", s.coll.Name(), key, entityID, err)
	}
	return nil
}
