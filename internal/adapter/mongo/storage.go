package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/cart"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Storage keeps session-scoped values as one document per (scope, key).
type Storage struct {
	coll *mongo.Collection
}

type document struct {
	ID        string    `bson:"_id"`
	Scope     string    `bson:"scope"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewStorage(coll *mongo.Collection) *Storage {
	return &Storage{coll: coll}
}

func DocID(scope, key string) string {
	return scope + ":" + key
}

// EnsureIndexes indexes documents by scope and, when ttl is positive,
// expires them ttl after their last write.
func (s *Storage) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	models := []mongo.IndexModel{{Keys: bson.D{{Key: "scope", Value: 1}}}}
	if ttl > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
		})
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create mongo indexes: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": DocID(scope, key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s from mongo: %w", DocID(scope, key), err)
	}
	return doc.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, scope, key, value string) error {
	update := bson.M{"$set": document{
		ID:        DocID(scope, key),
		Scope:     scope,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": DocID(scope, key)}, update, opts); err != nil {
		return fmt.Errorf("failed to save %s to mongo: %w", DocID(scope, key), err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, scope, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": DocID(scope, key)}); err != nil {
		return fmt.Errorf("failed to delete %s from mongo: %w", DocID(scope, key), err)
	}
	return nil
}

func (s *Storage) DropScope(ctx context.Context, scope string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"scope": scope}); err != nil {
		return fmt.Errorf("failed to delete scope %s from mongo: %w", scope, err)
	}
	return nil
}

func (s *Storage) Scope(scope string) cart.Storage {
	return scoped{s: s, scope: scope}
}

type scoped struct {
	s     *Storage
	scope string
}

func (x scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return x.s.Get(ctx, x.scope, key)
}

func (x scoped) Set(ctx context.Context, key, value string) error {
	return x.s.Set(ctx, x.scope, key, value)
}

func (x scoped) Remove(ctx context.Context, key string) error {
	return x.s.Remove(ctx, x.scope, key)
}
