package ledger

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the collection account records live in.
const MongoCollection = "kv_store"

type mongoEntry struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// MongoKV stores each record as one document keyed by _id.
type MongoKV struct {
	coll *mongo.Collection
}

// NewMongoKV builds a MongoDB-backed backend on the given database.
func NewMongoKV(db *mongo.Database) *MongoKV {
	return &MongoKV{coll: db.Collection(MongoCollection)}
}

// Get fetches the value stored under key.
func (m *MongoKV) Get(ctx context.Context, key string) ([]byte, error) {
	var entry mongoEntry
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return entry.Value, nil
}

// Set upserts the value stored under key.
func (m *MongoKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoEntry{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Count returns the number of keys starting with prefix.
func (m *MongoKV) Count(ctx context.Context, prefix string) (int, error) {
	n, err := m.coll.CountDocuments(ctx, prefixFilter(prefix))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// prefixFilter matches _id values starting with prefix taken literally.
func prefixFilter(prefix string) bson.M {
	return bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
}
