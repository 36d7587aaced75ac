package cache

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCache stores one document per key in a single collection:
//
//	{_id: <key>, value: <document>, expires_at: <date>}
//
// JSON object values are stored as real documents so the collection can be
// queried directly; anything else is kept as binary under "raw". A TTL index
// on expires_at lets the server reap expired entries.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// MongoOptions configures [NewMongoCache].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

type mongoDoc struct {
	ID        string     `bson:"_id"`
	Value     bson.D     `bson:"value,omitempty"`
	Raw       []byte     `bson:"raw,omitempty"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects, pings and ensures the TTL index.
func NewMongoCache(ctx context.Context, opts MongoOptions) (*MongoCache, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, storeError("mongo", "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeError("mongo", "connect", err)
	}
	c, err := NewMongoCacheFromCollection(ctx, client.Database(opts.Database).Collection(opts.Collection))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	c.client, c.owned = client, true
	return c, nil
}

// NewMongoCacheFromCollection uses an existing collection. Close does not
// disconnect its client.
func NewMongoCacheFromCollection(ctx context.Context, coll *mongo.Collection) (*MongoCache, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, storeError("mongo", "index", err)
	}
	return &MongoCache{coll: coll}, nil
}

// Get implements [Cache]. Expiry is checked here as well because the
// server reaps on a timer.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc mongoDoc
	err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeError("mongo", "get", err)
	}
	if doc.ExpiresAt != nil && time.Now().After(*doc.ExpiresAt) {
		return nil, false, nil
	}
	if doc.Value == nil {
		return doc.Raw, true, nil
	}
	data, err := bson.MarshalExtJSON(doc.Value, false, false)
	if err != nil {
		// unreadable document, treat as a miss
		return nil, false, nil
	}
	return data, true, nil
}

// Set implements [Cache] as an upsert.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	doc := mongoDoc{ID: key}
	var value bson.D
	if err := bson.UnmarshalExtJSON(data, false, &value); err == nil {
		doc.Value = value
	} else {
		doc.Raw = data
	}
	if ttl > 0 {
		exp := time.Now().Add(ttl).UTC()
		doc.ExpiresAt = &exp
	}
	_, err := c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, doc, options.Replace().SetUpsert(true))
	return storeError("mongo", "set", err)
}

// Delete implements [Cache].
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	return storeError("mongo", "delete", err)
}

// Clear implements [Clearer].
func (c *MongoCache) Clear(ctx context.Context, prefix string) (int, error) {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$regex", Value: "^" + regexp.QuoteMeta(prefix)}}}}
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, storeError("mongo", "clear", err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the client when this cache created it.
func (c *MongoCache) Close() error {
	if !c.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

var (
	_ Cache   = (*MongoCache)(nil)
	_ Clearer = (*MongoCache)(nil)
)
