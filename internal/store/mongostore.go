package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const documentsCollection = "documents"

// mongoDocument is the stored shape: one document per key, raw JSON payload,
// origin of the last writer. Whole-document replacement keeps the
// last-write-wins contract.
type mongoDocument struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	Origin    string    `bson:"origin"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps documents in a single collection and watches a change
// stream for foreign writes. Change streams need a replica set; the file or
// redis backend is the right choice where that is unavailable.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	origin string
}

// NewMongoStore connects and pings the primary node.
func NewMongoStore(uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(documentsCollection),
		origin: uuid.NewString(),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context, key string, out interface{}) (bool, error) {
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document '%s': %w", key, err)
	}
	if err := json.Unmarshal([]byte(doc.Data), out); err != nil {
		return false, fmt.Errorf("failed to decode document '%s': %w", key, err)
	}
	return true, nil
}

func (s *MongoStore) Save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document '%s': %w", key, err)
	}
	doc := mongoDocument{
		ID:        key,
		Data:      string(data),
		Origin:    s.origin,
		UpdatedAt: time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("failed to write document '%s': %w", key, err)
	}
	return nil
}

func (s *MongoStore) Watch(ctx context.Context) (<-chan Event, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType":       bson.M{"$in": bson.A{"insert", "replace", "update"}},
			"fullDocument.origin": bson.M{"$ne": s.origin},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	events := make(chan Event, 8)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var change struct {
				FullDocument mongoDocument `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				log.Printf("MongoStore: failed to decode change event: %v", err)
				continue
			}
			select {
			case events <- Event{Key: change.FullDocument.ID, Data: []byte(change.FullDocument.Data)}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("MongoStore: change stream stopped: %v", err)
		}
	}()
	return events, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}
