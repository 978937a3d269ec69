package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/transcript"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements transcript storage using MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "roundtable",
		Collection: "transcripts",
	}
}

// mongoRecord is the internal representation for MongoDB.
type mongoRecord struct {
	ID         string            `bson:"_id"`
	Topic      string            `bson:"topic"`
	Status     string            `bson:"status"`
	Turns      []transcript.Turn `bson:"turns"`
	CreatedAt  time.Time         `bson:"created_at"`
	FinishedAt time.Time         `bson:"finished_at"`
}

// NewMongoStore creates a new MongoDB-based transcript store.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)
	return &MongoStore{client: client, collection: collection}, nil
}

// Save upserts a transcript record and returns its document locator.
func (s *MongoStore) Save(ctx context.Context, record *transcript.Record) (string, error) {
	if record == nil || record.ID == "" {
		return "", fmt.Errorf("transcript record cannot be nil")
	}

	doc := mongoRecord{
		ID:         record.ID,
		Topic:      record.Topic,
		Status:     record.Status,
		Turns:      record.Turns,
		CreatedAt:  record.CreatedAt,
		FinishedAt: record.FinishedAt,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, doc, opts); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}

	return fmt.Sprintf("mongodb://%s/%s", s.collection.Name(), record.ID), nil
}

// Load retrieves a transcript record by session id.
func (s *MongoStore) Load(ctx context.Context, id string) (*transcript.Record, error) {
	var doc mongoRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	return &transcript.Record{
		ID:         doc.ID,
		Topic:      doc.Topic,
		Status:     doc.Status,
		Turns:      doc.Turns,
		CreatedAt:  doc.CreatedAt,
		FinishedAt: doc.FinishedAt,
	}, nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
