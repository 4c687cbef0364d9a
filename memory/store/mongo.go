package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/transagent/memory"
	"github.com/sweetpotato0/transagent/message"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
	Window     int
}

// DefaultMongoConfig returns a config pointing at a local MongoDB.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "transagent",
		Collection: "conversations",
		Timeout:    10 * time.Second,
		Window:     memory.DefaultWindow,
	}
}

// MongoStore keeps one document per chat, with the message window held
// in an array trimmed on every write.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	window     int
}

type mongoConversation struct {
	ChatID    string             `bson:"_id"`
	Messages  []*message.Message `bson:"messages"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// NewMongoStore creates a MongoDB-backed conversation store.
func NewMongoStore(cfg *MongoConfig) (*MongoStore, error) {
	if cfg == nil {
		cfg = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	window := cfg.Window
	if window <= 0 {
		window = memory.DefaultWindow
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		window:     window,
	}, nil
}

// History returns the chat's messages, oldest first.
func (s *MongoStore) History(ctx context.Context, chatID string) ([]*message.Message, error) {
	var conv mongoConversation
	err := s.collection.FindOne(ctx, bson.M{"_id": chatID}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return conv.Messages, nil
}

// AppendExchange pushes the question and answer in a single update and
// trims the array to the window. The upsert creates the chat document on
// first use.
func (s *MongoStore) AppendExchange(ctx context.Context, chatID string, question, answer *message.Message) error {
	update := bson.M{
		"$push": bson.M{
			"messages": bson.M{
				"$each":  []*message.Message{question, answer},
				"$slice": -s.window,
			},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": chatID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

// Clear removes the chat's history.
func (s *MongoStore) Clear(ctx context.Context, chatID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": chatID}); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
