package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo dials the deployment at uri and verifies it answers a ping.
func ConnectMongo(ctx context.Context, uri string, log *zap.Logger) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if log != nil {
		log.Info("mongo connected")
	}
	return client, nil
}

// NoteIndexes lists the indexes the notes collection relies on.
func NoteIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "time", Value: 1}},
			Options: options.Index().SetName("time_asc"),
		},
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetName("title_asc"),
		},
	}
}

// EnsureNoteIndexes creates the notes indexes. Existing indexes are left alone.
func EnsureNoteIndexes(ctx context.Context, coll *mongo.Collection) error {
	if _, err := coll.Indexes().CreateMany(ctx, NoteIndexes()); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}
