// Package mongo persists user accounts in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens and validates a MongoDB client for the given database.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	slog.Default().InfoContext(ctx, "mongo connect started",
		"module", "mongo",
		"layer", "adapter",
		"operation", "connect",
		"outcome", "start",
	)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Default().InfoContext(ctx, "mongo connect completed",
		"module", "mongo",
		"layer", "adapter",
		"operation", "connect",
		"outcome", "success",
	)
	return client.Database(database), nil
}
