// Package sink owns the target side of the migration: the pooled MongoDB
// connection, the collection/index declarations, and the batched bulk
// loader with per-batch partial-failure tracking.
package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Connect builds a pooled client from config and verifies the target is
// reachable. The client is constructed once by the orchestrator and passed
// by handle to every collaborator; there is no package-level client state.
func Connect(ctx context.Context, cfg types.Config, log *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(cfg.MongoMaxPoolSize).
		SetMinPoolSize(cfg.MongoMinPoolSize).
		SetServerSelectionTimeout(time.Duration(cfg.MongoServerSelectionTimeoutMS) * time.Millisecond).
		SetConnectTimeout(time.Duration(cfg.MongoConnectTimeoutMS) * time.Millisecond)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	log.Debug("target reachable", zap.String("database", cfg.MongoDatabase))
	return client, client.Database(cfg.MongoDatabase), nil
}
