package sink

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// targetIndexes declares the index set per collection. Every collection
// carries a unique src_id index for traceability lookups; the rest serve
// the read patterns the denormalized model was shaped for.
func targetIndexes() map[string][]mongo.IndexModel {
	asc := func(keys ...string) bson.D {
		d := make(bson.D, 0, len(keys))
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return d
	}
	unique := options.Index().SetUnique(true)

	return map[string][]mongo.IndexModel{
		types.CollOrganizations: {
			{Keys: asc("src_id"), Options: unique},
			{Keys: asc("name")},
		},
		types.CollUsers: {
			{Keys: asc("src_id"), Options: unique},
			{Keys: asc("email"), Options: options.Index().SetUnique(true)},
			{Keys: asc("name")},
			{Keys: asc("organizations.org_id")},
		},
		types.CollLabels: {
			{Keys: asc("src_id"), Options: unique},
			{Keys: asc("org_id", "name"), Options: options.Index().SetUnique(true)},
			{Keys: asc("org_id")},
		},
		types.CollProjects: {
			{Keys: asc("src_id"), Options: unique},
			{Keys: asc("org_id", "status")},
			{Keys: bson.D{{Key: "org_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: asc("tasks.src_id")},
			{Keys: asc("tasks.assignees.user_id")},
			{Keys: asc("tasks.status")},
			{Keys: asc("tasks.priority")},
			{Keys: asc("tasks.due_date")},
			{Keys: asc("tasks.labels.label_id")},
			{Keys: asc("tasks.assignees.user_id", "tasks.status")},
			{Keys: asc("tasks.assignees.user_id", "tasks.due_date")},
		},
	}
}

// EnsureIndexes creates every declared index on every target collection.
// CreateMany is idempotent for identical definitions, so reruns are safe.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	for _, coll := range types.Collections {
		models := targetIndexes()[coll]
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("creating indexes on %s: %w", coll, err)
		}
		log.Info("ensured indexes",
			zap.String("collection", coll),
			zap.Strings("indexes", names))
	}
	return nil
}

// DropAll drops every target collection, indexes included.
func DropAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	for _, coll := range types.Collections {
		if err := db.Collection(coll).Drop(ctx); err != nil {
			return fmt.Errorf("dropping %s: %w", coll, err)
		}
		log.Info("dropped collection", zap.String("collection", coll))
	}
	return nil
}
