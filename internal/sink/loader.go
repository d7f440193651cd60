package sink

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Doc pairs a document body with its generated identity. The identity is
// the upsert match key; plain inserts carry it inside the body already.
type Doc struct {
	ID   primitive.ObjectID
	Body any
}

// Loader performs batched bulk writes against the target database.
type Loader struct {
	db  *mongo.Database
	log *zap.Logger
}

func NewLoader(db *mongo.Database, log *zap.Logger) *Loader {
	return &Loader{db: db, log: log}
}

// BulkInsert writes documents in unordered batches. A write failure for a
// subset of one batch is recorded in the returned stats and does not block
// subsequent batches; only the caller decides whether the run failed.
func (l *Loader) BulkInsert(ctx context.Context, collection string, docs []Doc, batchSize int) *Stats {
	stats := newStats(collection, len(docs))
	if len(docs) == 0 {
		l.log.Warn("no documents to load", zap.String("collection", collection))
		return stats
	}

	coll := l.db.Collection(collection)
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := make([]any, 0, end-start)
		for _, d := range docs[start:end] {
			batch = append(batch, d.Body)
		}

		stats.Batches++
		res, err := coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
		if err == nil {
			stats.addSuccess(len(res.InsertedIDs))
			continue
		}

		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			failed := len(bwe.WriteErrors)
			stats.addSuccess(len(batch) - failed)
			stats.addFailure(failed, fmt.Sprintf("bulk write: %d documents rejected", failed))
			for i, we := range bwe.WriteErrors {
				if i >= errorSummaryLimit {
					l.log.Error("more documents rejected",
						zap.String("collection", collection),
						zap.Int("remaining", failed-errorSummaryLimit))
					break
				}
				l.log.Error("document rejected",
					zap.String("collection", collection),
					zap.String("message", we.Message))
			}
			continue
		}

		// Whole batch lost: connection failure or similar.
		stats.addFailure(len(batch), err.Error())
		l.log.Error("batch failed",
			zap.String("collection", collection),
			zap.Int("batch", stats.Batches),
			zap.Error(err))
	}

	stats.logSummary(l.log)
	return stats
}

// BulkUpsert replaces documents matched on _id, inserting when absent.
// Makes reruns idempotent without clearing the target first, provided the
// same id mapping is in play.
func (l *Loader) BulkUpsert(ctx context.Context, collection string, docs []Doc, batchSize int) *Stats {
	stats := newStats(collection, len(docs))
	if len(docs) == 0 {
		l.log.Warn("no documents to upsert", zap.String("collection", collection))
		return stats
	}

	coll := l.db.Collection(collection)
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		models := make([]mongo.WriteModel, 0, end-start)
		for _, d := range docs[start:end] {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": d.ID}).
				SetReplacement(d.Body).
				SetUpsert(true))
		}

		stats.Batches++
		res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err == nil {
			stats.addSuccess(int(res.UpsertedCount + res.ModifiedCount))
			continue
		}

		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			failed := len(bwe.WriteErrors)
			stats.addSuccess(len(models) - failed)
			stats.addFailure(failed, fmt.Sprintf("bulk upsert: %d documents rejected", failed))
			continue
		}

		stats.addFailure(len(models), err.Error())
		l.log.Error("upsert batch failed",
			zap.String("collection", collection),
			zap.Int("batch", stats.Batches),
			zap.Error(err))
	}

	stats.logSummary(l.log)
	return stats
}

// DeleteAll removes every document from a collection and reports the count.
func (l *Loader) DeleteAll(ctx context.Context, collection string) (int64, error) {
	res, err := l.db.Collection(collection).DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("clearing %s: %w", collection, err)
	}
	l.log.Info("cleared collection",
		zap.String("collection", collection),
		zap.Int64("deleted", res.DeletedCount))
	return res.DeletedCount, nil
}

// ClearAll empties every target collection, for clean reruns.
func (l *Loader) ClearAll(ctx context.Context) (map[string]int64, error) {
	deleted := make(map[string]int64, len(types.Collections))
	for _, coll := range types.Collections {
		n, err := l.DeleteAll(ctx, coll)
		if err != nil {
			return deleted, err
		}
		deleted[coll] = n
	}
	return deleted, nil
}

// LoadOptions tunes one load pass.
type LoadOptions struct {
	BatchSize int
	// Clear empties the target collections before loading.
	Clear bool
	// Upsert replaces on _id instead of inserting, for reruns.
	Upsert bool
}

// LoadAll writes a transformed dataset in dependency order: organizations,
// users, labels, then projects with their embedded tasks. Partial failures
// are carried in the summary; an error is returned only when the target
// itself becomes unusable (clear failure).
func (l *Loader) LoadAll(ctx context.Context, ds *types.Dataset, opts LoadOptions) (*Summary, error) {
	if opts.Clear {
		if _, err := l.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	write := l.BulkInsert
	if opts.Upsert {
		write = l.BulkUpsert
	}

	summary := newSummary()
	summary.add(write(ctx, types.CollOrganizations, organizationDocs(ds.Organizations), opts.BatchSize))
	summary.add(write(ctx, types.CollUsers, userDocs(ds.Users), opts.BatchSize))
	summary.add(write(ctx, types.CollLabels, labelDocs(ds.Labels), opts.BatchSize))
	summary.add(write(ctx, types.CollProjects, projectDocs(ds.Projects), opts.BatchSize))

	l.log.Info("load complete",
		zap.Int("total", summary.TotalDocuments),
		zap.Int("inserted", summary.TotalInserted),
		zap.Int("failed", summary.TotalFailed))
	return summary, nil
}

func organizationDocs(orgs []types.OrganizationDoc) []Doc {
	docs := make([]Doc, 0, len(orgs))
	for _, o := range orgs {
		docs = append(docs, Doc{ID: o.ID, Body: o})
	}
	return docs
}

func userDocs(users []types.UserDoc) []Doc {
	docs := make([]Doc, 0, len(users))
	for _, u := range users {
		docs = append(docs, Doc{ID: u.ID, Body: u})
	}
	return docs
}

func labelDocs(labels []types.LabelDoc) []Doc {
	docs := make([]Doc, 0, len(labels))
	for _, l := range labels {
		docs = append(docs, Doc{ID: l.ID, Body: l})
	}
	return docs
}

func projectDocs(projects []types.ProjectDoc) []Doc {
	docs := make([]Doc, 0, len(projects))
	for _, p := range projects {
		docs = append(docs, Doc{ID: p.ID, Body: p})
	}
	return docs
}
