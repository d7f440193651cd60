package validate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/internal/source"
	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Engine runs the full check suite against an open source client and
// target database handle. It never writes to either side.
type Engine struct {
	source     *source.Client
	db         *mongo.Database
	sampleSize int
	rng        *rand.Rand
	log        *zap.Logger
}

func NewEngine(src *source.Client, db *mongo.Database, sampleSize int, log *zap.Logger) *Engine {
	return &Engine{
		source:     src,
		db:         db,
		sampleSize: sampleSize,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		log:        log,
	}
}

// Run executes every check and returns the accumulated report. An
// infrastructure error fails the check it occurred in, not the run.
func (e *Engine) Run(ctx context.Context) *Report {
	started := time.Now()
	report := &Report{}
	e.log.Info("starting validation", zap.Int("sample_size", e.sampleSize))

	checks := []func(context.Context) Result{
		e.organizationCount,
		e.userCount,
		e.labelCount,
		e.projectCount,
		e.taskCount,
		e.organizationSamples,
		e.userSamples,
		e.taskSamples,
		e.projectOrgReferences,
		e.labelOrgReferences,
		e.userOrgReferences,
		e.taskAssigneeReferences,
		e.datetimeTypes,
		e.objectIDTypes,
		e.integerTypes,
	}
	for _, check := range checks {
		report.add(check(ctx), e.log)
	}

	report.Duration = time.Since(started)
	report.logSummary(e.log)
	return report
}

func findProjection(fields bson.M) *options.FindOptions {
	return options.Find().SetProjection(fields)
}

// countCheck compares one source table's row count against a target
// collection's document count.
func (e *Engine) countCheck(ctx context.Context, name, table, collection string) Result {
	srcCount, err := e.source.Count(ctx, table)
	if err != nil {
		return fail(name, CategoryCount, err.Error())
	}
	dstCount, err := e.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return fail(name, CategoryCount, err.Error())
	}
	if srcCount != dstCount {
		return fail(name, CategoryCount,
			fmt.Sprintf("count mismatch: source=%d target=%d", srcCount, dstCount))
	}
	return pass(name, CategoryCount, fmt.Sprintf("counts match: %d", srcCount))
}

func (e *Engine) organizationCount(ctx context.Context) Result {
	return e.countCheck(ctx, "organization count", types.TableOrganizations, types.CollOrganizations)
}

func (e *Engine) userCount(ctx context.Context) Result {
	return e.countCheck(ctx, "user count", types.TableUsers, types.CollUsers)
}

func (e *Engine) labelCount(ctx context.Context) Result {
	return e.countCheck(ctx, "label count", types.TableLabels, types.CollLabels)
}

func (e *Engine) projectCount(ctx context.Context) Result {
	return e.countCheck(ctx, "project count", types.TableProjects, types.CollProjects)
}

// taskCount sums tasks embedded in project documents, since tasks have no
// collection of their own on the target.
func (e *Engine) taskCount(ctx context.Context) Result {
	const name = "task count (embedded)"

	srcCount, err := e.source.Count(ctx, types.TableTasks)
	if err != nil {
		return fail(name, CategoryCount, err.Error())
	}

	cur, err := e.db.Collection(types.CollProjects).Find(ctx, bson.M{},
		findProjection(bson.M{"tasks.src_id": 1}))
	if err != nil {
		return fail(name, CategoryCount, err.Error())
	}
	defer cur.Close(ctx)

	var dstCount int64
	for cur.Next(ctx) {
		var p struct {
			Tasks []bson.Raw `bson:"tasks"`
		}
		if err := cur.Decode(&p); err != nil {
			return fail(name, CategoryCount, err.Error())
		}
		dstCount += int64(len(p.Tasks))
	}
	if err := cur.Err(); err != nil {
		return fail(name, CategoryCount, err.Error())
	}

	if srcCount != dstCount {
		return fail(name, CategoryCount,
			fmt.Sprintf("count mismatch: source=%d target embedded=%d", srcCount, dstCount))
	}
	return pass(name, CategoryCount, fmt.Sprintf("counts match: %d", srcCount))
}
