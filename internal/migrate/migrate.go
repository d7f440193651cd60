// Package migrate orchestrates one migration run: connectivity check,
// extraction, transformation, and loading, with per-phase timing and a
// final summary. The id mapper is created fresh per run, so generated
// identities never leak between runs.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/internal/idmap"
	"github.com/mesh-intelligence/ferry/internal/sink"
	"github.com/mesh-intelligence/ferry/internal/transform"
	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Phase names used as duration keys in RunStats.
const (
	PhaseConnectivity = "connectivity"
	PhaseExtraction   = "extraction"
	PhaseTransform    = "transformation"
	PhaseLoad         = "loading"
)

// Source is the read side of a migration run.
type Source interface {
	Ping(ctx context.Context) error
	ExtractAll(ctx context.Context) (*types.SourceData, error)
}

// Sink is the write side of a migration run.
type Sink interface {
	LoadAll(ctx context.Context, ds *types.Dataset, opts sink.LoadOptions) (*sink.Summary, error)
}

// Options tunes one migration run.
type Options struct {
	// DryRun runs extraction and transformation but skips the load.
	DryRun bool
	// Clear empties the target collections before loading.
	Clear bool
	// Upsert replaces documents on rerun instead of inserting.
	Upsert    bool
	BatchSize int
}

// RunStats is the accumulated record of one run.
type RunStats struct {
	RunID             string
	StartedAt         time.Time
	Duration          time.Duration
	PhaseDurations    map[string]time.Duration
	SourceCounts      map[string]int
	TransformedCounts map[string]int
	EmbeddedTasks     int
	EmbeddedComments  int
	LoadSummary       *sink.Summary
	Errors            []string
}

// Succeeded reports whether the run finished with zero errors. A load
// with any failed document does not count as success.
func (s *RunStats) Succeeded() bool {
	return len(s.Errors) == 0
}

func (s *RunStats) addError(phase string, err error) {
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", phase, err))
}

// Orchestrator drives the phases of a migration run.
type Orchestrator struct {
	source Source
	sink   Sink
	log    *zap.Logger
}

func New(src Source, snk Sink, log *zap.Logger) *Orchestrator {
	return &Orchestrator{source: src, sink: snk, log: log}
}

// Run executes one migration pass. The returned stats are always
// populated as far as the run got; Succeeded tells the caller whether
// every phase finished clean.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *RunStats {
	stats := &RunStats{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now(),
		PhaseDurations: make(map[string]time.Duration),
	}
	o.log.Info("starting migration run",
		zap.String("run_id", stats.RunID),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("clear", opts.Clear),
		zap.Int("batch_size", opts.BatchSize))

	if o.connectivityPhase(ctx, stats) {
		if data := o.extractPhase(ctx, stats); data != nil {
			if ds := o.transformPhase(stats, data); ds != nil {
				o.loadPhase(ctx, stats, ds, opts)
			}
		}
	}

	stats.Duration = time.Since(stats.StartedAt)
	o.summarize(stats)
	return stats
}

func (o *Orchestrator) connectivityPhase(ctx context.Context, stats *RunStats) bool {
	started := time.Now()
	defer func() { stats.PhaseDurations[PhaseConnectivity] = time.Since(started) }()

	// The target was pinged when its client connected; only the source
	// remains unverified here.
	if err := o.source.Ping(ctx); err != nil {
		stats.addError(PhaseConnectivity, err)
		o.log.Error("connectivity check failed", zap.Error(err))
		return false
	}
	o.log.Info("connectivity check passed")
	return true
}

func (o *Orchestrator) extractPhase(ctx context.Context, stats *RunStats) *types.SourceData {
	started := time.Now()
	defer func() { stats.PhaseDurations[PhaseExtraction] = time.Since(started) }()

	data, err := o.source.ExtractAll(ctx)
	if err != nil {
		stats.addError(PhaseExtraction, err)
		o.log.Error("extraction failed", zap.Error(err))
		return nil
	}
	stats.SourceCounts = data.Counts()
	o.log.Info("extraction phase complete",
		zap.Int("total_records", data.TotalRecords()),
		zap.Duration("elapsed", time.Since(started)))
	return data
}

func (o *Orchestrator) transformPhase(stats *RunStats, data *types.SourceData) *types.Dataset {
	started := time.Now()
	defer func() { stats.PhaseDurations[PhaseTransform] = time.Since(started) }()

	ds, err := transform.New(idmap.New(), o.log).All(data)
	if err != nil {
		stats.addError(PhaseTransform, err)
		o.log.Error("transformation failed", zap.Error(err))
		return nil
	}
	stats.TransformedCounts = ds.Counts()
	stats.EmbeddedTasks = ds.EmbeddedTasks()
	stats.EmbeddedComments = ds.EmbeddedComments()
	o.log.Info("transformation phase complete",
		zap.Int("total_documents", ds.TotalDocuments()),
		zap.Duration("elapsed", time.Since(started)))
	return ds
}

func (o *Orchestrator) loadPhase(ctx context.Context, stats *RunStats, ds *types.Dataset, opts Options) {
	started := time.Now()
	defer func() { stats.PhaseDurations[PhaseLoad] = time.Since(started) }()

	if opts.DryRun {
		o.log.Info("dry run: skipping load",
			zap.Int("documents_not_loaded", ds.TotalDocuments()))
		return
	}

	summary, err := o.sink.LoadAll(ctx, ds, sink.LoadOptions{
		BatchSize: opts.BatchSize,
		Clear:     opts.Clear,
		Upsert:    opts.Upsert,
	})
	if err != nil {
		stats.addError(PhaseLoad, err)
		o.log.Error("load failed", zap.Error(err))
		return
	}
	stats.LoadSummary = summary
	if summary.Failed() {
		stats.addError(PhaseLoad, fmt.Errorf("%d documents failed to load", summary.TotalFailed))
	}
	o.log.Info("load phase complete",
		zap.Int("inserted", summary.TotalInserted),
		zap.Int("failed", summary.TotalFailed),
		zap.Duration("elapsed", time.Since(started)))
}

func (o *Orchestrator) summarize(stats *RunStats) {
	fields := []zap.Field{
		zap.String("run_id", stats.RunID),
		zap.Duration("duration", stats.Duration),
		zap.Bool("succeeded", stats.Succeeded()),
	}
	for phase, d := range stats.PhaseDurations {
		fields = append(fields, zap.Duration(phase, d))
	}
	if stats.LoadSummary != nil {
		fields = append(fields,
			zap.Int("loaded", stats.LoadSummary.TotalInserted),
			zap.Int("load_failures", stats.LoadSummary.TotalFailed))
	}
	if stats.Succeeded() {
		o.log.Info("migration run complete", fields...)
		return
	}
	fields = append(fields, zap.Strings("errors", stats.Errors))
	o.log.Error("migration run failed", fields...)
}
