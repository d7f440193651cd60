package sink

import "go.uber.org/zap"

// errorSummaryLimit caps how many per-document error messages a single
// batch contributes to the stats; the rest are counted but not recorded.
const errorSummaryLimit = 3

// Stats tracks one collection's load outcome. Partial-batch failures are
// recorded here rather than raised, so callers can decide whether the
// cumulative failure count exceeds their tolerance.
type Stats struct {
	Collection     string
	TotalDocuments int
	Inserted       int
	Failed         int
	Batches        int
	Errors         []string
}

func newStats(collection string, total int) *Stats {
	return &Stats{Collection: collection, TotalDocuments: total}
}

func (s *Stats) addSuccess(n int) {
	s.Inserted += n
}

func (s *Stats) addFailure(n int, msg string) {
	s.Failed += n
	if len(s.Errors) < errorSummaryLimit {
		s.Errors = append(s.Errors, msg)
	}
}

// SuccessRate is the fraction of documents written, in [0, 1].
func (s *Stats) SuccessRate() float64 {
	if s.TotalDocuments == 0 {
		return 0
	}
	return float64(s.Inserted) / float64(s.TotalDocuments)
}

func (s *Stats) logSummary(log *zap.Logger) {
	if s.Failed > 0 {
		log.Warn("collection loaded with failures",
			zap.String("collection", s.Collection),
			zap.Int("inserted", s.Inserted),
			zap.Int("failed", s.Failed),
			zap.Int("total", s.TotalDocuments),
			zap.Strings("errors", s.Errors))
		return
	}
	log.Info("collection loaded",
		zap.String("collection", s.Collection),
		zap.Int("inserted", s.Inserted),
		zap.Int("batches", s.Batches))
}

// Summary aggregates per-collection stats for one load pass.
type Summary struct {
	TotalDocuments int
	TotalInserted  int
	TotalFailed    int
	Collections    map[string]*Stats
}

func newSummary() *Summary {
	return &Summary{Collections: make(map[string]*Stats)}
}

func (m *Summary) add(s *Stats) {
	m.Collections[s.Collection] = s
	m.TotalDocuments += s.TotalDocuments
	m.TotalInserted += s.Inserted
	m.TotalFailed += s.Failed
}

// Failed reports whether any document failed to load. The run is marked
// failed on any failure even though all collections are attempted.
func (m *Summary) Failed() bool {
	return m.TotalFailed > 0
}

// SuccessRate is the fraction of documents written, in [0, 1].
func (m *Summary) SuccessRate() float64 {
	if m.TotalDocuments == 0 {
		return 0
	}
	return float64(m.TotalInserted) / float64(m.TotalDocuments)
}
