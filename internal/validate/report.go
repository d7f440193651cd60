// Package validate compares the migrated target database against the
// relational source. Checks run in four categories: document counts,
// sampled field equality, reference integrity, and stored BSON types.
// Checks are additive; a failed check never stops the remaining ones.
package validate

import (
	"time"

	"go.uber.org/zap"
)

// Category groups related checks for the summary breakdown.
type Category string

const (
	CategoryCount        Category = "count"
	CategorySample       Category = "sample"
	CategoryRelationship Category = "relationship"
	CategoryDatatype     Category = "datatype"
)

// Categories lists every check category in report order.
var Categories = []Category{
	CategoryCount,
	CategorySample,
	CategoryRelationship,
	CategoryDatatype,
}

// detailLimit caps per-check detail lines carried in the report.
const detailLimit = 10

// Result is the outcome of one check.
type Result struct {
	Name     string
	Category Category
	Passed   bool
	Message  string
	Details  []string
}

func pass(name string, cat Category, msg string) Result {
	return Result{Name: name, Category: cat, Passed: true, Message: msg}
}

func fail(name string, cat Category, msg string, details ...string) Result {
	if len(details) > detailLimit {
		details = details[:detailLimit]
	}
	return Result{Name: name, Category: cat, Message: msg, Details: details}
}

// Tally counts pass/fail outcomes within one category.
type Tally struct {
	Passed int
	Failed int
}

// Report accumulates check results for one validation run.
type Report struct {
	Results  []Result
	Duration time.Duration
}

func (r *Report) add(res Result, log *zap.Logger) {
	r.Results = append(r.Results, res)
	if res.Passed {
		log.Info("check passed",
			zap.String("check", res.Name),
			zap.String("category", string(res.Category)),
			zap.String("message", res.Message))
		return
	}
	log.Warn("check failed",
		zap.String("check", res.Name),
		zap.String("category", string(res.Category)),
		zap.String("message", res.Message),
		zap.Strings("details", res.Details))
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// PassedCount returns how many checks passed.
func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns how many checks failed.
func (r *Report) FailedCount() int {
	return len(r.Results) - r.PassedCount()
}

// SuccessRate is the fraction of checks that passed, in [0, 1].
func (r *Report) SuccessRate() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	return float64(r.PassedCount()) / float64(len(r.Results))
}

// ByCategory breaks the results down per category.
func (r *Report) ByCategory() map[Category]Tally {
	by := make(map[Category]Tally)
	for _, res := range r.Results {
		t := by[res.Category]
		if res.Passed {
			t.Passed++
		} else {
			t.Failed++
		}
		by[res.Category] = t
	}
	return by
}

// Failures returns only the failed results.
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *Report) logSummary(log *zap.Logger) {
	log.Info("validation summary",
		zap.Int("total", len(r.Results)),
		zap.Int("passed", r.PassedCount()),
		zap.Int("failed", r.FailedCount()),
		zap.Float64("success_rate", r.SuccessRate()),
		zap.Duration("duration", r.Duration))
	for _, cat := range Categories {
		t := r.ByCategory()[cat]
		log.Info("category summary",
			zap.String("category", string(cat)),
			zap.Int("passed", t.Passed),
			zap.Int("failed", t.Failed))
	}
	for _, res := range r.Failures() {
		log.Warn("failed check",
			zap.String("check", res.Name),
			zap.String("message", res.Message))
	}
}
