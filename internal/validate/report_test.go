package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestReportAggregation(t *testing.T) {
	log := zap.NewNop()
	r := &Report{}

	r.add(pass("organization count", CategoryCount, "counts match: 2"), log)
	r.add(fail("user count", CategoryCount, "count mismatch: source=3 target=2"), log)
	r.add(pass("datetime types", CategoryDatatype, "ok"), log)

	assert.False(t, r.Passed())
	assert.Equal(t, 2, r.PassedCount())
	assert.Equal(t, 1, r.FailedCount())
	assert.InDelta(t, 2.0/3.0, r.SuccessRate(), 1e-9)

	by := r.ByCategory()
	assert.Equal(t, Tally{Passed: 1, Failed: 1}, by[CategoryCount])
	assert.Equal(t, Tally{Passed: 1}, by[CategoryDatatype])

	failures := r.Failures()
	assert.Len(t, failures, 1)
	assert.Equal(t, "user count", failures[0].Name)
}

func TestReportAllPassed(t *testing.T) {
	log := zap.NewNop()
	r := &Report{}
	r.add(pass("label count", CategoryCount, "ok"), log)

	assert.True(t, r.Passed())
	assert.Empty(t, r.Failures())
	assert.InDelta(t, 1.0, r.SuccessRate(), 1e-9)
}

func TestReportEmpty(t *testing.T) {
	r := &Report{}
	assert.True(t, r.Passed(), "no checks means nothing failed")
	assert.Zero(t, r.SuccessRate())
}

func TestFailDetailLimit(t *testing.T) {
	details := make([]string, detailLimit+7)
	for i := range details {
		details[i] = "mismatch"
	}
	res := fail("task samples", CategorySample, "mismatches", details...)
	assert.Len(t, res.Details, detailLimit)
}
