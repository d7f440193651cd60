package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

func TestStatsAccounting(t *testing.T) {
	s := newStats(types.CollUsers, 10)

	s.addSuccess(7)
	s.addFailure(3, "bulk write: 3 documents rejected")

	assert.Equal(t, 7, s.Inserted)
	assert.Equal(t, 3, s.Failed)
	assert.InDelta(t, 0.7, s.SuccessRate(), 1e-9)
}

func TestStatsErrorSummaryCapped(t *testing.T) {
	s := newStats(types.CollProjects, 100)

	for i := 0; i < errorSummaryLimit+5; i++ {
		s.addFailure(1, "rejected")
	}

	assert.Equal(t, errorSummaryLimit+5, s.Failed, "every failure counts")
	assert.Len(t, s.Errors, errorSummaryLimit, "only the first few messages are kept")
}

func TestStatsSuccessRateEmpty(t *testing.T) {
	s := newStats(types.CollLabels, 0)
	assert.Zero(t, s.SuccessRate())
}

func TestSummaryAggregation(t *testing.T) {
	m := newSummary()

	orgs := newStats(types.CollOrganizations, 5)
	orgs.addSuccess(5)
	m.add(orgs)

	users := newStats(types.CollUsers, 10)
	users.addSuccess(8)
	users.addFailure(2, "rejected")
	m.add(users)

	assert.Equal(t, 15, m.TotalDocuments)
	assert.Equal(t, 13, m.TotalInserted)
	assert.Equal(t, 2, m.TotalFailed)
	assert.True(t, m.Failed())
	assert.InDelta(t, 13.0/15.0, m.SuccessRate(), 1e-9)
	assert.Same(t, users, m.Collections[types.CollUsers])
}

func TestSummaryCleanRun(t *testing.T) {
	m := newSummary()
	orgs := newStats(types.CollOrganizations, 5)
	orgs.addSuccess(5)
	m.add(orgs)

	assert.False(t, m.Failed())
	assert.InDelta(t, 1.0, m.SuccessRate(), 1e-9)
}
