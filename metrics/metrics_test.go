package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

func TestCollector(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newCollector("run-1", fakeClock(start, time.Second))

	c.OnRowCount(10, 10)
	c.OnPlan("id", [][]string{{"a"}, {"b"}, {"c"}})
	c.OnGroup(0, []string{"a"}, true)
	c.OnGroup(1, []string{"b"}, false)
	c.OnVerdict(&core.Verdict{Kind: core.ContentMismatch, Group: []string{"b"}, GroupIndex: 1})

	s := c.Stats()
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, int64(10), s.FirstRows)
	assert.Equal(t, "id", s.KeyColumn)
	assert.Equal(t, 3, s.GroupsPlanned)
	assert.Equal(t, 2, s.GroupsCompared)
	assert.Equal(t, 1, s.GroupsEqual)
	assert.Equal(t, "content_mismatch", s.Verdict)
	assert.Equal(t, core.ExitContentMismatch, s.ExitCode)
	assert.Equal(t, start, s.StartTime)
	assert.Equal(t, time.Second, s.RowCountElapsed)
	assert.Equal(t, time.Second, s.CompareElapsed)
	assert.Equal(t, 3*time.Second, s.Duration)
}

func TestCollectorRowCountMismatch(t *testing.T) {
	c := NewCollector("run-2")
	c.OnRowCount(1, 2)
	c.OnVerdict(&core.Verdict{Kind: core.RowCountMismatch, FirstRows: 1, SecondRows: 2})

	s := c.Stats()
	assert.Zero(t, s.GroupsPlanned)
	assert.Zero(t, s.GroupsCompared)
	assert.Zero(t, s.CompareElapsed)
	assert.Equal(t, core.ExitRowCountMismatch, s.ExitCode)
}

func TestRunStatsEncoding(t *testing.T) {
	c := NewCollector("run-3")
	c.OnVerdict(&core.Verdict{Kind: core.Identical, KeyColumn: "id"})

	s := c.Stats()
	assert.Len(t, s.Fields(), 12)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verdict":"identical"`)
	assert.Contains(t, string(data), `"run_id":"run-3"`)
}
