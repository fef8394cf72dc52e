// Package metrics collects statistics about a comparison run.
package metrics

import (
	"sync"
	"time"

	"github.com/TFMV/tabdiff/pkg/core"
	"go.uber.org/zap"
)

// RunStats captures what a comparison run did.
type RunStats struct {
	RunID           string        `json:"run_id"`
	FirstRows       int64         `json:"first_rows"`
	SecondRows      int64         `json:"second_rows"`
	KeyColumn       string        `json:"key_column"`
	GroupsPlanned   int           `json:"groups_planned"`
	GroupsCompared  int           `json:"groups_compared"`
	GroupsEqual     int           `json:"groups_equal"`
	Verdict         string        `json:"verdict"`
	ExitCode        int           `json:"exit_code"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration"`
	RowCountElapsed time.Duration `json:"row_count_elapsed"`
	CompareElapsed  time.Duration `json:"compare_elapsed"`
}

// Collector records run statistics. It implements core.Observer.
type Collector struct {
	mu      sync.Mutex
	now     func() time.Time
	stats   RunStats
	planned time.Time
}

var _ core.Observer = (*Collector)(nil)

// NewCollector creates a collector and marks the start of the run.
func NewCollector(runID string) *Collector {
	return newCollector(runID, time.Now)
}

func newCollector(runID string, now func() time.Time) *Collector {
	return &Collector{
		now:   now,
		stats: RunStats{RunID: runID, StartTime: now()},
	}
}

// OnRowCount implements core.Observer.
func (c *Collector) OnRowCount(first, second int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.FirstRows, c.stats.SecondRows = first, second
	c.stats.RowCountElapsed = c.now().Sub(c.stats.StartTime)
}

// OnPlan implements core.Observer.
func (c *Collector) OnPlan(key string, groups [][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.KeyColumn = key
	c.stats.GroupsPlanned = len(groups)
	c.planned = c.now()
}

// OnGroup implements core.Observer.
func (c *Collector) OnGroup(_ int, _ []string, equal bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.GroupsCompared++
	if equal {
		c.stats.GroupsEqual++
	}
}

// OnVerdict implements core.Observer.
func (c *Collector) OnVerdict(v *core.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Verdict = v.Kind.String()
	c.stats.ExitCode = v.ExitCode()
	c.stats.EndTime = c.now()
	c.stats.Duration = c.stats.EndTime.Sub(c.stats.StartTime)
	if !c.planned.IsZero() {
		c.stats.CompareElapsed = c.stats.EndTime.Sub(c.planned)
	}
}

// Stats returns a copy of the current statistics.
func (c *Collector) Stats() RunStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Fields returns the statistics as structured log fields.
func (s RunStats) Fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int64("first_rows", s.FirstRows),
		zap.Int64("second_rows", s.SecondRows),
		zap.String("key_column", s.KeyColumn),
		zap.Int("groups_planned", s.GroupsPlanned),
		zap.Int("groups_compared", s.GroupsCompared),
		zap.Int("groups_equal", s.GroupsEqual),
		zap.String("verdict", s.Verdict),
		zap.Int("exit_code", s.ExitCode),
		zap.Duration("duration", s.Duration),
		zap.Duration("row_count_elapsed", s.RowCountElapsed),
		zap.Duration("compare_elapsed", s.CompareElapsed),
	}
}
