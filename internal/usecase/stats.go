package usecase

import (
	"sync"
	"time"

	"github.com/GHILLIExSTEW/sportfeed/internal/platform/id"
)

// FetchRun is the aggregate outcome of one refresh pass, logged at the
// end of the run for operational visibility.
type FetchRun struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Sports       int
	Leagues      int
	GamesSeen    int
	GamesWritten int
	GamesSkipped int
	Inserted     int
	Updated      int
	Pruned       int
	Failures     int
	// HTTPStatuses records every provider attempt's status code in
	// arrival order, including retried 429s and 5xxs.
	HTTPStatuses []int
}

func (r FetchRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StatsCollector accumulates FetchRun counters from concurrent fetch
// workers.
type StatsCollector struct {
	mu  sync.Mutex
	run FetchRun

	ids id.Generator
	now func() time.Time
}

func NewStatsCollector(ids id.Generator) *StatsCollector {
	if ids == nil {
		ids = id.NewRunGenerator()
	}
	return &StatsCollector{
		ids: ids,
		now: time.Now,
	}
}

// Begin resets the counters and stamps a fresh run id.
func (c *StatsCollector) Begin(sports, leagues int) {
	runID, err := c.ids.RunID()
	if err != nil {
		runID = "unknown"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.run = FetchRun{
		RunID:     runID,
		StartedAt: c.now().UTC(),
		Sports:    sports,
		Leagues:   leagues,
	}
}

func (c *StatsCollector) RecordGame(inserted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.GamesSeen++
	c.run.GamesWritten++
	if inserted {
		c.run.Inserted++
	} else {
		c.run.Updated++
	}
}

func (c *StatsCollector) RecordSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.GamesSeen++
	c.run.GamesSkipped++
}

func (c *StatsCollector) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.Failures++
}

func (c *StatsCollector) RecordPruned(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.Pruned += count
}

// RecordHTTPStatus logs one provider attempt's response status. Wired
// as the provider client's status hook.
func (c *StatsCollector) RecordHTTPStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.HTTPStatuses = append(c.run.HTTPStatuses, status)
}

// Finish stamps the end time and returns a copy of the completed run.
func (c *StatsCollector) Finish() FetchRun {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.run.FinishedAt = c.now().UTC()
	return c.copyRunLocked()
}

// Snapshot returns the counters accumulated so far.
func (c *StatsCollector) Snapshot() FetchRun {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyRunLocked()
}

func (c *StatsCollector) copyRunLocked() FetchRun {
	out := c.run
	out.HTTPStatuses = append([]int(nil), c.run.HTTPStatuses...)
	return out
}
