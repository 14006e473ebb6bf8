/*
scheduler.go - Automated roster pre-generation

PURPOSE:
  Periodically makes sure the current month and the next months have a
  roster, generating any period that has none yet. Office staff open next
  month's sheet and find a draft instead of an empty grid.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only generates periods with no stored roster; existing rosters (and
    their manual edits) are never touched
  - Each generation goes through the planner, so it is serialised with
    interactive edits and shows up in the period history

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Lookahead: Months after the current one to prepare (default: 1)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewGenerationScheduler(planner, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GenerateRoster endpoint (manual generation)
  - planner/planner.go: EnsureGenerated
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/planner"
)

// GenerationScheduler pre-generates upcoming rosters.
type GenerationScheduler struct {
	Planner       *planner.Planner
	CheckInterval time.Duration
	Lookahead     int
	Enabled       bool

	logger *slog.Logger
	now    func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewGenerationScheduler creates a new scheduler.
func NewGenerationScheduler(p *planner.Planner, logger *slog.Logger) *GenerationScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationScheduler{
		Planner:       p,
		CheckInterval: 1 * time.Hour,
		Lookahead:     1,
		Enabled:       true,
		logger:        logger.With("component", "scheduler"),
		now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (gs *GenerationScheduler) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.Enabled || gs.CheckInterval <= 0 {
		gs.logger.Info("scheduler disabled, not starting")
		return
	}

	gs.ticker = time.NewTicker(gs.CheckInterval)
	gs.wg.Add(1)

	go gs.run()

	gs.logger.Info("scheduler started", "interval", gs.CheckInterval, "lookahead", gs.Lookahead)
}

// Stop stops the scheduler.
func (gs *GenerationScheduler) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.ticker != nil {
		gs.ticker.Stop()
		close(gs.stop)
		gs.wg.Wait()
		gs.ticker = nil
		gs.logger.Info("scheduler stopped")
	}
}

func (gs *GenerationScheduler) run() {
	defer gs.wg.Done()

	// Run immediately on start
	gs.checkAndGenerate()

	for {
		select {
		case <-gs.ticker.C:
			gs.checkAndGenerate()
		case <-gs.stop:
			return
		}
	}
}

// Periods returns the period keys the scheduler looks after at time t.
func (gs *GenerationScheduler) Periods(t time.Time) []string {
	p := calendar.Period{Year: t.Year(), Month: t.Month()}
	keys := []string{p.Key()}
	for i := 0; i < gs.Lookahead; i++ {
		p = p.Next()
		keys = append(keys, p.Key())
	}
	return keys
}

func (gs *GenerationScheduler) checkAndGenerate() (generated int) {
	ctx := context.Background()

	for _, period := range gs.Periods(gs.now()) {
		res, err := gs.Planner.EnsureGenerated(ctx, period)
		if err != nil {
			gs.logger.Error("pre-generation failed", "period", period, "error", err)
			continue
		}
		if res == nil {
			continue
		}
		generated++
		gs.logger.Info("roster pre-generated",
			"period", period,
			"revision", res.Revision.ID,
			"violations", len(res.Violations),
		)
	}
	return generated
}

// RunNow triggers an immediate check and returns how many periods were
// generated.
func (gs *GenerationScheduler) RunNow() int {
	return gs.checkAndGenerate()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (gs *GenerationScheduler) GetNextRunTime() time.Time {
	return gs.now().Add(gs.CheckInterval)
}
