// Package scheduler runs the periodic tier sweep: classify every asset,
// publish the counts as gauges and log what is overdue.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/metrics"
)

// Reporter produces a tier report. *lifecycle.Engine implements it.
type Reporter interface {
	Report(ctx context.Context) (lifecycle.TierReport, error)
}

// Sweeper runs one sweep at a time; a tick that fires while the previous
// sweep is still running is skipped.
type Sweeper struct {
	reporter Reporter
	log      *slog.Logger
	running  sync.Mutex
}

func NewSweeper(r Reporter, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{reporter: r, log: log}
}

// Sweep runs the report once and publishes it.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if !s.running.TryLock() {
		s.log.Warn("scheduler: sweep still running, skipping tick")
		return nil
	}
	defer s.running.Unlock()

	report, err := s.reporter.Report(ctx)
	if err != nil {
		return fmt.Errorf("tier sweep: %w", err)
	}
	metrics.SetTierCounts(report.Counts)
	metrics.SetReorderCount(len(report.ReorderMaterials))

	for _, a := range report.Overdue {
		s.log.Warn("scheduler: asset overdue",
			"asset_id", a.ID,
			"name", a.Name,
			"owner_id", a.OwnerID,
			"location", a.Location,
			"checkout_at", a.CheckoutAt)
	}
	s.log.Info("scheduler: tier sweep done",
		"counts", report.Counts,
		"overdue", len(report.Overdue),
		"reorder", len(report.ReorderMaterials))
	return nil
}

// Run sweeps once immediately, then on every tick of schedule until ctx is
// cancelled. It returns an error only for an invalid schedule.
func Run(ctx context.Context, schedule string, s *Sweeper) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.log.Error("scheduler: sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}
	s.log.Info("scheduler: tier sweep scheduled", "schedule", schedule)

	if err := s.Sweep(ctx); err != nil {
		s.log.Error("scheduler: initial sweep failed", "error", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
