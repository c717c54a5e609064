// Package worker hosts the background jobs run by cmd/worker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/service"
)

// Repairer runs the notification repair sweep for a role.
type Repairer interface {
	Repair(ctx context.Context, role string) (*service.RepairResult, error)
}

type SweeperConfig struct {
	Roles    []string
	Interval time.Duration
}

// RepairSweeper runs the notification repair sweep for every configured role
// on a fixed interval, starting immediately.
type RepairSweeper struct {
	repairer Repairer
	cfg      SweeperConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRepairSweeper(repairer Repairer, cfg SweeperConfig) *RepairSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &RepairSweeper{
		repairer:  repairer,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until Stop() is called or ctx is done.
func (s *RepairSweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "trialwatch.worker.sweeper",
	})

	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "repair sweeper started", "interval", s.cfg.Interval, "roles", s.cfg.Roles)

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "repair sweeper stopping")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *RepairSweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// SweepOnce repairs each role in turn. A failing role does not stop the rest.
// It returns the number of notifications created.
func (s *RepairSweeper) SweepOnce(ctx context.Context) int {
	total := 0
	for _, role := range s.cfg.Roles {
		if ctx.Err() != nil {
			return total
		}
		result, err := s.repairer.Repair(ctx, role)
		if err != nil {
			slog.ErrorContext(ctx, "repair sweep failed", "role", role, "error", err)
			continue
		}
		total += result.Created
	}
	if total > 0 {
		slog.InfoContext(ctx, "repair sweep created missing notifications", "created", total)
	}
	return total
}
