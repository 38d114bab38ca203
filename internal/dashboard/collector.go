package dashboard

import (
	"context"
	"time"

	"github.com/ignite/commerce-pulse/internal/pkg/distlock"
	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
)

// Snapshotter periodically computes the dashboard overview and persists
// it as a snapshot row. A distributed lock elects a single writer, so
// running several server instances does not multiply snapshot rows.
type Snapshotter struct {
	svc      *Service
	lock     distlock.DistLock
	interval time.Duration
	window   int // trailing days per snapshot
}

// NewSnapshotter creates a snapshot collector. lock may be nil for
// single-instance deployments.
func NewSnapshotter(svc *Service, lock distlock.DistLock, interval time.Duration) *Snapshotter {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Snapshotter{
		svc:      svc,
		lock:     lock,
		interval: interval,
		window:   30,
	}
}

// Start runs the snapshot loop until the context is cancelled. The first
// snapshot is taken immediately.
func (s *Snapshotter) Start(ctx context.Context) {
	logger.Info("snapshotter started", "interval", s.interval.String())

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("snapshotter stopped")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Snapshotter) run(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			logger.Warn("snapshot lock acquire failed", "err", err)
			return
		}
		if !acquired {
			logger.Debug("snapshot skipped, another instance holds the lock")
			return
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				logger.Warn("snapshot lock release failed", "err", err)
			}
		}()
	}

	o := s.svc.Overview(ctx, platform.LastDays(s.window))
	if err := s.svc.SaveSnapshot(ctx, o); err != nil {
		logger.Warn("snapshot save failed", "err", err)
		return
	}
	logger.Info("snapshot saved",
		"customers", o.CustomerCount,
		"at_risk", o.AtRiskCount,
		"source", string(o.CustomerProvenance))
}
