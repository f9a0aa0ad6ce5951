package saga

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/inventory"
	"github.com/surajpaudel2/sports-ticketing/internal/metrics"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
)

// Sweeper closes the crash window between seat reservation and workflow
// finalization. It scans the saga log for instances stuck holding seats
// past the staleness window and re-issues their seat release. The release
// dedupes on the instance's compensation token, so sweeping an instance
// whose release already landed is harmless.
type Sweeper struct {
	store      Store
	inventory  *inventory.Service
	interval   time.Duration
	staleAfter time.Duration
	metrics    *metrics.Metrics
	log        *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a recovery sweeper
func NewSweeper(store Store, inv *inventory.Service, interval, staleAfter time.Duration, m *metrics.Metrics, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if staleAfter <= 0 {
		staleAfter = 2 * time.Minute
	}
	return &Sweeper{
		store:      store,
		inventory:  inv,
		interval:   interval,
		staleAfter: staleAfter,
		metrics:    m,
		log:        log,
	}
}

// Start runs the sweep loop until Stop is called or ctx is canceled
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil {
					s.log.Error("saga sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// SweepOnce compensates every stale instance and returns how many were
// recovered.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	instances, err := s.store.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	recovered := 0
	for _, inst := range instances {
		if !inst.StaleSince(s.staleAfter, now) {
			continue
		}

		err := s.inventory.Restore(ctx, inst.EventID, inst.Seats, inst.CompensationToken)
		if err != nil {
			s.log.Error("sweeper seat release failed",
				zap.String("saga_id", inst.ID),
				zap.Int64("event_id", inst.EventID),
				zap.Error(err))
			continue
		}

		inst.Record("release_seats", "SUCCESS", "recovered by sweeper")
		inst.SetState(StateCompensated)
		if err := s.store.Save(ctx, inst); err != nil {
			s.log.Error("sweeper failed to persist saga instance",
				zap.String("saga_id", inst.ID), zap.Error(err))
			continue
		}

		s.metrics.SweeperRecoveries.Inc()
		s.log.Warn("stale saga compensated",
			zap.String("saga_id", inst.ID),
			zap.String("workflow", string(inst.Workflow)),
			zap.Int64("event_id", inst.EventID),
			zap.Int("seats", inst.Seats))
		recovered++
	}
	return recovered, nil
}
