package scheduler

import (
	"context"
	"sync"
	"time"

	orderUsecases "settlo/internal/application/order/usecases"
	"settlo/internal/shared/goroutine"
	"settlo/internal/shared/logger"
)

// SweepScheduler drives the periodic expiry sweep. Each tick expires
// overdue pending orders and returns their disambiguation suffixes to the
// pool. The sweep is re-entrant, so an overrun tick overlapping the next one
// is harmless.
type SweepScheduler struct {
	expireOrdersUC *orderUsecases.ExpireOrdersUseCase
	logger         logger.Interface
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
	interval       time.Duration
}

func NewSweepScheduler(
	expireOrdersUC *orderUsecases.ExpireOrdersUseCase,
	intervalMinutes int,
	logger logger.Interface,
) *SweepScheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &SweepScheduler{
		expireOrdersUC: expireOrdersUC,
		logger:         logger,
		stopChan:       make(chan struct{}),
		interval:       time.Duration(intervalMinutes) * time.Minute,
	}
}

// Start starts the sweep loop in the background.
func (s *SweepScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting sweep scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "sweep-scheduler", func() {
		defer s.wg.Done()
		s.runSweepLoop(ctx)
	})
}

// Stop stops the scheduler gracefully and waits for the loop to exit.
// Safe to call multiple times.
func (s *SweepScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping sweep scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("sweep scheduler stopped")
	})
}

func (s *SweepScheduler) runSweepLoop(ctx context.Context) {
	// Run immediately on startup to clear orders that expired while down.
	s.runSweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("sweep scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *SweepScheduler) runSweep(ctx context.Context) {
	s.logger.Debugw("expiry sweep started")

	startTime := time.Now()

	stats, err := s.expireOrdersUC.Execute(ctx)
	if err != nil {
		s.logger.Errorw("expiry sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if stats.Expired > 0 || stats.Errors > 0 {
		s.logger.Infow("expiry sweep finished",
			"checked", stats.Checked,
			"expired", stats.Expired,
			"tokens_released", stats.TokensReleased,
			"errors", stats.Errors,
			"duration", time.Since(startTime),
		)
	}
}
