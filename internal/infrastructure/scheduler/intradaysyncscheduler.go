package scheduler

import (
	"context"
	"sync"
	"time"

	syncUsecases "github.com/meridian-ads/meridian/internal/application/sync/usecases"
	"github.com/meridian-ads/meridian/internal/shared/goroutine"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

// IntradaySyncScheduler refreshes the current partial day on a fixed
// interval. Intraday runs skip creative resolution and never move the daily
// cursor, so they stay cheap enough to repeat through the day.
type IntradaySyncScheduler struct {
	runSyncUC *syncUsecases.RunSyncUseCase
	interval  time.Duration
	logger    logger.Interface
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewIntradaySyncScheduler(runSyncUC *syncUsecases.RunSyncUseCase, interval time.Duration, log logger.Interface) *IntradaySyncScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IntradaySyncScheduler{
		runSyncUC: runSyncUC,
		interval:  interval,
		logger:    log,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *IntradaySyncScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting intraday sync scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "intraday-sync-scheduler", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully.
func (s *IntradaySyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping intraday sync scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("intraday sync scheduler stopped")
	})
}

func (s *IntradaySyncScheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("intraday sync scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runIntradaySync(ctx)
		}
	}
}

func (s *IntradaySyncScheduler) runIntradaySync(ctx context.Context) {
	s.logger.Debugw("intraday sync task started")

	startTime := time.Now()

	result, err := s.runSyncUC.ExecuteScheduled(ctx, "intraday")
	if err != nil {
		s.logger.Errorw("intraday sync run failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	s.logger.Infow("intraday sync run finished",
		"accounts", len(result.Accounts),
		"succeeded", result.SucceededCount,
		"failed", result.FailedCount,
		"duration", time.Since(startTime),
	)
}
