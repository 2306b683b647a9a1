// Package scheduler runs the recurring metric syncs.
package scheduler

import (
	"context"
	"sync"
	"time"

	syncUsecases "github.com/meridian-ads/meridian/internal/application/sync/usecases"
	"github.com/meridian-ads/meridian/internal/shared/biztime"
	"github.com/meridian-ads/meridian/internal/shared/goroutine"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

// DailySyncScheduler fires once per day after UTC midnight, at the configured
// hour, and syncs the prior full day for every enabled watermark. The daily
// watermark cursor is monotonic, so an extra firing is harmless.
type DailySyncScheduler struct {
	runSyncUC *syncUsecases.RunSyncUseCase
	hourUTC   int
	logger    logger.Interface
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewDailySyncScheduler(runSyncUC *syncUsecases.RunSyncUseCase, hourUTC int, log logger.Interface) *DailySyncScheduler {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 6
	}
	return &DailySyncScheduler{
		runSyncUC: runSyncUC,
		hourUTC:   hourUTC,
		logger:    log,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *DailySyncScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting daily sync scheduler", "hour_utc", s.hourUTC)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "daily-sync-scheduler", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully.
func (s *DailySyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping daily sync scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("daily sync scheduler stopped")
	})
}

func (s *DailySyncScheduler) runLoop(ctx context.Context) {
	for {
		timer := time.NewTimer(time.Until(s.nextRun(biztime.NowUTC())))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Infow("daily sync scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.runDailySync(ctx)
		}
	}
}

// nextRun returns the next firing time at hourUTC, today or tomorrow.
func (s *DailySyncScheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *DailySyncScheduler) runDailySync(ctx context.Context) {
	s.logger.Debugw("daily sync task started")

	startTime := time.Now()

	result, err := s.runSyncUC.ExecuteScheduled(ctx, "daily")
	if err != nil {
		s.logger.Errorw("daily sync run failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	s.logger.Infow("daily sync run finished",
		"accounts", len(result.Accounts),
		"succeeded", result.SucceededCount,
		"failed", result.FailedCount,
		"duration", time.Since(startTime),
	)
}
