// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"devtube-server/internal/app/service"
)

// Refresher reloads datasets.
// Implementations: internal/app/service/refresh_service.go
type Refresher interface {
	RefreshAll(ctx context.Context) []service.RefreshResult
}

// RefreshConfig holds refresh scheduler configuration.
type RefreshConfig struct {
	Interval time.Duration // zero disables periodic refresh
	Timeout  time.Duration // bounds one refresh round
}

// RefreshScheduler periodically reloads the locally held datasets so the
// "new videos" list and the search dataset follow their files.
type RefreshScheduler struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefreshScheduler creates a new RefreshScheduler.
func NewRefreshScheduler(refresher Refresher, cfg RefreshConfig, logger *zap.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		refresher: refresher,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

// RunOnce performs a single refresh round and returns the number of
// datasets that failed to load.
func (s *RefreshScheduler) RunOnce(ctx context.Context) int {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	failed := 0
	for _, r := range s.refresher.RefreshAll(ctx) {
		if r.Error != nil {
			failed++
		}
	}

	return failed
}

// Start begins the background refresh job. It does nothing when no interval
// is configured.
func (s *RefreshScheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.interval <= 0 {
		s.logger.Info("dataset refresh disabled")

		return
	}

	s.logger.Info("starting refresh scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the scheduler and waits for a running round.
func (s *RefreshScheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.logger.Info("stopping refresh scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("refresh scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *RefreshScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if failed := s.RunOnce(s.ctx); failed > 0 {
				s.logger.Warn("refresh round finished with failures", zap.Int("datasets_failed", failed))
			}
		}
	}
}
