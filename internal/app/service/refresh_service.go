package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"devtube-server/internal/domain"
)

// RefreshService reloads the locally held datasets (latest videos catalog,
// search dataset) from their sources.
type RefreshService struct {
	datasets []domain.Reloader
	logger   *zap.Logger
}

// NewRefreshService creates a new RefreshService.
func NewRefreshService(datasets []domain.Reloader, logger *zap.Logger) *RefreshService {
	return &RefreshService{
		datasets: datasets,
		logger:   logger,
	}
}

// RefreshResult holds the result of reloading one dataset.
type RefreshResult struct {
	Dataset  string
	Duration time.Duration
	Error    error
}

// RefreshAll reloads every dataset concurrently. Partial failures are allowed;
// a failed dataset keeps serving its previous snapshot.
func (s *RefreshService) RefreshAll(ctx context.Context) []RefreshResult {
	results := make([]RefreshResult, len(s.datasets))
	var wg sync.WaitGroup

	s.logger.Debug("refreshing datasets", zap.Int("dataset_count", len(s.datasets)))

	for i, dataset := range s.datasets {
		wg.Add(1)
		go func(idx int, d domain.Reloader) {
			defer wg.Done()
			results[idx] = s.refresh(ctx, d)
		}(i, dataset)
	}

	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}

	s.logger.Info("refresh completed",
		zap.Int("datasets", len(results)),
		zap.Int("datasets_failed", failed),
	)

	return results
}

// refresh reloads a single dataset.
func (s *RefreshService) refresh(ctx context.Context, dataset domain.Reloader) RefreshResult {
	start := time.Now()
	result := RefreshResult{Dataset: dataset.Name()}

	if err := dataset.Reload(ctx); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		s.logger.Warn("dataset reload failed, keeping previous snapshot",
			zap.String("dataset", dataset.Name()),
			zap.Error(err),
		)

		return result
	}

	result.Duration = time.Since(start)
	s.logger.Debug("dataset reloaded",
		zap.String("dataset", dataset.Name()),
		zap.Duration("duration", result.Duration),
	)

	return result
}

// DatasetNames returns the names of all registered datasets.
func (s *RefreshService) DatasetNames() []string {
	names := make([]string, len(s.datasets))
	for i, d := range s.datasets {
		names[i] = d.Name()
	}

	return names
}
