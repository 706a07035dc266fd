package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"devtube-server/internal/domain"
	"devtube-server/internal/metrics"
)

// SearchConfig holds search proxy settings.
type SearchConfig struct {
	HitsPerPage int
	Timeout     time.Duration // bounds each engine call, zero disables
}

// SearchService paginates queries against the embedded search engine.
type SearchService struct {
	engine      domain.SearchEngine
	hitsPerPage int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(engine domain.SearchEngine, cfg SearchConfig, logger *zap.Logger) *SearchService {
	hitsPerPage := cfg.HitsPerPage
	if hitsPerPage <= 0 {
		hitsPerPage = domain.DefaultHitsPerPage
	}

	return &SearchService{
		engine:      engine,
		hitsPerPage: hitsPerPage,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// HitsPerPage returns the page size applied to every query.
func (s *SearchService) HitsPerPage() int {
	return s.hitsPerPage
}

// Query runs the full ranked search and returns the requested page.
// It never fails: engine errors are logged and answered with an empty result.
func (s *SearchService) Query(ctx context.Context, req domain.PageRequest) domain.PageResult {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	hits, err := s.engine.Search(ctx, req.Query, req.Refinement, req.SortOrder)
	duration := time.Since(start)
	metrics.SearchDuration.Observe(duration.Seconds())

	if err != nil {
		s.logger.Error("search failed",
			zap.String("query", req.Query),
			zap.String("sort_order", req.SortOrder),
			zap.Error(err),
		)
		hits = nil
	}

	result := domain.NewPageResult(hits, req.Page, s.hitsPerPage)

	s.logger.Debug("search completed",
		zap.String("query", req.Query),
		zap.Int("page", req.Page),
		zap.Int("nb_hits", result.NbHits),
		zap.Duration("duration", duration),
	)

	return result
}

// Featured returns the home page aggregates. The second result is false when
// any aggregate could not be computed.
func (s *SearchService) Featured(ctx context.Context) (*domain.Featured, bool) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tags, err := s.engine.Tags(ctx)
	if err != nil {
		s.logger.Warn("listing featured tags failed", zap.Error(err))

		return nil, false
	}

	channels, err := s.engine.Channels(ctx)
	if err != nil {
		s.logger.Warn("listing featured channels failed", zap.Error(err))

		return nil, false
	}

	speakers, err := s.engine.Speakers(ctx)
	if err != nil {
		s.logger.Warn("listing featured speakers failed", zap.Error(err))

		return nil, false
	}

	return &domain.Featured{
		Tags:     nonNil(tags),
		Channels: nonNil(channels),
		Speakers: nonNil(speakers),
	}, true
}

func (s *SearchService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}

func nonNil(facets []domain.Facet) []domain.Facet {
	if facets == nil {
		return []domain.Facet{}
	}

	return facets
}
