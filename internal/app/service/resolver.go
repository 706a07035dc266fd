// Package service provides application use cases.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"devtube-server/internal/domain"
	"devtube-server/internal/logger"
	"devtube-server/internal/metrics"
)

// VideoResolver resolves videos through the process-local cache, falling back
// to the remote index on a miss.
type VideoResolver struct {
	cache  domain.VideoCache
	index  domain.VideoIndex
	group  singleflight.Group
	logger *zap.Logger
}

// NewVideoResolver creates a new VideoResolver.
func NewVideoResolver(cache domain.VideoCache, index domain.VideoIndex, logger *zap.Logger) *VideoResolver {
	return &VideoResolver{
		cache:  cache,
		index:  index,
		logger: logger,
	}
}

// Resolve returns the video with the given identifier.
//
// A cached video is returned without contacting the index. On a miss exactly
// one index lookup is made; concurrent misses for the same id share it.
// Only successful lookups are cached. Failures wrap domain.ErrNotFound or
// domain.ErrUpstream and are never retried.
func (r *VideoResolver) Resolve(ctx context.Context, id string) (*domain.Video, error) {
	if video, ok := r.cache.Get(id); ok {
		r.logger.Debug("video cache hit", logger.VideoID(id))

		return video, nil
	}

	result, err, shared := r.group.Do(id, func() (interface{}, error) {
		// The shared fetch must outlive the caller that happened to start it.
		fetchCtx := context.WithoutCancel(ctx)

		video, err := r.index.GetObject(fetchCtx, id)
		if err != nil {
			return nil, err
		}

		r.cache.Set(id, video)

		return video, nil
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("resolving video %s: %w: %w", id, domain.ErrUpstream, err)
		}

		return nil, err
	}

	return result.(*domain.Video), nil
}
