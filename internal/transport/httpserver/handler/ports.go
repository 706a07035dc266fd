// Package handler provides the HTTP handlers of the page server.
package handler

import (
	"context"

	"devtube-server/internal/domain"
)

// VideoResolver resolves a video by identifier.
// Implementations: internal/app/service/resolver.go
type VideoResolver interface {
	Resolve(ctx context.Context, id string) (*domain.Video, error)
}

// SearchQuerier answers paginated search queries.
// Implementations: internal/app/service/search_service.go
type SearchQuerier interface {
	Query(ctx context.Context, req domain.PageRequest) domain.PageResult
}

// FeaturedSource provides the home page aggregates.
// Implementations: internal/app/service/search_service.go
type FeaturedSource interface {
	Featured(ctx context.Context) (*domain.Featured, bool)
}

// NewVideosSource lists the videos published since yesterday.
// Implementations: internal/infra/catalog/latest.go
type NewVideosSource interface {
	NewVideoIDs() []string
}
