package domain

import (
	"context"
	"encoding/json"
)

// VideoIndex defines the remote object index holding full video documents.
// Implementations: internal/infra/index/client.go
type VideoIndex interface {
	// GetObject fetches a video by identifier.
	// Returns an error wrapping ErrNotFound when the index has no such object,
	// and an error wrapping ErrUpstream for any other failure.
	GetObject(ctx context.Context, id string) (*Video, error)
}

// VideoCache defines the process-local cache of resolved videos.
// Implementations: internal/infra/memcache/cache.go
type VideoCache interface {
	// Get returns the cached video, or false when absent or expired.
	Get(key string) (*Video, bool)

	// Set stores a video, resetting its age.
	Set(key string, video *Video)
}

// SearchEngine defines the embedded full-text search engine.
// Implementations: internal/infra/fts/engine.go
type SearchEngine interface {
	// Search returns every hit for the query, ranked by the engine.
	Search(ctx context.Context, query string, refinement json.RawMessage, sortOrder string) ([]Hit, error)

	// Tags lists the most used tags.
	Tags(ctx context.Context) ([]Facet, error)

	// Channels lists the channels with the most videos.
	Channels(ctx context.Context) ([]Facet, error)

	// Speakers lists the speakers with the most videos.
	Speakers(ctx context.Context) ([]Facet, error)
}

// Reloader is a dataset that can be reloaded from its source while serving.
type Reloader interface {
	// Name returns the dataset identifier used in logs.
	Name() string

	// Reload replaces the served snapshot. On error the previous snapshot is kept.
	Reload(ctx context.Context) error
}
