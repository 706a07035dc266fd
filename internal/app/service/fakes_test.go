package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"devtube-server/internal/domain"
)

// fakeIndex is a scripted domain.VideoIndex that counts lookups.
type fakeIndex struct {
	mu     sync.Mutex
	videos map[string]*domain.Video
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func newFakeIndex(videos ...*domain.Video) *fakeIndex {
	idx := &fakeIndex{videos: make(map[string]*domain.Video)}
	for _, v := range videos {
		idx.videos[v.ID] = v
	}

	return idx
}

func (f *fakeIndex) GetObject(_ context.Context, id string) (*domain.Video, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return v, nil
}

func (f *fakeIndex) put(v *domain.Video) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[v.ID] = v
}

// mapCache is an unbounded domain.VideoCache with manual expiry.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Video
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*domain.Video)}
}

func (c *mapCache) Get(key string) (*domain.Video, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]

	return v, ok
}

func (c *mapCache) Set(key string, v *domain.Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
	c.sets++
}

// fakeEngine is a scripted domain.SearchEngine.
type fakeEngine struct {
	hits     []domain.Hit
	err      error
	delay    time.Duration
	tags     []domain.Facet
	channels []domain.Facet
	speakers []domain.Facet
	facetErr error

	gotQuery      string
	gotRefinement json.RawMessage
	gotSortOrder  string
}

func (f *fakeEngine) Search(ctx context.Context, query string, refinement json.RawMessage, sortOrder string) ([]domain.Hit, error) {
	f.gotQuery, f.gotRefinement, f.gotSortOrder = query, refinement, sortOrder

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.hits, f.err
}

func (f *fakeEngine) Tags(_ context.Context) ([]domain.Facet, error) {
	return f.tags, f.facetErr
}

func (f *fakeEngine) Channels(_ context.Context) ([]domain.Facet, error) {
	return f.channels, f.facetErr
}

func (f *fakeEngine) Speakers(_ context.Context) ([]domain.Facet, error) {
	return f.speakers, f.facetErr
}

func makeHits(n int) []domain.Hit {
	hits := make([]domain.Hit, n)
	for i := range hits {
		hits[i] = domain.Hit(`{"objectID":"v` + strconv.Itoa(i) + `"}`)
	}

	return hits
}

