// Package catalog serves the "new videos" list shown on the home page.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DatasetName identifies the catalog in logs.
const DatasetName = "latest-videos"

// ErrInvalidCatalog is returned when the file has no "videos" array.
var ErrInvalidCatalog = errors.New("invalid latest videos catalog")

// Config holds catalog settings.
type Config struct {
	Path         string // latest.json, {"videos":[{"videoId":"...","ageInDays":0},...]}
	MaxAgeInDays int    // videos at most this old count as new
}

// Latest implements domain.Reloader over the latest videos file.
type Latest struct {
	path   string
	maxAge int
	ids    atomic.Pointer[[]string]
	logger *zap.Logger
}

// New creates a catalog. Nothing is loaded until Reload is called.
func New(cfg Config, logger *zap.Logger) *Latest {
	return &Latest{
		path:   cfg.Path,
		maxAge: cfg.MaxAgeInDays,
		logger: logger,
	}
}

// Name implements domain.Reloader.
func (l *Latest) Name() string {
	return DatasetName
}

// Ready reports whether the catalog has been loaded.
func (l *Latest) Ready() bool {
	return l.ids.Load() != nil
}

// NewVideoIDs returns the ids of the videos published since yesterday, in
// file order. The slice is shared and must not be modified.
func (l *Latest) NewVideoIDs() []string {
	ids := l.ids.Load()
	if ids == nil {
		return []string{}
	}

	return *ids
}

// Reload re-reads the catalog file. On error the previous list is kept.
func (l *Latest) Reload(_ context.Context) error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("reading latest videos: %w", err)
	}

	ids, err := ParseNewVideoIDs(data, l.maxAge)
	if err != nil {
		return err
	}

	l.ids.Store(&ids)
	l.logger.Info("latest videos loaded",
		zap.String("path", l.path),
		zap.Int("new_videos", len(ids)),
	)

	return nil
}

// ParseNewVideoIDs extracts the ids of videos with ageInDays <= maxAge.
func ParseNewVideoIDs(data []byte, maxAge int) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidCatalog)
	}
	if !gjson.GetBytes(data, "videos").IsArray() {
		return nil, fmt.Errorf("%w: missing videos array", ErrInvalidCatalog)
	}

	path := fmt.Sprintf("videos.#(ageInDays<=%d)#.videoId", maxAge)

	ids := []string{}
	for _, id := range gjson.GetBytes(data, path).Array() {
		if s := id.String(); s != "" {
			ids = append(ids, s)
		}
	}

	return ids, nil
}
