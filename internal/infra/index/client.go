// Package index implements the remote video index client.
// The index speaks the Algolia REST object API.
package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"devtube-server/internal/domain"
	"devtube-server/internal/logger"
	"devtube-server/internal/metrics"
)

// ObjectPath is the API path of a single index object.
const ObjectPath = "/1/indexes/{index}/{objectID}"

// Config holds index client configuration.
type Config struct {
	ClientConfig
	AppID     string
	APIKey    string
	IndexName string
}

// Client implements domain.VideoIndex.
type Client struct {
	indexName string
	client    *resty.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	logger    *zap.Logger
}

// New creates a new index client.
func New(cfg Config, logger *zap.Logger) *Client {
	client := NewRestyClient(cfg.ClientConfig).
		SetHeader("X-Algolia-Application-Id", cfg.AppID).
		SetHeader("X-Algolia-API-Key", cfg.APIKey)

	return &Client{
		indexName: cfg.IndexName,
		client:    client,
		cb:        NewCircuitBreaker[[]byte]("index", cfg.CB, logger),
		logger:    logger,
	}
}

// GetObject fetches a single video document. Exactly one HTTP request is made
// unless the circuit is open, in which case none is.
func (c *Client) GetObject(ctx context.Context, id string) (*domain.Video, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetPathParams(map[string]string{
				"index":    c.indexName,
				"objectID": id,
			}).
			Get(ObjectPath)
		if err != nil {
			return nil, err
		}
		if r.StatusCode() == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		if !r.IsSuccess() {
			return nil, fmt.Errorf("index returned status %d", r.StatusCode())
		}

		return r.Body(), nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamNotFound).Inc()
		c.logger.Debug("index object not found", logger.VideoID(id))

		return nil, fmt.Errorf("index object %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamError).Inc()
		c.logger.Warn("index fetch failed",
			logger.VideoID(id),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("fetching index object %s: %w: %w", id, domain.ErrUpstream, err)
	}

	video, err := ParseVideo(id, body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamError).Inc()

		return nil, fmt.Errorf("fetching index object %s: %w: %w", id, domain.ErrUpstream, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(metrics.UpstreamOK).Inc()

	return video, nil
}
