package index

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"devtube-server/internal/domain"
)

// ClientConfig holds HTTP settings for the index client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	CB      CBConfig
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// NewRestyClient creates a Resty HTTP client bounded by the configured timeout.
// Retries stay disabled: a failed lookup is reported to the caller as-is.
func NewRestyClient(cfg ClientConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
}

// NewCircuitBreaker creates a circuit breaker for the index.
// Not-found answers and caller cancellations do not count as failures.
func NewCircuitBreaker[T any](name string, cfg CBConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
