package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devtube-server/internal/domain"
)

const (
	testBaseURL  = "https://index.example.com"
	testEndpoint = testBaseURL + "/1/indexes/videos/abc123"
)

func newTestClient() *Client {
	cfg := Config{
		ClientConfig: ClientConfig{
			BaseURL: testBaseURL,
			Timeout: 5 * time.Second,
			CB: CBConfig{
				MaxRequests:  5,
				Interval:     60 * time.Second,
				Timeout:      15 * time.Second,
				FailureRatio: 0.6,
			},
		},
		AppID:     "TESTAPP",
		APIKey:    "test-key",
		IndexName: "videos",
	}
	client := New(cfg, zap.NewNop())

	// Activate httpmock for this client's HTTP transport
	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

const videoDoc = `{
	"objectID": "abc123",
	"title": "Concurrency is not parallelism",
	"description": "Rob Pike on Go concurrency",
	"speaker": {"name": "Rob Pike", "twitter": "rob_pike"},
	"tags": ["go", "concurrency"],
	"duration": 1859
}`

// TestGetObject_Success tests fetching and parsing a video document.
func TestGetObject_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, videoDoc))

	client := newTestClient()
	video, err := client.GetObject(context.Background(), "abc123")

	require.NoError(t, err)
	assert.Equal(t, "abc123", video.ID)
	assert.Equal(t, "Concurrency is not parallelism", video.Title)
	assert.Equal(t, "Rob Pike on Go concurrency", video.Description)
	assert.JSONEq(t, videoDoc, string(video.Raw()), "unknown fields must be passed through")
}

// TestGetObject_SendsCredentials verifies the index credentials are sent.
func TestGetObject_SendsCredentials(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "TESTAPP", req.Header.Get("X-Algolia-Application-Id"))
			assert.Equal(t, "test-key", req.Header.Get("X-Algolia-API-Key"))

			return httpmock.NewStringResponse(200, videoDoc), nil
		})

	client := newTestClient()
	_, err := client.GetObject(context.Background(), "abc123")

	require.NoError(t, err)
}

// TestGetObject_NotFound tests that a 404 maps to domain.ErrNotFound.
func TestGetObject_NotFound(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(404, `{"message":"ObjectID does not exist","status":404}`))

	client := newTestClient()
	video, err := client.GetObject(context.Background(), "abc123")

	require.Error(t, err)
	assert.Nil(t, video)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrUpstream))
}

// TestGetObject_HTTPErrors tests that every other status maps to domain.ErrUpstream.
func TestGetObject_HTTPErrors(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"400 Bad Request", 400},
		{"403 Forbidden", 403},
		{"429 Too Many Requests", 429},
		{"500 Internal Server Error", 500},
		{"503 Service Unavailable", 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder("GET", testEndpoint,
				httpmock.NewStringResponder(tt.statusCode, "Error"))

			client := newTestClient()
			video, err := client.GetObject(context.Background(), "abc123")

			require.Error(t, err)
			assert.Nil(t, video)
			assert.True(t, errors.Is(err, domain.ErrUpstream))
			assert.False(t, errors.Is(err, domain.ErrNotFound))
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.statusCode))
		})
	}
}

// TestGetObject_NoRetry verifies a failing lookup is attempted exactly once.
func TestGetObject_NoRetry(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(500, "Server Error"))

	client := newTestClient()
	_, err := client.GetObject(context.Background(), "abc123")

	require.Error(t, err)
	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET "+testEndpoint])
}

// TestGetObject_NetworkError tests transport failure handling.
func TestGetObject_NetworkError(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewErrorResponder(fmt.Errorf("network error: connection refused")))

	client := newTestClient()
	video, err := client.GetObject(context.Background(), "abc123")

	require.Error(t, err)
	assert.Nil(t, video)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "connection refused")
}

// TestGetObject_MalformedResponse tests that non-object bodies map to domain.ErrUpstream.
func TestGetObject_MalformedResponse(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name string
		body string
	}{
		{"truncated json", `{"objectID": "abc`},
		{"html page", `<html>oops</html>`},
		{"json array", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder("GET", testEndpoint,
				httpmock.NewStringResponder(200, tt.body))

			client := newTestClient()
			video, err := client.GetObject(context.Background(), "abc123")

			require.Error(t, err)
			assert.Nil(t, video)
			assert.True(t, errors.Is(err, domain.ErrUpstream))
			assert.True(t, errors.Is(err, ErrMalformedDocument))
		})
	}
}

// TestGetObject_ContextTimeout tests that a slow index is bounded by the caller context.
func TestGetObject_ContextTimeout(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		func(_ *http.Request) (*http.Response, error) {
			time.Sleep(200 * time.Millisecond)

			return httpmock.NewStringResponse(200, videoDoc), nil
		})

	client := newTestClient()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	video, err := client.GetObject(ctx, "abc123")

	require.Error(t, err)
	assert.Nil(t, video)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

// TestGetObject_CircuitBreakerOpens tests that the breaker fails fast after repeated failures.
func TestGetObject_CircuitBreakerOpens(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(500, "Internal Server Error"))

	client := newTestClient()

	for i := 0; i < 5; i++ {
		_, err := client.GetObject(context.Background(), "abc123")
		require.Error(t, err)
	}

	start := time.Now()
	_, err := client.GetObject(context.Background(), "abc123")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Less(t, elapsed.Milliseconds(), int64(100))
}

// TestGetObject_NotFoundDoesNotTripBreaker tests that missing videos are not failures.
func TestGetObject_NotFoundDoesNotTripBreaker(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(404, "Not Found"))

	client := newTestClient()

	for i := 0; i < 10; i++ {
		_, err := client.GetObject(context.Background(), "abc123")
		require.True(t, errors.Is(err, domain.ErrNotFound), "attempt %d: %v", i, err)
	}

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 10, info["GET "+testEndpoint])
}

func TestParseVideo_FallsBackToRequestedID(t *testing.T) {
	video, err := ParseVideo("xyz", []byte(`{"title":"no id"}`))

	require.NoError(t, err)
	assert.Equal(t, "xyz", video.ID)
	assert.Equal(t, "no id", video.Title)
	assert.Empty(t, video.Description)
}
