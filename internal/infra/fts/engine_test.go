package fts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"devtube-server/internal/domain"
)

const testDataset = `[
  {
    "objectID": "v1",
    "title": "Concurrency is not parallelism",
    "description": "Rob Pike explains Go concurrency",
    "speaker": {"name": "Rob Pike"},
    "channelTitle": "Heroku",
    "tags": ["go", "concurrency"],
    "satisfaction": 97,
    "recordingDate": 1350000000,
    "duration": 1859,
    "views": 500000
  },
  {
    "objectID": "v2",
    "title": "Understanding channels",
    "description": "Kavya Joshi on the runtime",
    "speaker": {"name": "Kavya Joshi"},
    "channelTitle": "GopherCon",
    "tags": ["go", "runtime"],
    "satisfaction": 99,
    "recordingDate": 1500000000,
    "duration": 1500,
    "views": 120000
  },
  {
    "objectID": "v3",
    "title": "Simple made easy",
    "description": "Rich Hickey on simplicity",
    "speaker": {"name": "Rich Hickey"},
    "channelTitle": "InfoQ",
    "tags": ["clojure", "design"],
    "satisfaction": 98,
    "recordingDate": 1320000000,
    "duration": 3660,
    "views": 900000
  },
  {
    "objectID": "v4",
    "title": "Go proverbs",
    "description": "Rob Pike lists the Go proverbs",
    "speaker": {"name": "Rob Pike"},
    "channelTitle": "GopherCon",
    "tags": ["go"],
    "satisfaction": 95,
    "recordingDate": 1448000000,
    "duration": 1200,
    "views": 300000
  },
  {"title": "no id, skipped"}
]`

func newLoadedEngine(t *testing.T) *Engine {
	t.Helper()

	e := New(Config{FeaturedLimit: 10}, zap.NewNop())
	require.NoError(t, e.Load(context.Background(), []byte(testDataset)))
	t.Cleanup(func() { e.Close() })

	return e
}

func ids(t *testing.T, hits []domain.Hit) []string {
	t.Helper()

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = gjson.GetBytes(h, "objectID").String()
	}

	return out
}

func TestSearch_NotLoaded(t *testing.T) {
	e := New(Config{}, zap.NewNop())

	_, err := e.Search(context.Background(), "go", nil, "")
	require.ErrorIs(t, err, ErrNotLoaded)

	_, err = e.Tags(context.Background())
	require.ErrorIs(t, err, ErrNotLoaded)
	assert.False(t, e.Ready())
}

func TestSearch_EmptyQueryReturnsEverythingBySatisfaction(t *testing.T) {
	e := newLoadedEngine(t)

	hits, err := e.Search(context.Background(), "", nil, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v3", "v1", "v4"}, ids(t, hits))
}

func TestSearch_HitsAreOriginalDocuments(t *testing.T) {
	e := newLoadedEngine(t)

	hits, err := e.Search(context.Background(), "hickey", nil, "")

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Simple made easy", gjson.GetBytes(hits[0], "title").String())
	assert.Equal(t, "InfoQ", gjson.GetBytes(hits[0], "channelTitle").String())
}

func TestSearch_PrefixMatching(t *testing.T) {
	e := newLoadedEngine(t)

	hits, err := e.Search(context.Background(), "concurr", nil, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, ids(t, hits))
}

func TestSearch_AllWordsMustMatch(t *testing.T) {
	e := newLoadedEngine(t)

	hits, err := e.Search(context.Background(), "rob proverbs", nil, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"v4"}, ids(t, hits))
}

func TestSearch_OperatorsAreSanitized(t *testing.T) {
	e := newLoadedEngine(t)

	for _, q := range []string{`"go`, `go*`, `(go) OR`, `title:go`, `-go`, `!!!`} {
		_, err := e.Search(context.Background(), q, nil, "")
		assert.NoError(t, err, "query %q", q)
	}
}

func TestSearch_SortOrders(t *testing.T) {
	e := newLoadedEngine(t)

	tests := []struct {
		sortOrder string
		want      []string
	}{
		{SortNewest, []string{"v2", "v4", "v1", "v3"}},
		{SortSatisfaction, []string{"v2", "v3", "v1", "v4"}},
		{SortViews, []string{"v3", "v1", "v4", "v2"}},
		{SortDuration, []string{"v3", "v1", "v2", "v4"}},
	}

	for _, tt := range tests {
		t.Run(tt.sortOrder, func(t *testing.T) {
			hits, err := e.Search(context.Background(), "", nil, tt.sortOrder)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, hits))
		})
	}
}

func TestSearch_Refinement(t *testing.T) {
	e := newLoadedEngine(t)

	tests := []struct {
		name       string
		query      string
		refinement string
		want       []string
	}{
		{"by tag", "", `{"tags":["runtime"]}`, []string{"v2"}},
		{"all tags must match", "", `{"tags":["go","concurrency"]}`, []string{"v1"}},
		{"by speaker", "", `{"speaker":"Rob Pike"}`, []string{"v1", "v4"}},
		{"by channel", "", `{"channel":"GopherCon"}`, []string{"v2", "v4"}},
		{"combined with query", "proverbs", `{"speaker":"Rob Pike"}`, []string{"v4"}},
		{"malformed refinement is ignored", "", `{"tags":`, []string{"v2", "v3", "v1", "v4"}},
		{"non-object refinement is ignored", "", `"go"`, []string{"v2", "v3", "v1", "v4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := e.Search(context.Background(), tt.query, json.RawMessage(tt.refinement), "")

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, hits))
		})
	}
}

func TestSearch_NoMatchesIsEmptyNotNil(t *testing.T) {
	e := newLoadedEngine(t)

	hits, err := e.Search(context.Background(), "haskell", nil, "")

	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestFacets(t *testing.T) {
	e := newLoadedEngine(t)
	ctx := context.Background()

	tags, err := e.Tags(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	assert.Equal(t, domain.Facet{Name: "go", Count: 3}, tags[0])

	channels, err := e.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Facet{
		{Name: "GopherCon", Count: 2},
		{Name: "Heroku", Count: 1},
		{Name: "InfoQ", Count: 1},
	}, channels)

	speakers, err := e.Speakers(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Facet{Name: "Rob Pike", Count: 2}, speakers[0])
	assert.Len(t, speakers, 3)
}

func TestFacets_Limit(t *testing.T) {
	e := New(Config{FeaturedLimit: 1}, zap.NewNop())
	require.NoError(t, e.Load(context.Background(), []byte(testDataset)))
	defer e.Close()

	tags, err := e.Tags(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Facet{{Name: "go", Count: 3}}, tags)
}

func TestLoad_ObjectWithVideosArray(t *testing.T) {
	e := New(Config{}, zap.NewNop())
	defer e.Close()

	err := e.Load(context.Background(), []byte(`{"videos":[{"objectID":"x","title":"Wrapped"}]}`))
	require.NoError(t, err)

	hits, err := e.Search(context.Background(), "wrapped", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(t, hits))
}

func TestLoad_InvalidDatasetKeepsPreviousSnapshot(t *testing.T) {
	e := newLoadedEngine(t)

	for _, data := range []string{`not json`, `{"videos":{}}`, `42`} {
		err := e.Load(context.Background(), []byte(data))
		require.ErrorIs(t, err, ErrInvalidDataset, "dataset %q", data)
	}

	hits, err := e.Search(context.Background(), "", nil, "")
	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestReload_SwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.json")
	require.NoError(t, os.WriteFile(path, []byte(testDataset), 0o600))

	e := New(Config{DatasetPath: path}, zap.NewNop())
	defer e.Close()

	assert.Equal(t, DatasetName, e.Name())
	require.NoError(t, e.Reload(context.Background()))
	assert.True(t, e.Ready())

	require.NoError(t, os.WriteFile(path, []byte(`[{"objectID":"only","title":"Fresh"}]`), 0o600))
	require.NoError(t, e.Reload(context.Background()))

	hits, err := e.Search(context.Background(), "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, ids(t, hits))
}

func TestReload_MissingFile(t *testing.T) {
	e := New(Config{DatasetPath: filepath.Join(t.TempDir(), "absent.json")}, zap.NewNop())

	err := e.Reload(context.Background())

	require.Error(t, err)
	assert.False(t, e.Ready())
}

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"go", `"go"*`},
		{"rob  pike", `"rob"* "pike"*`},
		{`"quoted" (x)`, `"quoted"* "x"*`},
		{"***", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchExpression(tt.in), "input %q", tt.in)
	}
}

func TestSearch_RunsAlongsideAnOpenQuery(t *testing.T) {
	e := newLoadedEngine(t)

	snap, release, err := e.acquire()
	require.NoError(t, err)
	defer release()

	// Hold a connection with an unfinished result set.
	rows, err := snap.db.QueryContext(context.Background(), "SELECT doc FROM videos")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hits, err := e.Search(ctx, "go", nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	tags, err := e.Tags(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tags)
}

func TestLoad_ReplacedSnapshotWaitsForRunningQueries(t *testing.T) {
	e := newLoadedEngine(t)

	old, release, err := e.acquire()
	require.NoError(t, err)

	require.NoError(t, e.Load(context.Background(), []byte(testDataset)))

	// The replaced snapshot stays usable until its last user lets go.
	var n int
	require.NoError(t, old.db.QueryRowContext(context.Background(), "SELECT count(*) FROM videos").Scan(&n))
	assert.Equal(t, 4, n)

	release()

	assert.Eventually(t, func() bool {
		return old.db.PingContext(context.Background()) != nil
	}, 2*time.Second, 10*time.Millisecond, "replaced snapshot should close after release")
}

func TestSearch_NoErrorsWhileReloading(t *testing.T) {
	e := newLoadedEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		wg       sync.WaitGroup
		failures atomic.Int32
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				hits, err := e.Search(ctx, "go", nil, "")
				if ctx.Err() != nil {
					return
				}
				if err != nil || len(hits) == 0 {
					failures.Add(1)
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, e.Load(context.Background(), []byte(testDataset)))
	}
	cancel()
	wg.Wait()

	assert.Zero(t, failures.Load())
}

func TestClose_WaitsForRunningQueries(t *testing.T) {
	e := New(Config{}, zap.NewNop())
	require.NoError(t, e.Load(context.Background(), []byte(testDataset)))

	_, release, err := e.acquire()
	require.NoError(t, err)

	closed := make(chan error, 1)
	go func() { closed <- e.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while a query was running")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	require.NoError(t, <-closed)
	assert.False(t, e.Ready())
}
