// Package fts implements the embedded search engine: the video dataset is
// loaded into an in-memory SQLite database with an FTS5 index.
package fts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"devtube-server/internal/domain"
)

// DatasetName identifies the search dataset in logs.
const DatasetName = "search-dataset"

var (
	// ErrNotLoaded is returned by queries before the first successful load.
	ErrNotLoaded = errors.New("search dataset not loaded")

	// ErrInvalidDataset is returned when the dataset is neither an array of
	// videos nor an object with a "videos" array.
	ErrInvalidDataset = errors.New("invalid search dataset")
)

// DefaultMaxConns is the number of concurrent queries a snapshot serves.
const DefaultMaxConns = 4

// Config holds engine settings.
type Config struct {
	DatasetPath   string // JSON file with the video documents
	FeaturedLimit int    // max entries per aggregate
	MaxConns      int    // concurrent queries per snapshot
}

// snapshotSeq names the in-memory databases so snapshots never share one.
var snapshotSeq atomic.Uint64

// snapshot is one loaded dataset in a named shared-cache in-memory database.
// The database lives while keeper is open. inUse counts running queries;
// a replaced snapshot is closed once it drops to zero.
type snapshot struct {
	db     *sql.DB
	keeper *sql.Conn
	videos int
	inUse  sync.WaitGroup
}

func (s *snapshot) close() error {
	s.inUse.Wait()

	return errors.Join(s.keeper.Close(), s.db.Close())
}

// Engine implements domain.SearchEngine and domain.Reloader.
type Engine struct {
	path          string
	featuredLimit int
	maxConns      int
	logger        *zap.Logger

	mu      sync.RWMutex
	current *snapshot
}

// New creates an engine. Nothing is loaded until Reload is called.
func New(cfg Config, logger *zap.Logger) *Engine {
	limit := cfg.FeaturedLimit
	if limit <= 0 {
		limit = 20
	}
	conns := cfg.MaxConns
	if conns <= 0 {
		conns = DefaultMaxConns
	}

	return &Engine{
		path:          cfg.DatasetPath,
		featuredLimit: limit,
		maxConns:      conns,
		logger:        logger,
	}
}

// Name implements domain.Reloader.
func (e *Engine) Name() string {
	return DatasetName
}

// Ready reports whether a dataset has been loaded.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.current != nil
}

// Reload reads the dataset file and swaps it in. On error the previous
// snapshot keeps serving.
func (e *Engine) Reload(ctx context.Context) error {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("reading search dataset: %w", err)
	}

	return e.Load(ctx, data)
}

// Load indexes a dataset held in memory and swaps it in.
func (e *Engine) Load(ctx context.Context, data []byte) error {
	start := time.Now()

	snap, err := buildSnapshot(ctx, data, e.maxConns)
	if err != nil {
		return err
	}

	if old := e.swap(snap); old != nil {
		go func() {
			if err := old.close(); err != nil {
				e.logger.Warn("closing previous search snapshot failed", zap.Error(err))
			}
		}()
	}

	e.logger.Info("search dataset loaded",
		zap.String("path", e.path),
		zap.Int("videos", snap.videos),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// Close releases the current snapshot once its running queries finish.
func (e *Engine) Close() error {
	snap := e.swap(nil)
	if snap == nil {
		return nil
	}

	return snap.close()
}

func (e *Engine) swap(next *snapshot) *snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.current
	e.current = next

	return old
}

// acquire pins the current snapshot until release is called. Registration
// happens under the read lock, so a swapped-out snapshot gains no new users.
func (e *Engine) acquire() (snap *snapshot, release func(), err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.current == nil {
		return nil, nil, ErrNotLoaded
	}
	e.current.inUse.Add(1)

	return e.current, e.current.inUse.Done, nil
}

// Search returns every matching video document, ranked.
func (e *Engine) Search(ctx context.Context, query string, refinement json.RawMessage, sortOrder string) ([]domain.Hit, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	stmt, args := buildSearch(query, ParseRefinement(refinement), sortOrder)

	rows, err := snap.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}
	defer rows.Close()

	hits := []domain.Hit{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, domain.Hit(doc))
	}

	return hits, rows.Err()
}

// Tags lists the most used tags.
func (e *Engine) Tags(ctx context.Context) ([]domain.Facet, error) {
	return e.facets(ctx, tagFacets)
}

// Channels lists the channels with the most videos.
func (e *Engine) Channels(ctx context.Context) ([]domain.Facet, error) {
	return e.facets(ctx, channelFacets)
}

// Speakers lists the speakers with the most videos.
func (e *Engine) Speakers(ctx context.Context) ([]domain.Facet, error) {
	return e.facets(ctx, speakerFacets)
}

func (e *Engine) facets(ctx context.Context, stmt string) ([]domain.Facet, error) {
	snap, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := snap.db.QueryContext(ctx, stmt, e.featuredLimit)
	if err != nil {
		return nil, fmt.Errorf("listing facets: %w", err)
	}
	defer rows.Close()

	facets := []domain.Facet{}
	for rows.Next() {
		var f domain.Facet
		if err := rows.Scan(&f.Name, &f.Count); err != nil {
			return nil, fmt.Errorf("scanning facet: %w", err)
		}
		facets = append(facets, f)
	}

	return facets, rows.Err()
}

// buildSnapshot creates a fresh in-memory database and indexes data into it.
// Every pooled connection opens the same shared-cache database, so queries
// run side by side; the keeper connection is not part of the query pool.
func buildSnapshot(ctx context.Context, data []byte, maxConns int) (*snapshot, error) {
	videos, err := datasetVideos(data)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:devtube-search-%d?mode=memory&cache=shared", snapshotSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening search database: %w", err)
	}
	db.SetMaxOpenConns(maxConns + 1)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	keeper, err := db.Conn(ctx)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("opening search database: %w", err)
	}

	n, err := index(ctx, db, videos)
	if err != nil {
		keeper.Close()
		db.Close()

		return nil, err
	}

	return &snapshot{db: db, keeper: keeper, videos: n}, nil
}

// datasetVideos returns the video documents of a dataset.
func datasetVideos(data []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDataset)
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("videos")
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of videos", ErrInvalidDataset)
	}

	return root.Array(), nil
}

// index writes the documents into db in one transaction. Documents without
// an objectID are skipped.
func index(ctx context.Context, db *sql.DB, videos []gjson.Result) (int, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return 0, fmt.Errorf("creating search schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting index transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	videoStmt, err := tx.PrepareContext(ctx, insertVideo)
	if err != nil {
		return 0, err
	}
	defer videoStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, insertTag)
	if err != nil {
		return 0, err
	}
	defer tagStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, insertFTS)
	if err != nil {
		return 0, err
	}
	defer ftsStmt.Close()

	rowid := int64(0)
	for _, v := range videos {
		objectID := v.Get("objectID").String()
		if !v.IsObject() || objectID == "" {
			continue
		}
		rowid++

		speaker := v.Get("speaker.name").String()
		channel := v.Get("channelTitle").String()

		var tags []string
		v.Get("tags").ForEach(func(_, t gjson.Result) bool {
			if s := t.String(); s != "" {
				tags = append(tags, s)
			}

			return true
		})

		if _, err := videoStmt.ExecContext(ctx, rowid, objectID, speaker, channel,
			v.Get("satisfaction").Float(),
			v.Get("recordingDate").Int(),
			v.Get("duration").Int(),
			v.Get("views").Int(),
			v.Raw,
		); err != nil {
			return 0, fmt.Errorf("indexing video %s: %w", objectID, err)
		}

		for _, tag := range tags {
			if _, err := tagStmt.ExecContext(ctx, rowid, tag); err != nil {
				return 0, fmt.Errorf("indexing tags of %s: %w", objectID, err)
			}
		}

		if _, err := ftsStmt.ExecContext(ctx, rowid,
			v.Get("title").String(),
			v.Get("description").String(),
			speaker,
			channel,
			strings.Join(tags, " "),
		); err != nil {
			return 0, fmt.Errorf("indexing text of %s: %w", objectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing search index: %w", err)
	}

	return int(rowid), nil
}
