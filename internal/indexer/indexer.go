// Package indexer crawls a wiki and commits its pages to the search index.
//
// A run enumerates every global space, every page of each space and the body
// of each page, staging one document per page inside a single write
// transaction. Any failure aborts the whole run and nothing is committed.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
	"github.com/copetopi/wikisearch/internal/store"
	"github.com/copetopi/wikisearch/internal/wiki"
	"github.com/copetopi/wikisearch/pkg/version"
)

// Source enumerates and fetches wiki content. *wiki.Client implements it.
type Source interface {
	ListGlobalSpaces(ctx context.Context) ([]wiki.Space, error)
	ListPages(ctx context.Context, spaceKey string) ([]wiki.PageSummary, error)
	FetchContent(ctx context.Context, pageID string) (*wiki.PageContent, error)
}

var _ Source = (*wiki.Client)(nil)

// Config configures a run.
type Config struct {
	// Location is the index directory.
	Location string
	// StripMarkup indexes the visible text of a body instead of its raw markup.
	StripMarkup bool
}

// RunStats summarises a committed run.
type RunStats struct {
	// Spaces is the number of spaces enumerated.
	Spaces int
	// Pages is the number of distinct pages committed.
	Pages int
	// Stale is the number of indexed pages this run did not enumerate.
	Stale int
	// Total is the number of documents in the index after the commit.
	Total    uint64
	Duration time.Duration
}

// Indexer runs crawls into one index location.
type Indexer struct {
	src      Source
	cfg      Config
	progress func(Progress)
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithProgress registers a callback invoked synchronously as the run advances.
func WithProgress(fn func(Progress)) Option {
	return func(ix *Indexer) {
		ix.progress = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = l
	}
}

// New creates an Indexer reading from src.
func New(src Source, cfg Config, opts ...Option) (*Indexer, error) {
	if src == nil {
		return nil, apperrors.InternalError("indexer requires a source", nil)
	}
	if cfg.Location == "" {
		return nil, apperrors.ValidationError("index location must not be empty", nil)
	}

	ix := &Indexer{
		src:    src,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Run crawls the source and commits the result as one batch.
// On error the index keeps exactly the documents of the previous commit.
func (ix *Indexer) Run(ctx context.Context) (*RunStats, error) {
	started := ix.now()
	ix.logger.Info("crawl_started", slog.String("location", ix.cfg.Location))

	idx, err := store.OpenOrCreate(ctx, ix.cfg.Location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	seen := make(map[string]struct{})
	var spaces []wiki.Space

	err = idx.Update(ctx, func(txn *store.WriteTxn) error {
		var err error
		spaces, err = ix.src.ListGlobalSpaces(ctx)
		if err != nil {
			return fmt.Errorf("list spaces: %w", err)
		}
		ix.logger.Info("spaces_listed", slog.Int("count", len(spaces)))

		for n, space := range spaces {
			if err := ix.indexSpace(ctx, txn, space, n+1, len(spaces), seen); err != nil {
				return err
			}
		}

		ix.report(Progress{Stage: StageCommit, SpaceTotal: len(spaces), Current: txn.Staged()})
		return txn.SetRunRecord(store.RunRecord{
			StartedAt:  started.UTC(),
			FinishedAt: ix.now().UTC(),
			Spaces:     len(spaces),
			Pages:      txn.Staged(),
			Version:    version.Short(),
		})
	})
	if err != nil {
		ix.logger.Error("crawl_aborted", apperrors.FormatForLog(err)...)
		return nil, err
	}

	stats := &RunStats{
		Spaces:   len(spaces),
		Pages:    len(seen),
		Duration: ix.now().Sub(started),
	}
	ix.countStale(ctx, idx, seen, stats)

	ix.report(Progress{Stage: StageComplete, SpaceTotal: stats.Spaces, Current: stats.Pages})
	ix.logger.Info("crawl_committed",
		slog.Int("spaces", stats.Spaces),
		slog.Int("pages", stats.Pages),
		slog.Int("stale", stats.Stale),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (ix *Indexer) indexSpace(ctx context.Context, txn *store.WriteTxn, space wiki.Space, num, total int, seen map[string]struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ix.report(Progress{Stage: StageSpace, Space: space, SpaceNum: num, SpaceTotal: total})
	ix.logger.Info("space_indexing", slog.String("space", space.Key), slog.String("name", space.Name))

	pages, err := ix.src.ListPages(ctx, space.Key)
	if err != nil {
		return fmt.Errorf("list pages of space %s: %w", space.Key, err)
	}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := ix.src.FetchContent(ctx, page.ID)
		if err != nil {
			return fmt.Errorf("fetch page %s of space %s: %w", page.ID, space.Key, err)
		}

		body := content.RawBody
		if ix.cfg.StripMarkup {
			body = PlainText(body)
		}

		if _, dup := seen[page.ID]; dup {
			ix.logger.Warn("page_seen_twice", slog.String("page_id", page.ID), slog.String("space", space.Key))
		}
		if err := txn.AddDocument(store.Document{PageID: page.ID, Title: page.Title, Content: body}); err != nil {
			return err
		}
		seen[page.ID] = struct{}{}

		ix.report(Progress{
			Stage:      StagePage,
			Space:      space,
			SpaceNum:   num,
			SpaceTotal: total,
			Current:    i + 1,
			Total:      len(pages),
			Title:      page.Title,
		})
	}

	ix.logger.Debug("space_indexed", slog.String("space", space.Key), slog.Int("pages", len(pages)))
	return nil
}

// countStale fills Stale and Total. Stale documents are reported, never deleted.
func (ix *Indexer) countStale(ctx context.Context, idx *store.Index, seen map[string]struct{}, stats *RunStats) {
	ids, err := idx.DocIDs(ctx)
	if err != nil {
		ix.logger.Warn("stale_count_failed", slog.String("error", err.Error()))
		return
	}

	stats.Total = uint64(len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			stats.Stale++
		}
	}
	if stats.Stale > 0 {
		ix.logger.Warn("stale_documents",
			slog.Int("count", stats.Stale),
			slog.String("hint", "pages indexed earlier were not listed by this run"))
	}
}

func (ix *Indexer) report(p Progress) {
	if ix.progress != nil {
		ix.progress(p)
	}
}
