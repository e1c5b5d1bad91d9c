// Package search answers keyword queries against a committed wiki index.
//
// Queries are analysed by the same English stemming analyser as page content,
// matched against the content field only, and ranked by bleve's default
// scoring. Each Search opens its own read-only snapshot of the index.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
	"github.com/copetopi/wikisearch/internal/store"
)

const (
	// DefaultLimit is the number of hits returned when no limit is given.
	DefaultLimit = 10

	// minPrefixStem is the shortest stem that is also matched as a prefix.
	minPrefixStem = 4
	// prefixBoost weighs prefix matches below exact stem matches.
	prefixBoost = 0.3
)

// Hit is one ranked search result.
type Hit struct {
	Title  string  `json:"title"`
	PageID string  `json:"page_id"`
	Score  float64 `json:"score"`
}

// Config configures an Engine.
type Config struct {
	// MaxResults is the limit used when Search is called with limit <= 0.
	MaxResults int
	// ExpandStems also matches every query stem as a prefix of indexed stems,
	// so "architect" finds pages that only contain "architecture".
	ExpandStems bool
}

// Engine runs queries. It holds no index state between calls.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultLimit
	}
	return &Engine{cfg: cfg, logger: slog.Default()}
}

// WithLogger returns the engine with logger set.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Search returns at most limit hits for queryText, best first.
//
// A missing index yields IndexNotFoundError. A query without searchable terms
// (blank or only stop words) yields no hits and no error.
func (e *Engine) Search(ctx context.Context, location, queryText string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = e.cfg.MaxResults
	}

	idx, err := store.OpenReadOnly(ctx, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = idx.Close() }()

	if strings.TrimSpace(queryText) == "" {
		return []Hit{}, nil
	}

	terms, err := idx.ContentTerms(queryText)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		e.logger.Debug("search_no_terms", slog.String("query", queryText))
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(e.buildQuery(queryText, terms), limit, 0, false)
	req.Fields = []string{store.FieldTitle, store.FieldPageID}
	req.SortBy([]string{"-_score", "_id"})

	start := time.Now()
	res, err := idx.Search(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.New(apperrors.ErrCodeSearchFailed, "search failed", err).
			WithDetail("query", queryText)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{PageID: h.ID, Score: h.Score}
		if title, ok := h.Fields[store.FieldTitle].(string); ok {
			hit.Title = title
		}
		if id, ok := h.Fields[store.FieldPageID].(string); ok && id != "" {
			hit.PageID = id
		}
		hits = append(hits, hit)
	}

	e.logger.Debug("search_completed",
		slog.String("query", queryText),
		slog.Any("terms", terms),
		slog.Int("hits", len(hits)),
		slog.Uint64("total", res.Total),
		slog.Duration("took", time.Since(start)))
	return hits, nil
}

// buildQuery requires every stem of queryText to occur in content.
// Without stem expansion this is a match query with the AND operator, which
// analyses queryText with the content analyser. With expansion each distinct
// stem matches exactly or, at a lower boost, as a prefix of an indexed stem,
// and the per-stem alternatives are ANDed. Exact stem matches still rank first.
func (e *Engine) buildQuery(queryText string, terms []string) query.Query {
	if !e.cfg.ExpandStems {
		match := bleve.NewMatchQuery(queryText)
		match.SetField(store.FieldContent)
		match.SetOperator(query.MatchQueryOperatorAnd)
		return match
	}

	conjuncts := make([]query.Query, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		exact := bleve.NewTermQuery(term)
		exact.SetField(store.FieldContent)
		if len([]rune(term)) < minPrefixStem {
			conjuncts = append(conjuncts, exact)
			continue
		}

		prefix := bleve.NewPrefixQuery(term)
		prefix.SetField(store.FieldContent)
		prefix.SetBoost(prefixBoost)
		conjuncts = append(conjuncts, bleve.NewDisjunctionQuery(exact, prefix))
	}
	if len(conjuncts) == 1 {
		return conjuncts[0]
	}
	return bleve.NewConjunctionQuery(conjuncts...)
}
