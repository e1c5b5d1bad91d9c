package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
)

// Index is an open on-disk index plus the process lock guarding it.
type Index struct {
	mu       sync.Mutex
	index    bleve.Index
	location string
	lock     *fileLock
	readOnly bool
	txn      *WriteTxn
	closed   bool
}

// Exists reports whether an index has been created at location.
func Exists(location string) bool {
	info, err := os.Stat(filepath.Join(location, "index_meta.json"))
	return err == nil && !info.IsDir()
}

// OpenOrCreate opens the index at location for writing, creating it if absent.
//
// The exclusive lock is taken without blocking and held until Close; if another
// process holds it the result is a write conflict. Documents of an existing
// index are preserved. An empty directory is replaced by a new index, any other
// non-index content at location is refused.
func OpenOrCreate(ctx context.Context, location string) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := newFileLock(location)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFilePermission, "cannot lock index location", err).
			WithDetail("location", location)
	}
	if !acquired {
		return nil, apperrors.WriteConflictError(location, nil)
	}

	idx, err := openOrCreate(location)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &Index{index: idx, location: location, lock: lock}, nil
}

func openOrCreate(location string) (bleve.Index, error) {
	if Exists(location) {
		idx, err := bleve.Open(location)
		if err != nil {
			return nil, corruptIndex(location, err)
		}
		slog.Debug("index_opened", slog.String("location", location))
		return idx, nil
	}

	info, err := os.Stat(location)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, apperrors.New(apperrors.ErrCodeFilePermission, "cannot inspect index location", err).
			WithDetail("location", location)
	case !info.IsDir():
		return nil, corruptIndex(location, fmt.Errorf("%s is a file", location))
	default:
		entries, err := os.ReadDir(location)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeFilePermission, "cannot read index location", err).
				WithDetail("location", location)
		}
		if len(entries) > 0 {
			return nil, corruptIndex(location, fmt.Errorf("%s is not empty and has no index_meta.json", location))
		}
		if err := os.Remove(location); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeFilePermission, "cannot replace empty index directory", err).
				WithDetail("location", location)
		}
	}

	im, err := NewIndexMapping()
	if err != nil {
		return nil, apperrors.InternalError("failed to build index mapping", err)
	}
	idx, err := bleve.New(location, im)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeIndexFailed, "failed to create index", err).
			WithDetail("location", location)
	}
	slog.Info("index_created", slog.String("location", location))
	return idx, nil
}

// OpenReadOnly opens an existing index for searching.
// A missing index is reported with IndexNotFoundError. While a writer holds the
// location the call fails with ERR_209_INDEX_BUSY.
func OpenReadOnly(ctx context.Context, location string) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !Exists(location) {
		return nil, apperrors.IndexNotFoundError(location)
	}

	lock := newFileLock(location)
	acquired, err := lock.TryRLock()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFilePermission, "cannot lock index location", err).
			WithDetail("location", location)
	}
	if !acquired {
		return nil, apperrors.New(apperrors.ErrCodeIndexBusy,
			fmt.Sprintf("index at %s is being rebuilt", location), nil).
			WithDetail("location", location).
			WithSuggestion("Try again when the running build has finished")
	}

	idx, err := bleve.OpenUsing(location, map[string]interface{}{"read_only": true})
	if err != nil {
		_ = lock.Unlock()
		return nil, corruptIndex(location, err)
	}

	return &Index{index: idx, location: location, lock: lock, readOnly: true}, nil
}

func corruptIndex(location string, cause error) error {
	return apperrors.New(apperrors.ErrCodeCorruptIndex,
		fmt.Sprintf("%s does not hold a readable index", location), cause).
		WithDetail("location", location).
		WithSuggestion("Remove the directory and run 'wikisearch build' again")
}

// Location returns the index directory.
func (i *Index) Location() string {
	return i.location
}

// DocCount returns the number of documents in the index.
func (i *Index) DocCount() (uint64, error) {
	idx, err := i.handle()
	if err != nil {
		return 0, err
	}
	return idx.DocCount()
}

// DocIDs returns the ids of all documents in the index, in no particular order.
func (i *Index) DocIDs(ctx context.Context) ([]string, error) {
	idx, err := i.handle()
	if err != nil {
		return nil, err
	}

	count, err := idx.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	req.Fields = []string{}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list document ids: %w", err)
	}

	ids := make([]string, len(res.Hits))
	for n, hit := range res.Hits {
		ids[n] = hit.ID
	}
	return ids, nil
}

// LastRun returns the run record of the last committed build, or nil if none.
func (i *Index) LastRun() (*RunRecord, error) {
	idx, err := i.handle()
	if err != nil {
		return nil, err
	}

	data, err := idx.GetInternal([]byte(RunRecordKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeCorruptIndex, "run record is not valid JSON", err)
	}
	return &rec, nil
}

// Search runs req against the current snapshot of the index.
func (i *Index) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	idx, err := i.handle()
	if err != nil {
		return nil, err
	}
	return idx.SearchInContext(ctx, req)
}

// ContentTerms returns the terms the content analyser produces for text,
// in order. Queries use it to see text exactly as indexed content is seen.
func (i *Index) ContentTerms(text string) ([]string, error) {
	idx, err := i.handle()
	if err != nil {
		return nil, err
	}

	analyzer := idx.Mapping().AnalyzerNamed(ContentAnalyzer)
	if analyzer == nil {
		return nil, apperrors.InternalError("content analyser "+ContentAnalyzer+" is not registered", nil)
	}

	tokens := analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}
	return terms, nil
}

// Close rolls back an open transaction, closes the index and releases the lock.
// Close is idempotent.
func (i *Index) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	txn := i.txn
	i.mu.Unlock()

	if txn != nil {
		_ = txn.Rollback()
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true

	err := i.index.Close()
	if uerr := i.lock.Unlock(); uerr != nil {
		err = stderrors.Join(err, uerr)
	}
	return err
}

func (i *Index) handle() (bleve.Index, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, apperrors.InternalError("index is closed", nil).WithDetail("location", i.location)
	}
	return i.index, nil
}
