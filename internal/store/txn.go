package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
)

// WriteTxn stages documents for one atomic commit.
// Nothing staged is visible to searches until Commit returns nil.
type WriteTxn struct {
	index  *Index
	batch  *bleve.Batch
	staged map[string]struct{}
	done   bool
}

// BeginWrite starts the write transaction of this Index.
// Only one transaction may be open at a time.
func (i *Index) BeginWrite() (*WriteTxn, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch {
	case i.closed:
		return nil, apperrors.InternalError("index is closed", nil).WithDetail("location", i.location)
	case i.readOnly:
		return nil, apperrors.InternalError("index was opened read-only", nil).WithDetail("location", i.location)
	case i.txn != nil:
		return nil, apperrors.WriteConflictError(i.location, fmt.Errorf("a write transaction is already open"))
	}

	i.txn = &WriteTxn{
		index:  i,
		batch:  i.index.NewBatch(),
		staged: make(map[string]struct{}),
	}
	return i.txn, nil
}

// AddDocument stages an upsert of doc keyed by its PageID.
// Staging the same PageID twice keeps the later document.
func (t *WriteTxn) AddDocument(doc Document) error {
	if t.done {
		return errTxnFinished
	}
	if doc.PageID == "" {
		return apperrors.ValidationError("document has an empty page_id", nil).
			WithDetail("title", doc.Title)
	}

	if err := t.batch.Index(doc.PageID, doc); err != nil {
		return apperrors.New(apperrors.ErrCodeIndexFailed,
			fmt.Sprintf("failed to stage page %s", doc.PageID), err)
	}
	t.staged[doc.PageID] = struct{}{}
	return nil
}

// SetRunRecord stages rec to be stored with the documents.
func (t *WriteTxn) SetRunRecord(rec RunRecord) error {
	if t.done {
		return errTxnFinished
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return apperrors.InternalError("failed to encode run record", err)
	}
	t.batch.SetInternal([]byte(RunRecordKey), data)
	return nil
}

// Staged returns the number of distinct page ids staged so far.
func (t *WriteTxn) Staged() int {
	return len(t.staged)
}

// Commit applies everything staged as one batch and ends the transaction.
// The transaction is over even if Commit fails; nothing of a failed batch is visible.
func (t *WriteTxn) Commit() error {
	if t.done {
		return errTxnFinished
	}
	defer t.finish()

	if err := t.index.index.Batch(t.batch); err != nil {
		return apperrors.New(apperrors.ErrCodeIndexFailed, "failed to commit index batch", err).
			WithDetail("location", t.index.location).
			WithDetail("documents", fmt.Sprint(len(t.staged)))
	}
	return nil
}

// Rollback discards everything staged. It is a no-op after Commit, so
// defer txn.Rollback() is safe on every path.
func (t *WriteTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.batch.Reset()
	t.finish()
	return nil
}

func (t *WriteTxn) finish() {
	t.done = true
	t.staged = nil
	t.index.mu.Lock()
	if t.index.txn == t {
		t.index.txn = nil
	}
	t.index.mu.Unlock()
}

// Update runs fn inside a write transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error, panics, or ctx is done.
func (i *Index) Update(ctx context.Context, fn func(*WriteTxn) error) error {
	txn, err := i.BeginWrite()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = txn.Rollback()
			panic(r)
		}
	}()

	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

var errTxnFinished = apperrors.InternalError("write transaction already finished", nil)
