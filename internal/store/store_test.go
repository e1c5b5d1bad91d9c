package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
)

func tempLocation(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "wiki_index")
}

func openWriter(t *testing.T, location string) *Index {
	t.Helper()
	idx, err := OpenOrCreate(context.Background(), location)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func commitDocs(t *testing.T, idx *Index, docs ...Document) {
	t.Helper()
	err := idx.Update(context.Background(), func(txn *WriteTxn) error {
		for _, d := range docs {
			if err := txn.AddDocument(d); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func storedTitle(t *testing.T, idx *Index, pageID string) string {
	t.Helper()
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{pageID}))
	req.Fields = []string{FieldTitle}
	res, err := idx.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	title, _ := res.Hits[0].Fields[FieldTitle].(string)
	return title
}

func TestNewIndexMapping_FixedShape(t *testing.T) {
	im, err := NewIndexMapping()
	require.NoError(t, err)

	assert.False(t, im.IndexDynamic)
	assert.False(t, im.StoreDynamic)
	require.NotNil(t, im.DefaultMapping)
	assert.False(t, im.DefaultMapping.Dynamic)

	fields := map[string]struct {
		analyzer string
		store    bool
	}{
		FieldPageID:  {PageIDAnalyzer, true},
		FieldTitle:   {TitleAnalyzer, true},
		FieldContent: {ContentAnalyzer, false},
	}
	for name, want := range fields {
		prop, ok := im.DefaultMapping.Properties[name]
		require.True(t, ok, name)
		require.Len(t, prop.Fields, 1, name)
		assert.Equal(t, want.analyzer, prop.Fields[0].Analyzer, name)
		assert.Equal(t, want.store, prop.Fields[0].Store, name)
		assert.False(t, prop.Fields[0].IncludeInAll, name)
	}
}

func TestOpenOrCreate_CreatesEmptyIndex(t *testing.T) {
	// Given: a location that does not exist
	location := tempLocation(t)
	assert.False(t, Exists(location))

	// When: opening it
	idx := openWriter(t, location)

	// Then: an empty, valid index exists
	assert.True(t, Exists(location))
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, location, idx.Location())
}

func TestOpenOrCreate_ReopenPreservesDocuments(t *testing.T) {
	// Given: an index with two committed documents
	location := tempLocation(t)
	idx, err := OpenOrCreate(context.Background(), location)
	require.NoError(t, err)
	commitDocs(t, idx,
		Document{PageID: "1", Title: "Intro", Content: "graph algorithms overview"},
		Document{PageID: "2", Title: "Search", Content: "indexing and ranking"},
	)
	require.NoError(t, idx.Close())

	// When: reopening the location
	reopened := openWriter(t, location)

	// Then: both documents are still there
	count, err := reopened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	assert.Equal(t, "Intro", storedTitle(t, reopened, "1"))
}

func TestOpenOrCreate_ReplacesEmptyDirectory(t *testing.T) {
	location := tempLocation(t)
	require.NoError(t, os.MkdirAll(location, 0o755))

	idx := openWriter(t, location)

	assert.True(t, Exists(location))
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpenOrCreate_RefusesForeignDirectory(t *testing.T) {
	// Given: a directory with unrelated content
	location := tempLocation(t)
	require.NoError(t, os.MkdirAll(location, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(location, "notes.txt"), []byte("keep me"), 0o644))

	// When: opening it as an index
	_, err := OpenOrCreate(context.Background(), location)

	// Then: it is refused and the content is untouched
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCorruptIndex, apperrors.GetCode(err))
	assert.FileExists(t, filepath.Join(location, "notes.txt"))

	// And: the lock was released
	_, err = OpenOrCreate(context.Background(), location)
	assert.Equal(t, apperrors.ErrCodeCorruptIndex, apperrors.GetCode(err))
}

func TestOpenOrCreate_SecondWriterConflicts(t *testing.T) {
	// Given: a writer holding the location
	location := tempLocation(t)
	first, err := OpenOrCreate(context.Background(), location)
	require.NoError(t, err)

	// When: a second writer opens the same location
	_, err = OpenOrCreate(context.Background(), location)

	// Then: it fails fast with a write conflict
	require.Error(t, err)
	assert.True(t, apperrors.IsWriteConflict(err))

	// And: once the first closes, the location is free again
	require.NoError(t, first.Close())
	second := openWriter(t, location)
	assert.NotNil(t, second)
}

func TestOpenOrCreate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OpenOrCreate(ctx, tempLocation(t))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteTxn_UpsertKeepsLatest(t *testing.T) {
	// Given: an index where page 1 was committed once
	idx := openWriter(t, tempLocation(t))
	commitDocs(t, idx, Document{PageID: "1", Title: "Old", Content: "old words"})

	// When: the same id is written twice more, once within a single transaction
	commitDocs(t, idx,
		Document{PageID: "1", Title: "Middle", Content: "middle words"},
		Document{PageID: "1", Title: "New", Content: "new words"},
	)

	// Then: exactly one document reflecting the latest write
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.Equal(t, "New", storedTitle(t, idx, "1"))
}

func TestWriteTxn_StagedCountsDistinctIDs(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	txn, err := idx.BeginWrite()
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	require.NoError(t, txn.AddDocument(Document{PageID: "1", Title: "a"}))
	require.NoError(t, txn.AddDocument(Document{PageID: "1", Title: "b"}))
	require.NoError(t, txn.AddDocument(Document{PageID: "2", Title: "c"}))

	assert.Equal(t, 2, txn.Staged())
}

func TestWriteTxn_RollbackDiscardsEverything(t *testing.T) {
	// Given: a committed document and a transaction staging more
	idx := openWriter(t, tempLocation(t))
	commitDocs(t, idx, Document{PageID: "1", Title: "Kept"})

	txn, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, txn.AddDocument(Document{PageID: "1", Title: "Overwritten?"}))
	require.NoError(t, txn.AddDocument(Document{PageID: "2", Title: "Added?"}))
	require.NoError(t, txn.SetRunRecord(RunRecord{Pages: 2}))

	// When: rolling back
	require.NoError(t, txn.Rollback())

	// Then: the index is exactly as before
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.Equal(t, "Kept", storedTitle(t, idx, "1"))
	rec, err := idx.LastRun()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestWriteTxn_RollbackAfterCommitIsNoop(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	txn, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, txn.AddDocument(Document{PageID: "1", Title: "Stays"}))
	require.NoError(t, txn.Commit())

	assert.NoError(t, txn.Rollback())
	assert.Error(t, txn.Commit())
	assert.Error(t, txn.AddDocument(Document{PageID: "2"}))

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestWriteTxn_RejectsEmptyPageID(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	txn, err := idx.BeginWrite()
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	err = txn.AddDocument(Document{Title: "No id"})

	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestBeginWrite_OneTransactionAtATime(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	first, err := idx.BeginWrite()
	require.NoError(t, err)

	_, err = idx.BeginWrite()
	assert.True(t, apperrors.IsWriteConflict(err))

	require.NoError(t, first.Rollback())
	second, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, second.Rollback())
}

func TestUpdate_ErrorRollsBack(t *testing.T) {
	// Given: a transaction function that stages a document then fails
	idx := openWriter(t, tempLocation(t))
	boom := apperrors.TransportError(apperrors.ErrCodeHTTPStatus, "fetch failed", nil)

	// When: running it
	err := idx.Update(context.Background(), func(txn *WriteTxn) error {
		require.NoError(t, txn.AddDocument(Document{PageID: "1", Title: "Partial"}))
		return boom
	})

	// Then: the error surfaces and nothing is visible
	assert.ErrorIs(t, err, boom)
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	// And: the write slot was released
	commitDocs(t, idx, Document{PageID: "2", Title: "Later"})
}

func TestUpdate_PanicRollsBack(t *testing.T) {
	idx := openWriter(t, tempLocation(t))

	assert.Panics(t, func() {
		_ = idx.Update(context.Background(), func(txn *WriteTxn) error {
			_ = txn.AddDocument(Document{PageID: "1", Title: "Doomed"})
			panic("staging exploded")
		})
	})

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)
	commitDocs(t, idx, Document{PageID: "2", Title: "Recovered"})
}

func TestUpdate_CancelledContextRollsBack(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	ctx, cancel := context.WithCancel(context.Background())

	err := idx.Update(ctx, func(txn *WriteTxn) error {
		cancel()
		return txn.AddDocument(Document{PageID: "1", Title: "Cancelled"})
	})

	assert.ErrorIs(t, err, context.Canceled)
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunRecord_CommittedWithDocuments(t *testing.T) {
	// Given: a run record staged with documents
	location := tempLocation(t)
	idx, err := OpenOrCreate(context.Background(), location)
	require.NoError(t, err)
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	want := RunRecord{StartedAt: started, FinishedAt: started.Add(time.Minute), Spaces: 1, Pages: 1, Version: "test"}

	err = idx.Update(context.Background(), func(txn *WriteTxn) error {
		if err := txn.AddDocument(Document{PageID: "1", Title: "T"}); err != nil {
			return err
		}
		return txn.SetRunRecord(want)
	})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// When: reading it back through a reader
	reader, err := OpenReadOnly(context.Background(), location)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()
	got, err := reader.LastRun()

	// Then: it round-trips
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, want.Pages, got.Pages)
	assert.Equal(t, "test", got.Version)
}

func TestDocIDs_ListsAllDocuments(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	commitDocs(t, idx,
		Document{PageID: "b", Title: "B"},
		Document{PageID: "a", Title: "A"},
		Document{PageID: "c", Title: "C"},
	)

	ids, err := idx.DocIDs(context.Background())
	require.NoError(t, err)
	sort.Strings(ids)

	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestContent_IsNotRetrievable(t *testing.T) {
	idx := openWriter(t, tempLocation(t))
	commitDocs(t, idx, Document{PageID: "1", Title: "Intro", Content: "graph algorithms overview"})

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Fields = []string{"*"}
	res, err := idx.Search(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Hits, 1)
	assert.Equal(t, "1", res.Hits[0].Fields[FieldPageID])
	assert.Equal(t, "Intro", res.Hits[0].Fields[FieldTitle])
	assert.NotContains(t, res.Hits[0].Fields, FieldContent)
}

func TestContentTerms_StemsLikeIndexedContent(t *testing.T) {
	idx := openWriter(t, tempLocation(t))

	terms, err := idx.ContentTerms("The Architecture of ranking Algorithms")

	require.NoError(t, err)
	assert.Equal(t, []string{"architectur", "rank", "algorithm"}, terms)
}

func TestOpenReadOnly_MissingIndex(t *testing.T) {
	_, err := OpenReadOnly(context.Background(), tempLocation(t))

	require.Error(t, err)
	assert.True(t, apperrors.IsIndexNotFound(err))
	assert.False(t, apperrors.IsFatal(err))
}

func TestOpenReadOnly_BusyWhileWriterOpen(t *testing.T) {
	// Given: a writer holding the location
	location := tempLocation(t)
	openWriter(t, location)

	// When: a reader opens it
	_, err := OpenReadOnly(context.Background(), location)

	// Then: the reader is told to retry later
	assert.Equal(t, apperrors.ErrCodeIndexBusy, apperrors.GetCode(err))
	assert.False(t, apperrors.IsFatal(err))
}

func TestOpenReadOnly_ReadersShareAndBlockWriters(t *testing.T) {
	// Given: an existing index
	location := tempLocation(t)
	w, err := OpenOrCreate(context.Background(), location)
	require.NoError(t, err)
	commitDocs(t, w, Document{PageID: "1", Title: "Intro"})
	require.NoError(t, w.Close())

	// When: two readers open it
	r1, err := OpenReadOnly(context.Background(), location)
	require.NoError(t, err)
	defer func() { _ = r1.Close() }()
	r2, err := OpenReadOnly(context.Background(), location)
	require.NoError(t, err)
	defer func() { _ = r2.Close() }()

	// Then: both read, neither can write, and a writer is refused
	count, err := r2.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	_, err = r1.BeginWrite()
	assert.Error(t, err)

	_, err = OpenOrCreate(context.Background(), location)
	assert.True(t, apperrors.IsWriteConflict(err))
}

func TestIndex_CloseIsIdempotent(t *testing.T) {
	idx, err := OpenOrCreate(context.Background(), tempLocation(t))
	require.NoError(t, err)
	txn, err := idx.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, txn.AddDocument(Document{PageID: "1"}))

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	_, err = idx.DocCount()
	assert.Error(t, err)
	assert.Error(t, txn.Commit())
}
