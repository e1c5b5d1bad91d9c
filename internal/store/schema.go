package store

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field names of an indexed page.
const (
	FieldPageID  = "page_id"
	FieldTitle   = "title"
	FieldContent = "content"
)

// Analysers per field. ContentAnalyzer is also used to parse queries.
const (
	PageIDAnalyzer  = keyword.Name
	TitleAnalyzer   = standard.Name
	ContentAnalyzer = en.AnalyzerName
)

// RunRecordKey is the internal key holding the last committed RunRecord.
const RunRecordKey = "wikisearch:last_run"

// Document is one indexed wiki page. PageID is the uniqueness key.
type Document struct {
	PageID  string `json:"page_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RunRecord describes the crawl that produced the current index contents.
type RunRecord struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Spaces     int       `json:"spaces"`
	Pages      int       `json:"pages"`
	Version    string    `json:"version"`
}

// NewIndexMapping builds the fixed index mapping.
// Only the three declared fields are indexed; there is no _all field and
// unknown fields are neither indexed nor stored.
func NewIndexMapping() (*mapping.IndexMappingImpl, error) {
	pageID := bleve.NewKeywordFieldMapping()
	pageID.Analyzer = PageIDAnalyzer
	pageID.Store = true
	pageID.IncludeInAll = false
	pageID.IncludeTermVectors = false

	title := bleve.NewTextFieldMapping()
	title.Analyzer = TitleAnalyzer
	title.Store = true
	title.IncludeInAll = false

	content := bleve.NewTextFieldMapping()
	content.Analyzer = ContentAnalyzer
	content.Store = false
	content.IncludeInAll = false
	content.DocValues = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(FieldPageID, pageID)
	doc.AddFieldMappingsAt(FieldTitle, title)
	doc.AddFieldMappingsAt(FieldContent, content)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = ContentAnalyzer
	im.IndexDynamic = false
	im.StoreDynamic = false
	im.DocValuesDynamic = false

	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index mapping: %w", err)
	}
	return im, nil
}
