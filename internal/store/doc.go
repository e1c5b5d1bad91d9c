// Package store persists wiki pages in an on-disk bleve index.
//
// The document shape is fixed: page_id (keyword, stored, also the bleve
// document id), title (standard analyser, stored) and content (English
// stemming analyser, not stored). All writes go through a single WriteTxn
// backed by one bleve batch, so a run becomes visible entirely or not at all.
//
// A sibling lock file <location>.lock serialises processes: writers hold it
// exclusively for the lifetime of the Index, readers share it.
package store
