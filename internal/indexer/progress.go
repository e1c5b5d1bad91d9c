package indexer

import "github.com/copetopi/wikisearch/internal/wiki"

// Stage is a step of a run.
type Stage int

const (
	// StageSpace marks the start of a space.
	StageSpace Stage = iota
	// StagePage marks a page staged for commit.
	StagePage
	// StageCommit marks the start of the commit.
	StageCommit
	// StageComplete marks a committed run.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageSpace:
		return "Space"
	case StagePage:
		return "Page"
	case StageCommit:
		return "Commit"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Progress is a progress update of a run.
type Progress struct {
	Stage Stage
	Space wiki.Space
	// SpaceNum is the 1-based position of Space among SpaceTotal spaces.
	SpaceNum   int
	SpaceTotal int
	// Current and Total count pages: within the space for StagePage,
	// staged in the whole run for StageCommit and StageComplete.
	Current int
	Total   int
	Title   string
}
