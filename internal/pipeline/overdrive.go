package pipeline

import "context"

// ScoredID is one re-ranked note id returned by an Overdrive implementation.
type ScoredID struct {
	NoteID string
	Score  float64
}

// Overdrive is the optional external re-ranking collaborator a pipeline
// run may call after the base ranker has produced its ordered list.
// There is no bundled implementation: it is a pure extension point
// (spec.md Open Question decision, see SPEC_FULL.md). An id Overdrive does
// not return keeps its pre-existing score and stays in the result.
type Overdrive interface {
	Name() string
	ReRank(ctx context.Context, viewerID string, candidateIDs []string, limit int) ([]ScoredID, error)
}
