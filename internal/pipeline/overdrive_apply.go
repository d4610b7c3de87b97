package pipeline

import (
	"context"

	"github.com/ritik/timeline-core/internal/models"
)

// applyOverdrive hands the capped id list to the external re-ranker and
// rebuilds the ordered result from its response. An id Overdrive does
// not return keeps its pre-existing score and stays in the result
// (spec.md Open Question decision, see SPEC_FULL.md); Overdrive may only
// reorder and rescore, never introduce ids the base pipeline did not
// already select.
func (p *Pipeline) applyOverdrive(ctx context.Context, viewerID string, items []models.RankedItem) ([]models.RankedItem, error) {
	ids := make([]string, len(items))
	byID := make(map[string]models.RankedItem, len(items))
	for i, it := range items {
		ids[i] = it.Note.NoteID
		byID[it.Note.NoteID] = it
	}

	reranked, err := p.overdrive.ReRank(ctx, viewerID, ids, len(ids))
	if err != nil {
		return items, err
	}

	returned := make(map[string]struct{}, len(reranked))
	out := make([]models.RankedItem, 0, len(items))
	for _, sc := range reranked {
		it, ok := byID[sc.NoteID]
		if !ok {
			continue // Overdrive must not introduce ids outside the base result
		}
		it.FinalScore = sc.Score
		it.InjectionReason = "overdrive:" + p.overdrive.Name()
		out = append(out, it)
		returned[sc.NoteID] = struct{}{}
	}

	for _, it := range items {
		if _, ok := returned[it.Note.NoteID]; !ok {
			out = append(out, it)
		}
	}

	return out, nil
}
