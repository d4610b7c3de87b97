package ranker

import (
	"context"

	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
)

// affinityDelta is the per-action affinity increment applied by
// RecordEngagement (spec.md §4.3: like +0.05, reshare +0.10, reply
// +0.15, follow +0.30), each capped at 1 per viewer-author pair.
var affinityDelta = map[models.EngagementAction]float64{
	models.ActionLike:    0.05,
	models.ActionReshare: 0.10,
	models.ActionReply:   0.15,
	models.ActionFollow:  0.30,
}

const (
	affinityCap          = 1.0
	globalAuthorScoreCap = 1.0
	globalAuthorDelta    = 0.01
)

// RecordEngagement applies the monotonic capped affinity update and the
// small global author-score bump for one engagement event, then passes
// each of the note's hashtags to store.MarkEngagedHashtag
// (PreferenceRepository discards them, so they do not reach the viewer's
// engaged-hashtag set). `hide` is a no-op here: it changes neither the
// affinity table nor any content-filter state.
func RecordEngagement(ctx context.Context, store repository.UserPreferenceStore, event models.EngagementEvent, note models.Note) error {
	if event.Action == models.ActionHide {
		return nil
	}

	delta, ok := affinityDelta[event.Action]
	if !ok {
		return nil
	}

	if err := store.UpdateAffinity(ctx, event.ViewerID, note.AuthorID, delta, affinityCap); err != nil {
		return err
	}
	if err := store.UpdateAffinity(ctx, models.GlobalAuthorKey, note.AuthorID, globalAuthorDelta, globalAuthorScoreCap); err != nil {
		return err
	}

	for _, tag := range note.Hashtags {
		if err := store.MarkEngagedHashtag(ctx, event.ViewerID, normalizeTag(tag)); err != nil {
			return err
		}
	}

	return nil
}
