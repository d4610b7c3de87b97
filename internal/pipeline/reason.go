package pipeline

import "github.com/ritik/timeline-core/internal/models"

// injectionReasonOf maps a candidate source to the human-readable reason
// string surfaced on a RankedItem, in the style of a feed-ranking
// "why am I seeing this" field: following/suggested/trending/list.
func injectionReasonOf(s models.Source) string {
	switch s {
	case models.SourceFollowing:
		return "following"
	case models.SourceRecommended:
		return "suggested"
	case models.SourceTrending:
		return "trending"
	case models.SourceLists:
		return "list"
	default:
		return "unknown"
	}
}

// annotateInjectionReason fills in InjectionReason for every item that
// does not already carry one (Overdrive sets its own reason later).
func annotateInjectionReason(items []models.RankedItem) {
	for i := range items {
		if items[i].InjectionReason == "" {
			items[i].InjectionReason = injectionReasonOf(items[i].Source)
		}
	}
}
