package pipeline

import "github.com/ritik/timeline-core/internal/models"

// enforceCaps walks the already-sorted ranked items and stops once either
// the overall max_items budget or the min_score_threshold is hit, while
// also respecting each source's absolute per-source cap (spec.md §4.5
// step 5).
func enforceCaps(items []models.RankedItem, cfg models.TimelineConfig) []models.RankedItem {
	out := make([]models.RankedItem, 0, cfg.MaxItems)
	perSource := make(map[models.Source]int)

	for _, it := range items {
		if len(out) >= cfg.MaxItems {
			break
		}
		if cfg.MinScoreThreshold > 0 && it.FinalScore < cfg.MinScoreThreshold {
			break
		}
		if cap := cfg.Caps.Cap(it.Source); cap > 0 && perSource[it.Source] >= cap {
			continue
		}
		perSource[it.Source]++
		out = append(out, it)
	}
	return out
}
