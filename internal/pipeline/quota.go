package pipeline

import (
	"github.com/ritik/timeline-core/internal/candidate"
	"github.com/ritik/timeline-core/internal/models"
)

// buildQuotas computes each source's requested candidate count from the
// configured mix ratio, the overall item budget (MaxItems times the
// overfetch factor), and the per-request A/B weight multiplier, then
// clamps to the source's absolute cap times the same overfetch factor
// (spec.md §4.5 step 3). The absolute cap itself is applied to the
// ranked result by enforceCaps.
func buildQuotas(sources []candidate.Source, cfg models.TimelineConfig) []candidate.Quota {
	// Fetch a multiple of MaxItems per source so post-filter/dedupe
	// attrition still leaves enough candidates to fill the page.
	const overfetch = 3
	budget := cfg.MaxItems * overfetch

	quotas := make([]candidate.Quota, 0, len(sources))
	for _, s := range sources {
		name := s.Name()
		ratio := cfg.Mix.Ratio(name)
		weight := cfg.ABWeights.Weight(name)
		count := int(float64(budget) * ratio * weight)
		if cap := cfg.Caps.Cap(name) * overfetch; cap > 0 && count > cap {
			count = cap
		}
		if count <= 0 {
			continue
		}
		quotas = append(quotas, candidate.Quota{Source: s, MaxCount: count})
	}
	return quotas
}
