package config

import "github.com/ritik/timeline-core/internal/models"

// DefaultTimelineConfig returns the baseline TimelineConfig before any
// viewer preference or per-request override is merged in (spec.md §4.5
// step 2).
func DefaultTimelineConfig() models.TimelineConfig {
	return models.TimelineConfig{
		Algorithm:         models.AlgorithmHybrid,
		MaxItems:          50,
		MaxAgeHours:       72,
		MinScoreThreshold: 0.05,
		Weights: models.SignalWeights{
			Recency:         0.2,
			Engagement:      0.2,
			AuthorAffinity:  0.2,
			ContentQuality:  0.2,
			Personalization: 0.2,
			Diversity:       0.1,
		},
		Mix: models.SourceMix{
			Following:   0.5,
			Recommended: 0.3,
			Trending:    0.15,
			Lists:       0.05,
		},
		Caps: models.SourceCaps{
			Following:   30,
			Recommended: 20,
			Trending:    10,
			Lists:       10,
		},
		ABWeights: models.ABWeights{
			Following:   1,
			Recommended: 1,
			Trending:    1,
			Lists:       1,
		},
	}
}

// ForYouConfig returns the baseline used by the For-You entry point: a
// HYBRID algorithm with a discovery-weighted mix.
func ForYouConfig() models.TimelineConfig {
	cfg := DefaultTimelineConfig()
	cfg.Algorithm = models.AlgorithmHybrid
	cfg.Mix = models.SourceMix{
		Following:   0.25,
		Recommended: 0.45,
		Trending:    0.2,
		Lists:       0.1,
	}
	return cfg
}

// FollowingConfig returns the baseline used by the Following entry point:
// pure CHRONOLOGICAL, following_ratio = 1, all others = 0.
func FollowingConfig() models.TimelineConfig {
	cfg := DefaultTimelineConfig()
	cfg.Algorithm = models.AlgorithmChronological
	cfg.Mix = models.SourceMix{Following: 1, Recommended: 0, Trending: 0, Lists: 0}
	cfg.Caps.Following = cfg.MaxItems
	return cfg
}

// MergeViewerPreferences overlays stored viewer preference overrides onto
// a base config. Only positive values override (spec.md §3 invariant).
func MergeViewerPreferences(base models.TimelineConfig, prefs *ViewerPreferenceOverrides) models.TimelineConfig {
	if prefs == nil {
		return base
	}
	out := base
	mergePositiveFloat(&out.Weights.Recency, prefs.WeightRecency)
	mergePositiveFloat(&out.Weights.Engagement, prefs.WeightEngagement)
	mergePositiveFloat(&out.Weights.AuthorAffinity, prefs.WeightAuthorAffinity)
	mergePositiveFloat(&out.Weights.ContentQuality, prefs.WeightContentQuality)
	mergePositiveFloat(&out.Weights.Personalization, prefs.WeightPersonalization)
	mergePositiveFloat(&out.Weights.Diversity, prefs.WeightDiversity)
	mergePositiveInt(&out.MaxItems, prefs.MaxItems)
	mergePositiveFloat(&out.MaxAgeHours, prefs.MaxAgeHours)
	return out
}

// ViewerPreferenceOverrides mirrors the subset of a stored ViewerProfile
// that is allowed to adjust TimelineConfig (positive-only override rule).
type ViewerPreferenceOverrides struct {
	WeightRecency         float64
	WeightEngagement      float64
	WeightAuthorAffinity  float64
	WeightContentQuality  float64
	WeightPersonalization float64
	WeightDiversity       float64
	MaxItems              int
	MaxAgeHours           float64
}

// RequestOverrides captures the per-request header-supplied overrides
// from spec.md §6 (x-ab-*-weight, x-cap-*, x-discovery-share,
// x-use-overdrive). Non-positive/zero-value fields are "not set".
type RequestOverrides struct {
	ABWeightFollowing   *float64
	ABWeightRecommended *float64
	ABWeightTrending    *float64
	ABWeightLists       *float64

	CapFollowing   *int
	CapRecommended *int
	CapTrending    *int
	CapLists       *int

	DiscoveryShare *float64
	UseOverdrive   bool
}

// ApplyRequestOverrides merges per-request header overrides onto a
// resolved config, including the discovery-share rescale of non-following
// ratios (spec.md §4.5 step 2).
func ApplyRequestOverrides(base models.TimelineConfig, ov *RequestOverrides) models.TimelineConfig {
	if ov == nil {
		return base
	}
	out := base
	if ov.ABWeightFollowing != nil && *ov.ABWeightFollowing > 0 {
		out.ABWeights.Following = *ov.ABWeightFollowing
	}
	if ov.ABWeightRecommended != nil && *ov.ABWeightRecommended > 0 {
		out.ABWeights.Recommended = *ov.ABWeightRecommended
	}
	if ov.ABWeightTrending != nil && *ov.ABWeightTrending > 0 {
		out.ABWeights.Trending = *ov.ABWeightTrending
	}
	if ov.ABWeightLists != nil && *ov.ABWeightLists > 0 {
		out.ABWeights.Lists = *ov.ABWeightLists
	}

	if ov.CapFollowing != nil && *ov.CapFollowing > 0 {
		out.Caps.Following = *ov.CapFollowing
	}
	if ov.CapRecommended != nil && *ov.CapRecommended > 0 {
		out.Caps.Recommended = *ov.CapRecommended
	}
	if ov.CapTrending != nil && *ov.CapTrending > 0 {
		out.Caps.Trending = *ov.CapTrending
	}
	if ov.CapLists != nil && *ov.CapLists > 0 {
		out.Caps.Lists = *ov.CapLists
	}

	out.UseOverdrive = ov.UseOverdrive

	if ov.DiscoveryShare != nil && *ov.DiscoveryShare > 0 {
		share := clamp01(*ov.DiscoveryShare)
		out.DiscoveryShare = share
		out.Mix = rescaleForDiscoveryShare(out.Mix, share)
	}

	return out
}

// rescaleForDiscoveryShare scales all non-following ratios so they sum to
// `share`, holding following = 1 - share.
func rescaleForDiscoveryShare(mix models.SourceMix, share float64) models.SourceMix {
	nonFollowing := mix.Recommended + mix.Trending + mix.Lists
	if nonFollowing <= 0 {
		return models.SourceMix{Following: 1 - share, Recommended: share, Trending: 0, Lists: 0}
	}
	scale := share / nonFollowing
	return models.SourceMix{
		Following:   1 - share,
		Recommended: mix.Recommended * scale,
		Trending:    mix.Trending * scale,
		Lists:       mix.Lists * scale,
	}
}

func mergePositiveFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func mergePositiveInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
