package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/models"
)

func TestFollowingConfig_IsPureChronologicalAllFollowing(t *testing.T) {
	cfg := FollowingConfig()
	assert.Equal(t, models.AlgorithmChronological, cfg.Algorithm)
	assert.Equal(t, 1.0, cfg.Mix.Following)
	assert.Zero(t, cfg.Mix.Recommended)
	assert.Zero(t, cfg.Mix.Trending)
	assert.Zero(t, cfg.Mix.Lists)
	assert.Equal(t, cfg.MaxItems, cfg.Caps.Following)
}

func TestMergeViewerPreferences_OnlyPositiveValuesOverride(t *testing.T) {
	base := DefaultTimelineConfig()
	prefs := &ViewerPreferenceOverrides{
		WeightRecency: 0.9,
		MaxItems:      0, // non-positive, must not override
	}

	out := MergeViewerPreferences(base, prefs)

	assert.Equal(t, 0.9, out.Weights.Recency)
	assert.Equal(t, base.MaxItems, out.MaxItems, "a non-positive override leaves the base value untouched")
}

func TestMergeViewerPreferences_NilPrefsReturnsBaseUnchanged(t *testing.T) {
	base := DefaultTimelineConfig()
	out := MergeViewerPreferences(base, nil)
	assert.Equal(t, base, out)
}

func TestApplyRequestOverrides_NilOverridesReturnsBaseUnchanged(t *testing.T) {
	base := DefaultTimelineConfig()
	out := ApplyRequestOverrides(base, nil)
	assert.Equal(t, base, out)
}

func TestApplyRequestOverrides_DiscoveryShareRescalesNonFollowingRatios(t *testing.T) {
	base := ForYouConfig()
	share := 0.6
	ov := &RequestOverrides{DiscoveryShare: &share}

	out := ApplyRequestOverrides(base, ov)

	assert.InDelta(t, 0.4, out.Mix.Following, 1e-9)
	total := out.Mix.Recommended + out.Mix.Trending + out.Mix.Lists
	assert.InDelta(t, 0.6, total, 1e-9, "non-following ratios should sum to the requested discovery share")
}

func TestApplyRequestOverrides_DiscoveryShareIsClamped(t *testing.T) {
	base := ForYouConfig()
	tooHigh := 1.5
	out := ApplyRequestOverrides(base, &RequestOverrides{DiscoveryShare: &tooHigh})
	require.NotNil(t, out.DiscoveryShare)
	assert.LessOrEqual(t, out.DiscoveryShare, 1.0)
}

func TestApplyRequestOverrides_CapsAndABWeights(t *testing.T) {
	base := DefaultTimelineConfig()
	cap := 5
	weight := 2.0
	ov := &RequestOverrides{CapFollowing: &cap, ABWeightTrending: &weight, UseOverdrive: true}

	out := ApplyRequestOverrides(base, ov)

	assert.Equal(t, 5, out.Caps.Following)
	assert.Equal(t, 2.0, out.ABWeights.Trending)
	assert.True(t, out.UseOverdrive)
	assert.Equal(t, base.Caps.Recommended, out.Caps.Recommended, "caps not present in the override are untouched")
}
