package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritik/timeline-core/internal/models"
)

func TestEnforceCaps_StopsAtMaxItems(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1"}, Source: models.SourceFollowing, FinalScore: 0.9},
		{Note: models.Note{NoteID: "2"}, Source: models.SourceFollowing, FinalScore: 0.8},
		{Note: models.Note{NoteID: "3"}, Source: models.SourceFollowing, FinalScore: 0.7},
	}
	cfg := models.TimelineConfig{MaxItems: 2}

	out := enforceCaps(items, cfg)

	assert.Len(t, out, 2)
}

func TestEnforceCaps_StopsAtMinScoreThreshold(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1"}, Source: models.SourceFollowing, FinalScore: 0.5},
		{Note: models.Note{NoteID: "2"}, Source: models.SourceFollowing, FinalScore: 0.01},
	}
	cfg := models.TimelineConfig{MaxItems: 10, MinScoreThreshold: 0.05}

	out := enforceCaps(items, cfg)

	assert.Len(t, out, 1, "an item below min_score_threshold should stop accumulation")
	assert.Equal(t, "1", out[0].Note.NoteID)
}

func TestEnforceCaps_RespectsPerSourceCap(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1"}, Source: models.SourceFollowing, FinalScore: 0.9},
		{Note: models.Note{NoteID: "2"}, Source: models.SourceFollowing, FinalScore: 0.8},
		{Note: models.Note{NoteID: "3"}, Source: models.SourceTrending, FinalScore: 0.7},
	}
	cfg := models.TimelineConfig{
		MaxItems: 10,
		Caps:     models.SourceCaps{Following: 1, Trending: 10},
	}

	out := enforceCaps(items, cfg)

	require := assert.New(t)
	require.Len(out, 2, "one Following item plus the Trending item should survive the per-source cap")

	var followingCount int
	for _, it := range out {
		if it.Source == models.SourceFollowing {
			followingCount++
		}
	}
	require.Equal(1, followingCount)
}

func TestEnforceCaps_ZeroCapMeansUncapped(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1"}, Source: models.SourceFollowing, FinalScore: 0.9},
		{Note: models.Note{NoteID: "2"}, Source: models.SourceFollowing, FinalScore: 0.8},
	}
	cfg := models.TimelineConfig{MaxItems: 10, Caps: models.SourceCaps{Following: 0}}

	out := enforceCaps(items, cfg)

	assert.Len(t, out, 2)
}
