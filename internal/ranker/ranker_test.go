package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/models"
)

func TestScore_ChronologicalShortCircuits(t *testing.T) {
	now := time.Now()
	older := now.Add(-2 * time.Hour)
	newer := now.Add(-1 * time.Hour)

	notes := []models.Note{
		{NoteID: "a", CreatedAt: older},
		{NoteID: "b", CreatedAt: newer},
	}
	cfg := models.TimelineConfig{Algorithm: models.AlgorithmChronological}

	items := Score(notes, map[string]models.Source{}, nil, cfg, now)

	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Note.NoteID, "newer note ranks first under chronological")
	assert.Equal(t, "a", items[1].Note.NoteID)
	assert.Equal(t, models.Signals{}, items[0].Signals, "chronological skips signal computation")
}

func TestScore_HybridPrefersFollowedRecentEngaged(t *testing.T) {
	now := time.Now()
	profile := models.NewViewerProfile("viewer-1")
	profile.FollowSet["author-followed"] = struct{}{}

	followed := models.Note{
		NoteID:      "followed-note",
		AuthorID:    "author-followed",
		TextContent: "a reasonably long and interesting post about something",
		CreatedAt:   now.Add(-30 * time.Minute),
		Likes:       50,
		Views:       10,
	}
	stranger := models.Note{
		NoteID:      "stranger-note",
		AuthorID:    "author-stranger",
		TextContent: "a reasonably long and interesting post about something",
		CreatedAt:   now.Add(-30 * time.Minute),
		Likes:       50,
		Views:       10,
	}

	cfg := models.TimelineConfig{
		Algorithm: models.AlgorithmHybrid,
		Weights: models.SignalWeights{
			Recency:        1,
			Engagement:     1,
			AuthorAffinity: 1,
			ContentQuality: 1,
		},
	}

	items := Score([]models.Note{stranger, followed}, map[string]models.Source{}, profile, cfg, now)

	require.Len(t, items, 2)
	assert.Equal(t, "followed-note", items[0].Note.NoteID, "author affinity should push the followed author's note above an identical stranger post")
	assert.Greater(t, items[0].FinalScore, items[1].FinalScore)
}

func TestScore_FinalScoreNeverNegative(t *testing.T) {
	now := time.Now()
	notes := []models.Note{
		{NoteID: "old", AuthorID: "a", CreatedAt: now.Add(-240 * time.Hour)},
	}
	cfg := models.TimelineConfig{
		Algorithm: models.AlgorithmHybrid,
		Weights:   models.SignalWeights{Recency: 1, Engagement: 1, AuthorAffinity: 1, ContentQuality: 1},
	}

	items := Score(notes, map[string]models.Source{}, nil, cfg, now)

	require.Len(t, items, 1)
	assert.GreaterOrEqual(t, items[0].FinalScore, 0.0)
}

func TestSortDeterministic_TieBreaksOnCreatedAtThenID(t *testing.T) {
	now := time.Now()
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "z", CreatedAt: now}, FinalScore: 1},
		{Note: models.Note{NoteID: "a", CreatedAt: now}, FinalScore: 1},
		{Note: models.Note{NoteID: "m", CreatedAt: now.Add(time.Hour)}, FinalScore: 1},
	}

	sortDeterministic(items)

	require.Len(t, items, 3)
	assert.Equal(t, "m", items[0].Note.NoteID, "a later created_at outranks an equal score")
	assert.Equal(t, "a", items[1].Note.NoteID, "equal score and created_at falls back to note_id ascending")
	assert.Equal(t, "z", items[2].Note.NoteID)
}

func TestRecency_DecaysWithHalfLife(t *testing.T) {
	now := time.Now()
	fresh := recency(models.Note{CreatedAt: now}, now)
	halfLifeOld := recency(models.Note{CreatedAt: now.Add(-recencyHalfLife)}, now)

	assert.InDelta(t, 1.0, fresh, 1e-9)
	assert.InDelta(t, 0.5, halfLifeOld, 1e-6)
}

func TestContentQuality_PenalizesEmptyAndOverlong(t *testing.T) {
	empty := contentQuality(models.Note{TextContent: ""})
	healthy := contentQuality(models.Note{TextContent: "this is a perfectly fine length post about nothing in particular"})
	overlong := contentQuality(models.Note{TextContent: string(make([]rune, 300))})

	assert.Less(t, empty, healthy)
	assert.Less(t, overlong, healthy)
}

func TestContentQuality_MediaHashtagMentionBoosts(t *testing.T) {
	base := contentQuality(models.Note{TextContent: "a post of reasonable length that sits comfortably in range"})
	withMedia := contentQuality(models.Note{TextContent: "a post of reasonable length that sits comfortably in range", HasMedia: true})
	withHashtags := contentQuality(models.Note{TextContent: "a post of reasonable length that sits comfortably in range", Hashtags: []string{"a", "b"}})
	withMentions := contentQuality(models.Note{TextContent: "a post of reasonable length that sits comfortably in range", Mentions: []string{"x"}})

	assert.InDelta(t, base+0.15, withMedia, 1e-9)
	assert.InDelta(t, base+0.08, withHashtags, 1e-9)
	assert.InDelta(t, base+0.12, withMentions, 1e-9)
}

func TestContentQuality_URLAndHashtagSpamPenalties(t *testing.T) {
	base := contentQuality(models.Note{TextContent: "a post of reasonable length that sits comfortably in range"})
	withURL := contentQuality(models.Note{TextContent: "a post of reasonable length that sits comfortably in range, see https://example.com"})
	manyHashtags := contentQuality(models.Note{
		TextContent: "a post of reasonable length that sits comfortably in range",
		Hashtags:    []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
	})

	assert.Less(t, withURL, base)
	assert.Less(t, manyHashtags, base)
}

func TestContentQuality_EngagementRateBoostIsClipped(t *testing.T) {
	viral := contentQuality(models.Note{TextContent: "", Views: 10, Likes: 10000})
	assert.LessOrEqual(t, viral, qualityBase-qualityShortPenalty+qualityEngagementCap+1e-9)
}

func TestEngagementVelocity_NormalizedAndClipped(t *testing.T) {
	now := time.Now()
	quiet := engagementVelocity(models.Note{CreatedAt: now.Add(-1 * time.Hour), Likes: 5}, now)
	assert.InDelta(t, 0.5, quiet, 1e-9)

	viral := engagementVelocity(models.Note{CreatedAt: now.Add(-1 * time.Hour), Likes: 1000}, now)
	assert.Equal(t, 1.0, viral)
}

func TestAuthorAffinity_FollowedFloorsAboveStranger(t *testing.T) {
	profile := models.NewViewerProfile("viewer-1")
	profile.FollowSet["followed-author"] = struct{}{}

	followed := authorAffinity(models.Note{AuthorID: "followed-author"}, profile)
	stranger := authorAffinity(models.Note{AuthorID: "stranger"}, profile)

	assert.InDelta(t, 0.8, followed, 1e-9)
	assert.InDelta(t, 0.1, stranger, 1e-9)
}

func TestAuthorAffinity_HistoricalAndGlobalScoresCanOutweighFollowState(t *testing.T) {
	profile := models.NewViewerProfile("viewer-1")
	profile.AuthorAffinity["heavy-engagement"] = 0.95
	profile.GlobalAuthorAffinity["viral-author"] = 1.0

	historical := authorAffinity(models.Note{AuthorID: "heavy-engagement"}, profile)
	global := authorAffinity(models.Note{AuthorID: "viral-author"}, profile)

	assert.InDelta(t, 0.95, historical, 1e-9)
	assert.InDelta(t, 0.2, global, 1e-9, "global score contributes at 0.2x weight")
}

func TestAuthorAffinity_NilProfileFallsBackToStrangerFloor(t *testing.T) {
	assert.InDelta(t, 0.1, authorAffinity(models.Note{AuthorID: "anyone"}, nil), 1e-9)
}
