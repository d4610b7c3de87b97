package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ritik/timeline-core/internal/models"
)

func itemsForAuthor(author string, count int, score float64) []models.RankedItem {
	items := make([]models.RankedItem, count)
	for i := range items {
		items[i] = models.RankedItem{
			Note:       models.Note{NoteID: author + string(rune('a'+i)), AuthorID: author},
			FinalScore: score,
		}
	}
	return items
}

func TestApplyDiversityShaping_PenalizesAuthorsOverThreshold(t *testing.T) {
	items := itemsForAuthor("prolific", 5, 1.0)
	applyDiversityShaping(items, 1.0)

	for _, it := range items {
		assert.Less(t, it.FinalScore, 1.0, "every item from an author appearing 5 times should be penalized")
	}
}

func TestApplyDiversityShaping_UnderThresholdUntouched(t *testing.T) {
	items := itemsForAuthor("casual", 2, 1.0)
	applyDiversityShaping(items, 1.0)

	for _, it := range items {
		assert.Equal(t, 1.0, it.FinalScore)
	}
}

func TestApplyDiversityShaping_ZeroWeightIsNoop(t *testing.T) {
	items := itemsForAuthor("prolific", 5, 1.0)
	applyDiversityShaping(items, 0)

	for _, it := range items {
		assert.Equal(t, 1.0, it.FinalScore)
	}
}

func TestApplyDiversityShaping_SingletonHashtagBoosted(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1", AuthorID: "a", Hashtags: []string{"unique"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "2", AuthorID: "b", Hashtags: []string{"common"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "3", AuthorID: "c", Hashtags: []string{"common"}}, FinalScore: 1.0},
	}
	applyDiversityShaping(items, 1.0)

	var unique models.RankedItem
	for _, it := range items {
		if it.Note.NoteID == "1" {
			unique = it
		}
	}
	assert.Greater(t, unique.FinalScore, 1.0, "a batch-singleton hashtag should be boosted")
}

func TestApplyRepetitionControl_PenalizesPastSoftCap(t *testing.T) {
	items := itemsForAuthor("spammy", 4, 1.0)
	applyRepetitionControl(items, nil)

	assert.Equal(t, 1.0, items[0].FinalScore, "first occurrence is untouched")
	assert.Less(t, items[2].FinalScore, items[1].FinalScore, "third occurrence crosses the soft cap of 2 on top of the back-to-back penalty")
	assert.Less(t, items[3].FinalScore, items[2].FinalScore, "penalty escalates with further repetition")
}

func TestApplyRepetitionControl_BackToBackPenalized(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1", AuthorID: "a"}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "2", AuthorID: "a"}, FinalScore: 1.0},
	}
	applyRepetitionControl(items, nil)

	assert.Less(t, items[1].FinalScore, 1.0, "an immediately-following same-author item takes the back-to-back penalty")
}

func TestApplyRepetitionControl_HashtagFrequencyShapesScore(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1", AuthorID: "a", Hashtags: []string{"rare"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "2", AuthorID: "b", Hashtags: []string{"overused"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "3", AuthorID: "c", Hashtags: []string{"overused"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "4", AuthorID: "d", Hashtags: []string{"overused"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "5", AuthorID: "e", Hashtags: []string{"overused"}}, FinalScore: 1.0},
		{Note: models.Note{NoteID: "6", AuthorID: "f", Hashtags: []string{"overused"}}, FinalScore: 1.0},
	}
	applyRepetitionControl(items, nil)

	assert.Greater(t, items[0].FinalScore, 1.0, "a singleton hashtag is boosted")
	assert.Less(t, items[5].FinalScore, 1.0, "a hashtag used more than 4 times in the batch is penalized")
}

func TestApplyHybridFreshness_BoostsRecentAndNonFollowingItems(t *testing.T) {
	now := time.Now()
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "fresh", CreatedAt: now.Add(-10 * time.Minute)}, Source: models.SourceFollowing, FinalScore: 1.0},
		{Note: models.Note{NoteID: "old-discovery", CreatedAt: now.Add(-2 * time.Hour)}, Source: models.SourceTrending, FinalScore: 1.0},
		{Note: models.Note{NoteID: "old-following", CreatedAt: now.Add(-2 * time.Hour)}, Source: models.SourceFollowing, FinalScore: 1.0},
	}
	applyHybridFreshness(items, now)

	assert.InDelta(t, 1.02, items[0].FinalScore, 1e-9, "age <= 30min gets the fresh boost")
	assert.InDelta(t, 1.01, items[1].FinalScore, 1e-9, "non-following source gets the discovery boost")
	assert.Equal(t, 1.0, items[2].FinalScore, "old following-source item gets neither boost")
}

func TestApplyHybridFreshness_JustOutsideWindowGetsNoFreshBoost(t *testing.T) {
	now := time.Now()
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1", CreatedAt: now.Add(-31 * time.Minute)}, Source: models.SourceFollowing, FinalScore: 1.0},
	}
	applyHybridFreshness(items, now)
	assert.Equal(t, 1.0, items[0].FinalScore)
}
