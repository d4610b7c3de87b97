package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/models"
)

type fakeOverdrive struct {
	name    string
	results []ScoredID
	err     error
}

func (f fakeOverdrive) Name() string { return f.name }
func (f fakeOverdrive) ReRank(ctx context.Context, viewerID string, candidateIDs []string, limit int) ([]ScoredID, error) {
	return f.results, f.err
}

func baseItems() []models.RankedItem {
	return []models.RankedItem{
		{Note: models.Note{NoteID: "1"}, FinalScore: 0.1},
		{Note: models.Note{NoteID: "2"}, FinalScore: 0.2},
		{Note: models.Note{NoteID: "3"}, FinalScore: 0.3},
	}
}

func TestApplyOverdrive_RescoresReturnedItemsAndStampsReason(t *testing.T) {
	p := &Pipeline{overdrive: fakeOverdrive{
		name:    "custom-ranker",
		results: []ScoredID{{NoteID: "2", Score: 9.9}},
	}}

	out, err := p.applyOverdrive(context.Background(), "viewer-1", baseItems())

	require.NoError(t, err)
	require.Len(t, out, 3, "items overdrive did not return must still be present")

	var rescored models.RankedItem
	for _, it := range out {
		if it.Note.NoteID == "2" {
			rescored = it
		}
	}
	assert.Equal(t, 9.9, rescored.FinalScore)
	assert.Equal(t, "overdrive:custom-ranker", rescored.InjectionReason)
}

func TestApplyOverdrive_UnreturnedItemsKeepPriorScore(t *testing.T) {
	p := &Pipeline{overdrive: fakeOverdrive{
		name:    "custom-ranker",
		results: []ScoredID{{NoteID: "2", Score: 9.9}},
	}}

	out, err := p.applyOverdrive(context.Background(), "viewer-1", baseItems())
	require.NoError(t, err)

	for _, it := range out {
		if it.Note.NoteID == "1" {
			assert.Equal(t, 0.1, it.FinalScore, "id overdrive did not mention keeps its original score")
			assert.Empty(t, it.InjectionReason)
		}
	}
}

func TestApplyOverdrive_IgnoresIDsOutsideBaseResult(t *testing.T) {
	p := &Pipeline{overdrive: fakeOverdrive{
		name: "custom-ranker",
		results: []ScoredID{
			{NoteID: "2", Score: 9.9},
			{NoteID: "does-not-exist", Score: 5.0},
		},
	}}

	out, err := p.applyOverdrive(context.Background(), "viewer-1", baseItems())

	require.NoError(t, err)
	assert.Len(t, out, 3, "overdrive must not be able to introduce ids the base pipeline never selected")
}

func TestApplyOverdrive_ErrorReturnsOriginalItemsUnchanged(t *testing.T) {
	p := &Pipeline{overdrive: fakeOverdrive{name: "custom-ranker", err: assert.AnError}}
	items := baseItems()

	out, err := p.applyOverdrive(context.Background(), "viewer-1", items)

	require.Error(t, err)
	assert.Equal(t, items, out)
}
