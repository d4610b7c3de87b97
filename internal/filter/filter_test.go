package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/models"
)

func profileWith(mutedUser, mutedKeyword string, nsfwOptIn bool) *models.ViewerProfile {
	p := models.NewViewerProfile("viewer-1")
	if mutedUser != "" {
		p.MutedUsers[mutedUser] = struct{}{}
	}
	if mutedKeyword != "" {
		p.MutedKeywords[mutedKeyword] = struct{}{}
	}
	p.NSFWOptIn = nsfwOptIn
	return p
}

func TestEvaluate_SuspendedAuthorAlwaysDropped(t *testing.T) {
	note := models.Note{AuthorID: "a", AuthorSuspended: true}
	d := Evaluate(note, nil)
	assert.False(t, d.Keep)
	assert.Equal(t, ReasonSuspended, d.Reason)
}

func TestEvaluate_MutedAuthor(t *testing.T) {
	profile := profileWith("blocked-author", "", false)
	note := models.Note{AuthorID: "blocked-author"}
	d := Evaluate(note, profile)
	assert.False(t, d.Keep)
	assert.Equal(t, ReasonMutedAuthor, d.Reason)
}

func TestEvaluate_MutedKeywordWholeWordOnly(t *testing.T) {
	profile := profileWith("", "spoiler", false)

	hit := Evaluate(models.Note{AuthorID: "x", TextContent: "huge spoiler ahead"}, profile)
	assert.False(t, hit.Keep)
	assert.Equal(t, ReasonMutedKeyword, hit.Reason)

	miss := Evaluate(models.Note{AuthorID: "x", TextContent: "spoilers everywhere"}, profile)
	assert.True(t, miss.Keep, "partial word match should not trigger the mute")
}

func TestEvaluate_NSFWRequiresOptIn(t *testing.T) {
	note := models.Note{AuthorID: "x", NSFW: true}

	optedOut := Evaluate(note, profileWith("", "", false))
	assert.False(t, optedOut.Keep)
	assert.Equal(t, ReasonNSFW, optedOut.Reason)

	optedIn := Evaluate(note, profileWith("", "", true))
	assert.True(t, optedIn.Keep)
}

func TestEvaluate_NSFWWithNilProfileDefaultsToOptedOut(t *testing.T) {
	d := Evaluate(models.Note{AuthorID: "x", NSFW: true}, nil)
	assert.False(t, d.Keep)
	assert.Equal(t, ReasonNSFW, d.Reason)
}

func TestEvaluate_SpamSignature(t *testing.T) {
	punctuation := Evaluate(models.Note{AuthorID: "x", TextContent: "buy now!!! limited time!!!"}, nil)
	assert.False(t, punctuation.Keep)
	assert.Equal(t, ReasonSpam, punctuation.Reason)

	hashtagSpam := Evaluate(models.Note{AuthorID: "x", Hashtags: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}}, nil)
	assert.False(t, hashtagSpam.Keep)
	assert.Equal(t, ReasonSpam, hashtagSpam.Reason)
}

func TestIsSpamSignature_CleanTextPasses(t *testing.T) {
	assert.False(t, isSpamSignature(models.Note{TextContent: "wow, that's great, really.", Hashtags: []string{"golang"}}))
}

func TestEvaluate_CleanNotePassesEveryRule(t *testing.T) {
	note := models.Note{AuthorID: "x", TextContent: "hello world", Views: 100, Likes: 5}
	d := Evaluate(note, profileWith("", "", false))
	assert.True(t, d.Keep)
	assert.Empty(t, d.Reason)
}

func TestApply_FiltersOutOnlyFailingNotes(t *testing.T) {
	profile := profileWith("blocked", "spoiler", false)
	notes := []models.Note{
		{NoteID: "1", AuthorID: "ok", TextContent: "fine", Views: 10},
		{NoteID: "2", AuthorID: "blocked", TextContent: "fine"},
		{NoteID: "3", AuthorID: "ok", TextContent: "big spoiler here", Views: 10},
	}

	out, err := Apply(notes, profile)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].NoteID)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "keep", Decision{Keep: true}.String())
	assert.Equal(t, "drop:nsfw_not_opted_in", Decision{Keep: false, Reason: ReasonNSFW}.String())
}
