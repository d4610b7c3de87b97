package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritik/timeline-core/internal/models"
)

func TestInjectionReasonOf_MapsEveryKnownSource(t *testing.T) {
	cases := map[models.Source]string{
		models.SourceFollowing:   "following",
		models.SourceRecommended: "suggested",
		models.SourceTrending:    "trending",
		models.SourceLists:       "list",
	}
	for source, want := range cases {
		assert.Equal(t, want, injectionReasonOf(source), "source %s", source)
	}
}

func TestInjectionReasonOf_UnknownSourceFallsBack(t *testing.T) {
	assert.Equal(t, "unknown", injectionReasonOf(models.Source("something-new")))
}

func TestAnnotateInjectionReason_FillsOnlyEmptyReasons(t *testing.T) {
	items := []models.RankedItem{
		{Note: models.Note{NoteID: "1"}, Source: models.SourceFollowing},
		{Note: models.Note{NoteID: "2"}, Source: models.SourceTrending, InjectionReason: "overdrive:custom"},
	}

	annotateInjectionReason(items)

	assert.Equal(t, "following", items[0].InjectionReason)
	assert.Equal(t, "overdrive:custom", items[1].InjectionReason, "a reason already set should not be overwritten")
}
