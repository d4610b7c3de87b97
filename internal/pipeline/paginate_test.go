package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritik/timeline-core/internal/models"
)

func makeItems(n int) []models.RankedItem {
	items := make([]models.RankedItem, n)
	for i := range items {
		items[i] = models.RankedItem{Note: models.Note{NoteID: string(rune('a' + i))}}
	}
	return items
}

func TestPaginate_DefaultLimitAppliedWhenUnset(t *testing.T) {
	items := makeItems(10)
	page, meta := paginate(items, 0, 0, 5)

	assert.Len(t, page, 5)
	assert.Equal(t, 5, meta.Limit)
	assert.True(t, meta.HasNext)
	assert.NotEmpty(t, meta.NextCursor)
}

func TestPaginate_OffsetBeyondLengthReturnsEmptyPage(t *testing.T) {
	items := makeItems(3)
	page, meta := paginate(items, 100, 10, 10)

	assert.Empty(t, page)
	assert.Equal(t, 3, meta.Offset)
	assert.False(t, meta.HasNext)
}

func TestPaginate_NegativeOffsetClampsToZero(t *testing.T) {
	items := makeItems(3)
	page, meta := paginate(items, -5, 10, 10)

	assert.Len(t, page, 3)
	assert.Equal(t, 0, meta.Offset)
}

func TestPaginate_LastPageHasNoNextCursor(t *testing.T) {
	items := makeItems(5)
	page, meta := paginate(items, 0, 5, 5)

	assert.Len(t, page, 5)
	assert.False(t, meta.HasNext)
	assert.Empty(t, meta.NextCursor)
}
