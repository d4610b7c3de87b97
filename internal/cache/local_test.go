package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/models"
)

func itemsFor(authorID string, noteID string) []models.RankedItem {
	return []models.RankedItem{{Note: models.Note{NoteID: noteID, AuthorID: authorID}}}
}

func TestLocalCache_PutGetRoundTrip(t *testing.T) {
	c := NewLocalCache(10, time.Minute)
	c.Put("viewer-1", itemsFor("author-1", "note-1"))

	items, ok := c.Get("viewer-1")
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "note-1", items[0].Note.NoteID)
}

func TestLocalCache_MissingEntry(t *testing.T) {
	c := NewLocalCache(10, time.Minute)
	_, ok := c.Get("nobody")
	assert.False(t, ok)
}

func TestLocalCache_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	c := NewLocalCache(10, time.Millisecond)
	c.Put("viewer-1", itemsFor("author-1", "note-1"))

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("viewer-1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired read should remove the entry")
}

func TestLocalCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := NewLocalCache(2, time.Minute)
	c.Put("viewer-1", itemsFor("author-1", "note-1"))
	c.Put("viewer-2", itemsFor("author-1", "note-2"))

	// Touch viewer-1 so it becomes most-recently-used.
	_, _ = c.Get("viewer-1")

	c.Put("viewer-3", itemsFor("author-1", "note-3"))

	_, ok1 := c.Get("viewer-1")
	_, ok2 := c.Get("viewer-2")
	_, ok3 := c.Get("viewer-3")

	assert.True(t, ok1, "recently-touched entry should survive eviction")
	assert.False(t, ok2, "least-recently-used entry should be evicted")
	assert.True(t, ok3)
	assert.Equal(t, 2, c.Len())
}

func TestLocalCache_InvalidateAuthorDropsEveryAffectedViewer(t *testing.T) {
	c := NewLocalCache(10, time.Minute)
	c.Put("viewer-1", itemsFor("author-x", "note-1"))
	c.Put("viewer-2", itemsFor("author-x", "note-2"))
	c.Put("viewer-3", itemsFor("author-y", "note-3"))

	c.InvalidateAuthor("author-x")

	_, ok1 := c.Get("viewer-1")
	_, ok2 := c.Get("viewer-2")
	_, ok3 := c.Get("viewer-3")

	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3, "a viewer whose cached items don't include the invalidated author is untouched")
}

func TestLocalCache_Invalidate(t *testing.T) {
	c := NewLocalCache(10, time.Minute)
	c.Put("viewer-1", itemsFor("author-1", "note-1"))

	c.Invalidate("viewer-1")

	_, ok := c.Get("viewer-1")
	assert.False(t, ok)
}
