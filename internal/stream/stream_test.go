package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/models"
)

func TestRegistry_OpenAndNotifyDeliversToSession(t *testing.T) {
	r := NewRegistry(10, 100, time.Second)
	s := r.Open("viewer-1")

	r.Notify("viewer-1", models.TimelineUpdate{UpdateType: "NEW_ITEM", AffectedNoteID: "note-1"})

	select {
	case update := <-s.Updates():
		assert.Equal(t, "note-1", update.AffectedNoteID)
	case <-time.After(time.Second):
		t.Fatal("expected update was not delivered")
	}
}

func TestRegistry_NotifyIsScopedToViewer(t *testing.T) {
	r := NewRegistry(10, 100, time.Second)
	s1 := r.Open("viewer-1")
	s2 := r.Open("viewer-2")

	r.Notify("viewer-1", models.TimelineUpdate{AffectedNoteID: "note-1"})

	select {
	case <-s1.Updates():
	case <-time.After(time.Second):
		t.Fatal("viewer-1's session should have received the update")
	}

	select {
	case <-s2.Updates():
		t.Fatal("viewer-2's session should not receive viewer-1's update")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRegistry_UnregisterRemovesSessionAndCloses(t *testing.T) {
	r := NewRegistry(10, 100, time.Second)
	s := r.Open("viewer-1")
	require.Equal(t, 1, r.OpenSessionCount("viewer-1"))

	r.Unregister(s)

	assert.Equal(t, 0, r.OpenSessionCount("viewer-1"))
	select {
	case <-s.Done():
	default:
		t.Fatal("session should be closed after Unregister")
	}
}

func TestSession_PushDropsWhenQueueFull(t *testing.T) {
	s := NewSession("viewer-1", 1, 1000)

	s.Push(models.TimelineUpdate{AffectedNoteID: "a"})
	s.Push(models.TimelineUpdate{AffectedNoteID: "b"}) // queue capacity 1, should be dropped

	first := <-s.Updates()
	assert.Equal(t, "a", first.AffectedNoteID)

	select {
	case <-s.Updates():
		t.Fatal("second push should have been dropped, queue was full")
	default:
	}
}

func TestSession_PushRateLimited(t *testing.T) {
	s := NewSession("viewer-1", 10, 2)

	for i := 0; i < 2; i++ {
		s.Push(models.TimelineUpdate{AffectedNoteID: "a"})
	}
	s.Push(models.TimelineUpdate{AffectedNoteID: "over-budget"})

	count := 0
	for {
		select {
		case <-s.Updates():
			count++
		default:
			assert.Equal(t, 2, count, "only messagesPerSecond pushes should land before tokens are exhausted")
			return
		}
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := NewSession("viewer-1", 1, 1)
	s.Close()
	assert.NotPanics(t, func() { s.Close() })
}
