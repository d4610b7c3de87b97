package fanout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritik/timeline-core/internal/models"
)

func TestWorker_SubmitShedsOldestWhenQueueFull(t *testing.T) {
	w := New(2, 10, nil, nil, nil)

	w.Submit(models.FanoutTask{Note: models.Note{NoteID: "1"}})
	w.Submit(models.FanoutTask{Note: models.Note{NoteID: "2"}})
	w.Submit(models.FanoutTask{Note: models.Note{NoteID: "3"}}) // queue capacity 2, oldest should be dropped

	first := <-w.tasks
	second := <-w.tasks

	assert.Equal(t, "2", first.Note.NoteID, "the oldest queued task should have been shed to make room")
	assert.Equal(t, "3", second.Note.NoteID)
	assert.Equal(t, int64(1), w.Dropped())
}

func TestWorker_SubmitDoesNotBlockUnderCapacity(t *testing.T) {
	w := New(5, 10, nil, nil, nil)

	w.Submit(models.FanoutTask{Note: models.Note{NoteID: "1"}})

	assert.Equal(t, int64(0), w.Dropped())
	assert.Len(t, w.tasks, 1)
}

func TestBackoff_GrowsExponentially(t *testing.T) {
	first := backoff(1)
	second := backoff(2)
	third := backoff(3)

	assert.Less(t, first, second)
	assert.Less(t, second, third)
}
