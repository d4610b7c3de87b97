// Package fanout implements the C7 fan-out worker: a single consumer
// over a bounded task queue that, per task, drops every cached timeline
// containing a note by the task's author (through the cache's author
// index) and pushes a live update to the open stream sessions of the
// author's followers, grounded on the teacher's write-time fan-out
// strategy (FanOutWriteStrategy) generalized from "write tweet id to
// follower caches" to "invalidate cached timelines holding the author and
// notify followers' open sessions". A follower whose cached timeline holds
// no note by the author keeps that entry until it expires.
package fanout

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritik/timeline-core/internal/cache"
	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
)

const maxRetries = 3

// Notifier pushes a TimelineUpdate to every open stream session for a
// viewer; it must never block the worker goroutine.
type Notifier interface {
	Notify(viewerID string, update models.TimelineUpdate)
}

// Worker is the single-consumer fan-out loop. Sharding above a follower
// count threshold is handled by yielding between batches rather than by
// spawning additional consumers, so invalidations for different authors
// still serialize through one queue and one set of metrics.
type Worker struct {
	tasks    chan models.FanoutTask
	graph    repository.FollowGraph
	cache    *cache.Cache
	notifier Notifier

	shardSize int
	dropped   int64

	done chan struct{}
}

// New creates a Worker with the given queue capacity and per-batch shard
// size (follower batches larger than shardSize yield between chunks).
func New(queueCapacity, shardSize int, graph repository.FollowGraph, c *cache.Cache, notifier Notifier) *Worker {
	return &Worker{
		tasks:     make(chan models.FanoutTask, queueCapacity),
		graph:     graph,
		cache:     c,
		notifier:  notifier,
		shardSize: shardSize,
		done:      make(chan struct{}),
	}
}

// Submit enqueues a task. When the queue is full, the oldest queued task
// is dropped to make room (shedding, not blocking the producer) and the
// drop counter increments (spec.md §5).
func (w *Worker) Submit(task models.FanoutTask) {
	select {
	case w.tasks <- task:
		return
	default:
	}

	select {
	case <-w.tasks:
		w.dropped++
		logrus.WithField("dropped_total", w.dropped).Warn("fanout queue full, dropped oldest task")
	default:
	}

	select {
	case w.tasks <- task:
	default:
		w.dropped++
		logrus.WithField("dropped_total", w.dropped).Warn("fanout queue full, dropped incoming task")
	}
}

// Run consumes tasks until ctx is cancelled. Intended to run in its own
// goroutine, started once from cmd/server.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(w.done)
			return
		case task := <-w.tasks:
			w.process(ctx, task)
		}
	}
}

// Dropped reports the cumulative count of shed tasks, for metrics.
func (w *Worker) Dropped() int64 {
	return w.dropped
}

func (w *Worker) process(ctx context.Context, task models.FanoutTask) {
	followers, err := w.graph.Followers(ctx, task.Note.AuthorID)
	if err != nil {
		if task.Retry < maxRetries {
			task.Retry++
			go func() {
				time.Sleep(backoff(task.Retry))
				w.Submit(task)
			}()
			return
		}
		logrus.WithFields(logrus.Fields{
			"author": task.Note.AuthorID,
			"error":  err,
		}).Error("fanout: follower lookup failed after max retries, dropping task")
		return
	}

	w.cache.InvalidateAuthor(ctx, task.Note.AuthorID)

	update := models.TimelineUpdate{
		UpdateType:     string(task.Kind),
		AffectedNoteID: task.Note.NoteID,
	}

	for i := 0; i < len(followers); i += w.shardSize {
		end := i + w.shardSize
		if end > len(followers) {
			end = len(followers)
		}
		for _, followerID := range followers[i:end] {
			w.notifier.Notify(followerID, update)
		}
		if end < len(followers) {
			select {
			case <-ctx.Done():
				return
			default:
				runtime.Gosched()
			}
		}
	}
}

func backoff(attempt int) time.Duration {
	base := 100 * time.Millisecond
	for i := 1; i < attempt; i++ {
		base *= 2
	}
	return base
}
