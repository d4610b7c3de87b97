// Package stream implements the C6 streaming subscriptions: one
// StreamSession per open viewer connection, a per-viewer session
// registry the fan-out worker notifies through, and a per-session token
// bucket that drops excess pushes instead of queuing them.
package stream

import (
	"sync"
	"time"

	"github.com/ritik/timeline-core/internal/models"
)

// Session is one open subscription. Pending updates accumulate in a
// bounded channel; a full channel means the subscriber is falling behind
// and the update is dropped, not queued further (spec.md §5).
type Session struct {
	ViewerID string

	pending chan models.TimelineUpdate
	closed  chan struct{}
	once    sync.Once

	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewSession creates a Session with the given pending-queue capacity and
// a token bucket capped at messagesPerSecond.
func NewSession(viewerID string, queueCapacity int, messagesPerSecond int) *Session {
	return &Session{
		ViewerID:   viewerID,
		pending:    make(chan models.TimelineUpdate, queueCapacity),
		closed:     make(chan struct{}),
		tokens:     float64(messagesPerSecond),
		maxTokens:  float64(messagesPerSecond),
		refillRate: float64(messagesPerSecond),
		lastRefill: time.Now(),
	}
}

// Push attempts to deliver an update, subject to the session's rate
// limit and queue capacity. It never blocks.
func (s *Session) Push(update models.TimelineUpdate) {
	if !s.takeToken() {
		return
	}
	select {
	case s.pending <- update:
	default:
		// subscriber is behind; drop rather than blocking the fan-out worker
	}
}

func (s *Session) takeToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(s.lastRefill).Seconds()
	s.tokens += elapsed * s.refillRate
	if s.tokens > s.maxTokens {
		s.tokens = s.maxTokens
	}
	s.lastRefill = now

	if s.tokens < 1 {
		return false
	}
	s.tokens--
	return true
}

// Updates returns the channel the session's HTTP/websocket handler reads
// from to stream updates to the client.
func (s *Session) Updates() <-chan models.TimelineUpdate {
	return s.pending
}

// Done signals when the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Close marks the session closed; idempotent.
func (s *Session) Close() {
	s.once.Do(func() { close(s.closed) })
}

// Registry tracks every open session per viewer and is the Notifier the
// fan-out worker pushes TimelineUpdates through.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}

	queueCapacity     int
	messagesPerSecond int
	heartbeat         time.Duration
}

// NewRegistry creates a Registry with the defaults every new Session is
// configured with.
func NewRegistry(queueCapacity, messagesPerSecond int, heartbeat time.Duration) *Registry {
	return &Registry{
		sessions:          make(map[string]map[*Session]struct{}),
		queueCapacity:     queueCapacity,
		messagesPerSecond: messagesPerSecond,
		heartbeat:         heartbeat,
	}
}

// Open registers a new session for viewerID and returns it; the caller
// owns its lifecycle and must call Unregister on disconnect.
func (r *Registry) Open(viewerID string) *Session {
	s := NewSession(viewerID, r.queueCapacity, r.messagesPerSecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[viewerID] == nil {
		r.sessions[viewerID] = make(map[*Session]struct{})
	}
	r.sessions[viewerID][s] = struct{}{}
	return s
}

// Unregister removes a session on disconnect and closes it.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.sessions[s.ViewerID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(r.sessions, s.ViewerID)
		}
	}
	s.Close()
}

// Notify implements fanout.Notifier: pushes an update to every open
// session for the given viewer.
func (r *Registry) Notify(viewerID string, update models.TimelineUpdate) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for s := range r.sessions[viewerID] {
		s.Push(update)
	}
}

// HeartbeatInterval returns the configured keep-alive interval a
// session's handler should use to send a sentinel when idle.
func (r *Registry) HeartbeatInterval() time.Duration {
	return r.heartbeat
}

// OpenSessionCount reports how many sessions are open for a viewer, for
// metrics/testing.
func (r *Registry) OpenSessionCount(viewerID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[viewerID])
}
