// Package admission implements the C8 request admission gate: a sharded
// per-(endpoint class, caller id) token bucket map, grounded on the
// sharded rate-limiter pattern from the retrieval pack (RWMutex-guarded
// shards, lazy per-key bucket creation, background idle-client cleanup).
package admission

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config configures bucket defaults and shard topology.
type Config struct {
	NumShards       int
	CleanupInterval time.Duration
	InactivityTTL   time.Duration
}

// DefaultConfig returns production-ready defaults: 64 shards, a 5 minute
// cleanup sweep, 10 minute idle eviction.
func DefaultConfig() Config {
	return Config{
		NumShards:       64,
		CleanupInterval: 5 * time.Minute,
		InactivityTTL:   10 * time.Minute,
	}
}

type bucket struct {
	limiter       *rate.Limiter
	ratePerMinute int
	burst         int
	lastAccess    time.Time
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Admitter is the sharded request-admission gate. One Admitter instance
// is shared across all endpoint classes; callers key by
// "<endpoint-class>:<caller-id>" so General/ForYou/Following/stream
// subscriptions each get independent budgets per caller.
type Admitter struct {
	shards []*shard
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Admitter and starts its background cleanup loop.
func New(cfg Config) *Admitter {
	if cfg.NumShards <= 0 {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Admitter{
		shards: make([]*shard, cfg.NumShards),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := range a.shards {
		a.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	a.wg.Add(1)
	go a.cleanupLoop()
	return a
}

// Stop halts the background cleanup loop.
func (a *Admitter) Stop() {
	a.cancel()
	a.wg.Wait()
}

func (a *Admitter) getShard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return a.shards[h.Sum32()%uint32(len(a.shards))]
}

// Allow consumes one token for key, lazily creating its bucket at
// (ratePerMinute, burst) on first use. A caller whose bucket is empty is
// denied, not queued (spec.md §5: admission sheds, it never blocks).
// A caller may lower its own ceiling with x-rate-rpm; Allow re-tunes the
// limiter in place whenever the effective rate or burst shrinks.
func (a *Admitter) Allow(key string, ratePerMinute, burst int) bool {
	s := a.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{
			limiter:       rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60), burst),
			ratePerMinute: ratePerMinute,
			burst:         burst,
		}
		s.buckets[key] = b
	} else if ratePerMinute < b.ratePerMinute || burst < b.burst {
		b.ratePerMinute = ratePerMinute
		b.burst = burst
		b.limiter.SetLimit(rate.Limit(float64(ratePerMinute) / 60))
		b.limiter.SetBurst(burst)
	}
	b.lastAccess = now

	return b.limiter.AllowN(now, 1)
}

func (a *Admitter) cleanupLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

func (a *Admitter) sweep() {
	cutoff := time.Now().Add(-a.cfg.InactivityTTL)
	for _, s := range a.shards {
		s.mu.Lock()
		for key, b := range s.buckets {
			if b.lastAccess.Before(cutoff) {
				delete(s.buckets, key)
			}
		}
		s.mu.Unlock()
	}
}
