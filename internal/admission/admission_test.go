package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize("viewer-1", false, "viewer-1"))
	assert.NoError(t, Authorize("admin-svc", true, "viewer-1"), "admin flag bypasses the identity match")
	assert.Error(t, Authorize("viewer-2", false, "viewer-1"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "general:viewer-1", Key(EndpointGeneral, "viewer-1"))
	assert.Equal(t, "stream:", Key(EndpointStream, ""))
}

func TestAdmitter_AllowsUpToBurstThenDenies(t *testing.T) {
	a := New(DefaultConfig())
	defer a.Stop()

	key := Key(EndpointGeneral, "viewer-1")
	for i := 0; i < 5; i++ {
		require.True(t, a.Allow(key, 60, 5), "request %d within burst should be admitted", i)
	}
	assert.False(t, a.Allow(key, 60, 5), "burst exhausted, next request should be shed")
}

func TestAdmitter_SeparateKeysHaveIndependentBudgets(t *testing.T) {
	a := New(DefaultConfig())
	defer a.Stop()

	keyA := Key(EndpointGeneral, "viewer-a")
	keyB := Key(EndpointGeneral, "viewer-b")

	for i := 0; i < 3; i++ {
		require.True(t, a.Allow(keyA, 60, 3))
	}
	assert.False(t, a.Allow(keyA, 60, 3))
	assert.True(t, a.Allow(keyB, 60, 3), "a different caller's budget is unaffected")
}

func TestAdmitter_LoweringRateRPMShrinksCeiling(t *testing.T) {
	a := New(DefaultConfig())
	defer a.Stop()

	key := Key(EndpointGeneral, "viewer-1")
	require.True(t, a.Allow(key, 600, 10))

	for i := 0; i < 10; i++ {
		a.Allow(key, 600, 10)
	}
	assert.False(t, a.Allow(key, 1, 1), "an x-rate-rpm override may only lower the ceiling, and a 1/min, burst-1 bucket should now be exhausted")
}

func TestAdmitter_SweepEvictsIdleBuckets(t *testing.T) {
	cfg := Config{NumShards: 4, CleanupInterval: 10 * time.Millisecond, InactivityTTL: 5 * time.Millisecond}
	a := New(cfg)
	defer a.Stop()

	key := Key(EndpointGeneral, "viewer-1")
	a.Allow(key, 60, 1)

	s := a.getShard(key)
	s.mu.Lock()
	_, exists := s.buckets[key]
	s.mu.Unlock()
	require.True(t, exists)

	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	_, stillExists := s.buckets[key]
	s.mu.Unlock()
	assert.False(t, stillExists, "idle bucket should be swept after InactivityTTL")
}
