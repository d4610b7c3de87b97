package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsStore_GetSummary_AggregatesPerEntryPoint(t *testing.T) {
	ms := NewMetricsStore()
	now := time.Now()

	ms.Add(&OperationMetric{EntryPoint: "general", StartTime: now, EndTime: now.Add(10 * time.Millisecond), Success: true, CacheHit: true})
	ms.Add(&OperationMetric{EntryPoint: "general", StartTime: now, EndTime: now.Add(20 * time.Millisecond), Success: false, CacheHit: false})
	ms.Add(&OperationMetric{EntryPoint: "for_you", StartTime: now, EndTime: now.Add(5 * time.Millisecond), Success: true, CacheHit: false})

	summary := ms.GetSummary()

	assert.Equal(t, 3, summary.TotalRequests)
	require.Contains(t, summary.ByEntryPoint, "general")
	general := summary.ByEntryPoint["general"]
	assert.Equal(t, 2, general.RequestCount)
	assert.InDelta(t, 0.5, general.CacheHitRate, 1e-9)
	assert.InDelta(t, 0.5, general.ErrorRate, 1e-9)

	forYou := summary.ByEntryPoint["for_you"]
	assert.Equal(t, 1, forYou.RequestCount)
	assert.Zero(t, forYou.ErrorRate)
}

func TestMetricsStore_Clear(t *testing.T) {
	ms := NewMetricsStore()
	ms.Add(&OperationMetric{EntryPoint: "general", StartTime: time.Now(), EndTime: time.Now()})

	ms.Clear()

	assert.Equal(t, 0, ms.GetSummary().TotalRequests)
}

func TestMetricsStore_GetRecent_NewestFirstAndLimited(t *testing.T) {
	ms := NewMetricsStore()
	base := time.Now()

	ms.Add(&OperationMetric{EntryPoint: "general", StartTime: base, EndTime: base})
	ms.Add(&OperationMetric{EntryPoint: "general", StartTime: base.Add(time.Second), EndTime: base.Add(time.Second)})
	ms.Add(&OperationMetric{EntryPoint: "general", StartTime: base.Add(2 * time.Second), EndTime: base.Add(2 * time.Second)})

	recent := ms.GetRecent(2)

	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(2*time.Second).Format(time.RFC3339Nano), recent[0].Timestamp)
	assert.Equal(t, base.Add(time.Second).Format(time.RFC3339Nano), recent[1].Timestamp)
}

func TestAvgAndPercentileDuration_EmptyInputIsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), avgDuration(nil))
	assert.Equal(t, time.Duration(0), percentileDuration(nil, 50))
}

func TestPercentileDuration_P50OfSortedSet(t *testing.T) {
	durations := []time.Duration{
		100 * time.Millisecond,
		300 * time.Millisecond,
		200 * time.Millisecond,
	}
	assert.Equal(t, 200*time.Millisecond, percentileDuration(durations, 50))
}
