package api

import (
	"sort"
	"sync"
	"time"
)

// OperationMetric records one pipeline run's timing and outcome, keyed
// by the entry point that produced it (General/ForYou/Following).
type OperationMetric struct {
	EntryPoint     string
	StartTime      time.Time
	EndTime        time.Time
	Success        bool
	CacheHit       bool
	CandidateCount int
	Error          error
}

// Duration returns the wall-clock time the operation took.
func (m *OperationMetric) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// MetricsStore holds a bounded ring of recent pipeline run metrics,
// mirroring the teacher's write/read metric split adapted to one
// request-shaped metric stream per pipeline entry point.
type MetricsStore struct {
	mu      sync.RWMutex
	metrics []*OperationMetric
	maxSize int
}

// NewMetricsStore creates a new MetricsStore holding up to 10k entries.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{
		metrics: make([]*OperationMetric, 0),
		maxSize: 10000,
	}
}

// Add records one pipeline run's metric.
func (ms *MetricsStore) Add(m *OperationMetric) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.metrics = append(ms.metrics, m)
	if len(ms.metrics) > ms.maxSize {
		ms.metrics = ms.metrics[len(ms.metrics)-ms.maxSize:]
	}
}

// EntryPointSummary holds aggregated latency/cache-hit metrics for one
// entry point.
type EntryPointSummary struct {
	RequestCount int     `json:"request_count"`
	LatencyAvg   string  `json:"latency_avg"`
	LatencyP50   string  `json:"latency_p50"`
	LatencyP95   string  `json:"latency_p95"`
	LatencyP99   string  `json:"latency_p99"`
	CacheHitRate float64 `json:"cache_hit_rate"`
	ErrorRate    float64 `json:"error_rate"`
}

// MetricsSummary holds the full aggregated metrics view.
type MetricsSummary struct {
	TotalRequests int                           `json:"total_requests"`
	ByEntryPoint  map[string]*EntryPointSummary `json:"by_entry_point"`
}

// GetSummary aggregates metrics per entry point.
func (ms *MetricsStore) GetSummary() *MetricsSummary {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	byEntryPoint := make(map[string][]*OperationMetric)
	for _, m := range ms.metrics {
		byEntryPoint[m.EntryPoint] = append(byEntryPoint[m.EntryPoint], m)
	}

	summary := &MetricsSummary{
		TotalRequests: len(ms.metrics),
		ByEntryPoint:  make(map[string]*EntryPointSummary),
	}

	for entryPoint, ms := range byEntryPoint {
		durations := make([]time.Duration, len(ms))
		var cacheHits, errors int
		for i, m := range ms {
			durations[i] = m.Duration()
			if m.CacheHit {
				cacheHits++
			}
			if !m.Success {
				errors++
			}
		}
		summary.ByEntryPoint[entryPoint] = &EntryPointSummary{
			RequestCount: len(ms),
			LatencyAvg:   avgDuration(durations).String(),
			LatencyP50:   percentileDuration(durations, 50).String(),
			LatencyP95:   percentileDuration(durations, 95).String(),
			LatencyP99:   percentileDuration(durations, 99).String(),
			CacheHitRate: float64(cacheHits) / float64(len(ms)),
			ErrorRate:    float64(errors) / float64(len(ms)),
		}
	}

	return summary
}

// RecentMetric is one metric point formatted for real-time display.
type RecentMetric struct {
	Timestamp  string `json:"timestamp"`
	EntryPoint string `json:"entry_point"`
	DurationMs int64  `json:"duration_ms"`
	CacheHit   bool   `json:"cache_hit"`
	Success    bool   `json:"success"`
}

// GetRecent returns the most recent metrics, newest first.
func (ms *MetricsStore) GetRecent(limit int) []RecentMetric {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	all := make([]*OperationMetric, len(ms.metrics))
	copy(all, ms.metrics)
	sort.Slice(all, func(i, j int) bool {
		return all[i].StartTime.After(all[j].StartTime)
	})
	if len(all) > limit {
		all = all[:limit]
	}

	result := make([]RecentMetric, len(all))
	for i, m := range all {
		result[i] = RecentMetric{
			Timestamp:  m.StartTime.Format(time.RFC3339Nano),
			EntryPoint: m.EntryPoint,
			DurationMs: m.Duration().Milliseconds(),
			CacheHit:   m.CacheHit,
			Success:    m.Success,
		}
	}
	return result
}

// Clear removes all stored metrics.
func (ms *MetricsStore) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.metrics = make([]*OperationMetric, 0)
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentileDuration(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
