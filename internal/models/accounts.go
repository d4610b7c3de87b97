package models

import "time"

// Viewer represents an account in the underlying user store. The pipeline
// only ever sees viewer/author ids; Viewer itself belongs to the
// UserPreferenceStore/FollowGraph collaborators.
type Viewer struct {
	ViewerID      string    `json:"viewer_id" db:"viewer_id"`
	Username      string    `json:"username" db:"username"`
	FollowerCount int       `json:"follower_count" db:"follower_count"`
	FollowingCount int      `json:"following_count" db:"following_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AuthorList is a viewer-curated list of authors (backs the Lists source).
type AuthorList struct {
	ListID    string   `json:"list_id" db:"list_id"`
	OwnerID   string   `json:"owner_id" db:"owner_id"`
	Name      string   `json:"name" db:"name"`
	AuthorIDs []string `json:"author_ids,omitempty" db:"-"`
}

// EngagementEvent records one RecordEngagement call for feedback into the
// ranker's affinity tables.
type EngagementEvent struct {
	ViewerID        string
	NoteID          string
	Action          EngagementAction
	DurationSeconds float64
	RecordedAt      time.Time
}

// BenchmarkResult holds the results of a CLI benchmark run comparing
// pipeline entry points (General / For-You / Following).
type BenchmarkResult struct {
	EntryPoint      string        `json:"entry_point"`
	TotalRequests   int           `json:"total_requests"`
	LatencyP50      time.Duration `json:"latency_p50"`
	LatencyP95      time.Duration `json:"latency_p95"`
	LatencyP99      time.Duration `json:"latency_p99"`
	LatencyAvg      time.Duration `json:"latency_avg"`
	Throughput      float64       `json:"throughput"` // requests/sec
	CacheHitRate    float64       `json:"cache_hit_rate"`
	Duration        time.Duration `json:"duration"`
	Timestamp       time.Time     `json:"timestamp"`
}

// BenchmarkResultJSON is for JSON serialization with string durations.
type BenchmarkResultJSON struct {
	EntryPoint    string  `json:"entry_point"`
	TotalRequests int     `json:"total_requests"`
	LatencyP50    string  `json:"latency_p50"`
	LatencyP95    string  `json:"latency_p95"`
	LatencyP99    string  `json:"latency_p99"`
	LatencyAvg    string  `json:"latency_avg"`
	Throughput    float64 `json:"throughput"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Duration      string  `json:"duration"`
	Timestamp     string  `json:"timestamp"`
}

// ToJSON converts BenchmarkResult to JSON-friendly format.
func (b *BenchmarkResult) ToJSON() BenchmarkResultJSON {
	return BenchmarkResultJSON{
		EntryPoint:    b.EntryPoint,
		TotalRequests: b.TotalRequests,
		LatencyP50:    b.LatencyP50.String(),
		LatencyP95:    b.LatencyP95.String(),
		LatencyP99:    b.LatencyP99.String(),
		LatencyAvg:    b.LatencyAvg.String(),
		Throughput:    b.Throughput,
		CacheHitRate:  b.CacheHitRate,
		Duration:      b.Duration.String(),
		Timestamp:     b.Timestamp.Format(time.RFC3339),
	}
}

// SeedConfig holds configuration for data seeding.
type SeedConfig struct {
	ViewerCount    int     `json:"viewer_count"`
	AvgFollowers   int     `json:"avg_followers"`
	FollowerStdDev float64 `json:"follower_std_dev"`
	NotesPerViewer int     `json:"notes_per_viewer"`
	ListsPerViewer int     `json:"lists_per_viewer"`
}

// DefaultSeedConfig returns default seeding configuration.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		ViewerCount:    10000,
		AvgFollowers:   150,
		FollowerStdDev: 100,
		NotesPerViewer: 10,
		ListsPerViewer: 1,
	}
}
