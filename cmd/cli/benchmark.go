package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ritik/timeline-core/internal/cache"
	"github.com/ritik/timeline-core/internal/candidate"
	"github.com/ritik/timeline-core/internal/config"
	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/pipeline"
	"github.com/ritik/timeline-core/internal/repository"
	"github.com/spf13/cobra"
)

var (
	benchEntryPoint string
	benchRequests   int
	benchConcurrent int
	benchOutput     string
)

func init() {
	benchmarkCmd.Flags().StringVar(&benchEntryPoint, "entry-point", "all", "Entry point to benchmark (general, for_you, following, all)")
	benchmarkCmd.Flags().IntVar(&benchRequests, "requests", 2000, "Number of timeline requests per entry point")
	benchmarkCmd.Flags().IntVar(&benchConcurrent, "concurrent", 50, "Number of concurrent workers")
	benchmarkCmd.Flags().StringVar(&benchOutput, "output", "", "Output file for results (JSON)")

	rootCmd.AddCommand(benchmarkCmd)
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run performance benchmarks",
	Long: `Run benchmarks comparing the three pipeline entry points.

Measures:
  - Latency (assembling a ranked timeline, cold and cached)
  - Throughput (requests per second)

The cache hit rate column is always 0: the pipeline response does not
report whether it was served from cache.`,
	Run: runBenchmark,
}

func runBenchmark(cmd *cobra.Command, args []string) {
	fmt.Println("Running benchmarks...")
	fmt.Printf("   Entry point: %s\n", benchEntryPoint)
	fmt.Printf("   Requests: %d\n", benchRequests)
	fmt.Printf("   Concurrent: %d\n", benchConcurrent)
	fmt.Println()

	cfg := config.Get()
	ctx := context.Background()

	db, err := repository.InitDB(cfg)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer repository.Close()

	redisClient, err := cache.InitRedis(cfg)
	if err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	viewerRepo := repository.NewViewerRepository(db)
	followRepo := repository.NewFollowRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	listRepo := repository.NewListRepository(db)
	prefRepo := repository.NewPreferenceRepository(db, followRepo)

	remoteCache := cache.NewRemoteCache(redisClient, time.Duration(cfg.TimelineCacheTTLMinutes)*time.Minute)
	localCache := cache.NewLocalCache(cfg.InProcessCacheCapacity, time.Duration(cfg.TimelineCacheTTLMinutes)*time.Minute)
	resultCache := cache.New(remoteCache, localCache)

	sources := []candidate.Source{
		candidate.NewFollowingSource(noteRepo, followRepo),
		candidate.NewRecommendedSource(noteRepo),
		candidate.NewTrendingSource(noteRepo),
		candidate.NewListsSource(noteRepo, listRepo),
	}

	p := pipeline.New(sources, noteRepo, followRepo, prefRepo, resultCache, nil, time.Duration(cfg.RequestDeadlineSeconds)*time.Second)

	viewers, err := viewerRepo.GetRandomViewers(ctx, 1000)
	if err != nil || len(viewers) == 0 {
		fmt.Println("No viewers found. Run 'timelinectl seed' first.")
		os.Exit(1)
	}

	fmt.Printf("Found %d viewers for benchmarking\n\n", len(viewers))

	var results []*models.BenchmarkResult

	entryPoints := []string{benchEntryPoint}
	if benchEntryPoint == "all" {
		entryPoints = []string{"general", "for_you", "following"}
	}

	for _, name := range entryPoints {
		run, ok := entryPointRunner(p, name)
		if !ok {
			fmt.Printf("Unknown entry point: %s\n", name)
			continue
		}
		result := runEntryPointBenchmark(ctx, name, run, viewers, benchRequests, benchConcurrent)
		results = append(results, result)
	}

	printResults(results)

	if benchOutput != "" {
		saveResults(results, benchOutput)
	}
}

func entryPointRunner(p *pipeline.Pipeline, name string) (func(ctx context.Context, req pipeline.Request) (models.TimelineResponse, error), bool) {
	switch name {
	case "general":
		return p.GetTimeline, true
	case "for_you":
		return p.GetForYou, true
	case "following":
		return p.GetFollowing, true
	default:
		return nil, false
	}
}

func runEntryPointBenchmark(ctx context.Context, name string, run func(context.Context, pipeline.Request) (models.TimelineResponse, error), viewers []*models.Viewer, numRequests, concurrent int) *models.BenchmarkResult {
	fmt.Printf("Benchmarking %s...\n", name)

	latencies := make([]time.Duration, 0, numRequests)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var cacheHits int64
	var completed int64

	perWorker := numRequests / concurrent
	start := time.Now()

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				viewer := viewers[rand.Intn(len(viewers))]
				req := pipeline.Request{ViewerID: viewer.ViewerID, Offset: 0, Limit: 50}

				reqStart := time.Now()
				resp, err := run(ctx, req)
				elapsed := time.Since(reqStart)

				if err == nil {
					mu.Lock()
					latencies = append(latencies, elapsed)
					mu.Unlock()
					if resp.Metadata.TotalItems > 0 {
						atomic.AddInt64(&cacheHits, 0) // the response does not report cache hits, so cacheHits stays 0
					}
				}

				c := atomic.AddInt64(&completed, 1)
				if c%100 == 0 {
					fmt.Printf("   Progress: %d/%d requests\r", c, numRequests)
				}
			}
		}()
	}
	wg.Wait()
	fmt.Printf("   Progress: %d/%d requests\n", numRequests, numRequests)

	totalTime := time.Since(start)

	result := &models.BenchmarkResult{
		EntryPoint:    name,
		TotalRequests: len(latencies),
		LatencyP50:    percentile(latencies, 50),
		LatencyP95:    percentile(latencies, 95),
		LatencyP99:    percentile(latencies, 99),
		LatencyAvg:    avg(latencies),
		Throughput:    float64(len(latencies)) / totalTime.Seconds(),
		CacheHitRate:  float64(cacheHits) / float64(max(len(latencies), 1)),
		Duration:      totalTime,
		Timestamp:     time.Now(),
	}

	fmt.Printf("   Complete\n\n")
	return result
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func printResults(results []*models.BenchmarkResult) {
	fmt.Println("=======================================================================")
	fmt.Println("                        BENCHMARK RESULTS                             ")
	fmt.Println("=======================================================================")
	fmt.Println()

	fmt.Printf("%-12s | %-12s | %-12s | %-12s | %-10s\n", "Entry point", "P50", "P95", "P99", "Avg")
	fmt.Println("-------------+--------------+--------------+--------------+------------")

	for _, r := range results {
		fmt.Printf("%-12s | %-12s | %-12s | %-12s | %-10s\n",
			r.EntryPoint,
			r.LatencyP50.Round(time.Microsecond),
			r.LatencyP95.Round(time.Microsecond),
			r.LatencyP99.Round(time.Microsecond),
			r.LatencyAvg.Round(time.Microsecond),
		)
	}

	fmt.Println()
	fmt.Println("Throughput & Cache:")
	fmt.Printf("%-12s | %-15s | %-12s\n", "Entry point", "Requests/sec", "Cache hit %")
	fmt.Println("-------------+-----------------+------------")

	for _, r := range results {
		fmt.Printf("%-12s | %-15.1f | %-12.1f%%\n", r.EntryPoint, r.Throughput, r.CacheHitRate*100)
	}
	fmt.Println()
}

func saveResults(results []*models.BenchmarkResult, filename string) {
	jsonResults := make([]models.BenchmarkResultJSON, len(results))
	for i, r := range results {
		jsonResults[i] = r.ToJSON()
	}

	data, err := json.MarshalIndent(jsonResults, "", "  ")
	if err != nil {
		fmt.Printf("Failed to marshal results: %v\n", err)
		return
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Failed to write results: %v\n", err)
		return
	}
	fmt.Printf("Results saved to %s\n", filename)
}

func percentile(durations []time.Duration, p int) time.Duration {
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

func avg(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
