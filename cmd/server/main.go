package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritik/timeline-core/internal/admission"
	"github.com/ritik/timeline-core/internal/api"
	"github.com/ritik/timeline-core/internal/cache"
	"github.com/ritik/timeline-core/internal/candidate"
	"github.com/ritik/timeline-core/internal/config"
	"github.com/ritik/timeline-core/internal/fanout"
	"github.com/ritik/timeline-core/internal/pipeline"
	"github.com/ritik/timeline-core/internal/repository"
	"github.com/ritik/timeline-core/internal/stream"
)

func main() {
	cfg := config.Get()

	db, err := repository.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repository.Close()

	if err := repository.RunMigrations(db, "internal/repository/migrations"); err != nil {
		log.Printf("Warning: Failed to run migrations: %v", err)
	}

	redisClient, err := cache.InitRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	// Repositories
	viewerRepo := repository.NewViewerRepository(db)
	followRepo := repository.NewFollowRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	listRepo := repository.NewListRepository(db)
	prefRepo := repository.NewPreferenceRepository(db, followRepo)

	// Two-tier result cache
	remoteCache := cache.NewRemoteCache(redisClient, time.Duration(cfg.TimelineCacheTTLMinutes)*time.Minute)
	localCache := cache.NewLocalCache(cfg.InProcessCacheCapacity, time.Duration(cfg.TimelineCacheTTLMinutes)*time.Minute)
	resultCache := cache.New(remoteCache, localCache)

	// Candidate sources, ordered by dedup precedence (models.Source.Ordinal)
	sources := []candidate.Source{
		candidate.NewFollowingSource(noteRepo, followRepo),
		candidate.NewRecommendedSource(noteRepo),
		candidate.NewTrendingSource(noteRepo),
		candidate.NewListsSource(noteRepo, listRepo),
	}

	// Pipeline: no Overdrive implementation is bundled (extension point only)
	p := pipeline.New(sources, noteRepo, followRepo, prefRepo, resultCache, nil, time.Duration(cfg.RequestDeadlineSeconds)*time.Second)

	// Streaming + fan-out
	streamRegistry := stream.NewRegistry(cfg.StreamSessionQueueCapacity, cfg.StreamMessagesPerSecond, time.Duration(cfg.StreamHeartbeatMillis)*time.Millisecond)
	fanoutWorker := fanout.New(cfg.FanoutQueueCapacity, cfg.FanoutShardSize, followRepo, resultCache, streamRegistry)

	fanoutCtx, cancelFanout := context.WithCancel(context.Background())
	go fanoutWorker.Run(fanoutCtx)

	// Admission gate
	admitter := admission.New(admission.DefaultConfig())
	defer admitter.Stop()

	metricsStore := api.NewMetricsStore()
	handler := api.NewHandler(cfg, p, streamRegistry, admitter, metricsStore, viewerRepo, followRepo)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // streaming responses stay open longer
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("timeline-core listening on http://localhost:%s\n", cfg.ServerPort)
		fmt.Println()
		fmt.Println("Available endpoints:")
		fmt.Println("   GET  /api/viewers/{viewer_id}/timeline            - General timeline")
		fmt.Println("   GET  /api/viewers/{viewer_id}/timeline/for-you    - For-You timeline")
		fmt.Println("   GET  /api/viewers/{viewer_id}/timeline/following  - Following timeline")
		fmt.Println("   POST /api/viewers/{viewer_id}/timeline/refresh    - Force refresh")
		fmt.Println("   POST /api/viewers/{viewer_id}/timeline/read       - Mark read")
		fmt.Println("   GET  /api/viewers/{viewer_id}/timeline/stream     - Subscribe to updates")
		fmt.Println("   POST /api/viewers/{viewer_id}/engagements         - Record engagement")
		fmt.Println("   GET  /api/metrics                                 - Metrics summary")
		fmt.Println("   GET  /health                                      - Health check")
		fmt.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down server...")
	cancelFanout()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	fmt.Println("Server stopped")
}
