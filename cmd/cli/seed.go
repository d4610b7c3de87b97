package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ritik/timeline-core/internal/cache"
	"github.com/ritik/timeline-core/internal/config"
	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
	"github.com/spf13/cobra"
)

var (
	seedViewers     int
	seedAvgFollows  int
	seedNotesPer    int
	seedListsPer    int
	seedClear       bool
)

func init() {
	seedCmd.Flags().IntVar(&seedViewers, "viewers", 10000, "Number of viewers to create")
	seedCmd.Flags().IntVar(&seedAvgFollows, "avg-follows", 150, "Average follow edges per viewer")
	seedCmd.Flags().IntVar(&seedNotesPer, "notes-per-viewer", 10, "Notes per viewer")
	seedCmd.Flags().IntVar(&seedListsPer, "lists-per-viewer", 1, "Author lists per viewer")
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a synthetic social graph",
	Long: `Generate test viewers, follows, notes, and lists for benchmarking.

This creates a realistic social graph with:
  - Viewers with varying follower counts
  - A small set of high-follower-count authors the graph gravitates toward
  - A follow graph following a power-law distribution
  - Sample notes per viewer, some tagged with hashtags
  - Author lists sampled from each viewer's follow set`,
	Run: runSeed,
}

var sampleHashtags = []string{"golang", "coffee", "sports", "music", "news", "tech", "travel", "food", "books", "art"}

var sampleTexts = []string{
	"Just had the best coffee! ☕ #coffee",
	"Working on something exciting... #tech",
	"Beautiful day outside! 🌞",
	"Can't believe this happened today",
	"Learning new things every day #golang",
	"Just finished a great book 📚 #books",
	"Thinking about the future...",
	"Great meeting with the team today #tech",
	"Weekend vibes! 🎉 #music",
	"Grateful for all the support",
	"New project coming soon! #golang",
	"Just hit a major milestone 🎯",
	"Coffee and code, perfect combo #coffee #tech",
	"Exploring new ideas today #art",
	"Thankful for this community",
}

func runSeed(cmd *cobra.Command, args []string) {
	fmt.Println("Seeding database...")
	fmt.Printf("   Viewers: %d\n", seedViewers)
	fmt.Printf("   Avg follows: %d\n", seedAvgFollows)
	fmt.Printf("   Notes per viewer: %d\n", seedNotesPer)
	fmt.Printf("   Lists per viewer: %d\n", seedListsPer)
	fmt.Println()

	cfg := config.Get()
	ctx := context.Background()

	db, err := repository.InitDB(cfg)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer repository.Close()

	if err := repository.RunMigrations(db, "internal/repository/migrations"); err != nil {
		fmt.Printf("Warning: Failed to run migrations: %v\n", err)
	}

	if _, err := cache.InitRedis(cfg); err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	viewerRepo := repository.NewViewerRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	followRepo := repository.NewFollowRepository(db)
	listRepo := repository.NewListRepository(db)

	if seedClear {
		fmt.Println("Clearing existing data...")
		followRepo.Truncate(ctx)
		noteRepo.Truncate(ctx)
		viewerRepo.Truncate(ctx)
		cache.FlushAll(ctx)
		fmt.Println("   Done")
	}

	fmt.Printf("Creating %d viewers...\n", seedViewers)
	start := time.Now()

	viewerIDs := make([]string, seedViewers)
	batch := make([]models.Viewer, 0, 1000)
	for i := 0; i < seedViewers; i++ {
		id := uuid.NewString()
		viewerIDs[i] = id
		batch = append(batch, models.Viewer{ViewerID: id, Username: fmt.Sprintf("viewer_%d", i+1)})
		if len(batch) == 1000 || i == seedViewers-1 {
			if err := viewerRepo.BulkCreate(ctx, batch); err != nil {
				fmt.Printf("Failed to create viewers: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("   Created %d/%d viewers\r", i+1, seedViewers)
			batch = batch[:0]
		}
	}
	fmt.Printf("   Created %d viewers in %v\n", seedViewers, time.Since(start))

	// A small high-indegree subset gets followed disproportionately,
	// producing the power-law shape the Trending/Recommended sources
	// are designed to rank against.
	hubCount := seedViewers / 200
	if hubCount < 1 {
		hubCount = 1
	}

	fmt.Println("Creating follow relationships...")
	start = time.Now()

	totalFollows := seedViewers * seedAvgFollows
	follows := make([]repository.FollowPair, 0, totalFollows)
	for i := 0; i < totalFollows; i++ {
		followerIdx := rand.Intn(len(viewerIDs))

		var followeeIdx int
		if rand.Float64() < 0.3 {
			followeeIdx = rand.Intn(hubCount)
		} else {
			followeeIdx = rand.Intn(len(viewerIDs))
		}
		if followerIdx == followeeIdx {
			continue
		}
		follows = append(follows, repository.FollowPair{FollowerID: viewerIDs[followerIdx], FolloweeID: viewerIDs[followeeIdx]})
	}

	for i := 0; i < len(follows); i += 1000 {
		end := i + 1000
		if end > len(follows) {
			end = len(follows)
		}
		if err := followRepo.BulkCreate(ctx, follows[i:end]); err != nil {
			fmt.Printf("Warning: some follows failed: %v\n", err)
		}
		fmt.Printf("   Created %d/%d follows\r", end, len(follows))
	}
	fmt.Printf("   Created %d follows in %v\n", len(follows), time.Since(start))

	if err := viewerRepo.RefreshFollowCounts(ctx); err != nil {
		fmt.Printf("Warning: failed to refresh follow counts: %v\n", err)
	}

	fmt.Println("Creating notes...")
	start = time.Now()

	notes := make([]models.Note, 0, seedViewers*seedNotesPer)
	noteHashtags := make(map[string][]string)
	now := time.Now()
	for _, authorID := range viewerIDs {
		for j := 0; j < seedNotesPer; j++ {
			id := uuid.NewString()
			text := sampleTexts[rand.Intn(len(sampleTexts))]
			note := models.Note{
				NoteID:      id,
				AuthorID:    authorID,
				TextContent: text,
				CreatedAt:   now.Add(-time.Duration(rand.Intn(72)) * time.Hour),
				HasMedia:    rand.Float64() < 0.2,
			}
			notes = append(notes, note)
			if rand.Float64() < 0.4 {
				noteHashtags[id] = []string{sampleHashtags[rand.Intn(len(sampleHashtags))]}
			}
		}
	}

	for i := 0; i < len(notes); i += 1000 {
		end := i + 1000
		if end > len(notes) {
			end = len(notes)
		}
		if err := noteRepo.BulkCreate(ctx, notes[i:end]); err != nil {
			fmt.Printf("Warning: some notes failed: %v\n", err)
		}
		fmt.Printf("   Created %d/%d notes\r", end, len(notes))
	}
	for noteID, tags := range noteHashtags {
		_ = noteRepo.AddHashtags(ctx, noteID, tags)
	}
	fmt.Printf("   Created %d notes in %v\n", len(notes), time.Since(start))

	fmt.Println("Creating author lists...")
	start = time.Now()
	listCount := 0
	for _, ownerID := range viewerIDs {
		for j := 0; j < seedListsPer; j++ {
			following, err := followRepo.Following(ctx, ownerID)
			if err != nil || len(following) == 0 {
				continue
			}
			listID := uuid.NewString()
			if _, err := listRepo.Create(ctx, listID, ownerID, fmt.Sprintf("list-%d", j+1)); err != nil {
				continue
			}
			memberCount := 5
			if memberCount > len(following) {
				memberCount = len(following)
			}
			for k := 0; k < memberCount; k++ {
				_ = listRepo.AddMember(ctx, listID, following[rand.Intn(len(following))])
			}
			listCount++
		}
	}
	fmt.Printf("   Created %d lists in %v\n", listCount, time.Since(start))

	fmt.Println()
	fmt.Println("Seeding complete!")
	fmt.Println()

	viewerCount, _ := viewerRepo.Count(ctx)
	noteCount, _ := noteRepo.Count(ctx)
	followCount, _ := followRepo.Count(ctx)

	fmt.Println("Database Statistics:")
	fmt.Printf("   Total viewers: %d\n", viewerCount)
	fmt.Printf("   Total notes:   %d\n", noteCount)
	fmt.Printf("   Total follows: %d\n", followCount)
	fmt.Printf("   Total lists:   %d\n", listCount)
}
