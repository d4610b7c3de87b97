// Package pipeline orchestrates the C5 timeline assembly: config
// resolution, cache probe, candidate fan-out, dedupe, filtering,
// scoring, capping, optional Overdrive re-rank, cache write-back and
// pagination.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ritik/timeline-core/internal/cache"
	"github.com/ritik/timeline-core/internal/candidate"
	"github.com/ritik/timeline-core/internal/config"
	"github.com/ritik/timeline-core/internal/filter"
	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/ranker"
	"github.com/ritik/timeline-core/internal/repository"
)

// Pipeline wires every C1-C4 collaborator into the three entry points
// named in spec.md §6: General, ForYou, Following.
type Pipeline struct {
	sources   []candidate.Source
	notes     repository.NoteStore
	graph     repository.FollowGraph
	prefs     repository.UserPreferenceStore
	cache     *cache.Cache
	overdrive Overdrive

	requestTimeout time.Duration
}

// New creates a Pipeline. overdrive may be nil: UseOverdrive is then
// always treated as a no-op regardless of config/request overrides.
func New(sources []candidate.Source, notes repository.NoteStore, graph repository.FollowGraph, prefs repository.UserPreferenceStore, c *cache.Cache, overdrive Overdrive, requestTimeout time.Duration) *Pipeline {
	return &Pipeline{
		sources:        sources,
		notes:          notes,
		graph:          graph,
		prefs:          prefs,
		cache:          c,
		overdrive:      overdrive,
		requestTimeout: requestTimeout,
	}
}

// Request is the normalized input to every GetTimeline-family entry
// point after header parsing (internal/api owns header decoding).
type Request struct {
	ViewerID   string
	Offset     int
	Limit      int
	Overrides  *config.RequestOverrides
	ForceFresh bool // RefreshTimeline bypasses the cache read, not the write

	// Since and MaxItems are RefreshTimeline-only (spec.md §6): Since,
	// when set, restricts the response to items newer than it; MaxItems,
	// when positive, overrides the resolved config's max_items for this
	// call only.
	Since    time.Time
	MaxItems int
}

// GetTimeline is the General entry point: default HYBRID mix resolved
// from defaults merged with stored viewer preferences and any
// per-request overrides.
func (p *Pipeline) GetTimeline(ctx context.Context, req Request) (models.TimelineResponse, error) {
	return p.run(ctx, req, config.DefaultTimelineConfig())
}

// GetForYou is the For-You entry point: forces HYBRID with a
// discovery-weighted mix.
func (p *Pipeline) GetForYou(ctx context.Context, req Request) (models.TimelineResponse, error) {
	return p.run(ctx, req, config.ForYouConfig())
}

// GetFollowing is the Following entry point: forces CHRONOLOGICAL with
// following_ratio = 1.
func (p *Pipeline) GetFollowing(ctx context.Context, req Request) (models.TimelineResponse, error) {
	return p.run(ctx, req, config.FollowingConfig())
}

// RefreshTimeline forces a cache invalidation and a fresh pipeline run,
// then restricts the result to items newer than req.Since (spec.md §6:
// `RefreshTimeline { viewer_id, since, max_items }` returns only items
// newer than since).
func (p *Pipeline) RefreshTimeline(ctx context.Context, req Request) (models.TimelineResponse, error) {
	req.ForceFresh = true
	p.invalidateViewer(ctx, req.ViewerID)
	return p.run(ctx, req, config.DefaultTimelineConfig())
}

func (p *Pipeline) run(ctx context.Context, req Request, base models.TimelineConfig) (models.TimelineResponse, error) {
	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}

	profile, err := p.resolveProfile(ctx, req.ViewerID)
	if err != nil {
		return models.TimelineResponse{}, fmt.Errorf("resolve profile: %w", err)
	}

	cfg, err := p.resolveConfig(ctx, req.ViewerID, base, req.Overrides)
	if err != nil {
		return models.TimelineResponse{}, fmt.Errorf("resolve config: %w", err)
	}
	if req.MaxItems > 0 {
		cfg.MaxItems = req.MaxItems
	}

	var items []models.RankedItem
	fromCache := false
	if !req.ForceFresh {
		if cached, hit := p.cache.Get(ctx, cacheKey(req.ViewerID, cfg)); hit {
			items = cached
			fromCache = true
		}
	}

	if !fromCache {
		items, err = p.assemble(ctx, req.ViewerID, profile, cfg)
		if err != nil {
			return models.TimelineResponse{}, err
		}
		p.cache.Put(ctx, cacheKey(req.ViewerID, cfg), items)
	}

	if !req.Since.IsZero() {
		items = newerThan(items, req.Since)
	}

	page, pagination := paginate(items, req.Offset, req.Limit, cfg.MaxItems)

	return models.TimelineResponse{
		Items: page,
		Metadata: models.Metadata{
			AlgorithmUsed:          cfg.Algorithm,
			SignalWeights:          cfg.Weights,
			TotalItems:             len(items),
			NewItemsSinceLastFetch: newItemsSince(items, p.lastRead(ctx, req.ViewerID)),
			LastUpdated:            time.Now().UTC(),
		},
		Pagination: pagination,
	}, nil
}

// assemble runs the full uncached path: candidate fan-out, dedupe,
// filter, score, cap, optional Overdrive re-rank.
func (p *Pipeline) assemble(ctx context.Context, viewerID string, profile *models.ViewerProfile, cfg models.TimelineConfig) ([]models.RankedItem, error) {
	quotas := buildQuotas(p.sources, cfg)

	deadline, ok := ctx.Deadline()
	perSourceTimeout := 200 * time.Millisecond
	if ok {
		remaining := time.Until(deadline)
		if remaining > 0 {
			perSourceTimeout = remaining * 40 / 100
		}
	}

	since := time.Now().Add(-time.Duration(cfg.MaxAgeHours) * time.Hour)
	results := candidate.FetchAll(ctx, quotas, viewerID, profile, since, perSourceTimeout)

	notesBySource := make(map[string]models.Source)
	noteByID := make(map[string]models.Note)
	for _, r := range results {
		if r.Err != nil {
			logrus.WithFields(logrus.Fields{"viewer": viewerID, "source": r.Source, "error": r.Err}).Warn("candidate source degraded")
			continue
		}
		for _, n := range r.Notes {
			if existing, seen := notesBySource[n.NoteID]; seen && existing.Ordinal() <= r.Source.Ordinal() {
				continue
			}
			notesBySource[n.NoteID] = r.Source
			noteByID[n.NoteID] = n
		}
	}

	all := make([]models.Note, 0, len(noteByID))
	for _, n := range noteByID {
		all = append(all, n)
	}

	filtered, err := filter.Apply(all, profile)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	sourceNames := make(map[string]models.Source, len(notesBySource))
	for k, v := range notesBySource {
		sourceNames[k] = v
	}

	scored := ranker.Score(filtered, sourceNames, profile, cfg, time.Now())
	annotateInjectionReason(scored)
	capped := enforceCaps(scored, cfg)

	if cfg.UseOverdrive && p.overdrive != nil {
		capped, err = p.applyOverdrive(ctx, viewerID, capped)
		if err != nil {
			logrus.WithFields(logrus.Fields{"viewer": viewerID, "error": err}).Warn("overdrive re-rank failed, keeping base ranking")
		}
	}

	return capped, nil
}

func (p *Pipeline) resolveProfile(ctx context.Context, viewerID string) (*models.ViewerProfile, error) {
	if profile, hit := p.cache.GetProfile(ctx, viewerID); hit {
		return profile, nil
	}
	profile, err := p.prefs.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	p.cache.PutProfile(ctx, profile, 10*time.Minute)
	return profile, nil
}

func (p *Pipeline) resolveConfig(ctx context.Context, viewerID string, base models.TimelineConfig, overrides *config.RequestOverrides) (models.TimelineConfig, error) {
	prefs, err := p.prefs.GetOverrides(ctx, viewerID)
	if err != nil {
		return models.TimelineConfig{}, err
	}
	cfg := config.MergeViewerPreferences(base, prefs)
	cfg = config.ApplyRequestOverrides(cfg, overrides)
	return cfg, nil
}

func (p *Pipeline) lastRead(ctx context.Context, viewerID string) time.Time {
	if at, hit := p.cache.GetLastRead(ctx, viewerID); hit {
		return at
	}
	at, err := p.prefs.LastReadAt(ctx, viewerID)
	if err != nil {
		return time.Time{}
	}
	return at
}

func newItemsSince(items []models.RankedItem, since time.Time) int {
	if since.IsZero() {
		return len(items)
	}
	count := 0
	for _, it := range items {
		if it.Note.CreatedAt.After(since) {
			count++
		}
	}
	return count
}

// newerThan filters items down to those created after since, preserving
// order (used by RefreshTimeline, spec.md §6).
func newerThan(items []models.RankedItem, since time.Time) []models.RankedItem {
	out := make([]models.RankedItem, 0, len(items))
	for _, it := range items {
		if it.Note.CreatedAt.After(since) {
			out = append(out, it)
		}
	}
	return out
}

// MarkTimelineRead records the viewer's read checkpoint.
func (p *Pipeline) MarkTimelineRead(ctx context.Context, viewerID string, at time.Time) error {
	p.cache.SetLastRead(ctx, viewerID, at)
	return p.prefs.SetLastReadAt(ctx, viewerID, at)
}

// RecordEngagement folds one engagement event into the affinity tables
// and invalidates the viewer's cached timeline so the next fetch
// reflects the updated personalization state.
func (p *Pipeline) RecordEngagement(ctx context.Context, event models.EngagementEvent) error {
	note, err := p.notes.GetByID(ctx, event.NoteID)
	if err != nil {
		return fmt.Errorf("record engagement: load note: %w", err)
	}
	if err := ranker.RecordEngagement(ctx, p.prefs, event, *note); err != nil {
		return fmt.Errorf("record engagement: %w", err)
	}
	p.invalidateViewer(ctx, event.ViewerID)
	return nil
}

// invalidateViewer drops every cached timeline of viewerID; results are
// cached under one key per algorithm (see cacheKey).
func (p *Pipeline) invalidateViewer(ctx context.Context, viewerID string) {
	for _, alg := range []models.Algorithm{models.AlgorithmHybrid, models.AlgorithmChronological} {
		p.cache.Invalidate(ctx, cacheKey(viewerID, models.TimelineConfig{Algorithm: alg}))
	}
}

// cacheKey namespaces cached results by algorithm, since General,
// For-You and Following resolve to different mixes for the same viewer.
func cacheKey(viewerID string, cfg models.TimelineConfig) string {
	return viewerID + ":" + string(cfg.Algorithm)
}

// NewNoteID generates a fresh note identifier (spec.md §3: ids are opaque
// strings, not database-assigned integers).
func NewNoteID() string {
	return uuid.NewString()
}
