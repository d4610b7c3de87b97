package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ritik/timeline-core/internal/config"
	"github.com/ritik/timeline-core/internal/models"
)

// UserPreferenceStore is the collaborator the pipeline uses to resolve a
// viewer's stored TimelineConfig overrides and moderation state
// (spec.md §3 ViewerProfile / §4.5 config resolution).
type UserPreferenceStore interface {
	GetOverrides(ctx context.Context, viewerID string) (*config.ViewerPreferenceOverrides, error)
	GetProfile(ctx context.Context, viewerID string) (*models.ViewerProfile, error)
	UpdateAffinity(ctx context.Context, viewerID, authorID string, delta, cap float64) error
	MarkEngagedHashtag(ctx context.Context, viewerID, hashtag string) error
	LastReadAt(ctx context.Context, viewerID string) (time.Time, error)
	SetLastReadAt(ctx context.Context, viewerID string, at time.Time) error
}

// PreferenceRepository is the Postgres-backed UserPreferenceStore.
type PreferenceRepository struct {
	db    *sqlx.DB
	graph FollowGraph
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB, graph FollowGraph) *PreferenceRepository {
	return &PreferenceRepository{db: db, graph: graph}
}

type preferenceRow struct {
	WeightRecency         float64        `db:"weight_recency"`
	WeightEngagement      float64        `db:"weight_engagement"`
	WeightAuthorAffinity  float64        `db:"weight_author_affinity"`
	WeightContentQuality  float64        `db:"weight_content_quality"`
	WeightPersonalization float64        `db:"weight_personalization"`
	WeightDiversity       float64        `db:"weight_diversity"`
	MaxItems              int            `db:"max_items"`
	MaxAgeHours           float64        `db:"max_age_hours"`
	NSFWOptIn             bool           `db:"nsfw_opt_in"`
	MutedUsers            pq.StringArray `db:"muted_users"`
	MutedKeywords         pq.StringArray `db:"muted_keywords"`
	LastUpdated           time.Time      `db:"last_updated"`
}

const preferenceColumns = `weight_recency, weight_engagement, weight_author_affinity, weight_content_quality, weight_personalization, weight_diversity, max_items, max_age_hours, nsfw_opt_in, muted_users, muted_keywords, last_updated`

// GetOverrides loads the stored per-viewer weight/max_items/max_age
// overrides (spec.md §4.5 step 2: defaults merged with viewer prefs).
func (r *PreferenceRepository) GetOverrides(ctx context.Context, viewerID string) (*config.ViewerPreferenceOverrides, error) {
	row := preferenceRow{}
	query := `SELECT ` + preferenceColumns + ` FROM viewer_preferences WHERE viewer_id = $1`
	err := r.db.GetContext(ctx, &row, query, viewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return &config.ViewerPreferenceOverrides{
		WeightRecency:         row.WeightRecency,
		WeightEngagement:      row.WeightEngagement,
		WeightAuthorAffinity:  row.WeightAuthorAffinity,
		WeightContentQuality:  row.WeightContentQuality,
		WeightPersonalization: row.WeightPersonalization,
		WeightDiversity:       row.WeightDiversity,
		MaxItems:              row.MaxItems,
		MaxAgeHours:           row.MaxAgeHours,
	}, nil
}

// GetProfile assembles a full ViewerProfile: follow set from the graph,
// affinity/moderation state from viewer_preferences + author_affinity.
// A viewer with no stored row gets a lazily-defaulted profile
// (NewViewerProfile), per spec.md's NONE -> DEFAULTED state transition.
func (r *PreferenceRepository) GetProfile(ctx context.Context, viewerID string) (*models.ViewerProfile, error) {
	profile := models.NewViewerProfile(viewerID)

	following, err := r.graph.Following(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load follow set: %w", err)
	}
	for _, id := range following {
		profile.FollowSet[id] = struct{}{}
	}

	row := preferenceRow{}
	query := `SELECT ` + preferenceColumns + ` FROM viewer_preferences WHERE viewer_id = $1`
	err = r.db.GetContext(ctx, &row, query, viewerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if err == nil {
		profile.NSFWOptIn = row.NSFWOptIn
		profile.LastUpdated = row.LastUpdated
		for _, u := range row.MutedUsers {
			profile.MutedUsers[u] = struct{}{}
		}
		for _, k := range row.MutedKeywords {
			profile.MutedKeywords[k] = struct{}{}
		}
	}

	var affinities []struct {
		AuthorID string  `db:"author_id"`
		Affinity float64 `db:"affinity"`
	}
	err = r.db.SelectContext(ctx, &affinities, `SELECT author_id, affinity FROM author_affinity WHERE viewer_id = $1`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load affinities: %w", err)
	}
	for _, a := range affinities {
		profile.AuthorAffinity[a.AuthorID] = a.Affinity
	}

	var globalAffinities []struct {
		AuthorID string  `db:"author_id"`
		Affinity float64 `db:"affinity"`
	}
	err = r.db.SelectContext(ctx, &globalAffinities, `SELECT author_id, affinity FROM author_affinity WHERE viewer_id = $1`, models.GlobalAuthorKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load global author affinities: %w", err)
	}
	for _, a := range globalAffinities {
		profile.GlobalAuthorAffinity[a.AuthorID] = a.Affinity
	}

	return profile, nil
}

// UpdateAffinity applies a monotonic capped update to one viewer-author
// affinity score (spec.md §4.3 record_engagement: affinity += delta,
// capped at `cap`).
func (r *PreferenceRepository) UpdateAffinity(ctx context.Context, viewerID, authorID string, delta, cap float64) error {
	query := `
		INSERT INTO author_affinity (viewer_id, author_id, affinity)
		VALUES ($1, $2, LEAST($3, $4))
		ON CONFLICT (viewer_id, author_id)
		DO UPDATE SET affinity = LEAST($4, author_affinity.affinity + $3)
	`
	_, err := r.db.ExecContext(ctx, query, viewerID, authorID, delta, cap)
	if err != nil {
		return fmt.Errorf("failed to update affinity: %w", err)
	}
	return nil
}

// MarkEngagedHashtag is a no-op: engaged hashtags are not stored anywhere,
// so profiles returned by GetProfile never gain engaged hashtags from
// engagement events.
func (r *PreferenceRepository) MarkEngagedHashtag(ctx context.Context, viewerID, hashtag string) error {
	return nil
}

// LastReadAt returns the viewer's last-read checkpoint, defaulting to the
// zero time when never set.
func (r *PreferenceRepository) LastReadAt(ctx context.Context, viewerID string) (time.Time, error) {
	var at time.Time
	err := r.db.GetContext(ctx, &at, `SELECT last_read_at FROM viewer_read_state WHERE viewer_id = $1`, viewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load read state: %w", err)
	}
	return at, nil
}

// SetLastReadAt records the viewer's last-read checkpoint
// (MarkTimelineRead, spec.md §6).
func (r *PreferenceRepository) SetLastReadAt(ctx context.Context, viewerID string, at time.Time) error {
	query := `
		INSERT INTO viewer_read_state (viewer_id, last_read_at)
		VALUES ($1, $2)
		ON CONFLICT (viewer_id) DO UPDATE SET last_read_at = $2
	`
	_, err := r.db.ExecContext(ctx, query, viewerID, at)
	if err != nil {
		return fmt.Errorf("failed to set read state: %w", err)
	}
	return nil
}
