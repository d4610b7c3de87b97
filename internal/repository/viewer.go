package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ritik/timeline-core/internal/models"
)

// ViewerRepository handles viewer account storage.
type ViewerRepository struct {
	db *sqlx.DB
}

// NewViewerRepository creates a new ViewerRepository.
func NewViewerRepository(db *sqlx.DB) *ViewerRepository {
	return &ViewerRepository{db: db}
}

// Create creates a new viewer.
func (r *ViewerRepository) Create(ctx context.Context, viewerID, username string) (*models.Viewer, error) {
	query := `
		INSERT INTO viewers (viewer_id, username)
		VALUES ($1, $2)
		RETURNING viewer_id, username, follower_count, following_count, created_at
	`
	v := &models.Viewer{}
	err := r.db.QueryRowxContext(ctx, query, viewerID, username).StructScan(v)
	if err != nil {
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}
	return v, nil
}

// GetByID retrieves a viewer by id.
func (r *ViewerRepository) GetByID(ctx context.Context, id string) (*models.Viewer, error) {
	query := `SELECT viewer_id, username, follower_count, following_count, created_at FROM viewers WHERE viewer_id = $1`
	v := &models.Viewer{}
	err := r.db.GetContext(ctx, v, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer: %w", err)
	}
	return v, nil
}

// GetRandomViewers retrieves random viewers, used by benchmark tooling.
func (r *ViewerRepository) GetRandomViewers(ctx context.Context, count int) ([]*models.Viewer, error) {
	query := `SELECT viewer_id, username, follower_count, following_count, created_at FROM viewers ORDER BY RANDOM() LIMIT $1`
	viewers := []*models.Viewer{}
	err := r.db.SelectContext(ctx, &viewers, query, count)
	if err != nil {
		return nil, fmt.Errorf("failed to get random viewers: %w", err)
	}
	return viewers, nil
}

// Count returns the total number of viewers.
func (r *ViewerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM viewers")
	if err != nil {
		return 0, fmt.Errorf("failed to count viewers: %w", err)
	}
	return count, nil
}

// BulkCreate creates multiple viewers in a single transaction, mirroring
// the teacher's prepared-statement seeding loop.
func (r *ViewerRepository) BulkCreate(ctx context.Context, viewers []models.Viewer) error {
	if len(viewers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO viewers (viewer_id, username) VALUES ($1, $2) ON CONFLICT (viewer_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range viewers {
		if _, err := stmt.ExecContext(ctx, v.ViewerID, v.Username); err != nil {
			return fmt.Errorf("failed to insert viewer %s: %w", v.Username, err)
		}
	}

	return tx.Commit()
}

// RefreshFollowCounts recomputes follower_count/following_count from the
// follows table, used after bulk-loading the graph during seeding.
func (r *ViewerRepository) RefreshFollowCounts(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE viewers v SET follower_count = sub.cnt
		FROM (SELECT followee_id, COUNT(*) AS cnt FROM follows GROUP BY followee_id) sub
		WHERE v.viewer_id = sub.followee_id
	`)
	if err != nil {
		return fmt.Errorf("failed to refresh follower counts: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE viewers v SET following_count = sub.cnt
		FROM (SELECT follower_id, COUNT(*) AS cnt FROM follows GROUP BY follower_id) sub
		WHERE v.viewer_id = sub.follower_id
	`)
	if err != nil {
		return fmt.Errorf("failed to refresh following counts: %w", err)
	}
	return nil
}

// Truncate removes all viewers (for testing/reset).
func (r *ViewerRepository) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE viewers CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate viewers: %w", err)
	}
	return nil
}
