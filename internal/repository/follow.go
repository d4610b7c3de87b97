package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// FollowGraph is the collaborator the pipeline and candidate sources use
// to answer "who does this viewer follow" / "who follows this author"
// without caring how the graph is stored.
type FollowGraph interface {
	Following(ctx context.Context, viewerID string) ([]string, error)
	Followers(ctx context.Context, authorID string) ([]string, error)
	IsFollowing(ctx context.Context, viewerID, authorID string) (bool, error)
	FollowerCount(ctx context.Context, authorID string) (int, error)
}

// FollowRepository is the Postgres-backed FollowGraph implementation.
type FollowRepository struct {
	db *sqlx.DB
}

// NewFollowRepository creates a new FollowRepository.
func NewFollowRepository(db *sqlx.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create creates a new follow relationship.
func (r *FollowRepository) Create(ctx context.Context, followerID, followeeID string) error {
	query := `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// Delete removes a follow relationship.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	_, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

// Followers retrieves all followers of an author (FollowGraph interface).
func (r *FollowRepository) Followers(ctx context.Context, authorID string) ([]string, error) {
	query := `SELECT follower_id FROM follows WHERE followee_id = $1`
	var followers []string
	err := r.db.SelectContext(ctx, &followers, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return followers, nil
}

// Following retrieves all authors a viewer follows (FollowGraph interface).
func (r *FollowRepository) Following(ctx context.Context, viewerID string) ([]string, error) {
	query := `SELECT followee_id FROM follows WHERE follower_id = $1`
	var following []string
	err := r.db.SelectContext(ctx, &following, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return following, nil
}

// IsFollowing checks if a viewer follows an author.
func (r *FollowRepository) IsFollowing(ctx context.Context, viewerID, authorID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, viewerID, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

// FollowerCount returns the stored follower_count of an author. The
// fan-out worker does not call it; it shards on the length of the
// Followers result.
func (r *FollowRepository) FollowerCount(ctx context.Context, authorID string) (int, error) {
	query := `SELECT follower_count FROM viewers WHERE viewer_id = $1`
	var count int
	err := r.db.GetContext(ctx, &count, query, authorID)
	if err != nil {
		return 0, fmt.Errorf("failed to get follower count: %w", err)
	}
	return count, nil
}

// Count returns the total number of follow relationships.
func (r *FollowRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM follows")
	if err != nil {
		return 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return count, nil
}

// FollowPair is one edge for bulk-loading follow relationships.
type FollowPair struct {
	FollowerID string
	FolloweeID string
}

// BulkCreate creates multiple follow relationships efficiently, used by
// the CLI seed command.
func (r *FollowRepository) BulkCreate(ctx context.Context, follows []FollowPair) error {
	if len(follows) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(follows))
	valueArgs := make([]interface{}, 0, len(follows)*2)

	for i, f := range follows {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		valueArgs = append(valueArgs, f.FollowerID, f.FolloweeID)
	}

	query := fmt.Sprintf("INSERT INTO follows (follower_id, followee_id) VALUES %s ON CONFLICT DO NOTHING", strings.Join(valueStrings, ","))
	_, err := r.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return fmt.Errorf("failed to bulk create follows: %w", err)
	}
	return nil
}

// Truncate removes all follows (for testing/reset).
func (r *FollowRepository) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE follows CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate follows: %w", err)
	}
	return nil
}
