package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ritik/timeline-core/internal/models"
)

// ListStore backs the Lists candidate source (spec.md §4.1).
type ListStore interface {
	ListsForOwner(ctx context.Context, ownerID string) ([]models.AuthorList, error)
	Members(ctx context.Context, listID string) ([]string, error)
}

// ListRepository is the Postgres-backed ListStore.
type ListRepository struct {
	db *sqlx.DB
}

// NewListRepository creates a new ListRepository.
func NewListRepository(db *sqlx.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create creates an author list owned by ownerID.
func (r *ListRepository) Create(ctx context.Context, listID, ownerID, name string) (*models.AuthorList, error) {
	query := `INSERT INTO author_lists (list_id, owner_id, name) VALUES ($1, $2, $3) RETURNING list_id, owner_id, name`
	l := &models.AuthorList{}
	err := r.db.QueryRowxContext(ctx, query, listID, ownerID, name).StructScan(l)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	return l, nil
}

// AddMember adds an author to a list.
func (r *ListRepository) AddMember(ctx context.Context, listID, authorID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO author_list_members (list_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, listID, authorID)
	if err != nil {
		return fmt.Errorf("failed to add list member: %w", err)
	}
	return nil
}

// ListsForOwner retrieves every list a viewer owns, without members
// populated (Members is a separate, lazily-fetched call).
func (r *ListRepository) ListsForOwner(ctx context.Context, ownerID string) ([]models.AuthorList, error) {
	query := `SELECT list_id, owner_id, name FROM author_lists WHERE owner_id = $1`
	var lists []models.AuthorList
	err := r.db.SelectContext(ctx, &lists, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	return lists, nil
}

// Members retrieves the author ids belonging to a list.
func (r *ListRepository) Members(ctx context.Context, listID string) ([]string, error) {
	query := `SELECT author_id FROM author_list_members WHERE list_id = $1`
	var members []string
	err := r.db.SelectContext(ctx, &members, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list members: %w", err)
	}
	return members, nil
}

// Truncate removes all lists (for testing/reset).
func (r *ListRepository) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE author_lists CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate lists: %w", err)
	}
	return nil
}
