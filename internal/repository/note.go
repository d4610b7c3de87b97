package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ritik/timeline-core/internal/models"
)

// NoteStore is the read-mostly collaborator candidate sources use to
// fetch notes. The pipeline treats every Note it returns as immutable.
type NoteStore interface {
	GetByID(ctx context.Context, id string) (*models.Note, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Note, error)
	RecentByAuthor(ctx context.Context, authorID string, limit int) ([]models.Note, error)
	RecentByAuthors(ctx context.Context, authorIDs []string, perAuthorLimit, totalLimit int) ([]models.Note, error)
	Trending(ctx context.Context, sinceUnixSeconds int64, limit int) ([]models.Note, error)
}

// NoteRepository is the Postgres-backed NoteStore implementation.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = `note_id, author_id, text_content, created_at, has_media, views, likes, reshares, replies, quotes, nsfw, author_suspended`

// Create inserts a new note. note_id and created_at must already be set by
// the caller (the pipeline generates ids via uuid, not the store).
func (r *NoteRepository) Create(ctx context.Context, n models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (note_id, author_id, text_content, created_at, has_media, nsfw, author_suspended)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + noteColumns
	out := &models.Note{}
	err := r.db.QueryRowxContext(ctx, query, n.NoteID, n.AuthorID, n.TextContent, n.CreatedAt, n.HasMedia, n.NSFW, n.AuthorSuspended).StructScan(out)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	if err := r.attachHashtags(ctx, []*models.Note{out}); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkCreate inserts many notes in batched multi-row statements, used by
// the CLI seed command. Hashtags are not attached; call AddHashtags
// separately for the subset of seeded notes that need them.
func (r *NoteRepository) BulkCreate(ctx context.Context, notes []models.Note) error {
	if len(notes) == 0 {
		return nil
	}
	valueStrings := make([]string, 0, len(notes))
	valueArgs := make([]interface{}, 0, len(notes)*7)
	for i, n := range notes {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs, n.NoteID, n.AuthorID, n.TextContent, n.CreatedAt, n.HasMedia, n.NSFW, n.AuthorSuspended)
	}
	query := `INSERT INTO notes (note_id, author_id, text_content, created_at, has_media, nsfw, author_suspended) VALUES ` +
		strings.Join(valueStrings, ",") + ` ON CONFLICT (note_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return fmt.Errorf("failed to bulk create notes: %w", err)
	}
	return nil
}

// AddHashtags attaches hashtags to an already-created note.
func (r *NoteRepository) AddHashtags(ctx context.Context, noteID string, tags []string) error {
	for _, tag := range tags {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO note_hashtags (note_id, hashtag) VALUES ($1, $2) ON CONFLICT DO NOTHING`, noteID, tag); err != nil {
			return fmt.Errorf("failed to add hashtag: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a note by id.
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE note_id = $1`
	note := &models.Note{}
	err := r.db.GetContext(ctx, note, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if err := r.attachHashtags(ctx, []*models.Note{note}); err != nil {
		return nil, err
	}
	return note, nil
}

// GetByIDs retrieves multiple notes by id.
func (r *NoteRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Note, error) {
	if len(ids) == 0 {
		return []models.Note{}, nil
	}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE note_id = ANY($1) ORDER BY created_at DESC`
	var notes []models.Note
	err := r.db.SelectContext(ctx, &notes, query, pqStringArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	return notes, nil
}

// RecentByAuthor retrieves one author's recent notes, newest first. The
// Following candidate source uses RecentByAuthors instead.
func (r *NoteRepository) RecentByAuthor(ctx context.Context, authorID string, limit int) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE author_id = $1 ORDER BY created_at DESC LIMIT $2`
	var notes []models.Note
	err := r.db.SelectContext(ctx, &notes, query, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get author notes: %w", err)
	}
	return notes, nil
}

// RecentByAuthors retrieves recent notes across many authors via a
// lateral join capping per-author contribution before the overall sort,
// so one prolific author cannot crowd out the rest of the fan-in.
func (r *NoteRepository) RecentByAuthors(ctx context.Context, authorIDs []string, perAuthorLimit, totalLimit int) ([]models.Note, error) {
	if len(authorIDs) == 0 {
		return []models.Note{}, nil
	}

	query := `
		SELECT n.note_id, n.author_id, n.text_content, n.created_at, n.has_media, n.views, n.likes, n.reshares, n.replies, n.quotes, n.nsfw, n.author_suspended
		FROM unnest($1::text[]) AS aid(id)
		CROSS JOIN LATERAL (
			SELECT note_id, author_id, text_content, created_at, has_media, views, likes, reshares, replies, quotes, nsfw, author_suspended
			FROM notes
			WHERE author_id = aid.id
			ORDER BY created_at DESC
			LIMIT $2
		) n
		ORDER BY n.created_at DESC
		LIMIT $3
	`
	var notes []models.Note
	err := r.db.SelectContext(ctx, &notes, query, pqStringArray(authorIDs), perAuthorLimit, totalLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent notes: %w", err)
	}
	return notes, nil
}

// Trending retrieves the highest-engagement notes created since the given
// cutoff, backing the Trending candidate source.
func (r *NoteRepository) Trending(ctx context.Context, sinceUnixSeconds int64, limit int) ([]models.Note, error) {
	query := `
		SELECT ` + noteColumns + `, (likes + reshares * 2 + replies + quotes) AS score
		FROM notes
		WHERE created_at >= to_timestamp($1) AND author_suspended = false
		ORDER BY score DESC
		LIMIT $2
	`
	var notes []models.Note
	err := r.db.SelectContext(ctx, &notes, query, sinceUnixSeconds, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trending notes: %w", err)
	}
	return notes, nil
}

// RecordEngagement increments the denormalized engagement counters on a
// note. Best-effort: spec.md treats engagement counters as eventually
// consistent, not transactional with the feedback signal update.
func (r *NoteRepository) RecordEngagement(ctx context.Context, noteID string, action models.EngagementAction) error {
	var column string
	switch action {
	case models.ActionLike:
		column = "likes"
	case models.ActionReshare:
		column = "reshares"
	case models.ActionReply:
		column = "replies"
	default:
		return nil
	}
	query := fmt.Sprintf("UPDATE notes SET %s = %s + 1 WHERE note_id = $1", column, column)
	_, err := r.db.ExecContext(ctx, query, noteID)
	if err != nil {
		return fmt.Errorf("failed to record engagement: %w", err)
	}
	return nil
}

// Count returns the total number of notes.
func (r *NoteRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM notes")
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// Truncate removes all notes (for testing/reset).
func (r *NoteRepository) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE notes CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate notes: %w", err)
	}
	return nil
}

func (r *NoteRepository) attachHashtags(ctx context.Context, notes []*models.Note) error {
	if len(notes) == 0 {
		return nil
	}
	ids := make([]string, len(notes))
	byID := make(map[string]*models.Note, len(notes))
	for i, n := range notes {
		ids[i] = n.NoteID
		byID[n.NoteID] = n
	}
	query := `SELECT note_id, hashtag FROM note_hashtags WHERE note_id = ANY($1)`
	rows, err := r.db.QueryxContext(ctx, query, pqStringArray(ids))
	if err != nil {
		return fmt.Errorf("failed to load hashtags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var noteID, tag string
		if err := rows.Scan(&noteID, &tag); err != nil {
			return err
		}
		if n, ok := byID[noteID]; ok {
			n.Hashtags = append(n.Hashtags, tag)
		}
	}
	return rows.Err()
}

// pqStringArray renders a Go string slice as a Postgres text[] literal
// argument compatible with ANY($1)/unnest($1).
func pqStringArray(ss []string) string {
	escaped := make([]string, len(ss))
	for i, s := range ss {
		escaped[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(escaped, ",") + "}"
}
