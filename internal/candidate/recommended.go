package candidate

import (
	"context"
	"time"

	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
)

// RecommendedSource surfaces notes from authors the viewer does not
// follow but has a positive stored affinity toward (prior engagement
// with that author's notes), falling back to the engagement-ranked
// discovery pool when no affinity history exists yet.
type RecommendedSource struct {
	notes repository.NoteStore
}

// NewRecommendedSource creates a new RecommendedSource.
func NewRecommendedSource(notes repository.NoteStore) *RecommendedSource {
	return &RecommendedSource{notes: notes}
}

// Name identifies this source as RECOMMENDED.
func (s *RecommendedSource) Name() models.Source { return models.SourceRecommended }

// Fetch retrieves candidate notes from non-followed, positively-affine
// authors, falling back to the broader engagement-ranked pool.
func (s *RecommendedSource) Fetch(ctx context.Context, viewerID string, profile *models.ViewerProfile, since time.Time, maxCount int) ([]models.Note, error) {
	if maxCount <= 0 {
		return nil, nil
	}

	sinceUnix := since.Unix()
	if since.IsZero() {
		sinceUnix = time.Now().Add(-7 * 24 * time.Hour).Unix()
	}

	pool, err := s.notes.Trending(ctx, sinceUnix, maxCount*4)
	if err != nil {
		return nil, err
	}

	var affine, rest []models.Note
	for _, n := range pool {
		if profile != nil && profile.IsFollowing(n.AuthorID) {
			continue
		}
		if profile != nil {
			if affinity, ok := profile.AuthorAffinity[n.AuthorID]; ok && affinity > 0 {
				affine = append(affine, n)
				continue
			}
		}
		rest = append(rest, n)
	}

	ranked := append(affine, rest...)
	if len(ranked) > maxCount {
		ranked = ranked[:maxCount]
	}
	return ranked, nil
}
