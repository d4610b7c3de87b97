package candidate

import (
	"context"
	"time"

	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
)

// TrendingSource surfaces globally high-engagement notes regardless of
// the viewer's follow graph, windowed to the last 24 hours.
type TrendingSource struct {
	notes  repository.NoteStore
	window time.Duration
}

// NewTrendingSource creates a new TrendingSource with a 24h window.
func NewTrendingSource(notes repository.NoteStore) *TrendingSource {
	return &TrendingSource{notes: notes, window: 24 * time.Hour}
}

// Name identifies this source as TRENDING.
func (s *TrendingSource) Name() models.Source { return models.SourceTrending }

// Fetch retrieves globally trending notes created within the window.
func (s *TrendingSource) Fetch(ctx context.Context, viewerID string, profile *models.ViewerProfile, since time.Time, maxCount int) ([]models.Note, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	cutoff := time.Now().Add(-s.window)
	if !since.IsZero() && since.After(cutoff) {
		cutoff = since
	}
	notes, err := s.notes.Trending(ctx, cutoff.Unix(), maxCount)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return notes, nil
	}
	out := notes[:0:0]
	for _, n := range notes {
		if profile.IsMutedUser(n.AuthorID) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
