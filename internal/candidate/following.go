package candidate

import (
	"context"
	"time"

	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
)

// FollowingSource returns recent notes from authors the viewer follows.
// Grounded on the teacher's fan-out-read strategy: a live lateral-join
// fan-in across followed authors rather than a precomputed write-time feed.
type FollowingSource struct {
	notes repository.NoteStore
	graph repository.FollowGraph
}

// NewFollowingSource creates a new FollowingSource.
func NewFollowingSource(notes repository.NoteStore, graph repository.FollowGraph) *FollowingSource {
	return &FollowingSource{notes: notes, graph: graph}
}

// Name identifies this source as FOLLOWING.
func (s *FollowingSource) Name() models.Source { return models.SourceFollowing }

// Fetch retrieves recent notes authored by accounts the viewer follows.
func (s *FollowingSource) Fetch(ctx context.Context, viewerID string, profile *models.ViewerProfile, since time.Time, maxCount int) ([]models.Note, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	authorIDs, err := s.followedAuthors(ctx, viewerID, profile)
	if err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return nil, nil
	}
	perAuthorLimit := maxCount
	if perAuthorLimit > 10 {
		perAuthorLimit = 10
	}
	notes, err := s.notes.RecentByAuthors(ctx, authorIDs, perAuthorLimit, maxCount)
	if err != nil {
		return nil, err
	}
	return filterSince(notes, since), nil
}

func (s *FollowingSource) followedAuthors(ctx context.Context, viewerID string, profile *models.ViewerProfile) ([]string, error) {
	if profile != nil && len(profile.FollowSet) > 0 {
		ids := make([]string, 0, len(profile.FollowSet))
		for id := range profile.FollowSet {
			ids = append(ids, id)
		}
		return ids, nil
	}
	return s.graph.Following(ctx, viewerID)
}

func filterSince(notes []models.Note, since time.Time) []models.Note {
	if since.IsZero() {
		return notes
	}
	out := notes[:0:0]
	for _, n := range notes {
		if n.CreatedAt.After(since) {
			out = append(out, n)
		}
	}
	return out
}
