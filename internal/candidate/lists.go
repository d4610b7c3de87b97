package candidate

import (
	"context"
	"time"

	"github.com/ritik/timeline-core/internal/models"
	"github.com/ritik/timeline-core/internal/repository"
)

// ListsSource surfaces notes from authors on viewer-curated lists,
// independent of whether the viewer directly follows those authors.
type ListsSource struct {
	notes repository.NoteStore
	lists repository.ListStore
}

// NewListsSource creates a new ListsSource.
func NewListsSource(notes repository.NoteStore, lists repository.ListStore) *ListsSource {
	return &ListsSource{notes: notes, lists: lists}
}

// Name identifies this source as LISTS.
func (s *ListsSource) Name() models.Source { return models.SourceLists }

// Fetch retrieves recent notes from the authors on every list the viewer
// owns. A viewer with no lists yields zero candidates, not an error.
func (s *ListsSource) Fetch(ctx context.Context, viewerID string, profile *models.ViewerProfile, since time.Time, maxCount int) ([]models.Note, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	ownedLists, err := s.lists.ListsForOwner(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(ownedLists) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var authorIDs []string
	for _, l := range ownedLists {
		members, err := s.lists.Members(ctx, l.ListID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			authorIDs = append(authorIDs, m)
		}
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
