// Package candidate implements the C1 candidate sources: the four
// independent note producers (Following, Recommended, Trending, Lists)
// the pipeline fans out to before filtering and ranking.
package candidate

import (
	"context"
	"time"

	"github.com/ritik/timeline-core/internal/models"
)

// Source is the uniform contract every candidate producer implements.
// A Source must never block past its context deadline and must never
// panic: the pipeline treats a Source failure as "zero candidates from
// this source", not as a pipeline-wide error (spec.md §4.1 isolation
// invariant).
type Source interface {
	Name() models.Source
	Fetch(ctx context.Context, viewerID string, profile *models.ViewerProfile, since time.Time, maxCount int) ([]models.Note, error)
}
