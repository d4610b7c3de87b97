package candidate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritik/timeline-core/internal/models"
)

// Quota is a single source's requested candidate count for one pipeline
// run, computed from SourceMix x total budget x ABWeights (spec.md §4.5).
type Quota struct {
	Source   Source
	MaxCount int
}

// Result is one source's fan-out outcome. Err is non-nil only when the
// source itself failed or timed out; the pipeline treats that as "zero
// candidates from this source" and continues (spec.md §4.1 isolation).
type Result struct {
	Source models.Source
	Notes  []models.Note
	Err    error
}

// FetchAll runs every quota's Source concurrently, each bounded by its
// own soft deadline (spec.md §5: 40% of the remaining request budget).
// A panicking or erroring source never fails the others.
func FetchAll(ctx context.Context, quotas []Quota, viewerID string, profile *models.ViewerProfile, since time.Time, perSourceTimeout time.Duration) []Result {
	results := make([]Result, len(quotas))
	var wg sync.WaitGroup
	wg.Add(len(quotas))

	for i, q := range quotas {
		go func(i int, q Quota) {
			defer wg.Done()
			results[i] = fetchOne(ctx, q, viewerID, profile, since, perSourceTimeout)
		}(i, q)
	}

	wg.Wait()
	return results
}

func fetchOne(ctx context.Context, q Quota, viewerID string, profile *models.ViewerProfile, since time.Time, timeout time.Duration) (result Result) {
	result.Source = q.Source.Name()

	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"source": result.Source,
				"viewer": viewerID,
				"panic":  r,
			}).Error("candidate source panicked")
			result.Err = fmt.Errorf("source %s panicked: %v", result.Source, r)
			result.Notes = nil
		}
	}()

	sourceCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		sourceCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	notes, err := q.Source.Fetch(sourceCtx, viewerID, profile, since, q.MaxCount)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"source": result.Source,
			"viewer": viewerID,
			"error":  err,
		}).Warn("candidate source failed")
		result.Err = err
		result.Notes = nil
		return result
	}
	result.Notes = notes
	return result
}
