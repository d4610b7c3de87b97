package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritik/timeline-core/internal/candidate"
	"github.com/ritik/timeline-core/internal/models"
)

type fakeSource struct {
	name models.Source
}

func (f fakeSource) Name() models.Source { return f.name }
func (f fakeSource) Fetch(ctx context.Context, viewerID string, profile *models.ViewerProfile, since time.Time, maxCount int) ([]models.Note, error) {
	return nil, nil
}

func TestBuildQuotas_DistributesByMixRatio(t *testing.T) {
	sources := []candidate.Source{
		fakeSource{name: models.SourceFollowing},
		fakeSource{name: models.SourceTrending},
	}
	cfg := models.TimelineConfig{
		MaxItems: 10,
		Mix:      models.SourceMix{Following: 0.8, Trending: 0.2},
		ABWeights: models.ABWeights{Following: 1, Trending: 1},
	}

	quotas := buildQuotas(sources, cfg)

	require.Len(t, quotas, 2)
	var followingQuota, trendingQuota int
	for _, q := range quotas {
		switch q.Source.Name() {
		case models.SourceFollowing:
			followingQuota = q.MaxCount
		case models.SourceTrending:
			trendingQuota = q.MaxCount
		}
	}
	assert.Greater(t, followingQuota, trendingQuota, "a larger mix ratio should request more candidates")
}

func TestBuildQuotas_SkipsZeroRatioSources(t *testing.T) {
	sources := []candidate.Source{
		fakeSource{name: models.SourceFollowing},
		fakeSource{name: models.SourceLists},
	}
	cfg := models.TimelineConfig{
		MaxItems:  10,
		Mix:       models.SourceMix{Following: 1, Lists: 0},
		ABWeights: models.ABWeights{Following: 1, Lists: 1},
	}

	quotas := buildQuotas(sources, cfg)

	require.Len(t, quotas, 1)
	assert.Equal(t, models.SourceFollowing, quotas[0].Source.Name())
}

func TestBuildQuotas_ClampedByAbsoluteCap(t *testing.T) {
	sources := []candidate.Source{fakeSource{name: models.SourceFollowing}}
	cfg := models.TimelineConfig{
		MaxItems:  100,
		Mix:       models.SourceMix{Following: 1},
		ABWeights: models.ABWeights{Following: 1},
		Caps:      models.SourceCaps{Following: 5},
	}

	quotas := buildQuotas(sources, cfg)

	require.Len(t, quotas, 1)
	assert.LessOrEqual(t, quotas[0].MaxCount, 5*3, "requested count should be clamped to cap*overfetch")
}
