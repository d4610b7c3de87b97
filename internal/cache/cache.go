package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritik/timeline-core/internal/models"
)

// Cache is the C4 two-tier result cache facade the pipeline talks to. A
// remote-tier failure degrades transparently to the in-process tier:
// callers never see a remote error, only a cache miss or a stale-but-
// available local result (spec.md §4.4).
type Cache struct {
	remote *RemoteCache
	local  *LocalCache
}

// New creates a new two-tier Cache.
func New(remote *RemoteCache, local *LocalCache) *Cache {
	return &Cache{remote: remote, local: local}
}

// Get retrieves a viewer's cached ranked timeline, trying the remote tier
// first and falling back to the in-process tier on a miss or failure.
func (c *Cache) Get(ctx context.Context, viewerID string) ([]models.RankedItem, bool) {
	if items, hit, err := c.remote.Get(ctx, viewerID); err == nil {
		if hit {
			c.local.Put(viewerID, items)
			return items, true
		}
	} else {
		logrus.WithError(err).WithField("viewer", viewerID).Warn("remote cache unavailable, falling back to local tier")
	}
	return c.local.Get(viewerID)
}

// Put writes a viewer's ranked timeline to both tiers. A remote write
// failure is logged but never propagated: the local tier still holds
// the result.
func (c *Cache) Put(ctx context.Context, viewerID string, items []models.RankedItem) {
	c.local.Put(viewerID, items)
	if err := c.remote.Put(ctx, viewerID, items); err != nil {
		logrus.WithError(err).WithField("viewer", viewerID).Warn("remote cache put failed")
	}
}

// Invalidate drops a viewer's cached timeline from both tiers.
func (c *Cache) Invalidate(ctx context.Context, viewerID string) {
	c.local.Invalidate(viewerID)
	if err := c.remote.Invalidate(ctx, viewerID); err != nil {
		logrus.WithError(err).WithField("viewer", viewerID).Warn("remote cache invalidate failed")
	}
}

// InvalidateAuthor drops every viewer's cached timeline that contained a
// note from authorID, across both tiers. Called by the fan-out worker on
// every note create/update/delete.
func (c *Cache) InvalidateAuthor(ctx context.Context, authorID string) {
	c.local.InvalidateAuthor(authorID)
	if err := c.remote.InvalidateAuthor(ctx, authorID); err != nil {
		logrus.WithError(err).WithField("author", authorID).Warn("remote cache author invalidate failed")
	}
}

// GetProfile retrieves a cached ViewerProfile, remote tier only: profiles
// are rebuilt from the UserPreferenceStore on a miss rather than held
// locally, since they change far less often than ranked results.
func (c *Cache) GetProfile(ctx context.Context, viewerID string) (*models.ViewerProfile, bool) {
	profile, hit, err := c.remote.GetProfile(ctx, viewerID)
	if err != nil {
		logrus.WithError(err).WithField("viewer", viewerID).Warn("remote cache profile get failed")
		return nil, false
	}
	return profile, hit
}

// PutProfile caches a ViewerProfile for the given TTL.
func (c *Cache) PutProfile(ctx context.Context, profile *models.ViewerProfile, ttl time.Duration) {
	if err := c.remote.PutProfile(ctx, profile, ttl); err != nil {
		logrus.WithError(err).WithField("viewer", profile.ViewerID).Warn("remote cache profile put failed")
	}
}

// GetLastRead returns the viewer's cached last-read checkpoint.
func (c *Cache) GetLastRead(ctx context.Context, viewerID string) (time.Time, bool) {
	at, hit, err := c.remote.GetLastRead(ctx, viewerID)
	if err != nil {
		logrus.WithError(err).WithField("viewer", viewerID).Warn("remote cache last-read get failed")
		return time.Time{}, false
	}
	return at, hit
}

// SetLastRead caches the viewer's last-read checkpoint.
func (c *Cache) SetLastRead(ctx context.Context, viewerID string, at time.Time) {
	if err := c.remote.SetLastRead(ctx, viewerID, at); err != nil {
		logrus.WithError(err).WithField("viewer", viewerID).Warn("remote cache last-read set failed")
	}
}
