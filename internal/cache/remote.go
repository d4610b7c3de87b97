// Package cache implements the C4 two-tier result cache: a Redis remote
// tier (grounded on the teacher's timeline sorted-set/blob idiom) backed
// up by a mandatory in-process LRU tier that keeps serving on a remote
// outage.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ritik/timeline-core/internal/models"
)

const (
	timelineKeyPrefix  = "timeline:"
	noteKeyPrefix      = "note:"
	profileKeyPrefix   = "profile:"
	authorIndexPrefix  = "author_idx:"
	lastReadKeyPrefix  = "last_read:"

	noteCacheTTL = 24 * time.Hour
)

// RemoteCache is the Redis-backed tier of the two-tier result cache.
type RemoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRemoteCache creates a new RemoteCache with the given default
// timeline result TTL.
func NewRemoteCache(client *redis.Client, ttl time.Duration) *RemoteCache {
	return &RemoteCache{client: client, ttl: ttl}
}

func timelineKey(viewerID string) string { return timelineKeyPrefix + viewerID }
func noteKey(noteID string) string       { return noteKeyPrefix + noteID }
func profileKey(viewerID string) string  { return profileKeyPrefix + viewerID }
func authorIndexKey(authorID string) string { return authorIndexPrefix + authorID }
func lastReadKey(viewerID string) string { return lastReadKeyPrefix + viewerID }

// Get retrieves a viewer's cached ranked timeline. A miss (key absent) is
// not an error: it is reported via the bool return.
func (c *RemoteCache) Get(ctx context.Context, viewerID string) ([]models.RankedItem, bool, error) {
	data, err := c.client.Get(ctx, timelineKey(viewerID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("remote cache get: %w", err)
	}
	var items []models.RankedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("remote cache decode: %w", err)
	}
	return items, true, nil
}

// Put stores a viewer's ranked timeline and updates the author reverse
// index used by InvalidateAuthor.
func (c *RemoteCache) Put(ctx context.Context, viewerID string, items []models.RankedItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("remote cache encode: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, timelineKey(viewerID), data, c.ttl)
	for _, it := range items {
		pipe.SAdd(ctx, authorIndexKey(it.Note.AuthorID), viewerID)
		pipe.Expire(ctx, authorIndexKey(it.Note.AuthorID), c.ttl)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("remote cache put: %w", err)
	}
	return nil
}

// Invalidate drops a viewer's cached timeline.
func (c *RemoteCache) Invalidate(ctx context.Context, viewerID string) error {
	return c.client.Del(ctx, timelineKey(viewerID)).Err()
}

// InvalidateAuthor drops the cached timeline of every viewer whose last
// cached result contained a note from authorID, using the reverse index
// maintained by Put so a fan-out update never needs a full scan.
func (c *RemoteCache) InvalidateAuthor(ctx context.Context, authorID string) error {
	idxKey := authorIndexKey(authorID)
	viewerIDs, err := c.client.SMembers(ctx, idxKey).Result()
	if err != nil {
		return fmt.Errorf("remote cache author index read: %w", err)
	}
	if len(viewerIDs) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, v := range viewerIDs {
		pipe.Del(ctx, timelineKey(v))
	}
	pipe.Del(ctx, idxKey)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("remote cache author invalidate: %w", err)
	}
	return nil
}

// CacheNote caches one note blob, mirroring the teacher's tweet cache.
func (c *RemoteCache) CacheNote(ctx context.Context, note models.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}
	return c.client.Set(ctx, noteKey(note.NoteID), data, noteCacheTTL).Err()
}

// GetNote retrieves a cached note; a nil, nil return is a cache miss.
func (c *RemoteCache) GetNote(ctx context.Context, noteID string) (*models.Note, error) {
	data, err := c.client.Get(ctx, noteKey(noteID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached note: %w", err)
	}
	note := &models.Note{}
	if err := json.Unmarshal(data, note); err != nil {
		return nil, fmt.Errorf("failed to unmarshal note: %w", err)
	}
	return note, nil
}

// GetProfile retrieves a cached ViewerProfile blob.
func (c *RemoteCache) GetProfile(ctx context.Context, viewerID string) (*models.ViewerProfile, bool, error) {
	data, err := c.client.Get(ctx, profileKey(viewerID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("remote cache profile get: %w", err)
	}
	wire := &wireProfile{}
	if err := json.Unmarshal(data, wire); err != nil {
		return nil, false, fmt.Errorf("remote cache profile decode: %w", err)
	}
	return wire.toProfile(), true, nil
}

// PutProfile stores a ViewerProfile blob with the given TTL.
func (c *RemoteCache) PutProfile(ctx context.Context, profile *models.ViewerProfile, ttl time.Duration) error {
	data, err := json.Marshal(fromProfile(profile))
	if err != nil {
		return fmt.Errorf("remote cache profile encode: %w", err)
	}
	return c.client.Set(ctx, profileKey(profile.ViewerID), data, ttl).Err()
}

// GetLastRead returns the viewer's last-read checkpoint cached in Redis.
func (c *RemoteCache) GetLastRead(ctx context.Context, viewerID string) (time.Time, bool, error) {
	v, err := c.client.Get(ctx, lastReadKey(viewerID)).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("remote cache last-read get: %w", err)
	}
	return time.Unix(v, 0).UTC(), true, nil
}

// SetLastRead caches the viewer's last-read checkpoint.
func (c *RemoteCache) SetLastRead(ctx context.Context, viewerID string, at time.Time) error {
	return c.client.Set(ctx, lastReadKey(viewerID), at.Unix(), 30*24*time.Hour).Err()
}

// wireProfile is a JSON-friendly projection of models.ViewerProfile
// (maps with struct{} values do not round-trip through encoding/json).
type wireProfile struct {
	ViewerID        string             `json:"viewer_id"`
	FollowSet       []string           `json:"follow_set"`
	AuthorAffinity  map[string]float64 `json:"author_affinity"`
	HashtagInterest map[string]float64 `json:"hashtag_interest"`
	MutedUsers      []string           `json:"muted_users"`
	MutedKeywords   []string           `json:"muted_keywords"`
	NSFWOptIn       bool               `json:"nsfw_opt_in"`
	EngagedHashtags []string           `json:"engaged_hashtags"`
	LastUpdated     time.Time          `json:"last_updated"`
}

func fromProfile(p *models.ViewerProfile) wireProfile {
	w := wireProfile{
		ViewerID:        p.ViewerID,
		AuthorAffinity:  p.AuthorAffinity,
		HashtagInterest: p.HashtagInterest,
		NSFWOptIn:       p.NSFWOptIn,
		LastUpdated:     p.LastUpdated,
	}
	for k := range p.FollowSet {
		w.FollowSet = append(w.FollowSet, k)
	}
	for k := range p.MutedUsers {
		w.MutedUsers = append(w.MutedUsers, k)
	}
	for k := range p.MutedKeywords {
		w.MutedKeywords = append(w.MutedKeywords, k)
	}
	for k := range p.EngagedHashtags {
		w.EngagedHashtags = append(w.EngagedHashtags, k)
	}
	return w
}

func (w *wireProfile) toProfile() *models.ViewerProfile {
	p := models.NewViewerProfile(w.ViewerID)
	p.NSFWOptIn = w.NSFWOptIn
	p.LastUpdated = w.LastUpdated
	if w.AuthorAffinity != nil {
		p.AuthorAffinity = w.AuthorAffinity
	}
	if w.HashtagInterest != nil {
		p.HashtagInterest = w.HashtagInterest
	}
	for _, id := range w.FollowSet {
		p.FollowSet[id] = struct{}{}
	}
	for _, id := range w.MutedUsers {
		p.MutedUsers[id] = struct{}{}
	}
	for _, kw := range w.MutedKeywords {
		p.MutedKeywords[kw] = struct{}{}
	}
	for _, tag := range w.EngagedHashtags {
		p.EngagedHashtags[tag] = struct{}{}
	}
	return p
}
