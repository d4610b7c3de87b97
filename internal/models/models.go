// Package models holds the data types shared across the timeline core:
// notes, ranked items, viewer profiles and per-request configuration.
package models

import "time"

// Source identifies which candidate origin produced a RankedItem.
type Source string

const (
	SourceFollowing   Source = "FOLLOWING"
	SourceRecommended Source = "RECOMMENDED"
	SourceTrending    Source = "TRENDING"
	SourceLists       Source = "LISTS"
)

// sourceOrdinal fixes the precedence used when deduplicating across
// sources: a lower ordinal wins a note_id collision.
var sourceOrdinal = map[Source]int{
	SourceFollowing:   0,
	SourceRecommended: 1,
	SourceTrending:    2,
	SourceLists:       3,
}

// GlobalAuthorKey is the sentinel viewer id under which a note author's
// global (not viewer-specific) affinity score accumulates.
const GlobalAuthorKey = "__global__"

// Ordinal returns the source's dedup precedence (lower wins).
func (s Source) Ordinal() int {
	if o, ok := sourceOrdinal[s]; ok {
		return o
	}
	return len(sourceOrdinal)
}

// Note is an immutable reference to one short-form post. The core never
// mutates a Note; it is treated as a read-only snapshot from the note store.
type Note struct {
	NoteID          string    `json:"note_id" db:"note_id"`
	AuthorID        string    `json:"author_id" db:"author_id"`
	TextContent     string    `json:"text_content" db:"text_content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	HasMedia        bool      `json:"has_media" db:"has_media"`
	Hashtags        []string  `json:"hashtags,omitempty" db:"-"`
	Mentions        []string  `json:"mentions,omitempty" db:"-"`
	Views           int64     `json:"views" db:"views"`
	Likes           int64     `json:"likes" db:"likes"`
	Reshares        int64     `json:"reshares" db:"reshares"`
	Replies         int64     `json:"replies" db:"replies"`
	Quotes          int64     `json:"quotes" db:"quotes"`
	NSFW            bool      `json:"nsfw" db:"nsfw"`
	AuthorSuspended bool      `json:"author_suspended" db:"author_suspended"`
}

// Engagements returns the total engagement count used by velocity signals.
func (n *Note) Engagements() int64 {
	return n.Likes + n.Reshares + n.Replies + n.Quotes
}

// Signals are the five normalized [0,1] scoring components computed by
// the ranker for one note, for one viewer.
type Signals struct {
	AuthorAffinity     float64 `json:"author_affinity"`
	ContentQuality     float64 `json:"content_quality"`
	EngagementVelocity float64 `json:"engagement_velocity"`
	Recency            float64 `json:"recency"`
	Personalization    float64 `json:"personalization"`
}

// RankedItem wraps one Note with viewer-specific scoring state. It is
// never shared unmutated across viewers: scores are always computed
// relative to one viewer.
type RankedItem struct {
	Note            Note      `json:"note"`
	Source          Source    `json:"source"`
	FinalScore      float64   `json:"final_score"`
	Signals         Signals   `json:"signals"`
	InjectedAt      time.Time `json:"injected_at"`
	InjectionReason string    `json:"injection_reason"`
}

// ViewerProfile holds per-viewer personalization and moderation state.
type ViewerProfile struct {
	ViewerID             string
	FollowSet            map[string]struct{}
	AuthorAffinity       map[string]float64
	GlobalAuthorAffinity map[string]float64
	HashtagInterest      map[string]float64
	MutedUsers           map[string]struct{}
	MutedKeywords        map[string]struct{}
	NSFWOptIn            bool
	EngagedHashtags      map[string]struct{}
	ActiveHours          map[int]struct{}
	LastUpdated          time.Time
}

// NewViewerProfile returns a lazily-created default profile for a viewer
// that has never been seen before (state machine: NONE -> DEFAULTED).
func NewViewerProfile(viewerID string) *ViewerProfile {
	return &ViewerProfile{
		ViewerID:             viewerID,
		FollowSet:            make(map[string]struct{}),
		AuthorAffinity:       make(map[string]float64),
		GlobalAuthorAffinity: make(map[string]float64),
		HashtagInterest:      make(map[string]float64),
		MutedUsers:           make(map[string]struct{}),
		MutedKeywords:        make(map[string]struct{}),
		EngagedHashtags:      make(map[string]struct{}),
		ActiveHours:          make(map[int]struct{}),
	}
}

// IsFollowing reports whether the viewer follows authorID.
func (p *ViewerProfile) IsFollowing(authorID string) bool {
	_, ok := p.FollowSet[authorID]
	return ok
}

// IsMutedUser reports whether authorID is in the viewer's mute list.
func (p *ViewerProfile) IsMutedUser(authorID string) bool {
	_, ok := p.MutedUsers[authorID]
	return ok
}

// Clone returns a deep copy safe to mutate without affecting a cached original.
func (p *ViewerProfile) Clone() *ViewerProfile {
	c := NewViewerProfile(p.ViewerID)
	c.NSFWOptIn = p.NSFWOptIn
	c.LastUpdated = p.LastUpdated
	for k := range p.FollowSet {
		c.FollowSet[k] = struct{}{}
	}
	for k, v := range p.AuthorAffinity {
		c.AuthorAffinity[k] = v
	}
	for k, v := range p.GlobalAuthorAffinity {
		c.GlobalAuthorAffinity[k] = v
	}
	for k, v := range p.HashtagInterest {
		c.HashtagInterest[k] = v
	}
	for k := range p.MutedUsers {
		c.MutedUsers[k] = struct{}{}
	}
	for k := range p.MutedKeywords {
		c.MutedKeywords[k] = struct{}{}
	}
	for k := range p.EngagedHashtags {
		c.EngagedHashtags[k] = struct{}{}
	}
	for k := range p.ActiveHours {
		c.ActiveHours[k] = struct{}{}
	}
	return c
}

// Algorithm selects the ranking strategy for a request.
type Algorithm string

const (
	AlgorithmUnspecified   Algorithm = "UNSPECIFIED"
	AlgorithmChronological Algorithm = "CHRONOLOGICAL"
	AlgorithmHybrid        Algorithm = "HYBRID"
)

// SignalWeights are the scoring-time weights from TimelineConfig.
// Diversity is a shaping-only multiplier (spec.md §9 Open Question): it
// never enters the weighted final_score sum alongside the other five.
type SignalWeights struct {
	Recency         float64
	Engagement      float64
	AuthorAffinity  float64
	ContentQuality  float64
	Personalization float64
	Diversity       float64
}

// SourceMix is the ratio of each source in an assembled timeline; ratios
// sum to (approximately) 1.
type SourceMix struct {
	Following   float64
	Recommended float64
	Trending    float64
	Lists       float64
}

// Ratio returns the configured mix ratio for a source.
func (m SourceMix) Ratio(s Source) float64 {
	switch s {
	case SourceFollowing:
		return m.Following
	case SourceRecommended:
		return m.Recommended
	case SourceTrending:
		return m.Trending
	case SourceLists:
		return m.Lists
	default:
		return 0
	}
}

// SourceCaps are absolute per-source caps on one assembled timeline.
type SourceCaps struct {
	Following   int
	Recommended int
	Trending    int
	Lists       int
}

// Cap returns the configured cap for a source.
func (c SourceCaps) Cap(s Source) int {
	switch s {
	case SourceFollowing:
		return c.Following
	case SourceRecommended:
		return c.Recommended
	case SourceTrending:
		return c.Trending
	case SourceLists:
		return c.Lists
	default:
		return 0
	}
}

// ABWeights are per-request A/B multipliers applied to source quotas.
type ABWeights struct {
	Following   float64
	Recommended float64
	Trending    float64
	Lists       float64
}

// Weight returns the configured multiplier for a source.
func (w ABWeights) Weight(s Source) float64 {
	switch s {
	case SourceFollowing:
		return w.Following
	case SourceRecommended:
		return w.Recommended
	case SourceTrending:
		return w.Trending
	case SourceLists:
		return w.Lists
	default:
		return 1
	}
}

// TimelineConfig is the resolved, per-request configuration that drives
// one pipeline run: defaults merged with stored viewer preferences merged
// with per-request header overrides.
type TimelineConfig struct {
	Algorithm         Algorithm
	MaxItems          int
	MaxAgeHours       float64
	MinScoreThreshold float64
	Weights           SignalWeights
	Mix               SourceMix
	Caps              SourceCaps
	ABWeights         ABWeights
	UseOverdrive      bool
	DiscoveryShare    float64 // only meaningful for For-You
}

// EngagementAction is the set of actions RecordEngagement accepts.
type EngagementAction string

const (
	ActionLike    EngagementAction = "like"
	ActionReshare EngagementAction = "reshare"
	ActionReply   EngagementAction = "reply"
	ActionFollow  EngagementAction = "follow"
	ActionHide    EngagementAction = "hide"
)

// FanoutEventKind is the triggering event kind of a FanoutTask.
type FanoutEventKind string

const (
	EventCreated FanoutEventKind = "CREATED"
	EventUpdated FanoutEventKind = "UPDATED"
	EventDeleted FanoutEventKind = "DELETED"
)

// FanoutTask is one unit of work submitted to the fan-out worker.
type FanoutTask struct {
	Note  Note
	Kind  FanoutEventKind
	Retry int
}

// TimelineUpdate is pushed to subscribed viewers by the fan-out worker.
type TimelineUpdate struct {
	UpdateType     string
	AffectedNoteID string
	AffectedItems  []RankedItem
}

// Pagination describes the page returned from the pipeline.
type Pagination struct {
	Offset     int
	Limit      int
	TotalCount int
	HasNext    bool
	NextCursor string
}

// Metadata accompanies every successful timeline response.
type Metadata struct {
	AlgorithmUsed          Algorithm
	SignalWeights          SignalWeights
	TotalItems             int
	NewItemsSinceLastFetch int
	LastUpdated            time.Time
}

// TimelineResponse is the typed payload returned by every GetTimeline-family
// pipeline entry point.
type TimelineResponse struct {
	Items      []RankedItem
	Metadata   Metadata
	Pagination Pagination
}
