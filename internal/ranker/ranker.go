// Package ranker implements the C3 scorer: the five normalized signals,
// the weighted final score, the CHRONOLOGICAL short-circuit, and the
// ordered shaping passes (diversity, repetition control, hybrid
// freshness) applied after the base scores are computed.
package ranker

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ritik/timeline-core/internal/models"
)

const recencyHalfLife = 6 * time.Hour

// Score computes every RankedItem's Signals and FinalScore for one
// viewer, given a resolved TimelineConfig. CHRONOLOGICAL short-circuits
// to created_at-as-score and skips every shaping pass (spec.md §4.3).
func Score(notes []models.Note, sources map[string]models.Source, profile *models.ViewerProfile, cfg models.TimelineConfig, now time.Time) []models.RankedItem {
	items := make([]models.RankedItem, 0, len(notes))

	if cfg.Algorithm == models.AlgorithmChronological {
		for _, n := range notes {
			items = append(items, models.RankedItem{
				Note:       n,
				Source:     sources[n.NoteID],
				FinalScore: float64(n.CreatedAt.Unix()),
				InjectedAt: now,
			})
		}
		sortDeterministic(items)
		return items
	}

	for _, n := range notes {
		sig := computeSignals(n, profile, now)
		score := weightedScore(sig, cfg.Weights)
		if score < 0 {
			score = 0
		}
		items = append(items, models.RankedItem{
			Note:       n,
			Source:     sources[n.NoteID],
			FinalScore: score,
			Signals:    sig,
			InjectedAt: now,
		})
	}

	applyDiversityShaping(items, cfg.Weights.Diversity)
	applyRepetitionControl(items, profile)
	applyHybridFreshness(items, now)
	for i := range items {
		if items[i].FinalScore < 0 {
			items[i].FinalScore = 0
		}
	}

	sortDeterministic(items)
	return items
}

// computeSignals derives the five normalized [0,1] signals for one note.
func computeSignals(n models.Note, profile *models.ViewerProfile, now time.Time) models.Signals {
	return models.Signals{
		AuthorAffinity:     authorAffinity(n, profile),
		ContentQuality:     contentQuality(n),
		EngagementVelocity: engagementVelocity(n, now),
		Recency:            recency(n, now),
		Personalization:    personalization(n, profile),
	}
}

const (
	affinityFollowedBase  = 0.8
	affinityStrangerFloor = 0.1
	globalAuthorWeight    = 0.2
)

// authorAffinity is `max(0.8 if followed else 0.1, historical_affinity,
// 0.2 * global_author_score)` clipped to 1 (spec.md §4.3).
func authorAffinity(n models.Note, profile *models.ViewerProfile) float64 {
	base := affinityStrangerFloor
	var historical, global float64
	if profile != nil {
		if profile.IsFollowing(n.AuthorID) {
			base = affinityFollowedBase
		}
		historical = profile.AuthorAffinity[n.AuthorID]
		global = globalAuthorWeight * profile.GlobalAuthorAffinity[n.AuthorID]
	}
	return clamp01(math.Max(base, math.Max(historical, global)))
}

const (
	qualityBase               = 0.5
	qualityLengthBoost        = 0.1
	qualityMediaBoost         = 0.15
	qualityHashtagBoost       = 0.08
	qualityMentionBoost       = 0.12
	qualityURLPenalty         = 0.05
	qualityHashtagSpamPenalty = 0.1
	qualityShortPenalty       = 0.2
	qualityEngagementCap      = 0.3
	hashtagSpamThreshold      = 10
	shortTextThreshold        = 10
)

// contentQuality implements spec.md §4.3's content_quality table: a base
// score plus boosts for healthy length/media/hashtag/mention counts,
// penalties for URLs/hashtag-spam/near-empty text, and an engagement-rate
// boost clipped at qualityEngagementCap.
func contentQuality(n models.Note) float64 {
	score := qualityBase
	length := len([]rune(n.TextContent))

	if length >= 50 && length <= 280 {
		score += qualityLengthBoost
	}
	if length < shortTextThreshold {
		score -= qualityShortPenalty
	}
	if n.HasMedia {
		score += qualityMediaBoost
	}
	if hc := len(n.Hashtags); hc >= 1 && hc <= 5 {
		score += qualityHashtagBoost
	}
	if hc := len(n.Hashtags); hc > hashtagSpamThreshold {
		score -= qualityHashtagSpamPenalty
	}
	if mc := len(n.Mentions); mc >= 1 && mc <= 3 {
		score += qualityMentionBoost
	}
	if containsURL(n.TextContent) {
		score -= qualityURLPenalty
	}

	engagementRate := float64(n.Engagements()) / math.Max(float64(n.Views), 1)
	score += math.Min(engagementRate, qualityEngagementCap)

	return clamp01(score)
}

// containsURL is a cheap substring check for the spec's URL penalty; the
// filter/ranker layer never needs a real URL parse, only a signal.
func containsURL(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "http://") || strings.Contains(lower, "https://") || strings.Contains(lower, "www.")
}

const engagementVelocityDivisor = 10.0

// engagementVelocity is total engagements per hour since created_at,
// normalized by dividing by 10 and clipped to 1 (spec.md §4.3).
func engagementVelocity(n models.Note, now time.Time) float64 {
	ageHours := math.Max(now.Sub(n.CreatedAt).Hours(), 1.0/60)
	rate := float64(n.Engagements()) / ageHours
	return clamp01(rate / engagementVelocityDivisor)
}

// recency applies exponential decay with a 6h half-life.
func recency(n models.Note, now time.Time) float64 {
	age := now.Sub(n.CreatedAt)
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * age.Hours() / recencyHalfLife.Hours())
}

// personalization rewards hashtag overlap with the viewer's engaged or
// explicitly-interested hashtag sets.
func personalization(n models.Note, profile *models.ViewerProfile) float64 {
	if profile == nil || len(n.Hashtags) == 0 {
		return 0
	}
	var matched float64
	for _, tag := range n.Hashtags {
		lower := normalizeTag(tag)
		if _, ok := profile.EngagedHashtags[lower]; ok {
			matched++
			continue
		}
		if w, ok := profile.HashtagInterest[lower]; ok {
			matched += clamp01(w)
		}
	}
	return clamp01(matched / float64(len(n.Hashtags)))
}

func normalizeTag(tag string) string {
	out := make([]rune, 0, len(tag))
	for _, r := range tag {
		out = append(out, unicodeToLower(r))
	}
	return string(out)
}

func unicodeToLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func weightedScore(s models.Signals, w models.SignalWeights) float64 {
	return s.Recency*w.Recency +
		s.EngagementVelocity*w.Engagement +
		s.AuthorAffinity*w.AuthorAffinity +
		s.ContentQuality*w.ContentQuality +
		s.Personalization*w.Personalization
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortDeterministic enforces the canonical ordering: final_score desc,
// created_at desc, note_id asc (spec.md §4.3 tie-break invariant).
func sortDeterministic(items []models.RankedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].FinalScore != items[j].FinalScore {
			return items[i].FinalScore > items[j].FinalScore
		}
		if !items[i].Note.CreatedAt.Equal(items[j].Note.CreatedAt) {
			return items[i].Note.CreatedAt.After(items[j].Note.CreatedAt)
		}
		return items[i].Note.NoteID < items[j].Note.NoteID
	})
}
