package ranker

import (
	"time"

	"github.com/ritik/timeline-core/internal/models"
)

const (
	diversityAuthorThreshold = 3
	diversityPenaltyPerExtra = 0.05
	diversitySingletonBoost  = 0.02
)

// applyDiversityShaping is spec.md §4.3 shaping pass 1: for each author
// appearing more than diversityAuthorThreshold times in the batch,
// subtract diversityPenaltyPerExtra*(count-3) from every one of that
// author's items; items carrying a batch-singleton hashtag get
// +0.02. The whole adjustment is scaled by diversityWeight.
func applyDiversityShaping(items []models.RankedItem, diversityWeight float64) {
	if diversityWeight <= 0 || len(items) < 2 {
		return
	}
	sortDeterministic(items)

	authorCount := make(map[string]int, len(items))
	for i := range items {
		authorCount[items[i].Note.AuthorID]++
	}
	tagFreq := hashtagFrequency(items)

	for i := range items {
		if count := authorCount[items[i].Note.AuthorID]; count > diversityAuthorThreshold {
			items[i].FinalScore -= diversityPenaltyPerExtra * float64(count-diversityAuthorThreshold) * diversityWeight
		}
		if hasSingletonHashtag(items[i].Note.Hashtags, tagFreq) {
			items[i].FinalScore += diversitySingletonBoost * diversityWeight
		}
	}
}

const (
	repetitionSoftCap              = 2
	repetitionPenaltyPerExtra      = 0.06
	repetitionBackToBackPenalty    = 0.05
	repetitionHashtagFreqThreshold = 4
	repetitionHashtagPenalty       = 0.01
	repetitionSingletonBoost       = 0.02
)

// applyRepetitionControl is spec.md §4.3 shaping pass 2 (TikTok-style):
// walking items in score order, per-author counts past a soft cap of 2
// receive an escalating penalty, back-to-back same-author items take an
// additional hit, and batch hashtag frequency shapes a small per-tag
// penalty or singleton boost. profile is unused: repetition here is
// purely a function of the batch's own author/hashtag distribution.
func applyRepetitionControl(items []models.RankedItem, _ *models.ViewerProfile) {
	sortDeterministic(items)

	tagFreq := hashtagFrequency(items)
	authorCount := make(map[string]int, len(items))
	var lastAuthor string

	for i := range items {
		author := items[i].Note.AuthorID
		authorCount[author]++
		if count := authorCount[author]; count > repetitionSoftCap {
			items[i].FinalScore -= repetitionPenaltyPerExtra * float64(count-repetitionSoftCap)
		}
		if i > 0 && author == lastAuthor {
			items[i].FinalScore -= repetitionBackToBackPenalty
		}
		lastAuthor = author

		for _, tag := range items[i].Note.Hashtags {
			switch freq := tagFreq[normalizeTag(tag)]; {
			case freq > repetitionHashtagFreqThreshold:
				items[i].FinalScore -= repetitionHashtagPenalty
			case freq == 1:
				items[i].FinalScore += repetitionSingletonBoost
			}
		}
	}
}

const (
	hybridFreshWindow    = 30 * time.Minute
	hybridFreshBoost     = 0.02
	hybridDiscoveryBoost = 0.01
)

// applyHybridFreshness is spec.md §4.3 shaping pass 3 (HYBRID only,
// enforced by Score's CHRONOLOGICAL short-circuit): items no older than
// 30 minutes get +0.02, and items from a non-following source get +0.01
// to improve discovery.
func applyHybridFreshness(items []models.RankedItem, now time.Time) {
	for i := range items {
		if now.Sub(items[i].Note.CreatedAt) <= hybridFreshWindow {
			items[i].FinalScore += hybridFreshBoost
		}
		if items[i].Source != models.SourceFollowing {
			items[i].FinalScore += hybridDiscoveryBoost
		}
	}
}

// hashtagFrequency counts normalized-tag occurrences across the whole
// batch, used by both shaping passes to spot singleton and over-exposed
// hashtags.
func hashtagFrequency(items []models.RankedItem) map[string]int {
	freq := make(map[string]int)
	for i := range items {
		for _, tag := range items[i].Note.Hashtags {
			freq[normalizeTag(tag)]++
		}
	}
	return freq
}

func hasSingletonHashtag(tags []string, freq map[string]int) bool {
	for _, tag := range tags {
		if freq[normalizeTag(tag)] == 1 {
			return true
		}
	}
	return false
}
