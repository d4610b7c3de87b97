// Package filter implements the C2 content filter: the mute, NSFW,
// suspension and spam checks every candidate note passes through before
// scoring.
package filter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ritik/timeline-core/internal/models"
)

// Reason names why a note was dropped, used for structured logging only;
// it is never surfaced to the caller.
type Reason string

const (
	ReasonMutedAuthor  Reason = "muted_author"
	ReasonMutedKeyword Reason = "muted_keyword"
	ReasonNSFW         Reason = "nsfw_not_opted_in"
	ReasonSuspended    Reason = "author_suspended"
	ReasonSpam         Reason = "spam_signature"
)

// Decision is the outcome of evaluating one note against a profile.
type Decision struct {
	Keep   bool
	Reason Reason
}

// Evaluate applies every filter rule in spec.md §4.2 order: author
// suspension, mute-user, mute-keyword (case-insensitive whole word),
// NSFW opt-in, spam signature. The first failing rule short-circuits.
func Evaluate(note models.Note, profile *models.ViewerProfile) Decision {
	if note.AuthorSuspended {
		return Decision{Keep: false, Reason: ReasonSuspended}
	}
	if profile != nil && profile.IsMutedUser(note.AuthorID) {
		return Decision{Keep: false, Reason: ReasonMutedAuthor}
	}
	if profile != nil && containsMutedKeyword(note.TextContent, profile.MutedKeywords) {
		return Decision{Keep: false, Reason: ReasonMutedKeyword}
	}
	if note.NSFW && (profile == nil || !profile.NSFWOptIn) {
		return Decision{Keep: false, Reason: ReasonNSFW}
	}
	if isSpamSignature(note) {
		return Decision{Keep: false, Reason: ReasonSpam}
	}
	return Decision{Keep: true}
}

// Apply filters a slice of notes down to the ones that survive Evaluate.
// An unexpected error anywhere in this package fails closed: the caller
// treats a non-nil error as INTERNAL and drops the whole batch rather
// than risk serving unfiltered content (spec.md §7).
func Apply(notes []models.Note, profile *models.ViewerProfile) ([]models.Note, error) {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		d := Evaluate(n, profile)
		if d.Keep {
			out = append(out, n)
		}
	}
	return out, nil
}

// containsMutedKeyword reports whether text contains any muted keyword
// as a case-insensitive whole word match.
func containsMutedKeyword(text string, muted map[string]struct{}) bool {
	if len(muted) == 0 {
		return false
	}
	for _, word := range tokenize(text) {
		if _, ok := muted[strings.ToLower(word)]; ok {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

const hashtagSpamThreshold = 10

// isSpamSignature matches spec.md §4.2's spam signature: repeated
// punctuation, or an excessive hashtag count.
func isSpamSignature(n models.Note) bool {
	if len(n.Hashtags) > hashtagSpamThreshold {
		return true
	}
	return hasRepeatedPunctuation(n.TextContent)
}

// hasRepeatedPunctuation reports whether text contains a run of three or
// more identical punctuation characters in a row (e.g. "!!!", "...").
func hasRepeatedPunctuation(text string) bool {
	var run int
	var last rune
	for _, r := range text {
		if run > 0 && unicode.IsPunct(r) && r == last {
			run++
		} else if unicode.IsPunct(r) {
			run = 1
		} else {
			run = 0
		}
		if run >= 3 {
			return true
		}
		last = r
	}
	return false
}

// String renders a Decision for structured logging.
func (d Decision) String() string {
	if d.Keep {
		return "keep"
	}
	return fmt.Sprintf("drop:%s", d.Reason)
}
