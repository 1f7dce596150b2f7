// Package outcome implements the Outcome Tracker (spec §4.9): a
// heuristic keyword classifier over free-text user messages, and the
// confidence-impact update applied when a classification attaches to an
// ongoing decision. No teacher file covers free-text outcome
// classification; grounded directly on the spec's own keyword lists
// (documented in DESIGN.md as the stdlib-only exception for this
// package).
package outcome

import (
	"strings"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

var failureKeywords = []string{
	"doesn't work", "failed", "error", "slow", "broken", "bug", "wrong", "not working",
}

var successKeywords = []string{
	"works", "perfect", "great", "success", "excellent", "fast", "good",
}

var partialKeywords = []string{
	"okay", "acceptable", "improved", "better",
}

// Classify applies the spec's keyword heuristic to a free-text message,
// checking failure before success before partial so that a message
// matching more than one category (e.g. "slow but works") resolves
// deterministically toward the worse outcome.
func Classify(message string) model.Outcome {
	lower := strings.ToLower(message)

	if matchesAny(lower, failureKeywords) {
		return model.Failed
	}
	if matchesAny(lower, successKeywords) {
		return model.Success
	}
	if matchesAny(lower, partialKeywords) {
		return model.Partial
	}
	return model.Unset
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FailureReason extracts the first sentence of message, truncated to 200
// characters, for the failure_reason field (spec §4.9).
func FailureReason(message string) string {
	sentence := message
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.Index(message, sep); idx >= 0 && idx < len(sentence) {
			sentence = message[:idx]
		}
	}
	sentence = strings.TrimSpace(sentence)
	if len(sentence) > 200 {
		sentence = sentence[:200]
	}
	return sentence
}

// Impact returns the confidence delta spec §4.9 assigns an outcome:
// +0.2 for success (with an extra +0.1 if durationDays >= 30), -0.3 for
// failure, +0.1 for partial, 0 otherwise.
func Impact(o model.Outcome, durationDays float64) float64 {
	switch o {
	case model.Success:
		impact := 0.2
		if durationDays >= 30 {
			impact += 0.1
		}
		return impact
	case model.Failed:
		return -0.3
	case model.Partial:
		return 0.1
	default:
		return 0
	}
}

// DurationDays computes (now - createdAt) in days, rounded to 2
// decimals, both given as milliseconds since epoch.
func DurationDays(nowMillis, createdAtMillis int64) float64 {
	seconds := float64(nowMillis-createdAtMillis) / 1000
	days := seconds / 86400
	return roundTo2(days)
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
