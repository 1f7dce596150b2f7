// Package idgen generates the engine's decision IDs:
// decision_<sanitized_topic>_<ms_timestamp>_<random4>.
package idgen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeTopic lowercases topic and collapses any run of non-alphanumeric
// characters into a single underscore, trimming leading/trailing
// underscores. This is also used to derive the prefix-match fallback
// keyword in Recall (spec §4.6: "first underscore-separated keyword").
func SanitizeTopic(topic string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(topic), "_")
	return strings.Trim(s, "_")
}

// New generates a decision ID for the given topic at the given millisecond
// timestamp. The random suffix is derived from a fresh UUID rather than
// hand-rolled crypto/rand bookkeeping.
func New(topic string, nowMillis int64) string {
	sanitized := SanitizeTopic(topic)
	if sanitized == "" {
		sanitized = "decision"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return "decision_" + sanitized + "_" + strconv.FormatInt(nowMillis, 10) + "_" + suffix
}

// FirstKeyword returns the first underscore-separated keyword of a
// sanitized topic, used by Recall's single bounded fuzzy fallback.
func FirstKeyword(topic string) string {
	sanitized := SanitizeTopic(topic)
	if idx := strings.IndexByte(sanitized, '_'); idx >= 0 {
		return sanitized[:idx]
	}
	return sanitized
}
