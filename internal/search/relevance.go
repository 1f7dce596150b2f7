package search

import (
	"math"
	"sort"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

const (
	relevanceRecencyWeight    = 0.2
	relevanceImportanceWeight = 0.5
	relevanceSemanticWeight   = 0.3
	relevanceThreshold        = 0.5
	defaultTopN               = 3
	recencyHalfLifeDays       = 30.0
)

// ScoredDecision is one Relevance Scorer output: a decision plus its
// component and blended relevance scores (spec §4.8).
type ScoredDecision struct {
	Decision   *model.Decision
	Recency    float64
	Importance float64
	Semantic   float64
	Relevance  float64
}

// CosineSimilarity computes the cosine similarity between two equal-length
// vectors, returning 0 for a zero-magnitude vector rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Score computes the relevance components and blended score for a single
// decision against an optional query vector (spec §4.8). queryVec and
// decisionVec may both be nil/empty, in which case semantic = 0.
func Score(d *model.Decision, queryVec, decisionVec []float32, now time.Time) ScoredDecision {
	ageDays := now.Sub(time.UnixMilli(d.CreatedAt)).Hours() / 24
	recency := math.Exp(-ageDays / recencyHalfLifeDays)
	importance := d.Outcome.Importance()

	var semantic float64
	if len(queryVec) > 0 && len(decisionVec) > 0 {
		semantic = CosineSimilarity(queryVec, decisionVec)
	}

	relevance := relevanceRecencyWeight*recency + relevanceImportanceWeight*importance + relevanceSemanticWeight*semantic
	return ScoredDecision{
		Decision:   d,
		Recency:    recency,
		Importance: importance,
		Semantic:   semantic,
		Relevance:  relevance,
	}
}

// TopN filters scored decisions below relevanceThreshold, sorts by
// relevance descending, and returns at most n (default 3 when n <= 0).
func TopN(scored []ScoredDecision, n int) []ScoredDecision {
	if n <= 0 {
		n = defaultTopN
	}

	var kept []ScoredDecision
	for _, s := range scored {
		if s.Relevance >= relevanceThreshold {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Relevance > kept[j].Relevance })
	if len(kept) > n {
		kept = kept[:n]
	}
	return kept
}
