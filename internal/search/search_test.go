package search

import (
	"testing"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestAdaptiveThreshold(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  float64
	}{
		{"single token", "auth", 0.70},
		{"two tokens", "auth strategy", 0.70},
		{"exactly three tokens", "auth strategy choice", 0.60},
		{"four tokens", "auth strategy choice today", 0.60},
		{"empty query", "", 0.70},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, AdaptiveThreshold(c.query))
		})
	}
}

func TestRecencyScore(t *testing.T) {
	t.Run("zero age scores 1.0", func(t *testing.T) {
		assert.InDelta(t, 1.0, RecencyScore(0, recencyScaleDays, recencyDecay), 1e-9)
	})

	t.Run("age equal to scale equals the decay constant", func(t *testing.T) {
		got := RecencyScore(recencyScaleDays, recencyScaleDays, recencyDecay)
		assert.InDelta(t, recencyDecay, got, 1e-9)
	})

	t.Run("score decreases monotonically with age", func(t *testing.T) {
		near := RecencyScore(1, recencyScaleDays, recencyDecay)
		far := RecencyScore(14, recencyScaleDays, recencyDecay)
		assert.Greater(t, near, far)
	})

	t.Run("non-positive scale falls back to default", func(t *testing.T) {
		a := RecencyScore(7, 0, recencyDecay)
		b := RecencyScore(7, recencyScaleDays, recencyDecay)
		assert.InDelta(t, b, a, 1e-9)
	})

	t.Run("out-of-range decay falls back to default", func(t *testing.T) {
		a := RecencyScore(7, recencyScaleDays, 1.5)
		b := RecencyScore(7, recencyScaleDays, recencyDecay)
		assert.InDelta(t, b, a, 1e-9)
	})
}

func TestScoreHit(t *testing.T) {
	now := time.Now()
	d := &model.Decision{ID: "decision_x", CreatedAt: now.UnixMilli()}

	t.Run("blends similarity and recency by weight", func(t *testing.T) {
		hit := scoreHit(d, 0.9, now, 0.3, "vector")
		assert.InDelta(t, 0.9*0.7+1.0*0.3, hit.FinalScore, 1e-6)
		assert.Equal(t, "vector", hit.SearchMethod)
	})

	t.Run("zero recency weight orders strictly by similarity", func(t *testing.T) {
		old := &model.Decision{ID: "old", CreatedAt: now.Add(-90 * 24 * time.Hour).UnixMilli()}
		fresh := &model.Decision{ID: "fresh", CreatedAt: now.UnixMilli()}

		oldHit := scoreHit(old, 0.81, now, 0, "vector")
		freshHit := scoreHit(fresh, 0.80, now, 0, "vector")

		assert.Greater(t, oldHit.FinalScore, freshHit.FinalScore)
		assert.Equal(t, oldHit.Similarity, oldHit.FinalScore)
	})
}

func TestSortByFinalScore(t *testing.T) {
	hits := []Hit{
		{Decision: &model.Decision{ID: "a"}, FinalScore: 0.5},
		{Decision: &model.Decision{ID: "b"}, FinalScore: 0.9},
		{Decision: &model.Decision{ID: "c"}, FinalScore: 0.7},
	}
	sortByFinalScore(hits)
	assert.Equal(t, []string{"b", "c", "a"}, []string{hits[0].Decision.ID, hits[1].Decision.ID, hits[2].Decision.ID})
}
