// Package search implements Vector Search + Recency (spec §4.7):
// adaptive-threshold candidate retrieval, Gaussian recency decay, and
// the keyword-LIKE fallback for when the vector extension is
// unavailable. Grounded on codenerd's internal/store/vector_store.go
// candidate-pull-then-rescore shape, adapted to this engine's
// Gaussian-decay formula and adaptive threshold.
package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/embedding"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
)

const (
	recencyScaleDays  = 7.0
	recencyDecay      = 0.5
	defaultRecencyW   = 0.3
	candidatePullMult = 3
	fallbackSimilarity = 0.75
)

// Hit is one scored result from Search.
type Hit struct {
	Decision      *model.Decision
	Similarity    float64
	RecencyScore  float64
	FinalScore    float64
	SearchMethod  string // "vector" or "keyword"
}

// Options controls a single Search call; zero values select the spec's
// defaults.
type Options struct {
	Limit          int
	Threshold      float64 // 0 selects the adaptive default
	RecencyWeight  float64 // 0 selects the spec default of 0.3; use HasRecencyWeight to force an explicit 0
	HasRecencyWeight bool
}

// Engine runs similarity + recency search over the storage layer and
// embedding pipeline.
type Engine struct {
	db       *storage.DB
	pipeline *embedding.Pipeline
}

// New constructs a search Engine.
func New(db *storage.DB, pipeline *embedding.Pipeline) *Engine {
	return &Engine{db: db, pipeline: pipeline}
}

// AdaptiveThreshold returns 0.70 for queries under 3 whitespace-separated
// tokens, else 0.60 (spec §4.7).
func AdaptiveThreshold(query string) float64 {
	tokens := strings.Fields(query)
	if len(tokens) < 3 {
		return 0.70
	}
	return 0.60
}

// RecencyScore computes the Gaussian recency decay for an item aged
// ageDays days, using scale/decay defaults so that recency_score = decay
// exactly at ageDays = scale (spec §4.7).
func RecencyScore(ageDays, scale, decay float64) float64 {
	if scale <= 0 {
		scale = recencyScaleDays
	}
	if decay <= 0 || decay >= 1 {
		decay = recencyDecay
	}
	ratio := ageDays / scale
	return math.Exp(-(ratio * ratio) / (2 * math.Log(1/decay)))
}

// Search runs the full Tier 1/Tier 2 retrieval path for query: embeds the
// query (Tier 1) or falls back to keyword search (Tier 2) when the
// vector extension is unavailable or the pipeline can't produce a
// vector, pulls 3x candidates, filters by threshold, applies Gaussian
// recency decay, and blends into a final score.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Hit, error) {
	timer := logging.StartTimer(logging.CategorySearch, "Search")
	defer timer.Stop()

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = AdaptiveThreshold(query)
	}
	recencyWeight := defaultRecencyW
	if opts.HasRecencyWeight {
		recencyWeight = opts.RecencyWeight
	}

	if e.db.VectorCapable() {
		hits, err := e.vectorSearch(ctx, query, limit, threshold, recencyWeight)
		if err == nil {
			return hits, nil
		}
		logging.Get(logging.CategorySearch).Warnw("vector search failed, falling back to keyword search", "error", err)
	}
	return e.keywordSearch(ctx, query, limit, recencyWeight)
}

func (e *Engine) vectorSearch(ctx context.Context, query string, limit int, threshold, recencyWeight float64) ([]Hit, error) {
	vec, err := e.pipeline.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	raw, err := e.db.VectorSearch(ctx, vec, limit*candidatePullMult)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	now := time.Now()
	for _, r := range raw {
		if r.Similarity < threshold {
			continue
		}
		d, err := storage.GetDecisionBySeq(ctx, e.db, r.Seq)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, scoreHit(d, r.Similarity, now, recencyWeight, "vector"))
	}

	sortByFinalScore(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// keywordSearch executes the Tier 2 fallback: a tokenized LIKE scan over
// topic and decision text, restricted to non-superseded rows, assigning
// a flat 0.75 similarity to every match (spec §4.7).
func (e *Engine) keywordSearch(ctx context.Context, query string, limit int, recencyWeight float64) ([]Hit, error) {
	tokens := strings.Fields(strings.ToLower(query))
	decisions, err := storage.KeywordSearch(ctx, e.db, tokens, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var hits []Hit
	for _, d := range decisions {
		if d.SupersededBy != "" {
			continue
		}
		hits = append(hits, scoreHit(d, fallbackSimilarity, now, recencyWeight, "keyword"))
	}
	sortByFinalScore(hits)
	return hits, nil
}

func scoreHit(d *model.Decision, similarity float64, now time.Time, recencyWeight float64, method string) Hit {
	ageDays := now.Sub(time.UnixMilli(d.CreatedAt)).Hours() / 24
	recency := RecencyScore(ageDays, recencyScaleDays, recencyDecay)
	final := similarity*(1-recencyWeight) + recency*recencyWeight
	return Hit{
		Decision:     d,
		Similarity:   similarity,
		RecencyScore: recency,
		FinalScore:   final,
		SearchMethod: method,
	}
}

func sortByFinalScore(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].FinalScore > hits[j].FinalScore })
}
