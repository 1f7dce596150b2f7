package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/graph"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/outcome"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/search"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/writer"
)

// SaveRequest mirrors writer.Input; kept as a distinct type at the
// engine boundary so callers depend on this package, not internal/writer
// directly (spec §6's save() signature).
type SaveRequest struct {
	Topic           string
	Decision        string
	Reasoning       string
	Confidence      float64
	FailureReason   string
	Limitation      string
	TrustContext    string
	SessionID       string
	UserInvolvement string
	Evidence        string
	Alternatives    string
	Risks           string
	RefinedFrom     []string
}

// SaveResult is save()'s return shape (spec §6): the new id, similar
// existing decisions surfaced at write time, an optional degradation
// warning, an optional collaboration hint, and the resulting reasoning
// graph around the new decision's topic.
type SaveResult struct {
	ID                string
	SimilarDecisions  []search.Hit
	Warning           string
	CollaborationHint string
	ReasoningGraph    *graph.RecallResult
}

// Save validates and persists a new decision via the Decision Writer,
// then surfaces similar existing decisions and the resulting reasoning
// graph for immediate caller feedback (spec §6).
func (e *Engine) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}

	in := writer.Input{
		Topic:           req.Topic,
		Decision:        req.Decision,
		Reasoning:       req.Reasoning,
		Confidence:      req.Confidence,
		SessionID:       req.SessionID,
		UserInvolvement: req.UserInvolvement,
		Evidence:        req.Evidence,
		Alternatives:    req.Alternatives,
		Risks:           req.Risks,
		TrustContext:    req.TrustContext,
		RefinedFrom:     req.RefinedFrom,
	}

	preview := model.Decision{
		Topic: req.Topic, Decision: req.Decision, Confidence: model.ClampConfidence(req.Confidence),
	}
	if err := preview.Validate(); err != nil {
		return nil, validationErr(err.Error())
	}

	d, err := e.writer.Save(ctx, in)
	if err != nil {
		return nil, databaseErr(err)
	}

	result := &SaveResult{ID: d.ID}

	if !e.db.VectorCapable() {
		result.Warning = "vector search extension unavailable; retrieval degraded to Tier 2 keyword search"
	}

	hits, err := e.search.Search(ctx, req.Decision+" "+req.Reasoning, search.Options{Limit: 5})
	if err != nil {
		logging.Get(logging.CategoryEngine).Warnw("post-save similarity lookup failed, omitting similar_decisions", "error", err)
	} else {
		var similar []search.Hit
		for _, h := range hits {
			if h.Decision.ID != d.ID {
				similar = append(similar, h)
			}
		}
		result.SimilarDecisions = similar
		if len(similar) > 0 && similar[0].Decision.Outcome == model.Failed {
			result.CollaborationHint = fmt.Sprintf("a related decision (%s) previously failed; consider reviewing it before proceeding", similar[0].Decision.ID)
		}
	}

	rg, err := e.graph.Recall(ctx, req.Topic)
	if err != nil {
		logging.Get(logging.CategoryEngine).Warnw("post-save recall failed, omitting reasoning_graph", "error", err)
	} else {
		result.ReasoningGraph = rg
	}

	return result, nil
}

// Recall returns the supersede chain and categorized semantic edges for
// topic (spec §6, §4.6).
func (e *Engine) Recall(ctx context.Context, topic string) (*graph.RecallResult, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}
	result, err := e.graph.Recall(ctx, topic)
	if err != nil {
		return nil, databaseErr(err)
	}
	return result, nil
}

// SuggestOptions mirrors suggest()'s options (spec §6).
type SuggestOptions struct {
	Limit            int
	Threshold        float64
	DisableRecency   bool
	RecencyWeight    float64
	HasRecencyWeight bool
	UseReranking     bool
}

// SuggestResult is one ranked, graph-expanded, provenance-annotated
// result entry (spec §6: graph_source, graph_rank, related_to,
// edge_reason, recency_score, recency_age_days, final_score).
type SuggestResult struct {
	Decision       *model.Decision
	Similarity     float64
	RecencyScore   float64
	RecencyAgeDays float64
	FinalScore     float64
	GraphSource    graph.GraphSource
	GraphRank      float64
	SearchMethod   string
}

// Suggest runs similarity search, recency re-scoring, and graph
// expansion under the 5-second end-to-end budget spec §5 mandates for
// the memory-injection path.
func (e *Engine) Suggest(ctx context.Context, query string, opts SuggestOptions) ([]SuggestResult, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, injectionTimeout)
	defer cancel()

	searchOpts := search.Options{
		Limit:     opts.Limit,
		Threshold: opts.Threshold,
	}
	if opts.DisableRecency {
		searchOpts.RecencyWeight = 0
		searchOpts.HasRecencyWeight = true
	} else if opts.HasRecencyWeight {
		searchOpts.RecencyWeight = opts.RecencyWeight
		searchOpts.HasRecencyWeight = true
	}

	hits, err := e.search.Search(ctx, query, searchOpts)
	if err != nil {
		return nil, asTimeout(ctx, err)
	}

	if !opts.UseReranking {
		out := make([]SuggestResult, len(hits))
		for i, h := range hits {
			out[i] = SuggestResult{
				Decision: h.Decision, Similarity: h.Similarity, RecencyScore: h.RecencyScore,
				FinalScore: h.FinalScore, GraphSource: graph.SourcePrimary, GraphRank: 1.0,
				SearchMethod: h.SearchMethod,
			}
		}
		return out, nil
	}

	candidates := make([]graph.Candidate, len(hits))
	searchMethodByID := make(map[string]string, len(hits))
	for i, h := range hits {
		candidates[i] = graph.Candidate{Decision: h.Decision, Similarity: h.Similarity, FinalScore: h.FinalScore}
		searchMethodByID[h.Decision.ID] = h.SearchMethod
	}

	enriched, err := e.graph.ExpandWithGraph(ctx, candidates)
	if err != nil {
		return nil, asTimeout(ctx, err)
	}

	now := time.Now()
	out := make([]SuggestResult, len(enriched))
	for i, en := range enriched {
		method := searchMethodByID[en.Decision.ID]
		if method == "" {
			method = "graph"
		}
		ageDays := now.Sub(time.UnixMilli(en.Decision.CreatedAt)).Hours() / 24
		out[i] = SuggestResult{
			Decision: en.Decision, Similarity: en.Similarity, FinalScore: en.FinalScore,
			RecencyAgeDays: ageDays, GraphSource: en.Source, GraphRank: en.Rank, SearchMethod: method,
		}
	}
	return out, nil
}

// UpdateOutcomeRequest mirrors update_outcome() (spec §6).
type UpdateOutcomeRequest struct {
	ID            string
	Outcome       string
	FailureReason string
	Limitation    string
}

// UpdateOutcome normalizes and applies an explicit outcome update to an
// existing decision.
func (e *Engine) UpdateOutcome(ctx context.Context, req UpdateOutcomeRequest) error {
	if err := e.requireInit(); err != nil {
		return err
	}

	o, ok := model.ParseOutcome(req.Outcome)
	if !ok || o == model.Unset {
		return validationErr(fmt.Sprintf("illegal outcome value: %q", req.Outcome))
	}

	d, _, err := storage.GetDecisionByID(ctx, e.db, req.ID)
	if err == storage.ErrNotFound {
		return notFoundErr(fmt.Sprintf("decision %q not found", req.ID))
	}
	if err != nil {
		return databaseErr(err)
	}
	if d.Outcome != model.Unset {
		return nil // double-marking is a no-op, spec §4.9
	}

	now := time.Now().UnixMilli()
	durationDays := outcome.DurationDays(now, d.CreatedAt)
	impact := outcome.Impact(o, durationDays)
	confidence := model.ClampConfidence(d.Confidence + impact)

	if err := storage.UpdateOutcome(ctx, e.db, req.ID, o, req.FailureReason, confidence, now); err != nil {
		if err == storage.ErrNotFound {
			return notFoundErr(fmt.Sprintf("decision %q not found", req.ID))
		}
		return databaseErr(err)
	}
	return nil
}

// ApplyMessageOutcome classifies a free-text user message and, if it
// yields a non-Unset outcome and there is a pending decision for
// sessionID created within the last hour, attaches the outcome to it
// (spec §4.9's auto-attach heuristic).
func (e *Engine) ApplyMessageOutcome(ctx context.Context, sessionID, message string) error {
	if err := e.requireInit(); err != nil {
		return err
	}

	o := outcome.Classify(message)
	if o == model.Unset {
		return nil
	}

	now := time.Now().UnixMilli()
	d, err := storage.FindPendingOutcomeForSession(ctx, e.db, sessionID, now, outcomeAttachWindow.Milliseconds())
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return databaseErr(err)
	}

	failureReason := ""
	if o == model.Failed {
		failureReason = outcome.FailureReason(message)
	}

	return e.UpdateOutcome(ctx, UpdateOutcomeRequest{ID: d.ID, Outcome: string(o), FailureReason: failureReason})
}

// List returns the most recently created decisions (spec §6).
func (e *Engine) List(ctx context.Context, limit int) ([]*model.Decision, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	decisions, err := storage.ListRecent(ctx, e.db, limit)
	if err != nil {
		return nil, databaseErr(err)
	}
	return decisions, nil
}
