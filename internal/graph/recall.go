// Package graph implements the Graph Query Engine (spec §4.6): recall's
// supersede-chain-plus-categorized-edges traversal and
// expand_with_graph's candidate enrichment. Grounded on codenerd's
// internal/store/local_graph.go — a BFS-style traversal over a
// query-links-then-walk idiom — adapted from its generic entity/relation
// graph to this engine's fixed six-relationship typed-edge model.
package graph

import (
	"context"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/idgen"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
)

// Engine provides graph traversal operations over the storage layer.
type Engine struct {
	db *storage.DB
}

// New constructs an Engine over db.
func New(db *storage.DB) *Engine {
	return &Engine{db: db}
}

// RecallResult is the return shape of Recall: the supersede chain plus
// the categorized typed edges touching any decision in that chain.
type RecallResult struct {
	Chain          []*model.Decision
	Refines        []*model.Edge
	RefinedBy      []*model.Edge
	Contradicts    []*model.Edge
	ContradictedBy []*model.Edge
	BuildsOn       []*model.Edge
	BuiltOnBy      []*model.Edge
	Debates        []*model.Edge
	DebatedBy      []*model.Edge
	Synthesizes    []*model.Edge
	SynthesizedBy  []*model.Edge
}

// Recall returns the supersede chain for topic (most recent first) plus
// categorized semantic edges touching any decision in the chain (spec
// §4.6). If no exact-topic head exists, it retries once with a prefix
// match on the topic's first underscore-separated keyword — a single,
// bounded fuzzy fallback, not recursive and not similarity-based.
func (e *Engine) Recall(ctx context.Context, topic string) (*RecallResult, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "Recall")
	defer timer.Stop()

	chain, err := e.supersedeChain(ctx, topic)
	if err != nil {
		return nil, err
	}

	if len(chain) == 0 {
		keyword := idgen.FirstKeyword(topic)
		if keyword != "" {
			fallback, err := storage.TopicPrefixMatch(ctx, e.db, keyword, 1)
			if err != nil {
				return nil, err
			}
			if len(fallback) > 0 {
				chain, err = e.supersedeChain(ctx, fallback[0].Topic)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	result := &RecallResult{Chain: chain}
	for _, d := range chain {
		if err := e.collectEdges(ctx, d.ID, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// supersedeChain walks supersedes pointers from the current head of
// topic back through every prior decision, newest first.
func (e *Engine) supersedeChain(ctx context.Context, topic string) ([]*model.Decision, error) {
	head, _, err := storage.GetActiveHeadByTopic(ctx, e.db, topic)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	chain := []*model.Decision{head}
	current := head
	for current.Supersedes != "" {
		prev, _, err := storage.GetDecisionByID(ctx, e.db, current.Supersedes)
		if err == storage.ErrNotFound {
			logging.Get(logging.CategoryGraph).Warnw("supersede chain references missing decision, stopping traversal", "missing_id", current.Supersedes)
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, prev)
		current = prev
	}
	return chain, nil
}

// collectEdges loads approved incoming and outgoing typed edges for id
// and appends them to result's matching categories.
func (e *Engine) collectEdges(ctx context.Context, id string, result *RecallResult) error {
	out, err := storage.OutgoingEdges(ctx, e.db, id, "", false)
	if err != nil {
		return err
	}
	in, err := storage.IncomingEdges(ctx, e.db, id, "", false)
	if err != nil {
		return err
	}

	for _, edge := range out {
		switch edge.Relationship {
		case model.Refines:
			result.Refines = append(result.Refines, edge)
		case model.Contradicts:
			result.Contradicts = append(result.Contradicts, edge)
		case model.BuildsOn:
			result.BuildsOn = append(result.BuildsOn, edge)
		case model.Debates:
			result.Debates = append(result.Debates, edge)
		case model.Synthesizes:
			result.Synthesizes = append(result.Synthesizes, edge)
		}
	}
	for _, edge := range in {
		switch edge.Relationship {
		case model.Refines:
			result.RefinedBy = append(result.RefinedBy, edge)
		case model.Contradicts:
			result.ContradictedBy = append(result.ContradictedBy, edge)
		case model.BuildsOn:
			result.BuiltOnBy = append(result.BuiltOnBy, edge)
		case model.Debates:
			result.DebatedBy = append(result.DebatedBy, edge)
		case model.Synthesizes:
			result.SynthesizedBy = append(result.SynthesizedBy, edge)
		}
	}
	return nil
}
