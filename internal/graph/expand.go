package graph

import (
	"context"
	"sort"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
)

// GraphSource names how a candidate entered the expanded result set
// (spec §4.6, Glossary "Graph source").
type GraphSource string

const (
	SourcePrimary         GraphSource = "primary"
	SourceSupersedesChain GraphSource = "supersedes_chain"
	SourceRefines         GraphSource = "refines"
	SourceRefinedBy       GraphSource = "refined_by"
	SourceContradicts     GraphSource = "contradicts"
	SourceBuildsOn        GraphSource = "builds_on"
	SourceBuiltOnBy       GraphSource = "built_on_by"
	SourceDebates         GraphSource = "debates"
	SourceDebatedBy       GraphSource = "debated_by"
	SourceSynthesizes     GraphSource = "synthesizes"
	SourceSynthesizedBy   GraphSource = "synthesized_by"
)

// edgeFactor is the type-specific (graph_rank, similarity scaling
// factor) pair spec §4.6's table assigns to each relationship/direction.
type edgeFactor struct {
	rank      float64
	simFactor float64
}

var factors = map[GraphSource]edgeFactor{
	SourceSupersedesChain: {rank: 0.80, simFactor: 0.90},
	SourceRefines:         {rank: 0.70, simFactor: 0.85},
	SourceRefinedBy:       {rank: 0.70, simFactor: 0.85},
	SourceContradicts:     {rank: 0.60, simFactor: 0.80},
	SourceBuildsOn:        {rank: 0.75, simFactor: 0.90},
	SourceBuiltOnBy:       {rank: 0.75, simFactor: 0.90},
	SourceDebates:         {rank: 0.65, simFactor: 0.85},
	SourceDebatedBy:       {rank: 0.65, simFactor: 0.85},
	SourceSynthesizes:     {rank: 0.70, simFactor: 0.88},
	SourceSynthesizedBy:   {rank: 0.70, simFactor: 0.88},
}

// Candidate is an input to ExpandWithGraph: a decision already scored by
// vector search plus recency (internal/search).
type Candidate struct {
	Decision   *model.Decision
	Similarity float64
	FinalScore float64
}

// Enriched is one entry in ExpandWithGraph's output: a decision annotated
// with how it entered the result set.
type Enriched struct {
	Decision   *model.Decision
	Similarity float64
	FinalScore float64
	Source     GraphSource
	Rank       float64
}

// ExpandWithGraph enriches each candidate with its supersede chain and
// typed-edge neighbors, deduplicates by id (first write wins), and
// produces the primary-then-related interleaved ordering spec §4.6
// defines, with orphaned neighbors appended at the end.
func (e *Engine) ExpandWithGraph(ctx context.Context, candidates []Candidate) ([]Enriched, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "ExpandWithGraph")
	defer timer.Stop()

	seen := make(map[string]bool)
	var primaries []Enriched
	relatedOf := make(map[string][]Enriched) // primary id -> its related entries
	var orphans []Enriched

	for _, c := range candidates {
		if seen[c.Decision.ID] {
			continue
		}
		seen[c.Decision.ID] = true
		primary := Enriched{
			Decision:   c.Decision,
			Similarity: c.Similarity,
			FinalScore: c.FinalScore,
			Source:     SourcePrimary,
			Rank:       1.0,
		}
		primaries = append(primaries, primary)

		related, err := e.relatedTo(ctx, c.Decision, c.Similarity, c.FinalScore, seen)
		if err != nil {
			return nil, err
		}
		relatedOf[c.Decision.ID] = related
	}

	// A first-level related entry can itself have typed-edge neighbors that
	// no primary reaches directly. Those are genuine orphans: linked into
	// the graph only through a non-primary neighbor, so they cannot be
	// interleaved under any primary's block and are appended at the end
	// instead. Primaries are walked in candidate order, not map order, so
	// the orphan order is deterministic.
	for _, p := range primaries {
		for _, r := range relatedOf[p.Decision.ID] {
			second, err := e.relatedTo(ctx, r.Decision, r.Similarity, r.FinalScore, seen)
			if err != nil {
				return nil, err
			}
			orphans = append(orphans, second...)
		}
	}

	sort.SliceStable(primaries, func(i, j int) bool {
		if primaries[i].FinalScore != primaries[j].FinalScore {
			return primaries[i].FinalScore > primaries[j].FinalScore
		}
		return primaries[i].Similarity > primaries[j].Similarity
	})

	var out []Enriched
	for _, p := range primaries {
		out = append(out, p)
		related := relatedOf[p.Decision.ID]
		sort.SliceStable(related, func(i, j int) bool { return related[i].Rank > related[j].Rank })
		out = append(out, related...)
	}
	out = append(out, orphans...)
	return out, nil
}

// relatedTo loads d's supersede chain and typed-edge neighbors, marking
// each newly-seen id in seen and returning an Enriched entry per
// neighbor. Neighbors already seen (deduplicated, first write wins) are
// skipped.
func (e *Engine) relatedTo(ctx context.Context, d *model.Decision, similarity, finalScore float64, seen map[string]bool) ([]Enriched, error) {
	var out []Enriched

	if d.Supersedes != "" {
		prev, _, err := storage.GetDecisionByID(ctx, e.db, d.Supersedes)
		if err == nil && !seen[prev.ID] {
			seen[prev.ID] = true
			f := factors[SourceSupersedesChain]
			out = append(out, Enriched{
				Decision: prev, Similarity: similarity * f.simFactor, FinalScore: finalScore * f.simFactor,
				Source: SourceSupersedesChain, Rank: f.rank,
			})
		} else if err != nil && err != storage.ErrNotFound {
			return nil, err
		}
	}

	outgoing, err := storage.OutgoingEdges(ctx, e.db, d.ID, "", false)
	if err != nil {
		return nil, err
	}
	incoming, err := storage.IncomingEdges(ctx, e.db, d.ID, "", false)
	if err != nil {
		return nil, err
	}

	for _, edge := range outgoing {
		src, ok := outgoingSource(edge.Relationship)
		if !ok {
			continue
		}
		if err := e.appendNeighbor(ctx, edge.ToID, src, similarity, finalScore, seen, &out); err != nil {
			return nil, err
		}
	}
	for _, edge := range incoming {
		src, ok := incomingSource(edge.Relationship)
		if !ok {
			continue
		}
		if err := e.appendNeighbor(ctx, edge.FromID, src, similarity, finalScore, seen, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) appendNeighbor(ctx context.Context, neighborID string, src GraphSource, similarity, finalScore float64, seen map[string]bool, out *[]Enriched) error {
	if seen[neighborID] {
		return nil
	}
	neighbor, _, err := storage.GetDecisionByID(ctx, e.db, neighborID)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	seen[neighborID] = true
	f := factors[src]
	*out = append(*out, Enriched{
		Decision: neighbor, Similarity: similarity * f.simFactor, FinalScore: finalScore * f.simFactor,
		Source: src, Rank: f.rank,
	})
	return nil
}

func outgoingSource(r model.Relationship) (GraphSource, bool) {
	switch r {
	case model.Refines:
		return SourceRefines, true
	case model.Contradicts:
		return SourceContradicts, true
	case model.BuildsOn:
		return SourceBuildsOn, true
	case model.Debates:
		return SourceDebates, true
	case model.Synthesizes:
		return SourceSynthesizes, true
	default:
		return "", false
	}
}

func incomingSource(r model.Relationship) (GraphSource, bool) {
	switch r {
	case model.Refines:
		return SourceRefinedBy, true
	case model.Contradicts:
		return SourceContradicts, true
	case model.BuildsOn:
		return SourceBuiltOnBy, true
	case model.Debates:
		return SourceDebatedBy, true
	case model.Synthesizes:
		return SourceSynthesizedBy, true
	default:
		return "", false
	}
}
