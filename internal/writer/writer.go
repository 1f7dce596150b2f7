// Package writer implements the Decision Writer (spec §4.5): the single
// correct way to persist a new decision, atomic where it can be and
// best-effort where the spec says best-effort. Grounded on codenerd's
// internal/store/local_core.go save path (validate, generate id, insert
// inside a transaction, post-transaction linkage) adapted to this
// engine's supersede-chain and reasoning-parsed-edge semantics.
package writer

import (
	"context"
	"database/sql"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/embedding"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/idgen"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/reasoning"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
)

// Input is the set of caller-supplied fields for a new decision; fields
// the Writer itself derives (id, timestamps, supersedes, superseded_by,
// outcome) are not part of it.
type Input struct {
	Topic           string
	Decision        string
	Reasoning       string
	Confidence      float64
	SessionID       string
	UserInvolvement string
	Evidence        string
	Alternatives    string
	Risks           string
	TrustContext    string
	RefinedFrom     []string // parent decision ids, for multi-parent refinement
}

// Writer persists new decisions per spec §4.5.
type Writer struct {
	db       *storage.DB
	pipeline *embedding.Pipeline
}

// New constructs a Writer over db and pipeline.
func New(db *storage.DB, pipeline *embedding.Pipeline) *Writer {
	return &Writer{db: db, pipeline: pipeline}
}

// Save validates, generates an id, embeds, and atomically inserts in,
// then performs the post-transaction supersede linkage and best-effort
// reasoning-parsed edge creation spec §4.5 describes.
func (w *Writer) Save(ctx context.Context, in Input) (*model.Decision, error) {
	timer := logging.StartTimer(logging.CategoryWriter, "Save")
	defer timer.Stop()

	now := time.Now().UnixMilli()

	d := &model.Decision{
		Topic:           in.Topic,
		Decision:        in.Decision,
		Reasoning:       in.Reasoning,
		Confidence:      model.ClampConfidence(in.Confidence),
		CreatedAt:       now,
		UpdatedAt:       now,
		SessionID:       in.SessionID,
		UserInvolvement: in.UserInvolvement,
		Evidence:        in.Evidence,
		Alternatives:    in.Alternatives,
		Risks:           in.Risks,
		TrustContext:    in.TrustContext,
		RefinedFrom:     in.RefinedFrom,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	d.ID = idgen.New(d.Topic, now)

	previous, _, err := storage.GetActiveHeadByTopic(ctx, w.db, d.Topic)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}

	if len(in.RefinedFrom) > 0 {
		combined, err := w.combinedConfidence(ctx, d.Confidence, in.RefinedFrom)
		if err != nil {
			logging.Get(logging.CategoryWriter).Warnw("could not compute combined confidence, using caller-supplied value", "error", err)
		} else {
			d.Confidence = combined
		}
	}

	// Embedding runs outside the transaction: the transform may be slow
	// and is not idempotent in the retry sense a DB transaction assumes.
	// Failure here is non-fatal (spec §4.5 step 5): the decision is saved
	// without a vector.
	var vec []float32
	enriched := embedding.EnrichedText(d)
	vec, embedErr := w.pipeline.Embed(ctx, enriched)
	if embedErr != nil {
		logging.Get(logging.CategoryWriter).Warnw("embedding failed, saving decision without a vector", "decision_id", d.ID, "error", embedErr)
		vec = nil
	}

	var seq int64
	err = w.db.Transaction(ctx, func(tx *sql.Tx) error {
		var insertErr error
		seq, insertErr = storage.InsertDecision(ctx, tx, d)
		if insertErr != nil {
			return insertErr
		}
		if vec != nil {
			if err := w.db.InsertEmbedding(ctx, tx, seq, vec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != nil {
		w.linkSupersede(ctx, d, previous)
	}

	w.createReasoningEdges(ctx, d)

	return d, nil
}

// combinedConfidence computes 0.6*prior + 0.4*mean(parent_confidences),
// clamped to [0,1] (spec §4.5 step 4).
func (w *Writer) combinedConfidence(ctx context.Context, prior float64, parentIDs []string) (float64, error) {
	var sum float64
	n := 0
	for _, id := range parentIDs {
		parent, _, err := storage.GetDecisionByID(ctx, w.db, id)
		if err == storage.ErrNotFound {
			logging.Get(logging.CategoryWriter).Warnw("refined_from parent not found, skipping", "parent_id", id)
			continue
		}
		if err != nil {
			return 0, err
		}
		sum += parent.Confidence
		n++
	}
	if n == 0 {
		return prior, nil
	}
	mean := sum / float64(n)
	return model.ClampConfidence(0.6*prior + 0.4*mean), nil
}

// linkSupersede inserts the (new, previous, supersedes) edge, sets the
// new decision's supersedes pointer, and flips the previous decision's
// superseded_by pointer. These steps are deliberately outside the insert
// transaction (spec §5 Failure Modes); storage.ReconcileSupersedeChains
// repairs, on the next startup, a crash that left the supersedes pointer
// set but superseded_by unset. A crash after the edge insert and before
// the supersedes pointer is set is not found by that scan.
func (w *Writer) linkSupersede(ctx context.Context, d *model.Decision, previous *model.Decision) {
	log := logging.Get(logging.CategoryWriter)
	now := time.Now().UnixMilli()

	approved := true
	edge := &model.Edge{
		FromID:         d.ID,
		ToID:           previous.ID,
		Relationship:   model.Supersedes,
		CreatedBy:      model.CreatedByLLM,
		ApprovedByUser: &approved,
		CreatedAt:      now,
		ApprovedAt:     now,
	}
	if _, err := storage.InsertEdge(ctx, w.db.Conn(), edge); err != nil {
		log.Warnw("failed to insert supersede edge", "from", d.ID, "to", previous.ID, "error", err)
		return
	}
	if err := storage.SetSupersedes(ctx, w.db, d.ID, previous.ID, now); err != nil {
		log.Warnw("failed to set supersedes pointer", "decision_id", d.ID, "error", err)
	} else {
		d.Supersedes = previous.ID
	}
	if err := storage.MarkSuperseded(ctx, w.db, previous.ID, d.ID, now); err != nil {
		log.Warnw("failed to mark previous decision superseded", "previous_id", previous.ID, "error", err)
	}
}

// createReasoningEdges parses d.Reasoning for inline relationship
// references and creates an edge for each one whose target actually
// exists. Failures and missing targets are logged and skipped; they
// never fail the write (spec §4.5 step 8).
func (w *Writer) createReasoningEdges(ctx context.Context, d *model.Decision) {
	log := logging.Get(logging.CategoryWriter)
	refs := reasoning.Parse(d.Reasoning)
	now := time.Now().UnixMilli()

	for _, ref := range refs {
		for _, targetID := range ref.TargetIDs {
			if _, _, err := storage.GetDecisionByID(ctx, w.db, targetID); err != nil {
				if err == storage.ErrNotFound {
					log.Infow("reasoning reference target does not exist, skipping", "target_id", targetID, "relationship", ref.Relationship)
				} else {
					log.Warnw("failed to look up reasoning reference target", "target_id", targetID, "error", err)
				}
				continue
			}

			edge := &model.Edge{
				FromID:       d.ID,
				ToID:         targetID,
				Relationship: ref.Relationship,
				CreatedBy:    model.CreatedByLLM,
				DecisionID:   d.ID,
				CreatedAt:    now,
			}
			if _, err := storage.InsertEdge(ctx, w.db.Conn(), edge); err != nil && err != storage.ErrDuplicateEdge {
				log.Warnw("failed to insert reasoning-parsed edge", "from", edge.FromID, "to", edge.ToID, "relationship", edge.Relationship, "error", err)
			}
		}
	}
}
