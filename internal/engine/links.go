package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
)

// ProposeLinkRequest is the input to propose_link() (spec §6): an
// explicit, pending (approved_by_user = 0) edge awaiting review.
type ProposeLinkRequest struct {
	FromID       string
	ToID         string
	Relationship string
	Reason       string
	Evidence     string
}

// ProposeLink creates a pending edge between two existing decisions.
func (e *Engine) ProposeLink(ctx context.Context, req ProposeLinkRequest) (int64, error) {
	if err := e.requireInit(); err != nil {
		return 0, err
	}

	rel := model.Relationship(req.Relationship)
	approved := false
	edge := &model.Edge{
		FromID: req.FromID, ToID: req.ToID, Relationship: rel,
		Reason: req.Reason, Evidence: req.Evidence,
		CreatedBy: model.CreatedByUser, ApprovedByUser: &approved,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := edge.Validate(); err != nil {
		return 0, validationErr(err.Error())
	}

	for _, id := range []string{req.FromID, req.ToID} {
		if _, _, err := storage.GetDecisionByID(ctx, e.db, id); err != nil {
			if err == storage.ErrNotFound {
				return 0, notFoundErr(fmt.Sprintf("decision %q not found", id))
			}
			return 0, databaseErr(err)
		}
	}

	id, err := storage.InsertEdge(ctx, e.db.Conn(), edge)
	if err != nil {
		if err == storage.ErrDuplicateEdge {
			return 0, validationErr(fmt.Sprintf("edge (%s, %s, %s) already exists", req.FromID, req.ToID, req.Relationship))
		}
		return 0, databaseErr(err)
	}
	return id, nil
}

// ApproveLink marks a pending edge approved.
func (e *Engine) ApproveLink(ctx context.Context, edgeID int64) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	if err := storage.SetEdgeApproval(ctx, e.db, edgeID, true, time.Now().UnixMilli()); err != nil {
		if err == storage.ErrNotFound {
			return notFoundErr(fmt.Sprintf("edge %d not found", edgeID))
		}
		return databaseErr(err)
	}
	return nil
}

// RejectLink removes a pending edge outright (spec §4.7: rejection is
// modeled as removal, not a stored fourth approval state).
func (e *Engine) RejectLink(ctx context.Context, edgeID int64) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	if err := storage.DeleteEdge(ctx, e.db, edgeID); err != nil {
		if err == storage.ErrNotFound {
			return notFoundErr(fmt.Sprintf("edge %d not found", edgeID))
		}
		return databaseErr(err)
	}
	return nil
}

// GetPendingLinks returns every edge awaiting user review.
func (e *Engine) GetPendingLinks(ctx context.Context) ([]*model.Edge, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}
	edges, err := storage.PendingEdges(ctx, e.db)
	if err != nil {
		return nil, databaseErr(err)
	}
	return edges, nil
}
