package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineProposeLinkCreatesPendingEdge(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Save(ctx, SaveRequest{Topic: "a", Decision: "decide a"})
	require.NoError(t, err)
	b, err := e.Save(ctx, SaveRequest{Topic: "b", Decision: "decide b"})
	require.NoError(t, err)

	edgeID, err := e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "refines"})
	require.NoError(t, err)
	assert.NotZero(t, edgeID)

	pending, err := e.GetPendingLinks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].FromID)
	assert.Equal(t, b.ID, pending[0].ToID)
}

func TestEngineProposeLinkRejectsIllegalRelationship(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Save(ctx, SaveRequest{Topic: "a", Decision: "decide a"})
	require.NoError(t, err)
	b, err := e.Save(ctx, SaveRequest{Topic: "b", Decision: "decide b"})
	require.NoError(t, err)

	_, err = e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "bogus"})
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ErrCodeValidation, engErr.Code)
}

func TestEngineProposeLinkRejectsMissingDecision(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Save(ctx, SaveRequest{Topic: "a", Decision: "decide a"})
	require.NoError(t, err)

	_, err = e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: "decision_missing_1_aaaa", Relationship: "refines"})
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ErrCodeNotFound, engErr.Code)
}

func TestEngineProposeLinkRejectsDuplicate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Save(ctx, SaveRequest{Topic: "a", Decision: "decide a"})
	require.NoError(t, err)
	b, err := e.Save(ctx, SaveRequest{Topic: "b", Decision: "decide b"})
	require.NoError(t, err)

	_, err = e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "refines"})
	require.NoError(t, err)

	_, err = e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "refines"})
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ErrCodeValidation, engErr.Code)
}

func TestEngineApproveLinkRemovesItFromPending(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Save(ctx, SaveRequest{Topic: "a", Decision: "decide a"})
	require.NoError(t, err)
	b, err := e.Save(ctx, SaveRequest{Topic: "b", Decision: "decide b"})
	require.NoError(t, err)

	edgeID, err := e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "refines"})
	require.NoError(t, err)

	require.NoError(t, e.ApproveLink(ctx, edgeID))

	pending, err := e.GetPendingLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEngineApproveLinkNotFound(t *testing.T) {
	e := newTestEngine(t)
	err := e.ApproveLink(context.Background(), 99999)
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ErrCodeNotFound, engErr.Code)
}

func TestEngineRejectLinkDeletesEdgeOutright(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Save(ctx, SaveRequest{Topic: "a", Decision: "decide a"})
	require.NoError(t, err)
	b, err := e.Save(ctx, SaveRequest{Topic: "b", Decision: "decide b"})
	require.NoError(t, err)

	edgeID, err := e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "refines"})
	require.NoError(t, err)

	require.NoError(t, e.RejectLink(ctx, edgeID))

	pending, err := e.GetPendingLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// rejection is removal, not a fourth approval state: re-proposing the
	// same edge must succeed rather than hitting a duplicate-edge error.
	_, err = e.ProposeLink(ctx, ProposeLinkRequest{FromID: a.ID, ToID: b.ID, Relationship: "refines"})
	assert.NoError(t, err)
}

func TestEngineRejectLinkNotFound(t *testing.T) {
	e := newTestEngine(t)
	err := e.RejectLink(context.Background(), 99999)
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, ErrCodeNotFound, engErr.Code)
}

func TestEngineGetPendingLinksEmptyInitially(t *testing.T) {
	e := newTestEngine(t)
	pending, err := e.GetPendingLinks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
