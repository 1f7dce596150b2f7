package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkDecision(id, topic string, createdAt int64) *model.Decision {
	return &model.Decision{
		ID:         id,
		Topic:      topic,
		Decision:   "use " + topic,
		Reasoning:  "because it fits",
		Confidence: 0.5,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func insertDecision(t *testing.T, db *DB, d *model.Decision) int64 {
	t.Helper()
	var seq int64
	err := db.Transaction(context.Background(), func(tx *sql.Tx) error {
		s, err := InsertDecision(context.Background(), tx, d)
		seq = s
		return err
	})
	require.NoError(t, err)
	return seq
}

func TestInsertAndGetDecisionRoundTrip(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_auth_1_aaaa", "auth", 1000)
	d.RefinedFrom = []string{"decision_a", "decision_b"}
	insertDecision(t, db, d)

	got, seq, err := GetDecisionByID(ctx, db, d.ID)
	require.NoError(t, err)
	assert.Greater(t, seq, int64(0))
	assert.Equal(t, d.Topic, got.Topic)
	assert.Equal(t, d.Decision, got.Decision)
	assert.Equal(t, d.RefinedFrom, got.RefinedFrom)

	byS, err := GetDecisionBySeq(ctx, db, seq)
	require.NoError(t, err)
	assert.Equal(t, d.ID, byS.ID)
}

func TestGetDecisionByIDNotFound(t *testing.T) {
	db := openTestDB(t, 4)
	_, _, err := GetDecisionByID(context.Background(), db, "decision_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetActiveHeadByTopic(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	older := mkDecision("decision_auth_1_aaaa", "auth", 1000)
	insertDecision(t, db, older)

	newer := mkDecision("decision_auth_2_bbbb", "auth", 2000)
	insertDecision(t, db, newer)

	head, _, err := GetActiveHeadByTopic(ctx, db, "auth")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, head.ID)
}

func TestGetActiveHeadByTopicExcludesSuperseded(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_auth_1_aaaa", "auth", 1000)
	insertDecision(t, db, d)
	require.NoError(t, MarkSuperseded(ctx, db, d.ID, "decision_auth_2_bbbb", 1500))

	_, _, err := GetActiveHeadByTopic(ctx, db, "auth")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByTopicIncludesSuperseded(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	a := mkDecision("decision_auth_1_aaaa", "auth", 1000)
	insertDecision(t, db, a)
	b := mkDecision("decision_auth_2_bbbb", "auth", 2000)
	insertDecision(t, db, b)
	require.NoError(t, MarkSuperseded(ctx, db, a.ID, b.ID, 2000))

	list, err := ListByTopic(ctx, db, "auth")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID) // newest first
}

func TestListRecent(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	insertDecision(t, db, mkDecision("decision_a_1_aaaa", "topic-a", 1000))
	insertDecision(t, db, mkDecision("decision_b_2_bbbb", "topic-b", 2000))
	insertDecision(t, db, mkDecision("decision_c_3_cccc", "topic-c", 3000))

	recent, err := ListRecent(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "decision_c_3_cccc", recent[0].ID)
	assert.Equal(t, "decision_b_2_bbbb", recent[1].ID)
}

func TestTopicPrefixMatch(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	insertDecision(t, db, mkDecision("decision_a_1_aaaa", "database_engine", 1000))
	insertDecision(t, db, mkDecision("decision_b_2_bbbb", "database_cache", 2000))
	insertDecision(t, db, mkDecision("decision_c_3_cccc", "frontend_routing", 3000))

	got, err := TopicPrefixMatch(ctx, db, "database", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestKeywordSearch(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_a_1_aaaa", "database engine", 1000)
	d.Decision = "use postgres for durability"
	insertDecision(t, db, d)

	got, err := KeywordSearch(ctx, db, []string{"postgres"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, d.ID, got[0].ID)

	none, err := KeywordSearch(ctx, db, []string{"nonexistent-term"}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := KeywordSearch(ctx, db, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestMarkSuperseded(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_a_1_aaaa", "auth", 1000)
	insertDecision(t, db, d)

	require.NoError(t, MarkSuperseded(ctx, db, d.ID, "decision_b_2_bbbb", 5000))

	got, _, err := GetDecisionByID(ctx, db, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "decision_b_2_bbbb", got.SupersededBy)
	assert.Equal(t, int64(5000), got.UpdatedAt)
}

func TestUpdateOutcome(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_a_1_aaaa", "auth", 1000)
	insertDecision(t, db, d)

	require.NoError(t, UpdateOutcome(ctx, db, d.ID, model.Failed, "timed out", 0.2, 6000))

	got, _, err := GetDecisionByID(ctx, db, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Failed, got.Outcome)
	assert.Equal(t, "timed out", got.FailureReason)
	assert.InDelta(t, 0.2, got.Confidence, 1e-9)
}

func TestUpdateOutcomeNotFound(t *testing.T) {
	db := openTestDB(t, 4)
	err := UpdateOutcome(context.Background(), db, "decision_missing", model.Success, "", 0.5, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBumpUsage(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_a_1_aaaa", "auth", 1000)
	insertDecision(t, db, d)

	require.NoError(t, BumpUsage(ctx, db, d.ID, true, 120, 2000))
	require.NoError(t, BumpUsage(ctx, db, d.ID, false, 0, 3000))

	got, _, err := GetDecisionByID(ctx, db, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	assert.Equal(t, 1, got.UsageSuccess)
	assert.Equal(t, 1, got.UsageFailure)
	assert.Equal(t, int64(120), got.TimeSaved)
}

func TestFindPendingOutcomeForSession(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_a_1_aaaa", "auth", 1000)
	d.SessionID = "session-1"
	insertDecision(t, db, d)

	got, err := FindPendingOutcomeForSession(ctx, db, "session-1", 2000, 3600*1000)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.ID)

	require.NoError(t, UpdateOutcome(ctx, db, d.ID, model.Success, "", 0.7, 2500))

	none, err := FindPendingOutcomeForSession(ctx, db, "session-1", 2600, 3600*1000)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, none)
}

func TestFindPendingOutcomeForSessionOutsideWindow(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	d := mkDecision("decision_a_1_aaaa", "auth", 1000)
	d.SessionID = "session-1"
	insertDecision(t, db, d)

	// now is far past the window's reach.
	got, err := FindPendingOutcomeForSession(ctx, db, "session-1", 1000+3600*1000*2, 3600*1000)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}
