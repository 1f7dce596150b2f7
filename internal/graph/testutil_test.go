package graph

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedDecision(t *testing.T, db *storage.DB, id, topic, supersedes string, createdAt int64) *model.Decision {
	t.Helper()
	d := &model.Decision{
		ID: id, Topic: topic, Decision: "decide " + topic, Supersedes: supersedes,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	err := db.Transaction(context.Background(), func(tx *sql.Tx) error {
		_, err := storage.InsertDecision(context.Background(), tx, d)
		return err
	})
	require.NoError(t, err)
	if supersedes != "" {
		require.NoError(t, storage.MarkSuperseded(context.Background(), db, supersedes, id, createdAt))
	}
	return d
}

func approvedPtr(b bool) *bool { return &b }

func seedEdge(t *testing.T, db *storage.DB, from, to string, rel model.Relationship) {
	t.Helper()
	e := &model.Edge{
		FromID: from, ToID: to, Relationship: rel,
		CreatedBy: model.CreatedByUser, ApprovedByUser: approvedPtr(true), CreatedAt: 1,
	}
	_, err := storage.InsertEdge(context.Background(), db.Conn(), e)
	require.NoError(t, err)
}
