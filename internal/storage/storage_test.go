package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesPragmasAndMigrations(t *testing.T) {
	db := openTestDB(t, 4)

	assert.Equal(t, 4, db.EmbeddingDim())

	var mode string
	require.NoError(t, db.sqlDB.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.sqlDB.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestVectorCapableDependsOnBuild(t *testing.T) {
	db := openTestDB(t, 4)
	assert.Equal(t, vecCapableBuild, db.VectorCapable())
}

func TestInsertEmbeddingNoopWithoutVectorExtension(t *testing.T) {
	db := openTestDB(t, 4)
	if db.VectorCapable() {
		t.Skip("this build supports the vector extension; no-op path not exercised")
	}

	ctx := context.Background()
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		return db.InsertEmbedding(ctx, tx, 1, []float32{1, 2, 3, 4})
	})
	assert.NoError(t, err)
}

func TestVectorSearchEmptyWithoutVectorExtension(t *testing.T) {
	db := openTestDB(t, 4)
	if db.VectorCapable() {
		t.Skip("this build supports the vector extension; degraded path not exercised")
	}

	hits, err := db.VectorSearch(context.Background(), []float32{1, 2, 3, 4}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	boom := assert.AnError
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO decisions (id, topic, decision, created_at, updated_at) VALUES ('decision_x', 'x', 'x', 1, 1)`)
		if execErr != nil {
			return execErr
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.sqlDB.QueryRow(`SELECT COUNT(*) FROM decisions WHERE id = 'decision_x'`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	db := openTestDB(t, 4)
	ctx := context.Background()

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO decisions (id, topic, decision, created_at, updated_at) VALUES ('decision_x', 'x', 'x', 1, 1)`)
		return execErr
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.sqlDB.QueryRow(`SELECT COUNT(*) FROM decisions WHERE id = 'decision_x'`).Scan(&count))
	assert.Equal(t, 1, count)
}
