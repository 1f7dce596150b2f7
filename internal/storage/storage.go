// Package storage implements the embedded relational store augmented with
// a vector-similarity extension (spec §4.1), grounded on codenerd's
// internal/store/embedded_store.go: a single SQLite connection, WAL mode,
// and runtime detection of whether the sqlite-vec extension actually
// loaded rather than trusting the build tag alone.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

// DB wraps a single SQLite connection plus the engine's view of whether
// vector search is available in this process.
type DB struct {
	sqlDB        *sql.DB
	mu           sync.RWMutex
	path         string
	embeddingDim int
	vectorExt    bool
}

// VectorHit is one candidate returned by VectorSearch: the decisions.seq
// rowid of the match plus its cosine similarity (1 - cosine distance).
type VectorHit struct {
	Seq        int64
	Similarity float64
}

// Open opens (creating if necessary) the SQLite database at path, applies
// codenerd's pragma sequence, runs migrations, and probes whether the
// sqlite-vec extension is actually usable in this build. embeddingDim
// sizes the vec_index virtual table and must match the configured
// embedding provider's output dimension (spec §4.1, §6).
func Open(path string, embeddingDim int) (*DB, error) {
	timer := logging.StartTimer(logging.CategoryStorage, "Open")
	defer timer.Stop()

	sqlDB, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single writer connection avoids SQLITE_BUSY storms under WAL;
	// writes made through Transaction are also serialized by DB.mu (spec
	// §4.1's single embedded connection, mirroring embedded_store.go).
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := &DB{sqlDB: sqlDB, path: path, embeddingDim: embeddingDim}
	db.vectorExt = detectVecExtension(sqlDB)

	if db.vectorExt {
		if err := db.initVecIndex(embeddingDim); err != nil {
			logging.Get(logging.CategoryStorage).Warnw("vec_index init failed, degrading to Tier 2", "error", err)
			db.vectorExt = false
		}
	} else {
		logging.Get(logging.CategoryStorage).Infow("sqlite-vec extension unavailable, running Tier 2 (keyword-only)")
	}

	return db, nil
}

// detectVecExtension probes for vec0 availability by creating and
// immediately dropping a throwaway virtual table, rather than trusting
// vecCapableBuild alone: a cgo build can still fail to load the extension
// at runtime (missing shared library, incompatible platform).
func detectVecExtension(sqlDB *sql.DB) bool {
	if !vecCapableBuild {
		return false
	}
	const probe = "__mama_vec_probe__"
	if _, err := sqlDB.Exec(fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[4])", probe)); err != nil {
		return false
	}
	_, _ = sqlDB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", probe))
	return true
}

// initVecIndex creates the dimension-sized vec0 virtual table. It is not a
// numbered migration (migrations.go) because its column width depends on
// the runtime-configured embedding dimension, which a static script
// cannot know ahead of time — mirroring codenerd's own initVecIndex(dim).
func (db *DB) initVecIndex(dim int) error {
	_, err := db.sqlDB.Exec(fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS vec_index USING vec0(embedding float[%d])", dim,
	))
	return err
}

// VectorCapable reports whether this DB can run Tier 1 vector search.
func (db *DB) VectorCapable() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vectorExt
}

// EmbeddingDim returns the configured embedding dimension.
func (db *DB) EmbeddingDim() int {
	return db.embeddingDim
}

// Conn exposes the underlying *sql.DB for packages (decisions.go,
// edges.go) that issue plain database/sql calls directly, in the
// teacher's idiom of working against *sql.DB/*sql.Tx rather than a
// custom query-builder layer.
func (db *DB) Conn() *sql.DB {
	return db.sqlDB
}

// Transaction runs fn inside a serialized write transaction, rolling back
// on any returned error and committing otherwise. Callers that mutate
// decisions or decision_edges should use this rather than db.Conn()
// directly, so that multi-statement writes (e.g. the Decision Writer's
// insert-plus-embedding step) stay atomic (spec §4.3 invariant 1).
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// InsertEmbedding writes vec as the embedding for rowID (a decisions.seq
// value) into vec_index. It is a silently-logged no-op when vector search
// is unavailable, so callers never need to branch on tier (spec §5 Tier 2
// degradation).
func (db *DB) InsertEmbedding(ctx context.Context, tx *sql.Tx, rowID int64, vec []float32) error {
	if !db.vectorExt {
		return nil
	}
	if len(vec) != db.embeddingDim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), db.embeddingDim)
	}
	raw, err := encodeVector(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	exec := tx.ExecContext
	_, err = exec(ctx, `INSERT INTO vec_index (rowid, embedding) VALUES (?, ?)`, rowID, raw)
	if err != nil {
		return fmt.Errorf("insert vec_index row: %w", err)
	}
	return nil
}

// VectorSearch returns the limit nearest neighbors to vec by cosine
// similarity. It returns an empty (not error) result when vector search
// is unavailable, consistent with Tier 2 degradation: callers fall back
// to the keyword search path themselves (internal/search).
func (db *DB) VectorSearch(ctx context.Context, vec []float32, limit int) ([]VectorHit, error) {
	if !db.vectorExt {
		return nil, nil
	}
	raw, err := encodeVector(vec)
	if err != nil {
		return nil, fmt.Errorf("encode query vector: %w", err)
	}

	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT rowid, distance
FROM vec_index
WHERE embedding MATCH ? AND k = ?
ORDER BY distance`, raw, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var seq int64
		var distance float64
		if err := rows.Scan(&seq, &distance); err != nil {
			return nil, fmt.Errorf("scan vector hit: %w", err)
		}
		hits = append(hits, VectorHit{Seq: seq, Similarity: 1 - distance})
	}
	return hits, rows.Err()
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.sqlDB.Close()
}
