package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

// migration is a versioned, named schema script. Unlike codenerd's
// migrations.go (an ALTER-TABLE column checklist applied best-effort),
// spec §4.2 wants file-shaped, monotonically numbered scripts applied
// exactly once each inside its own transaction and recorded by name. We
// keep the teacher's tableExists introspection helper, represent each
// "file" as a Go literal, and check schema_migrations for startup
// idempotence.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations lists every schema script in monotonic version order. The
// CHECK constraint on decision_edges.relationship is the single source of
// truth for the six legal relationship values (Design Notes §9); keep it
// in sync with model.LegalRelationships if that list ever changes.
var migrations = []migration{
	{
		Version: 1,
		Name:    "001_create_decisions",
		SQL: `
CREATE TABLE IF NOT EXISTS decisions (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	topic               TEXT NOT NULL,
	decision            TEXT NOT NULL,
	reasoning           TEXT NOT NULL DEFAULT '',
	outcome             TEXT NOT NULL DEFAULT '',
	failure_reason      TEXT NOT NULL DEFAULT '',
	limitation          TEXT NOT NULL DEFAULT '',
	confidence          REAL NOT NULL DEFAULT 0,
	supersedes          TEXT NOT NULL DEFAULT '',
	superseded_by       TEXT NOT NULL DEFAULT '',
	refined_from        TEXT NOT NULL DEFAULT '',
	created_at          INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL,
	session_id          TEXT NOT NULL DEFAULT '',
	user_involvement    TEXT NOT NULL DEFAULT '',
	evidence            TEXT NOT NULL DEFAULT '',
	alternatives        TEXT NOT NULL DEFAULT '',
	risks               TEXT NOT NULL DEFAULT '',
	trust_context       TEXT NOT NULL DEFAULT '',
	usage_success       INTEGER NOT NULL DEFAULT 0,
	usage_failure       INTEGER NOT NULL DEFAULT 0,
	usage_count         INTEGER NOT NULL DEFAULT 0,
	time_saved          INTEGER NOT NULL DEFAULT 0,
	needs_validation    INTEGER NOT NULL DEFAULT 0,
	validation_attempts INTEGER NOT NULL DEFAULT 0,
	last_validated_at   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_decisions_topic ON decisions(topic);
CREATE INDEX IF NOT EXISTS idx_decisions_superseded_by ON decisions(superseded_by);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
`,
	},
	{
		Version: 2,
		Name:    "002_create_decision_edges",
		SQL: `
CREATE TABLE IF NOT EXISTS decision_edges (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id          TEXT NOT NULL,
	to_id            TEXT NOT NULL,
	relationship     TEXT NOT NULL CHECK (relationship IN ('supersedes','refines','contradicts','builds_on','debates','synthesizes')),
	reason           TEXT NOT NULL DEFAULT '',
	created_by       TEXT NOT NULL DEFAULT '',
	approved_by_user INTEGER,
	decision_id      TEXT NOT NULL DEFAULT '',
	evidence         TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL,
	approved_at      INTEGER NOT NULL DEFAULT 0,
	CHECK (from_id <> to_id)
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON decision_edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON decision_edges(to_id);
CREATE INDEX IF NOT EXISTS idx_edges_relationship ON decision_edges(relationship);
CREATE INDEX IF NOT EXISTS idx_edges_approved ON decision_edges(approved_by_user);
`,
	},
	{
		Version: 3,
		Name:    "003_create_decision_edges_unique_triple",
		SQL: `
CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_unique_triple ON decision_edges(from_id, to_id, relationship);
`,
	},
}

// RunMigrations brings the database schema up to the latest version. It is
// idempotent and safe to call on every startup (spec §4.2): each script
// runs in its own transaction, and applying a version already recorded in
// schema_migrations is skipped. A failure aborts the whole run without
// leaving a half-applied script committed (the failing script's
// transaction is rolled back); scripts that already committed on a
// previous call remain applied, which is the idempotent-retry behavior
// spec §5 expects of init().
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStorage, "RunMigrations")
	defer timer.Stop()

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at INTEGER NOT NULL
);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(db, m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			logging.Get(logging.CategoryStorage).Debugw("migration already applied, skipping", "version", m.Version, "name", m.Name)
			continue
		}

		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		logging.Get(logging.CategoryStorage).Infow("migration applied", "version", m.Version, "name", m.Name)
	}
	return nil
}

func migrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Name, time.Now().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// tableExists checks whether a table exists, in codenerd's
// PRAGMA/sqlite_master introspection style.
func tableExists(db *sql.DB, table string) bool {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
	return err == nil && count > 0
}
