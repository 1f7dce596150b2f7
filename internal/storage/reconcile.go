package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

// ReconcileSupersedeChains repairs decisions left by a crash between the
// Decision Writer's two post-insert steps: the new decision's supersedes
// edge exists, but the previous decision's superseded_by back-pointer was
// never set (spec §5 Failure Modes). It scans the entire decisions table
// (Design Notes §9, Open Question 2) rather than a single topic, since the
// table is expected to stay small and there is no index over "which
// topics might be broken."
//
// Call this once at engine startup, after migrations and before serving
// any request.
func ReconcileSupersedeChains(ctx context.Context, db *DB) (int, error) {
	timer := logging.StartTimer(logging.CategoryStorage, "ReconcileSupersedeChains")
	defer timer.Stop()

	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT id, supersedes FROM decisions
WHERE supersedes <> ''`)
	if err != nil {
		return 0, fmt.Errorf("scan for broken supersede chains: %w", err)
	}

	type pair struct{ id, supersedes string }
	var candidates []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.id, &p.supersedes); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan candidate row: %w", err)
		}
		candidates = append(candidates, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	repaired := 0
	for _, c := range candidates {
		fixed, err := repairPair(ctx, db, c.id, c.supersedes)
		if err != nil {
			return repaired, fmt.Errorf("repair pair %s -> %s: %w", c.id, c.supersedes, err)
		}
		if fixed {
			repaired++
		}
	}

	if repaired > 0 {
		logging.Get(logging.CategoryStorage).Warnw("repaired broken supersede chains on startup", "count", repaired)
	}
	return repaired, nil
}

// repairPair checks whether the decision named by supersedesID is missing
// its superseded_by back-pointer to id, and if so sets it plus the
// matching edge, inside a single transaction per broken pair.
func repairPair(ctx context.Context, db *DB, id, supersedesID string) (bool, error) {
	var needsRepair bool
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var supersededBy string
		err := tx.QueryRowContext(ctx, `SELECT superseded_by FROM decisions WHERE id = ?`, supersedesID).Scan(&supersededBy)
		if err == sql.ErrNoRows {
			// Target decision doesn't exist (was never fully written, or
			// was removed by external tooling); nothing to repair.
			return nil
		}
		if err != nil {
			return fmt.Errorf("read target superseded_by: %w", err)
		}
		if supersededBy == id {
			return nil // already consistent
		}
		if supersededBy != "" {
			// Target already points somewhere else; a genuine data
			// conflict rather than a partial write, leave it alone.
			return nil
		}

		needsRepair = true
		now := time.Now().UnixMilli()

		if _, err := tx.ExecContext(ctx,
			`UPDATE decisions SET superseded_by = ?, updated_at = ? WHERE id = ?`,
			id, now, supersedesID); err != nil {
			return fmt.Errorf("set superseded_by: %w", err)
		}

		var edgeExists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM decision_edges WHERE from_id = ? AND to_id = ? AND relationship = 'supersedes'`,
			id, supersedesID).Scan(&edgeExists); err != nil {
			return fmt.Errorf("check supersede edge: %w", err)
		}
		if edgeExists == 0 {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO decision_edges (from_id, to_id, relationship, reason, created_by, approved_by_user, decision_id, evidence, created_at, approved_at)
VALUES (?, ?, 'supersedes', ?, 'system', 1, ?, '', ?, ?)`,
				id, supersedesID, "repaired by startup reconciliation", id, now, now); err != nil {
				return fmt.Errorf("insert missing supersede edge: %w", err)
			}
		}
		return nil
	})
	return needsRepair, err
}
