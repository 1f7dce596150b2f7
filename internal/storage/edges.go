package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

const edgeColumns = `
id, from_id, to_id, relationship, reason, created_by, approved_by_user,
decision_id, evidence, created_at, approved_at`

// InsertEdge inserts e and returns its assigned id. The unique index on
// (from_id, to_id, relationship) rejects an exact duplicate relation
// (spec §4.3 invariant 3); callers should treat a unique-constraint
// failure as a benign no-op rather than propagating it as an error.
func InsertEdge(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, e *model.Edge) (int64, error) {
	res, err := execer.ExecContext(ctx, `
INSERT INTO decision_edges (
	from_id, to_id, relationship, reason, created_by, approved_by_user,
	decision_id, evidence, created_at, approved_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.FromID, e.ToID, string(e.Relationship), e.Reason, string(e.CreatedBy), approvalToNullInt(e.ApprovedByUser),
		e.DecisionID, e.Evidence, e.CreatedAt, e.ApprovedAt,
	)
	if isUniqueConstraintErr(err) {
		return 0, ErrDuplicateEdge
	}
	if err != nil {
		return 0, fmt.Errorf("insert edge: %w", err)
	}
	return res.LastInsertId()
}

// ErrDuplicateEdge is returned when an edge with the same
// (from_id, to_id, relationship) triple already exists.
var ErrDuplicateEdge = errors.New("storage: duplicate edge")

// isUniqueConstraintErr reports whether err came from violating a UNIQUE
// index. Both supported drivers (modernc.org/sqlite, mattn/go-sqlite3)
// surface this as a message containing "UNIQUE constraint failed" rather
// than a typed error, so a substring check covers both.
func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// OutgoingEdges returns edges from fromID, restricted to relationship if
// non-empty, excluding unapproved (pending) edges unless
// includeUnapproved is set — used by graph expansion (spec §4.7) and
// GetPendingLinks (which passes includeUnapproved=true plus a pending-only
// filter applied by the caller).
func OutgoingEdges(ctx context.Context, db *DB, fromID string, relationship model.Relationship, includeUnapproved bool) ([]*model.Edge, error) {
	return queryEdges(ctx, db, "from_id", fromID, relationship, includeUnapproved)
}

// IncomingEdges returns edges into toID, restricted to relationship if
// non-empty, excluding unapproved edges unless includeUnapproved is set.
func IncomingEdges(ctx context.Context, db *DB, toID string, relationship model.Relationship, includeUnapproved bool) ([]*model.Edge, error) {
	return queryEdges(ctx, db, "to_id", toID, relationship, includeUnapproved)
}

func queryEdges(ctx context.Context, db *DB, col, id string, relationship model.Relationship, includeUnapproved bool) ([]*model.Edge, error) {
	query := `SELECT ` + edgeColumns + ` FROM decision_edges WHERE ` + col + ` = ?`
	args := []any{id}

	if relationship != "" {
		query += ` AND relationship = ?`
		args = append(args, string(relationship))
	}
	if !includeUnapproved {
		query += ` AND (approved_by_user IS NULL OR approved_by_user = 1)`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// PendingEdges returns every edge awaiting user review (approved_by_user
// = 0), for the engine's GetPendingLinks operation (spec §4.7).
func PendingEdges(ctx context.Context, db *DB) ([]*model.Edge, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT `+edgeColumns+` FROM decision_edges WHERE approved_by_user = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// SetEdgeApproval updates an edge's approval state to approved (true) or
// rejected (handled by the caller as a delete — spec §4.7 treats
// rejection as removal, not a stored "rejected" state, per Design Notes
// §9's decision to model approval as a tri-valued *bool with no fourth
// "rejected" value).
func SetEdgeApproval(ctx context.Context, db *DB, edgeID int64, approved bool, approvedAt int64) error {
	res, err := db.sqlDB.ExecContext(ctx,
		`UPDATE decision_edges SET approved_by_user = ?, approved_at = ? WHERE id = ?`,
		boolToInt(approved), approvedAt, edgeID)
	if err != nil {
		return fmt.Errorf("set edge approval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set edge approval rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEdge removes an edge outright, used when a proposed edge is
// rejected.
func DeleteEdge(ctx context.Context, db *DB, edgeID int64) error {
	res, err := db.sqlDB.ExecContext(ctx, `DELETE FROM decision_edges WHERE id = ?`, edgeID)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete edge rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEdges(rows *sql.Rows) ([]*model.Edge, error) {
	var out []*model.Edge
	for rows.Next() {
		var e model.Edge
		var approvedByUser sql.NullInt64

		err := rows.Scan(
			&e.ID, &e.FromID, &e.ToID, &e.Relationship, &e.Reason, &e.CreatedBy, &approvedByUser,
			&e.DecisionID, &e.Evidence, &e.CreatedAt, &e.ApprovedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.ApprovedByUser = nullIntToApproval(approvedByUser)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func approvalToNullInt(approved *bool) any {
	if approved == nil {
		return nil
	}
	return boolToInt(*approved)
}

func nullIntToApproval(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}
