package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

// ErrNotFound is returned by lookups that find no matching row, so
// callers can map it onto engine.ErrCodeNotFound without sniffing
// sql.ErrNoRows themselves.
var ErrNotFound = errors.New("storage: not found")

// InsertDecision inserts d and returns the assigned decisions.seq rowid,
// which callers use as the vec_index key for d's embedding. Must run
// inside the same transaction as the subsequent InsertEmbedding call
// (spec §4.3 invariant 1: a decision and its embedding are written
// atomically).
func InsertDecision(ctx context.Context, tx *sql.Tx, d *model.Decision) (int64, error) {
	refinedFrom, err := json.Marshal(d.RefinedFrom)
	if err != nil {
		return 0, fmt.Errorf("marshal refined_from: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO decisions (
	id, topic, decision, reasoning, outcome, failure_reason, limitation,
	confidence, supersedes, superseded_by, refined_from, created_at, updated_at,
	session_id, user_involvement, evidence, alternatives, risks, trust_context,
	usage_success, usage_failure, usage_count, time_saved,
	needs_validation, validation_attempts, last_validated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Topic, d.Decision, d.Reasoning, string(d.Outcome), d.FailureReason, d.Limitation,
		d.Confidence, d.Supersedes, d.SupersededBy, string(refinedFrom), d.CreatedAt, d.UpdatedAt,
		d.SessionID, d.UserInvolvement, d.Evidence, d.Alternatives, d.Risks, d.TrustContext,
		d.UsageSuccess, d.UsageFailure, d.UsageCount, d.TimeSaved,
		boolToInt(d.NeedsValidation), d.ValidationAttempts, d.LastValidatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert decision: %w", err)
	}
	return res.LastInsertId()
}

const decisionColumns = `
seq, id, topic, decision, reasoning, outcome, failure_reason, limitation,
confidence, supersedes, superseded_by, refined_from, created_at, updated_at,
session_id, user_involvement, evidence, alternatives, risks, trust_context,
usage_success, usage_failure, usage_count, time_saved,
needs_validation, validation_attempts, last_validated_at`

// GetDecisionByID returns the decision with the given external id.
func GetDecisionByID(ctx context.Context, db *DB, id string) (*model.Decision, int64, error) {
	row := db.sqlDB.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	return scanDecision(row)
}

// GetDecisionBySeq returns the decision at the given rowid, used by
// vector search hits to resolve a vec_index match back to its decision.
func GetDecisionBySeq(ctx context.Context, db *DB, seq int64) (*model.Decision, error) {
	row := db.sqlDB.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE seq = ?`, seq)
	d, _, err := scanDecision(row)
	return d, err
}

// GetActiveHeadByTopic returns the current (non-superseded) decision for
// topic, i.e. the most recent decision whose superseded_by is empty. It
// is the anchor the Decision Writer chains a new decision's supersedes
// pointer onto (spec §4.3, §4.4).
func GetActiveHeadByTopic(ctx context.Context, db *DB, topic string) (*model.Decision, int64, error) {
	row := db.sqlDB.QueryRowContext(ctx, `
SELECT `+decisionColumns+`
FROM decisions
WHERE topic = ? AND superseded_by = ''
ORDER BY created_at DESC
LIMIT 1`, topic)
	return scanDecision(row)
}

// ListByTopic returns every decision ever recorded for topic, newest
// first, including superseded ones, for supersede-chain reconstruction.
func ListByTopic(ctx context.Context, db *DB, topic string) ([]*model.Decision, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT `+decisionColumns+` FROM decisions WHERE topic = ? ORDER BY created_at DESC`, topic)
	if err != nil {
		return nil, fmt.Errorf("list by topic: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// ListRecent returns the most recently created decisions across all
// topics, for the engine's List operation.
func ListRecent(ctx context.Context, db *DB, limit int) ([]*model.Decision, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT `+decisionColumns+` FROM decisions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// TopicPrefixMatch returns decisions whose topic starts with prefix, used
// by Recall's bounded fuzzy fallback when an exact topic has no head
// decision (spec §4.5).
func TopicPrefixMatch(ctx context.Context, db *DB, prefix string, limit int) ([]*model.Decision, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `
SELECT `+decisionColumns+` FROM decisions WHERE topic LIKE ? AND superseded_by = ''
ORDER BY created_at DESC LIMIT ?`, prefix+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("topic prefix match: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// KeywordSearch runs the Tier 2 fallback: a LIKE scan of topic and
// decision text matching any of keywords, newest first, used when vector
// search is unavailable or fails (spec §5 Tier 2, §4.6).
func KeywordSearch(ctx context.Context, db *DB, keywords []string, limit int) ([]*model.Decision, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []any
	for _, kw := range keywords {
		clauses = append(clauses, "(decision LIKE ? OR topic LIKE ?)")
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE ` +
		strings.Join(clauses, " OR ") + ` ORDER BY created_at DESC LIMIT ?`

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// MarkSuperseded sets the superseded_by pointer on the decision with id,
// used by the Decision Writer's post-transaction supersede step (spec
// §4.3 invariant 2: exactly one active head per topic at any time).
func MarkSuperseded(ctx context.Context, db *DB, id, supersededByID string, updatedAt int64) error {
	_, err := db.sqlDB.ExecContext(ctx,
		`UPDATE decisions SET superseded_by = ?, updated_at = ? WHERE id = ?`,
		supersededByID, updatedAt, id)
	if err != nil {
		return fmt.Errorf("mark superseded: %w", err)
	}
	return nil
}

// SetSupersedes sets the supersedes pointer on the decision with id: the
// other half of the Decision Writer's post-transaction supersede step,
// recording which decision id supersedes on the new row itself so
// supersedeChain traversal and ReconcileSupersedeChains's repair scan
// both have a non-empty pointer to walk.
func SetSupersedes(ctx context.Context, db *DB, id, supersedesID string, updatedAt int64) error {
	_, err := db.sqlDB.ExecContext(ctx,
		`UPDATE decisions SET supersedes = ?, updated_at = ? WHERE id = ?`,
		supersedesID, updatedAt, id)
	if err != nil {
		return fmt.Errorf("set supersedes: %w", err)
	}
	return nil
}

// UpdateOutcome applies the result of an outcome classification: it sets
// outcome, failure_reason and the new confidence value (spec §4.9).
func UpdateOutcome(ctx context.Context, db *DB, id string, outcome model.Outcome, failureReason string, confidence float64, updatedAt int64) error {
	res, err := db.sqlDB.ExecContext(ctx, `
UPDATE decisions
SET outcome = ?, failure_reason = ?, confidence = ?, updated_at = ?
WHERE id = ?`, string(outcome), failureReason, confidence, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update outcome rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindPendingOutcomeForSession returns the most recent decision for
// sessionID that has no outcome yet and was created within windowMillis
// of nowMillis, for the Outcome Tracker's auto-attach behavior (spec
// §4.9: "a non-outcome'd decision for the current session created
// within the last hour").
func FindPendingOutcomeForSession(ctx context.Context, db *DB, sessionID string, nowMillis, windowMillis int64) (*model.Decision, error) {
	row := db.sqlDB.QueryRowContext(ctx, `
SELECT `+decisionColumns+`
FROM decisions
WHERE session_id = ? AND outcome = '' AND created_at >= ?
ORDER BY created_at DESC
LIMIT 1`, sessionID, nowMillis-windowMillis)
	d, _, err := scanDecision(row)
	return d, err
}

// BumpUsage increments usage_count and the success/failure counter
// matching succeeded, and adds timeSaved to time_saved (spec §4.8).
func BumpUsage(ctx context.Context, db *DB, id string, succeeded bool, timeSaved int64, updatedAt int64) error {
	col := "usage_failure"
	if succeeded {
		col = "usage_success"
	}
	_, err := db.sqlDB.ExecContext(ctx, fmt.Sprintf(`
UPDATE decisions
SET usage_count = usage_count + 1, %s = %s + 1, time_saved = time_saved + ?, updated_at = ?
WHERE id = ?`, col, col), timeSaved, updatedAt, id)
	if err != nil {
		return fmt.Errorf("bump usage: %w", err)
	}
	return nil
}

func scanDecision(row *sql.Row) (*model.Decision, int64, error) {
	var d model.Decision
	var seq int64
	var refinedFrom string
	var needsValidation int

	err := row.Scan(
		&seq, &d.ID, &d.Topic, &d.Decision, &d.Reasoning, &d.Outcome, &d.FailureReason, &d.Limitation,
		&d.Confidence, &d.Supersedes, &d.SupersededBy, &refinedFrom, &d.CreatedAt, &d.UpdatedAt,
		&d.SessionID, &d.UserInvolvement, &d.Evidence, &d.Alternatives, &d.Risks, &d.TrustContext,
		&d.UsageSuccess, &d.UsageFailure, &d.UsageCount, &d.TimeSaved,
		&needsValidation, &d.ValidationAttempts, &d.LastValidatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("scan decision: %w", err)
	}
	if refinedFrom != "" {
		if err := json.Unmarshal([]byte(refinedFrom), &d.RefinedFrom); err != nil {
			return nil, 0, fmt.Errorf("unmarshal refined_from: %w", err)
		}
	}
	d.NeedsValidation = needsValidation != 0
	return &d, seq, nil
}

func scanDecisions(rows *sql.Rows) ([]*model.Decision, error) {
	var out []*model.Decision
	for rows.Next() {
		var d model.Decision
		var seq int64
		var refinedFrom string
		var needsValidation int

		err := rows.Scan(
			&seq, &d.ID, &d.Topic, &d.Decision, &d.Reasoning, &d.Outcome, &d.FailureReason, &d.Limitation,
			&d.Confidence, &d.Supersedes, &d.SupersededBy, &refinedFrom, &d.CreatedAt, &d.UpdatedAt,
			&d.SessionID, &d.UserInvolvement, &d.Evidence, &d.Alternatives, &d.Risks, &d.TrustContext,
			&d.UsageSuccess, &d.UsageFailure, &d.UsageCount, &d.TimeSaved,
			&needsValidation, &d.ValidationAttempts, &d.LastValidatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		if refinedFrom != "" {
			if err := json.Unmarshal([]byte(refinedFrom), &d.RefinedFrom); err != nil {
				return nil, fmt.Errorf("unmarshal refined_from: %w", err)
			}
		}
		d.NeedsValidation = needsValidation != 0
		out = append(out, &d)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
