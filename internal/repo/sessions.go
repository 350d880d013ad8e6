package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"foldbench/internal/domain"
)

func (r Repo) InsertSession(ctx context.Context, tx *sql.Tx, s domain.Session) error {
	items, err := json.Marshal(s.AssignedItems)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO sessions(session_id,curator_id,status,target_size,assigned_items_json,cursor_index,reviewed_count,checkpoint_json,created_at,updated_at,ended_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.SessionID, s.CuratorID, s.Status, s.TargetSize, string(items), s.CursorIndex, s.ReviewedCount,
		nullableStringPtr(s.Checkpoint), s.CreatedAt, s.UpdatedAt, nullableStringPtr(s.EndedAt))
	return err
}

func (r Repo) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT session_id,curator_id,status,target_size,assigned_items_json,cursor_index,reviewed_count,checkpoint_json,created_at,updated_at,ended_at FROM sessions WHERE session_id=?`, sessionID)
	return scanSession(row.Scan)
}

func (r Repo) GetSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (domain.Session, error) {
	row := tx.QueryRowContext(ctx, `SELECT session_id,curator_id,status,target_size,assigned_items_json,cursor_index,reviewed_count,checkpoint_json,created_at,updated_at,ended_at FROM sessions WHERE session_id=?`, sessionID)
	return scanSession(row.Scan)
}

func scanSession(scan func(...any) error) (domain.Session, error) {
	var s domain.Session
	var items string
	var checkpoint, endedAt sql.NullString
	err := scan(&s.SessionID, &s.CuratorID, &s.Status, &s.TargetSize, &items, &s.CursorIndex, &s.ReviewedCount, &checkpoint, &s.CreatedAt, &s.UpdatedAt, &endedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(items), &s.AssignedItems); err != nil {
		return s, err
	}
	if checkpoint.Valid {
		s.Checkpoint = &checkpoint.String
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.String
	}
	return s, nil
}

type SessionFilters struct {
	Status          string
	CuratorID       string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListSessions(ctx context.Context, f SessionFilters) ([]domain.Session, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.CuratorID != "" {
		clauses = append(clauses, "curator_id=?")
		args = append(args, f.CuratorID)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND session_id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query := `SELECT session_id,curator_id,status,target_size,assigned_items_json,cursor_index,reviewed_count,checkpoint_json,created_at,updated_at,ended_at FROM sessions WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, session_id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Session
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpdateSessionCheckpoint persists checkpoint state, guarded so a terminal
// or abandoned session rejects the write. Returns false when no row matched.
func (r Repo) UpdateSessionCheckpoint(ctx context.Context, sessionID string, cursor, reviewed int, checkpoint *string, updatedAt string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE sessions SET cursor_index=?, reviewed_count=?, checkpoint_json=?, updated_at=? WHERE session_id=? AND status='in_progress'`,
		cursor, reviewed, nullableStringPtr(checkpoint), updatedAt, sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// TransitionSession is a compare-and-set on session status: the update is
// rejected when another writer already moved the session out of fromStatus.
func (r Repo) TransitionSession(ctx context.Context, sessionID, fromStatus, toStatus, updatedAt string, endedAt *string) (bool, error) {
	return transitionSession(ctx, r.DB.ExecContext, sessionID, fromStatus, toStatus, updatedAt, endedAt)
}

func (r Repo) TransitionSessionTx(ctx context.Context, tx *sql.Tx, sessionID, fromStatus, toStatus, updatedAt string, endedAt *string) (bool, error) {
	return transitionSession(ctx, tx.ExecContext, sessionID, fromStatus, toStatus, updatedAt, endedAt)
}

func transitionSession(ctx context.Context, exec func(context.Context, string, ...any) (sql.Result, error), sessionID, fromStatus, toStatus, updatedAt string, endedAt *string) (bool, error) {
	res, err := exec(ctx, `UPDATE sessions SET status=?, updated_at=?, ended_at=? WHERE session_id=? AND status=?`,
		toStatus, updatedAt, nullableStringPtr(endedAt), sessionID, fromStatus)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// AbandonStaleSession moves a session to abandoned only while it is both
// in_progress and still stale. Re-checking staleness inside the update
// closes the window where a checkpoint lands between the stale-session
// read and this write; the fresh updated_at makes the predicate fail.
func (r Repo) AbandonStaleSession(ctx context.Context, sessionID, cutoff, updatedAt string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE sessions SET status='abandoned', updated_at=? WHERE session_id=? AND status='in_progress' AND updated_at < ?`,
		updatedAt, sessionID, cutoff)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// UpdateAssignedItems rewrites the assigned list, used when a resumed
// session loses items to a competing allocation.
func (r Repo) UpdateAssignedItems(ctx context.Context, sessionID string, items []string, updatedAt string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `UPDATE sessions SET assigned_items_json=?, updated_at=? WHERE session_id=?`, string(data), updatedAt, sessionID)
	return err
}

// StaleSessions returns in_progress sessions with no checkpoint since the
// cutoff, candidates for abandonment.
func (r Repo) StaleSessions(ctx context.Context, cutoff string) ([]domain.Session, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT session_id,curator_id,status,target_size,assigned_items_json,cursor_index,reviewed_count,checkpoint_json,created_at,updated_at,ended_at FROM sessions WHERE status='in_progress' AND updated_at < ? ORDER BY updated_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Session
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) CountSessionsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
