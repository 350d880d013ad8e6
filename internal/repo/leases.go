package repo

import (
	"context"
	"database/sql"

	"foldbench/internal/domain"
)

// AcquireLease claims an item for a session in one atomic statement: insert
// the row, or take it over only when the existing lease has already expired.
// Returns false when a live lease belongs to someone else. This must stay a
// single statement; a read-then-write pair here lets two allocators both
// believe they won.
func (r Repo) AcquireLease(ctx context.Context, l domain.Lease) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO leases(item_id,curator_id,session_id,acquired_at,expires_at) VALUES (?,?,?,?,?)
ON CONFLICT(item_id) DO UPDATE SET
	curator_id=excluded.curator_id,
	session_id=excluded.session_id,
	acquired_at=excluded.acquired_at,
	expires_at=excluded.expires_at
WHERE leases.expires_at < excluded.acquired_at`,
		l.ItemID, l.CuratorID, l.SessionID, l.AcquiredAt, l.ExpiresAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RenewLeases extends every lease owned by the session. MAX keeps the
// extension monotonic: a computed expiry earlier than the current value is
// a no-op. Returns the number of leases renewed; 0 means they were reaped.
func (r Repo) RenewLeases(ctx context.Context, sessionID, newExpiresAt string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE leases SET expires_at = MAX(expires_at, ?) WHERE session_id=?`, newExpiresAt, sessionID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ReleaseLeases deletes all leases owned by a session; idempotent.
func (r Repo) ReleaseLeases(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM leases WHERE session_id=?`, sessionID)
	return err
}

func (r Repo) ReleaseLeasesTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM leases WHERE session_id=?`, sessionID)
	return err
}

// ReapExpiredLeases deletes leases whose expiry has passed and returns the
// freed item ids. Select and delete share one transaction and one predicate
// so the returned list matches exactly what was removed.
func (r Repo) ReapExpiredLeases(ctx context.Context, now string) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	rows, err := tx.QueryContext(ctx, `SELECT item_id FROM leases WHERE expires_at < ?`, now)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(ids) == 0 {
		return nil, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM leases WHERE expires_at < ?`, now); err != nil {
		return nil, err
	}
	return ids, tx.Commit()
}

func (r Repo) GetLease(ctx context.Context, itemID string) (domain.Lease, error) {
	var l domain.Lease
	err := r.DB.QueryRowContext(ctx, `SELECT item_id,curator_id,session_id,acquired_at,expires_at FROM leases WHERE item_id=?`, itemID).
		Scan(&l.ItemID, &l.CuratorID, &l.SessionID, &l.AcquiredAt, &l.ExpiresAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

func (r Repo) ListSessionLeases(ctx context.Context, sessionID string) ([]domain.Lease, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT item_id,curator_id,session_id,acquired_at,expires_at FROM leases WHERE session_id=? ORDER BY item_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Lease
	for rows.Next() {
		var l domain.Lease
		if err := rows.Scan(&l.ItemID, &l.CuratorID, &l.SessionID, &l.AcquiredAt, &l.ExpiresAt); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r Repo) CountLiveLeases(ctx context.Context, now string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM leases WHERE expires_at > ?`, now).Scan(&n)
	return n, err
}
