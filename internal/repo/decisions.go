package repo

import (
	"context"
	"database/sql"

	"foldbench/internal/domain"
)

// UpsertDecision records one verdict per (session, item); last write wins.
// The insert is gated on the session still being in_progress in the same
// statement, so a finalize racing the write cannot have the decision
// slip in after the fold. Returns false when the session is no longer
// active and nothing was written.
func (r Repo) UpsertDecision(ctx context.Context, d domain.Decision) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO decisions(session_id,item_id,keep,confidence,notes,evidence_json,updated_at)
SELECT ?,?,?,?,?,?,? WHERE EXISTS (SELECT 1 FROM sessions WHERE session_id=? AND status='in_progress')
ON CONFLICT(session_id,item_id) DO UPDATE SET keep=excluded.keep, confidence=excluded.confidence, notes=excluded.notes, evidence_json=excluded.evidence_json, updated_at=excluded.updated_at`,
		d.SessionID, d.ItemID, boolInt(d.Keep), d.Confidence, nullable(d.Notes), nullableStringPtr(d.EvidenceJSON), d.UpdatedAt, d.SessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r Repo) ListDecisions(ctx context.Context, sessionID string) ([]domain.Decision, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT session_id,item_id,keep,confidence,COALESCE(notes,''),evidence_json,updated_at FROM decisions WHERE session_id=? ORDER BY item_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func (r Repo) ListDecisionsTx(ctx context.Context, tx *sql.Tx, sessionID string) ([]domain.Decision, error) {
	rows, err := tx.QueryContext(ctx, `SELECT session_id,item_id,keep,confidence,COALESCE(notes,''),evidence_json,updated_at FROM decisions WHERE session_id=? ORDER BY item_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func collectDecisions(rows *sql.Rows) ([]domain.Decision, error) {
	var res []domain.Decision
	for rows.Next() {
		var d domain.Decision
		var keep int
		var evidence sql.NullString
		if err := rows.Scan(&d.SessionID, &d.ItemID, &keep, &d.Confidence, &d.Notes, &evidence, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Keep = keep != 0
		if evidence.Valid {
			d.EvidenceJSON = &evidence.String
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// ApplyCurationStatus upserts the durable per-item record: stamps the
// curator and time, increments curation_count rather than overwriting it.
// Only the commit fold calls this, inside its transaction.
func (r Repo) ApplyCurationStatus(ctx context.Context, tx *sql.Tx, itemID, curatorID, curatedAt string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO curation_status(item_id,is_curated,last_curator_id,last_curated_at,curation_count) VALUES (?,1,?,?,1)
ON CONFLICT(item_id) DO UPDATE SET is_curated=1, last_curator_id=excluded.last_curator_id, last_curated_at=excluded.last_curated_at, curation_count=curation_count+1`,
		itemID, curatorID, curatedAt)
	return err
}

func (r Repo) GetCurationStatus(ctx context.Context, itemID string) (domain.CurationStatus, error) {
	var cs domain.CurationStatus
	var curated int
	err := r.DB.QueryRowContext(ctx, `SELECT item_id,is_curated,last_curator_id,last_curated_at,curation_count FROM curation_status WHERE item_id=?`, itemID).
		Scan(&cs.ItemID, &curated, &cs.LastCuratorID, &cs.LastCuratedAt, &cs.CurationCount)
	if err == sql.ErrNoRows {
		return cs, ErrNotFound
	}
	cs.IsCurated = curated != 0
	return cs, err
}
