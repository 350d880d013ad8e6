package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"foldbench/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertWorkItem(ctx context.Context, w domain.WorkItem) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO work_items(item_id,accession,residue_count,confidence,evidence_count,representative,curated,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		w.ItemID, nullable(w.Accession), w.ResidueCount, w.Confidence, w.EvidenceCount, boolInt(w.Representative), boolInt(w.Curated), w.CreatedAt)
	return err
}

func (r Repo) GetWorkItem(ctx context.Context, itemID string) (domain.WorkItem, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT item_id,COALESCE(accession,''),residue_count,confidence,evidence_count,representative,curated,created_at FROM work_items WHERE item_id=?`, itemID)
	return scanWorkItem(row)
}

func scanWorkItem(row *sql.Row) (domain.WorkItem, error) {
	var w domain.WorkItem
	var rep, cur int
	err := row.Scan(&w.ItemID, &w.Accession, &w.ResidueCount, &w.Confidence, &w.EvidenceCount, &rep, &cur, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	w.Representative = rep != 0
	w.Curated = cur != 0
	return w, err
}

type WorkItemFilters struct {
	Curated  *bool
	Leased   *bool
	Now      string
	Limit    int
	CursorID string
}

func (r Repo) ListWorkItems(ctx context.Context, f WorkItemFilters) ([]domain.WorkItem, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Curated != nil {
		clauses = append(clauses, "curated=?")
		args = append(args, boolInt(*f.Curated))
	}
	if f.Leased != nil {
		sub := `EXISTS (SELECT 1 FROM leases l WHERE l.item_id=work_items.item_id AND l.expires_at > ?)`
		if !*f.Leased {
			sub = "NOT " + sub
		}
		clauses = append(clauses, sub)
		args = append(args, f.Now)
	}
	if f.CursorID != "" {
		clauses = append(clauses, "item_id > ?")
		args = append(args, f.CursorID)
	}
	query := `SELECT item_id,COALESCE(accession,''),residue_count,confidence,evidence_count,representative,curated,created_at FROM work_items WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY item_id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkItem
	for rows.Next() {
		var w domain.WorkItem
		var rep, cur int
		if err := rows.Scan(&w.ItemID, &w.Accession, &w.ResidueCount, &w.Confidence, &w.EvidenceCount, &rep, &cur, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Representative = rep != 0
		w.Curated = cur != 0
		res = append(res, w)
	}
	return res, rows.Err()
}

// EligibilityFilters narrows the pool to items an allocation may claim.
type EligibilityFilters struct {
	MinConfidence         float64
	MinResidues           int
	MaxResidues           int
	RequireRepresentative bool
	Now                   string
	Limit                 int
}

// EligibleWorkItems returns lease-able candidates ranked best work first:
// confidence DESC, evidence_count DESC, item_id ASC for deterministic ties.
func (r Repo) EligibleWorkItems(ctx context.Context, f EligibilityFilters) ([]domain.WorkItem, error) {
	clauses := []string{"curated=0", "confidence >= ?", "residue_count >= ?"}
	args := []any{f.MinConfidence, f.MinResidues}
	if f.MaxResidues > 0 {
		clauses = append(clauses, "residue_count <= ?")
		args = append(args, f.MaxResidues)
	}
	if f.RequireRepresentative {
		clauses = append(clauses, "representative=1")
	}
	clauses = append(clauses, `NOT EXISTS (SELECT 1 FROM leases l WHERE l.item_id=work_items.item_id AND l.expires_at > ?)`)
	args = append(args, f.Now)
	query := `SELECT item_id,COALESCE(accession,''),residue_count,confidence,evidence_count,representative,curated,created_at FROM work_items WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY confidence DESC, evidence_count DESC, item_id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkItem
	for rows.Next() {
		var w domain.WorkItem
		var rep, cur int
		if err := rows.Scan(&w.ItemID, &w.Accession, &w.ResidueCount, &w.Confidence, &w.EvidenceCount, &rep, &cur, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Representative = rep != 0
		w.Curated = cur != 0
		res = append(res, w)
	}
	return res, rows.Err()
}

// MarkItemCurated flips the derived curated flag; only the commit fold
// calls this, inside its transaction.
func (r Repo) MarkItemCurated(ctx context.Context, tx *sql.Tx, itemID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE work_items SET curated=1 WHERE item_id=?`, itemID)
	return err
}

func (r Repo) CountWorkItems(ctx context.Context) (total, curated int, err error) {
	err = r.DB.QueryRowContext(ctx, `SELECT count(*), COALESCE(SUM(curated),0) FROM work_items`).Scan(&total, &curated)
	return total, curated, err
}

// LatestEventsFrom pages the audit log newest first.
func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`, strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if entID.Valid {
			e.EntityID = entID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventsAfter returns events with id > after in ascending order, for
// outbound delivery.
func (r Repo) EventsAfter(ctx context.Context, limit int, after int64) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events WHERE id>? ORDER BY id ASC LIMIT ?`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if entID.Valid {
			e.EntityID = entID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the highest event id, or 0 on an empty log.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id)
	return id, err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
