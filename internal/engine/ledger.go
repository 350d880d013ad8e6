package engine

import (
	"context"
	"database/sql"
	"fmt"

	"foldbench/internal/domain"
)

// DecisionInput carries one curation verdict for an assigned item.
type DecisionInput struct {
	ItemID       string
	Keep         bool
	Confidence   float64
	Notes        string
	EvidenceJSON *string
}

// RecordDecision upserts the verdict for (session, item); last write wins
// while the session is in progress. The pre-checks below give precise
// error codes, but the write itself is gated on the live status inside
// the store, so a finalize landing between check and write rejects the
// decision rather than letting it trail the fold.
func (e Engine) RecordDecision(ctx context.Context, sessionID, curatorID string, in DecisionInput) (domain.Decision, error) {
	s, err := e.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Decision{}, err
	}
	if s.CuratorID != curatorID {
		return domain.Decision{}, ErrNotSessionOwner
	}
	if s.Status != "in_progress" {
		return domain.Decision{}, ErrSessionNotActive
	}
	assigned := false
	for _, id := range s.AssignedItems {
		if id == in.ItemID {
			assigned = true
			break
		}
	}
	if !assigned {
		return domain.Decision{}, fmt.Errorf("%w: %s", ErrItemNotAssigned, in.ItemID)
	}
	d := domain.Decision{
		SessionID:    sessionID,
		ItemID:       in.ItemID,
		Keep:         in.Keep,
		Confidence:   in.Confidence,
		Notes:        in.Notes,
		EvidenceJSON: in.EvidenceJSON,
		UpdatedAt:    timestamp(e.now()),
	}
	ok, err := e.Repo.UpsertDecision(ctx, d)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("record decision: %w", err)
	}
	if !ok {
		return domain.Decision{}, ErrSessionNotActive
	}
	return d, nil
}

// foldDecisions applies every decision of the session into the durable
// curation status and flips each item's curated flag. Runs inside the
// commit transaction: the caller's compare-and-set on session status is
// what makes the fold apply exactly once.
func (e Engine) foldDecisions(ctx context.Context, tx *sql.Tx, sessionID, curatorID, now string) (int, error) {
	decisions, err := e.Repo.ListDecisionsTx(ctx, tx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("load decisions: %w", err)
	}
	for _, d := range decisions {
		if err := e.Repo.ApplyCurationStatus(ctx, tx, d.ItemID, curatorID, now); err != nil {
			return 0, fmt.Errorf("fold decision %s: %w", d.ItemID, err)
		}
		if err := e.Repo.MarkItemCurated(ctx, tx, d.ItemID); err != nil {
			return 0, fmt.Errorf("mark curated %s: %w", d.ItemID, err)
		}
	}
	return len(decisions), nil
}
