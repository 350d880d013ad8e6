package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"foldbench/internal/domain"
	"foldbench/internal/events"
	"foldbench/internal/repo"
)

// Allocation is the result of a successful batch assignment: the new
// session and the items it won leases on. Items may hold fewer entries
// than the requested batch size when concurrent allocations win races
// on some items; a short batch is success, not an error.
type Allocation struct {
	Session domain.Session
	Items   []domain.WorkItem
}

// Allocate picks the best eligible work items for a curator, leases them to
// a fresh session and persists the session row. Items lost to a concurrent
// allocation are dropped silently; there is no backfill. Returns
// ErrNoEligibleItems when nothing could be leased.
func (e Engine) Allocate(ctx context.Context, curatorID string, batchSize int) (Allocation, error) {
	if curatorID == "" {
		return Allocation{}, fmt.Errorf("curator required")
	}
	if batchSize <= 0 {
		batchSize = e.Config.Batch.DefaultSize
	}
	if batchSize > e.Config.Batch.MaxSize {
		batchSize = e.Config.Batch.MaxSize
	}

	now := e.now().UTC()
	candidates, err := e.Repo.EligibleWorkItems(ctx, repo.EligibilityFilters{
		MinConfidence:         e.Config.Eligibility.MinConfidence,
		MinResidues:           e.Config.Eligibility.MinResidues,
		MaxResidues:           e.Config.Eligibility.MaxResidues,
		RequireRepresentative: e.Config.Eligibility.RequireRepresentative,
		Now:                   timestamp(now),
		Limit:                 batchSize,
	})
	if err != nil {
		return Allocation{}, fmt.Errorf("select eligible items: %w", err)
	}
	if len(candidates) == 0 {
		return Allocation{}, ErrNoEligibleItems
	}

	sessionID := uuid.New().String()
	var leased []domain.WorkItem
	for _, item := range candidates {
		ok, err := e.acquireItemLease(ctx, item.ItemID, curatorID, sessionID)
		if err != nil {
			// Store errors propagate; leases already won are released
			// back to the pool rather than left to expire.
			_ = e.Repo.ReleaseLeases(ctx, sessionID)
			return Allocation{}, err
		}
		if ok {
			leased = append(leased, item)
		}
	}
	if len(leased) == 0 {
		return Allocation{}, ErrNoEligibleItems
	}

	ids := make([]string, len(leased))
	for i, item := range leased {
		ids[i] = item.ItemID
	}
	s := domain.Session{
		SessionID:     sessionID,
		CuratorID:     curatorID,
		Status:        "in_progress",
		TargetSize:    batchSize,
		AssignedItems: ids,
		CreatedAt:     timestamp(now),
		UpdatedAt:     timestamp(now),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		_ = e.Repo.ReleaseLeases(ctx, sessionID)
		return Allocation{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertSession(ctx, tx, s); err != nil {
		_ = e.Repo.ReleaseLeases(ctx, sessionID)
		return Allocation{}, fmt.Errorf("insert session: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "allocation.created", "session", sessionID, curatorID, events.EventPayload{
		"requested": batchSize,
		"granted":   len(leased),
	}); err != nil {
		_ = e.Repo.ReleaseLeases(ctx, sessionID)
		return Allocation{}, err
	}
	if err := tx.Commit(); err != nil {
		_ = e.Repo.ReleaseLeases(ctx, sessionID)
		return Allocation{}, err
	}
	return Allocation{Session: s, Items: leased}, nil
}
