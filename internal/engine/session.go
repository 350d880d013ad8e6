package engine

import (
	"context"
	"fmt"

	"foldbench/internal/domain"
	"foldbench/internal/events"
)

// CheckpointResult reports the durable save plus the lease renewal outcome.
// LeasesRenewed==0 means the session's leases were already reaped; the
// curator should Resume before continuing.
type CheckpointResult struct {
	Session       domain.Session
	LeasesRenewed int
	LeaseExpires  string
}

// Checkpoint persists cursor/progress/blob state and renews the session's
// leases. Checkpoint is the only durability boundary for in-progress work.
func (e Engine) Checkpoint(ctx context.Context, sessionID, curatorID string, cursor, reviewed int, checkpoint *string) (CheckpointResult, error) {
	s, err := e.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return CheckpointResult{}, err
	}
	if s.CuratorID != curatorID {
		return CheckpointResult{}, ErrNotSessionOwner
	}
	now := timestamp(e.now())
	ok, err := e.Repo.UpdateSessionCheckpoint(ctx, sessionID, cursor, reviewed, checkpoint, now)
	if err != nil {
		return CheckpointResult{}, fmt.Errorf("checkpoint session: %w", err)
	}
	if !ok {
		return CheckpointResult{}, ErrSessionNotActive
	}
	renewed, expires, err := e.renewSessionLeases(ctx, sessionID)
	if err != nil {
		return CheckpointResult{}, err
	}
	if err := e.appendEvent(ctx, "session.checkpoint", "session", sessionID, curatorID, events.EventPayload{
		"cursor_index":   cursor,
		"reviewed_count": reviewed,
		"leases_renewed": renewed,
	}); err != nil {
		return CheckpointResult{}, err
	}
	s, err = e.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return CheckpointResult{}, err
	}
	return CheckpointResult{Session: s, LeasesRenewed: renewed, LeaseExpires: expires}, nil
}

// ResumeResult returns the reloaded working set. Dropped lists items the
// session lost to competing allocations while it sat abandoned.
type ResumeResult struct {
	Session   domain.Session
	Items     []domain.WorkItem
	Decisions []domain.Decision
	Dropped   []string
}

// Resume reloads an in_progress session (idempotent, just re-renews) or
// revives an abandoned one, re-acquiring its leases. Items whose lease was
// taken by another session in the meantime are dropped from the assigned
// set rather than stolen back.
func (e Engine) Resume(ctx context.Context, sessionID, curatorID string) (ResumeResult, error) {
	s, err := e.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return ResumeResult{}, err
	}
	if s.CuratorID != curatorID {
		return ResumeResult{}, ErrNotSessionOwner
	}

	var dropped []string
	switch s.Status {
	case "in_progress":
		if _, _, err := e.renewSessionLeases(ctx, sessionID); err != nil {
			return ResumeResult{}, err
		}
	case "abandoned":
		now := timestamp(e.now())
		ok, err := e.Repo.TransitionSession(ctx, sessionID, "abandoned", "in_progress", now, nil)
		if err != nil {
			return ResumeResult{}, fmt.Errorf("revive session: %w", err)
		}
		if !ok {
			return ResumeResult{}, ErrSessionNotActive
		}
		var kept []string
		for _, itemID := range s.AssignedItems {
			won, err := e.acquireItemLease(ctx, itemID, curatorID, sessionID)
			if err != nil {
				return ResumeResult{}, err
			}
			if won {
				kept = append(kept, itemID)
			} else {
				dropped = append(dropped, itemID)
			}
		}
		if len(dropped) > 0 {
			if err := e.Repo.UpdateAssignedItems(ctx, sessionID, kept, now); err != nil {
				return ResumeResult{}, err
			}
		}
		if err := e.appendEvent(ctx, "session.resumed", "session", sessionID, curatorID, events.EventPayload{
			"kept":    len(kept),
			"dropped": len(dropped),
		}); err != nil {
			return ResumeResult{}, err
		}
	default:
		return ResumeResult{}, ErrSessionNotActive
	}

	s, err = e.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return ResumeResult{}, err
	}
	items := make([]domain.WorkItem, 0, len(s.AssignedItems))
	for _, id := range s.AssignedItems {
		item, err := e.Repo.GetWorkItem(ctx, id)
		if err != nil {
			return ResumeResult{}, err
		}
		items = append(items, item)
	}
	decisions, err := e.Repo.ListDecisions(ctx, sessionID)
	if err != nil {
		return ResumeResult{}, err
	}
	return ResumeResult{Session: s, Items: items, Decisions: decisions, Dropped: dropped}, nil
}

// Finalize moves a session to its terminal state. action "commit" folds the
// session's decisions into durable curation status inside the same
// transaction as the status compare-and-set, so a retried commit is
// rejected rather than double-applied. "discard" keeps decisions for audit
// without folding; "revisit" completes the session so the items can come
// back in a later batch. All three release the session's leases.
func (e Engine) Finalize(ctx context.Context, sessionID, curatorID, action string) (domain.Session, error) {
	var target string
	switch action {
	case "commit":
		target = "committed"
	case "discard":
		target = "discarded"
	case "revisit":
		target = "completed"
	default:
		return domain.Session{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	s, err := e.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if s.CuratorID != curatorID {
		return domain.Session{}, ErrNotSessionOwner
	}

	now := timestamp(e.now())
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, err
	}
	defer tx.Rollback()

	ok, err := e.Repo.TransitionSessionTx(ctx, tx, sessionID, "in_progress", target, now, &now)
	if err != nil {
		return domain.Session{}, fmt.Errorf("finalize session: %w", err)
	}
	if !ok {
		return domain.Session{}, ErrSessionNotActive
	}
	folded := 0
	if action == "commit" {
		folded, err = e.foldDecisions(ctx, tx, sessionID, curatorID, now)
		if err != nil {
			return domain.Session{}, err
		}
	}
	if err := e.Repo.ReleaseLeasesTx(ctx, tx, sessionID); err != nil {
		return domain.Session{}, fmt.Errorf("release leases: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "session.finalized", "session", sessionID, curatorID, events.EventPayload{
		"action": action,
		"status": target,
		"folded": folded,
	}); err != nil {
		return domain.Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Session{}, err
	}
	return e.Repo.GetSession(ctx, sessionID)
}

func (e Engine) appendEvent(ctx context.Context, evtType, entityKind, entityID, actorID string, payload events.EventPayload) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, evtType, entityKind, entityID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}
