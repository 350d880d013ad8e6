package engine

import (
	"context"
	"log"
	"time"

	"foldbench/internal/events"
)

// SweepStats summarizes one reaper pass.
type SweepStats struct {
	LeasesReaped      int      `json:"leases_reaped"`
	FreedItems        []string `json:"freed_items,omitempty"`
	SessionsAbandoned int      `json:"sessions_abandoned"`
}

// Sweep runs one reaper pass: expired leases are deleted, then any
// in_progress session with no checkpoint inside the abandonment window is
// marked abandoned and its remaining leases released. The abandonment
// window is a coarser timeout above individual lease TTLs; it covers a
// client that died before its first checkpoint.
func (e Engine) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	freed, err := e.ReapExpiredLeases(ctx)
	if err != nil {
		return stats, err
	}
	stats.LeasesReaped = len(freed)
	stats.FreedItems = freed

	cutoff := timestamp(e.now().Add(-e.Config.AbandonTimeout()))
	stale, err := e.Repo.StaleSessions(ctx, cutoff)
	if err != nil {
		return stats, err
	}
	now := timestamp(e.now())
	for _, s := range stale {
		ok, err := e.Repo.AbandonStaleSession(ctx, s.SessionID, cutoff, now)
		if err != nil {
			return stats, err
		}
		if !ok {
			// Another writer finalized, resumed, or checkpointed it
			// after the stale read; its leases stay live.
			continue
		}
		if err := e.Repo.ReleaseLeases(ctx, s.SessionID); err != nil {
			return stats, err
		}
		if err := e.appendEvent(ctx, "session.abandoned", "session", s.SessionID, "reaper", events.EventPayload{
			"curator_id":  s.CuratorID,
			"last_update": s.UpdatedAt,
		}); err != nil {
			return stats, err
		}
		stats.SessionsAbandoned++
	}
	return stats, nil
}

// RunReaper sweeps on the configured interval until the context ends. A
// failed sweep is logged and retried on the next tick; the backlog is
// caught up then.
func (e Engine) RunReaper(ctx context.Context, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	ticker := time.NewTicker(e.Config.SweepInterval())
	defer ticker.Stop()
	for {
		stats, err := e.Sweep(ctx)
		if err != nil {
			logger.Printf("reaper sweep failed: %v", err)
		} else if stats.LeasesReaped > 0 || stats.SessionsAbandoned > 0 {
			logger.Printf("reaper: reaped %d leases, abandoned %d sessions", stats.LeasesReaped, stats.SessionsAbandoned)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
