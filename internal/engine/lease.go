package engine

import (
	"context"
	"fmt"

	"foldbench/internal/domain"
)

// acquireItemLease claims one item for a session. Returns false without
// error when the item is live-leased elsewhere; the caller drops it.
func (e Engine) acquireItemLease(ctx context.Context, itemID, curatorID, sessionID string) (bool, error) {
	now := e.now().UTC()
	ok, err := e.Repo.AcquireLease(ctx, domain.Lease{
		ItemID:     itemID,
		CuratorID:  curatorID,
		SessionID:  sessionID,
		AcquiredAt: timestamp(now),
		ExpiresAt:  timestamp(now.Add(e.Config.LeaseTTL())),
	})
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", itemID, err)
	}
	return ok, nil
}

// renewSessionLeases pushes every lease of the session forward by the
// configured TTL. A zero count means the leases were already reaped; that
// is a caller-visible condition, not an error.
func (e Engine) renewSessionLeases(ctx context.Context, sessionID string) (int, string, error) {
	expires := timestamp(e.now().UTC().Add(e.Config.LeaseTTL()))
	n, err := e.Repo.RenewLeases(ctx, sessionID, expires)
	if err != nil {
		return 0, "", fmt.Errorf("renew leases: %w", err)
	}
	return n, expires, nil
}

// ReapExpiredLeases removes leases past their expiry and returns the freed
// item ids. Only the background sweep calls this; request-path latency is
// never coupled to sweep cost.
func (e Engine) ReapExpiredLeases(ctx context.Context) ([]string, error) {
	freed, err := e.Repo.ReapExpiredLeases(ctx, timestamp(e.now()))
	if err != nil {
		return nil, fmt.Errorf("reap expired leases: %w", err)
	}
	return freed, nil
}
