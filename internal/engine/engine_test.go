package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"foldbench/internal/config"
	"foldbench/internal/db"
	"foldbench/internal/domain"
	"foldbench/internal/engine"
	"foldbench/internal/migrate"
)

type testEnv struct {
	Engine *engine.Engine
	Ctx    context.Context
	Clock  *time.Time
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	eng := engine.New(conn, cfg)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return now }
	return testEnv{Engine: &eng, Ctx: context.Background(), Clock: &now}
}

func (env testEnv) advance(d time.Duration) {
	*env.Clock = env.Clock.Add(d)
}

func (env testEnv) seedItem(t *testing.T, id string, confidence float64, evidence int) {
	t.Helper()
	err := env.Engine.Repo.InsertWorkItem(env.Ctx, domain.WorkItem{
		ItemID:         id,
		Accession:      "P" + id,
		ResidueCount:   250,
		Confidence:     confidence,
		EvidenceCount:  evidence,
		Representative: true,
		CreatedAt:      "2024-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("seed item %s: %v", id, err)
	}
}

func TestAllocateRanksBestWorkFirst(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "A", 0.95, 3)
	env.seedItem(t, "B", 0.85, 3)
	env.seedItem(t, "C", 0.99, 3)

	alice, err := env.Engine.Allocate(env.Ctx, "alice", 2)
	if err != nil {
		t.Fatalf("allocate alice: %v", err)
	}
	if len(alice.Items) != 2 || alice.Items[0].ItemID != "C" || alice.Items[1].ItemID != "A" {
		t.Fatalf("expected [C A], got %+v", alice.Session.AssignedItems)
	}
	if alice.Session.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %s", alice.Session.Status)
	}

	// A competing allocation must not receive C or A while alice holds them.
	bob, err := env.Engine.Allocate(env.Ctx, "bob", 2)
	if err != nil {
		t.Fatalf("allocate bob: %v", err)
	}
	if len(bob.Items) != 1 || bob.Items[0].ItemID != "B" {
		t.Fatalf("expected bob to get [B], got %+v", bob.Session.AssignedItems)
	}
}

func TestAllocateNoEligibleItems(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "A", 0.9, 1)
	if _, err := env.Engine.Allocate(env.Ctx, "alice", 5); err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	_, err := env.Engine.Allocate(env.Ctx, "bob", 5)
	if !errors.Is(err, engine.ErrNoEligibleItems) {
		t.Fatalf("expected ErrNoEligibleItems, got %v", err)
	}
}

func TestAllocateSkipsIneligibleItems(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "good", 0.9, 2)
	// Below the confidence floor.
	env.seedItem(t, "lowconf", 0.2, 9)
	// Outside size bounds.
	if err := env.Engine.Repo.InsertWorkItem(env.Ctx, domain.WorkItem{
		ItemID: "tiny", ResidueCount: 5, Confidence: 0.99, EvidenceCount: 5,
		Representative: true, CreatedAt: "2024-01-01T00:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}
	// Not a representative.
	if err := env.Engine.Repo.InsertWorkItem(env.Ctx, domain.WorkItem{
		ItemID: "redundant", ResidueCount: 250, Confidence: 0.99, EvidenceCount: 5,
		Representative: false, CreatedAt: "2024-01-01T00:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}

	got, err := env.Engine.Allocate(env.Ctx, "alice", 10)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ItemID != "good" {
		t.Fatalf("expected only [good], got %+v", got.Session.AssignedItems)
	}
}

func TestLeaseMutualExclusion(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	now := "2024-01-01T00:00:00Z"
	expires := "2024-01-01T02:00:00Z"
	ok, err := env.Engine.Repo.AcquireLease(env.Ctx, domain.Lease{
		ItemID: "X", CuratorID: "alice", SessionID: "s1", AcquiredAt: now, ExpiresAt: expires,
	})
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = env.Engine.Repo.AcquireLease(env.Ctx, domain.Lease{
		ItemID: "X", CuratorID: "bob", SessionID: "s2", AcquiredAt: now, ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire must lose while lease is live")
	}
	l, err := env.Engine.Repo.GetLease(env.Ctx, "X")
	if err != nil {
		t.Fatalf("get lease: %v", err)
	}
	if l.SessionID != "s1" || l.CuratorID != "alice" {
		t.Fatalf("lease hijacked: %+v", l)
	}
}

func TestAcquireTakesOverExpiredLease(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	ok, err := env.Engine.Repo.AcquireLease(env.Ctx, domain.Lease{
		ItemID: "X", CuratorID: "alice", SessionID: "s1",
		AcquiredAt: "2024-01-01T00:00:00Z", ExpiresAt: "2024-01-01T02:00:00Z",
	})
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	// Acquisition time after the old expiry wins the row.
	ok, err = env.Engine.Repo.AcquireLease(env.Ctx, domain.Lease{
		ItemID: "X", CuratorID: "bob", SessionID: "s2",
		AcquiredAt: "2024-01-01T03:00:00Z", ExpiresAt: "2024-01-01T05:00:00Z",
	})
	if err != nil || !ok {
		t.Fatalf("takeover acquire: ok=%v err=%v", ok, err)
	}
	l, _ := env.Engine.Repo.GetLease(env.Ctx, "X")
	if l.SessionID != "s2" {
		t.Fatalf("expected takeover by s2, got %+v", l)
	}
}

func TestRenewIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	sid := got.Session.SessionID
	before, _ := env.Engine.Repo.GetLease(env.Ctx, "X")

	// An earlier computed expiry must be a no-op.
	n, err := env.Engine.Repo.RenewLeases(env.Ctx, sid, "2024-01-01T01:00:00Z")
	if err != nil || n != 1 {
		t.Fatalf("renew: n=%d err=%v", n, err)
	}
	after, _ := env.Engine.Repo.GetLease(env.Ctx, "X")
	if after.ExpiresAt != before.ExpiresAt {
		t.Fatalf("renew shortened lease: %s -> %s", before.ExpiresAt, after.ExpiresAt)
	}

	// A later expiry extends.
	n, err = env.Engine.Repo.RenewLeases(env.Ctx, sid, "2024-01-01T09:00:00Z")
	if err != nil || n != 1 {
		t.Fatalf("renew: n=%d err=%v", n, err)
	}
	after, _ = env.Engine.Repo.GetLease(env.Ctx, "X")
	if after.ExpiresAt != "2024-01-01T09:00:00Z" {
		t.Fatalf("expected extension, got %s", after.ExpiresAt)
	}
}

func TestCheckpointRenewsAndGuards(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	env.seedItem(t, "Y", 0.8, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 2)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	sid := got.Session.SessionID

	blob := `{"scroll":42}`
	res, err := env.Engine.Checkpoint(env.Ctx, sid, "alice", 1, 1, &blob)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if res.Session.CursorIndex != 1 || res.Session.ReviewedCount != 1 {
		t.Fatalf("checkpoint not persisted: %+v", res.Session)
	}
	if res.LeasesRenewed != 2 {
		t.Fatalf("expected 2 leases renewed, got %d", res.LeasesRenewed)
	}

	// Wrong curator is rejected before any write.
	if _, err := env.Engine.Checkpoint(env.Ctx, sid, "bob", 2, 2, nil); !errors.Is(err, engine.ErrNotSessionOwner) {
		t.Fatalf("expected ErrNotSessionOwner, got %v", err)
	}

	// Terminal sessions reject further checkpoints.
	if _, err := env.Engine.Finalize(env.Ctx, sid, "alice", "discard"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := env.Engine.Checkpoint(env.Ctx, sid, "alice", 2, 2, nil); !errors.Is(err, engine.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestResumeInProgressIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	env.seedItem(t, "Y", 0.8, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 2)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	sid := got.Session.SessionID

	first, err := env.Engine.Resume(env.Ctx, sid, "alice")
	if err != nil {
		t.Fatalf("resume 1: %v", err)
	}
	second, err := env.Engine.Resume(env.Ctx, sid, "alice")
	if err != nil {
		t.Fatalf("resume 2: %v", err)
	}
	if len(first.Session.AssignedItems) != len(second.Session.AssignedItems) {
		t.Fatalf("assigned sets differ: %v vs %v", first.Session.AssignedItems, second.Session.AssignedItems)
	}
	for i := range first.Session.AssignedItems {
		if first.Session.AssignedItems[i] != second.Session.AssignedItems[i] {
			t.Fatalf("assigned sets differ: %v vs %v", first.Session.AssignedItems, second.Session.AssignedItems)
		}
	}
	leases, err := env.Engine.Repo.ListSessionLeases(env.Ctx, sid)
	if err != nil {
		t.Fatalf("list leases: %v", err)
	}
	if len(leases) != 2 {
		t.Fatalf("expected 2 leases after double resume, got %d", len(leases))
	}
}

func TestCommitFoldIsAppliedExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	sid := got.Session.SessionID
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{
		ItemID: "X", Keep: true, Confidence: 0.9, Notes: "clean domain boundary",
	}); err != nil {
		t.Fatalf("record decision: %v", err)
	}

	s, err := env.Engine.Finalize(env.Ctx, sid, "alice", "commit")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.Status != "committed" || s.EndedAt == nil {
		t.Fatalf("commit state wrong: %+v", s)
	}

	// Retried commit is rejected by the status compare-and-set.
	if _, err := env.Engine.Finalize(env.Ctx, sid, "alice", "commit"); !errors.Is(err, engine.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}

	cs, err := env.Engine.Repo.GetCurationStatus(env.Ctx, "X")
	if err != nil {
		t.Fatalf("curation status: %v", err)
	}
	if cs.CurationCount != 1 || !cs.IsCurated || cs.LastCuratorID != "alice" {
		t.Fatalf("fold applied wrong: %+v", cs)
	}
	item, err := env.Engine.Repo.GetWorkItem(env.Ctx, "X")
	if err != nil || !item.Curated {
		t.Fatalf("item not marked curated: %+v err=%v", item, err)
	}
	if leases, _ := env.Engine.Repo.ListSessionLeases(env.Ctx, sid); len(leases) != 0 {
		t.Fatalf("leases not released on commit")
	}
}

func TestDiscardKeepsDecisionsWithoutFolding(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{ItemID: "X", Keep: false}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Finalize(env.Ctx, sid, "alice", "discard"); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := env.Engine.Repo.GetCurationStatus(env.Ctx, "X"); err == nil {
		t.Fatal("discard must not fold decisions")
	}
	decisions, err := env.Engine.Repo.ListDecisions(env.Ctx, sid)
	if err != nil || len(decisions) != 1 {
		t.Fatalf("decisions must survive discard for audit: %v", err)
	}
	item, _ := env.Engine.Repo.GetWorkItem(env.Ctx, "X")
	if item.Curated {
		t.Fatal("discard must not mark item curated")
	}
}

func TestFinalizeInvalidAction(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.Finalize(env.Ctx, got.Session.SessionID, "alice", "explode")
	if !errors.Is(err, engine.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestRecordDecisionGuards(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	env.seedItem(t, "Z", 0.8, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID

	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{ItemID: "Z"}); !errors.Is(err, engine.ErrItemNotAssigned) {
		t.Fatalf("expected ErrItemNotAssigned, got %v", err)
	}
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "bob", engine.DecisionInput{ItemID: "X"}); !errors.Is(err, engine.ErrNotSessionOwner) {
		t.Fatalf("expected ErrNotSessionOwner, got %v", err)
	}
	if _, err := env.Engine.Finalize(env.Ctx, sid, "alice", "revisit"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{ItemID: "X"}); !errors.Is(err, engine.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestReaperFreesExpiredLeases(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	if _, err := env.Engine.Allocate(env.Ctx, "alice", 1); err != nil {
		t.Fatal(err)
	}
	// Past the lease TTL but inside the abandonment window.
	env.advance(3 * time.Hour)
	stats, err := env.Engine.Sweep(env.Ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if stats.LeasesReaped != 1 || stats.SessionsAbandoned != 0 {
		t.Fatalf("unexpected sweep stats: %+v", stats)
	}
	// The freed item is allocatable again.
	got, err := env.Engine.Allocate(env.Ctx, "bob", 1)
	if err != nil {
		t.Fatalf("reallocate after reap: %v", err)
	}
	if got.Items[0].ItemID != "X" {
		t.Fatalf("expected X, got %+v", got.Session.AssignedItems)
	}
}

func TestReaperAbandonsCrashedSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 2)
	env.seedItem(t, "Y", 0.8, 2)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 2)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{ItemID: "X", Keep: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Checkpoint(env.Ctx, sid, "alice", 1, 1, nil); err != nil {
		t.Fatal(err)
	}
	// Crash: no further calls until past the abandonment timeout.
	env.advance(5 * time.Hour)
	stats, err := env.Engine.Sweep(env.Ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if stats.SessionsAbandoned != 1 {
		t.Fatalf("expected 1 abandoned session, got %+v", stats)
	}
	s, err := env.Engine.Repo.GetSession(env.Ctx, sid)
	if err != nil || s.Status != "abandoned" {
		t.Fatalf("expected abandoned, got %+v err=%v", s, err)
	}
	// Both items are eligible again.
	refill, err := env.Engine.Allocate(env.Ctx, "bob", 2)
	if err != nil {
		t.Fatalf("reallocate: %v", err)
	}
	if len(refill.Items) != 2 {
		t.Fatalf("expected both items free, got %+v", refill.Session.AssignedItems)
	}
}

func TestSweepSparesFreshlyCheckpointedSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 2)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID
	env.advance(5 * time.Hour)

	// The sweep's stale read sees the session before any checkpoint lands.
	cutoff := "2024-01-01T01:00:00Z"
	stale, err := env.Engine.Repo.StaleSessions(env.Ctx, cutoff)
	if err != nil || len(stale) != 1 {
		t.Fatalf("stale read: n=%d err=%v", len(stale), err)
	}

	// A checkpoint lands between the stale read and the abandon write.
	if _, err := env.Engine.Checkpoint(env.Ctx, sid, "alice", 1, 1, nil); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	ok, err := env.Engine.Repo.AbandonStaleSession(env.Ctx, stale[0].SessionID, cutoff, "2024-01-01T05:00:00Z")
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if ok {
		t.Fatal("abandon must lose to the fresher checkpoint")
	}
	s, err := env.Engine.Repo.GetSession(env.Ctx, sid)
	if err != nil || s.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %+v err=%v", s, err)
	}
	leases, err := env.Engine.Repo.ListSessionLeases(env.Ctx, sid)
	if err != nil || len(leases) != 1 {
		t.Fatalf("renewed lease must survive: n=%d err=%v", len(leases), err)
	}
}

func TestResumeAbandonedDropsContestedItems(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 2)
	env.seedItem(t, "Y", 0.8, 2)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 2)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID
	env.advance(5 * time.Hour)
	if _, err := env.Engine.Sweep(env.Ctx); err != nil {
		t.Fatal(err)
	}
	// Bob grabs the best freed item before alice comes back.
	bob, err := env.Engine.Allocate(env.Ctx, "bob", 1)
	if err != nil {
		t.Fatal(err)
	}
	if bob.Items[0].ItemID != "X" {
		t.Fatalf("expected bob to take X, got %+v", bob.Session.AssignedItems)
	}

	res, err := env.Engine.Resume(env.Ctx, sid, "alice")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.Session.Status != "in_progress" {
		t.Fatalf("expected revival to in_progress, got %s", res.Session.Status)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "X" {
		t.Fatalf("expected X dropped, got %v", res.Dropped)
	}
	if len(res.Session.AssignedItems) != 1 || res.Session.AssignedItems[0] != "Y" {
		t.Fatalf("expected [Y] kept, got %v", res.Session.AssignedItems)
	}
}

func TestDecisionUpsertLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{ItemID: "X", Keep: false, Notes: "first pass"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{ItemID: "X", Keep: true, Confidence: 0.7, Notes: "second look"}); err != nil {
		t.Fatal(err)
	}
	decisions, err := env.Engine.Repo.ListDecisions(env.Ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected a single decision row, got %d", len(decisions))
	}
	if !decisions[0].Keep || decisions[0].Notes != "second look" {
		t.Fatalf("last write did not win: %+v", decisions[0])
	}
}

func TestFinalizedSessionRejectsDecisionWrite(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "X", 0.9, 1)
	got, err := env.Engine.Allocate(env.Ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	sid := got.Session.SessionID
	if _, err := env.Engine.RecordDecision(env.Ctx, sid, "alice", engine.DecisionInput{
		ItemID: "X", Keep: true, Confidence: 0.9, Notes: "final verdict",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Finalize(env.Ctx, sid, "alice", "commit"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A write that passed the engine's status check before the finalize
	// landed must still be rejected by the store.
	ok, err := env.Engine.Repo.UpsertDecision(env.Ctx, domain.Decision{
		SessionID: sid, ItemID: "X", Keep: false, Confidence: 0.1,
		Notes: "late reversal", UpdatedAt: "2024-01-01T01:00:00Z",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ok {
		t.Fatal("decision write after finalize must be rejected")
	}
	decisions, err := env.Engine.Repo.ListDecisions(env.Ctx, sid)
	if err != nil || len(decisions) != 1 {
		t.Fatalf("expected one decision row: n=%d err=%v", len(decisions), err)
	}
	if !decisions[0].Keep || decisions[0].Notes != "final verdict" {
		t.Fatalf("committed decision mutated: %+v", decisions[0])
	}
}
