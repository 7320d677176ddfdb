package buffers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "buffers.pebble")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr, err := NewManager(store)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr
}

func TestManager_NewManager_StartsEmptyWithNoPriorSnapshot(t *testing.T) {
	mgr := newTestManager(t)

	snapshot, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(snapshot) != 0 {
		t.Errorf("expected empty snapshot, got %v", snapshot)
	}
	if !mgr.AsOf().IsZero() {
		t.Errorf("expected zero AsOf, got %v", mgr.AsOf())
	}
}

func TestManager_Put_UpdatesCurrentAndAsOf(t *testing.T) {
	mgr := newTestManager(t)

	pinned := time.Unix(1_700_000_000, 0).UTC()
	ctx := WithPutTime(context.Background(), pinned)

	snapshot := settlement.BufferSnapshot{tok(1): settlement.FromUint64(500)}
	if err := mgr.Put(ctx, snapshot); err != nil {
		t.Fatalf("put: %v", err)
	}

	if !mgr.AsOf().Equal(pinned) {
		t.Errorf("AsOf = %v, want %v", mgr.AsOf(), pinned)
	}

	got, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[tok(1)].Cmp(settlement.FromUint64(500)) != 0 {
		t.Errorf("unexpected balance: %v", got[tok(1)])
	}
}

func TestManager_Get_ReturnsDefensiveCopy(t *testing.T) {
	mgr := newTestManager(t)

	ctx := WithPutTime(context.Background(), time.Unix(1_700_000_000, 0).UTC())
	if err := mgr.Put(ctx, settlement.BufferSnapshot{tok(1): settlement.FromUint64(100)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	snapshot, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// Mutate both the map and the amount pointer obtained from Get; neither
	// should be visible in the manager's internal state.
	snapshot[tok(1)].SetUint64(999)
	snapshot[tok(2)] = settlement.FromUint64(12345)

	again, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again[tok(1)].Cmp(settlement.FromUint64(100)) != 0 {
		t.Errorf("manager's internal balance was mutated through a prior Get: %v", again[tok(1)])
	}
	if _, ok := again[tok(2)]; ok {
		t.Errorf("manager's internal snapshot gained a key added to a prior Get's result")
	}
}

func TestManager_Put_SnapshotArgumentIsClonedNotAliased(t *testing.T) {
	mgr := newTestManager(t)

	snapshot := settlement.BufferSnapshot{tok(1): settlement.FromUint64(100)}
	ctx := WithPutTime(context.Background(), time.Unix(1_700_000_000, 0).UTC())
	if err := mgr.Put(ctx, snapshot); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutate the caller's copy of the map after the call; the manager must
	// not observe it.
	snapshot[tok(1)].SetUint64(1)

	got, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[tok(1)].Cmp(settlement.FromUint64(100)) != 0 {
		t.Errorf("manager aliased the caller's snapshot amount: %v", got[tok(1)])
	}
}

func TestManager_History_DelegatesToStoreOrderedNewestFirst(t *testing.T) {
	mgr := newTestManager(t)

	base := time.Unix(1_700_000_000, 0).UTC()
	for i := 0; i < 3; i++ {
		ctx := WithPutTime(context.Background(), base.Add(time.Duration(i)*time.Second))
		if err := mgr.Put(ctx, settlement.BufferSnapshot{tok(1): settlement.FromUint64(uint64(i))}); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	times, snapshots, err := mgr.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(times) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(times))
	}
	if snapshots[0][tok(1)].Cmp(settlement.FromUint64(2)) != 0 {
		t.Errorf("expected newest entry first with value 2, got %v", snapshots[0][tok(1)])
	}
}

func TestManager_Put_PersistsAcrossNewManagerFromSameStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "buffers.pebble")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	mgr, err := NewManager(store)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	pinned := time.Unix(1_700_000_000, 0).UTC()
	ctx := WithPutTime(context.Background(), pinned)
	if err := mgr.Put(ctx, settlement.BufferSnapshot{tok(1): settlement.FromUint64(42)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	reloaded, err := NewManager(store)
	if err != nil {
		t.Fatalf("reload manager: %v", err)
	}
	if !reloaded.AsOf().Equal(pinned) {
		t.Errorf("reloaded AsOf = %v, want %v", reloaded.AsOf(), pinned)
	}
	got, err := reloaded.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[tok(1)].Cmp(settlement.FromUint64(42)) != 0 {
		t.Errorf("reloaded balance = %v, want 42", got[tok(1)])
	}
}
