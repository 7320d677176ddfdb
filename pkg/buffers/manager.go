package buffers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// Manager is the thread-safe, process-wide view of the settlement
// contract's current token buffers. It mirrors AccountManager's shape: an
// in-memory snapshot guarded by a RWMutex, backed by a Store for
// durability and audit history.
type Manager struct {
	mu       sync.RWMutex
	current  settlement.BufferSnapshot
	asOf     time.Time
	store    *Store
}

// NewManager loads the last-persisted snapshot (if any) from store and
// returns a Manager ready to serve reads and accept updates.
func NewManager(store *Store) (*Manager, error) {
	asOf, snapshot, err := store.GetCurrent()
	if err != nil {
		return nil, fmt.Errorf("loading initial buffer snapshot: %w", err)
	}
	if snapshot == nil {
		snapshot = settlement.BufferSnapshot{}
	}
	return &Manager{current: snapshot, asOf: asOf, store: store}, nil
}

// Get returns a defensive copy of the current buffer snapshot, so callers
// (e.g. the settlement summary algorithm, which mutates its own ledger
// clone) can never observe or corrupt the manager's live view.
func (m *Manager) Get(ctx context.Context) (settlement.BufferSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clone := make(settlement.BufferSnapshot, len(m.current))
	for token, amount := range m.current {
		clone[token] = new(settlement.Amount).Set(amount)
	}
	return clone, nil
}

// Put replaces the current snapshot and persists it, timestamping the
// update and appending it to the store's history trail.
func (m *Manager) Put(ctx context.Context, snapshot settlement.BufferSnapshot) error {
	asOf := timeFromContext(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.PutCurrent(asOf, snapshot); err != nil {
		return fmt.Errorf("persisting buffer snapshot: %w", err)
	}

	clone := make(settlement.BufferSnapshot, len(snapshot))
	for token, amount := range snapshot {
		clone[token] = new(settlement.Amount).Set(amount)
	}
	m.current = clone
	m.asOf = asOf
	return nil
}

// AsOf returns the timestamp of the currently held snapshot.
func (m *Manager) AsOf() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.asOf
}

// History returns up to limit prior snapshots, newest first, for audit
// and debugging use.
func (m *Manager) History(ctx context.Context, limit int) ([]time.Time, []settlement.BufferSnapshot, error) {
	return m.store.History(limit)
}

// timeFromContext lets callers (tests in particular) pin the timestamp a
// Put is recorded under via context, falling back to wall-clock time.
func timeFromContext(ctx context.Context) time.Time {
	if v := ctx.Value(putTimeKey{}); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Now()
}

type putTimeKey struct{}

// WithPutTime returns a context that pins the timestamp a subsequent
// Manager.Put call will record, for deterministic tests.
func WithPutTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, putTimeKey{}, t)
}
