package buffers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// snapshotRecord is the on-disk JSON form of a BufferSnapshot: amounts are
// carried as decimal strings since the wire format should not depend on
// uint256's own (hex-oriented) JSON encoding.
type snapshotRecord struct {
	AsOf     time.Time         `json:"asOf"`
	Balances map[string]string `json:"balances"`
}

func toRecord(asOf time.Time, snapshot settlement.BufferSnapshot) snapshotRecord {
	balances := make(map[string]string, len(snapshot))
	for token, amount := range snapshot {
		balances[token.Hex()] = amount.String()
	}
	return snapshotRecord{AsOf: asOf, Balances: balances}
}

func fromRecord(rec snapshotRecord) (time.Time, settlement.BufferSnapshot, error) {
	snapshot := make(settlement.BufferSnapshot, len(rec.Balances))
	for hexAddr, decimal := range rec.Balances {
		amount, err := uint256.FromDecimal(decimal)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("decoding balance for %s: %w", hexAddr, err)
		}
		snapshot[common.HexToAddress(hexAddr)] = amount
	}
	return rec.AsOf, snapshot, nil
}

// Store provides Pebble-based persistence for the buffer ledger: a single
// current snapshot plus an append-only history of prior snapshots.
type Store struct {
	db *pebble.DB
}

// NewStore opens a Pebble database at the given path with its own cache,
// memtable and compaction tuning (the audit ledger opens with Pebble's
// defaults instead).
func NewStore(dbPath string) (*Store, error) {
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(64 << 20),
		MemTableSize:                32 << 20,
		MaxConcurrentCompactions:    func() int { return 2 },
		L0CompactionThreshold:       2,
		L0StopWritesThreshold:       12,
		LBaseMaxBytes:               64 << 20,
		MaxOpenFiles:                500,
		BytesPerSync:                512 << 10,
		DisableAutomaticCompactions: false,
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("opening pebble db at %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutCurrent persists the given snapshot as both the current snapshot and
// a new history entry, so the current view always has a matching audit
// trail entry.
func (s *Store) PutCurrent(asOf time.Time, snapshot settlement.BufferSnapshot) error {
	rec := toRecord(asOf, snapshot)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling buffer snapshot: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(currentKey(), data, nil); err != nil {
		return err
	}
	if err := batch.Set(historyKey(asOf.UnixNano()), data, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// GetCurrent loads the current snapshot. Returns a zero time and an empty
// snapshot if none has ever been recorded.
func (s *Store) GetCurrent() (time.Time, settlement.BufferSnapshot, error) {
	data, closer, err := s.db.Get(currentKey())
	if err == pebble.ErrNotFound {
		return time.Time{}, settlement.BufferSnapshot{}, nil
	}
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading current buffer snapshot: %w", err)
	}
	defer closer.Close()

	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return time.Time{}, nil, fmt.Errorf("unmarshaling buffer snapshot: %w", err)
	}
	return fromRecord(rec)
}

// History returns up to limit prior snapshots, newest first.
func (s *Store) History(limit int) ([]time.Time, []settlement.BufferSnapshot, error) {
	prefix := historyPrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, nil, fmt.Errorf("opening history iterator: %w", err)
	}
	defer iter.Close()

	var times []time.Time
	var snapshots []settlement.BufferSnapshot
	for iter.Last(); iter.Valid() && len(snapshots) < limit; iter.Prev() {
		var rec snapshotRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		asOf, snapshot, err := fromRecord(rec)
		if err != nil {
			continue
		}
		times = append(times, asOf)
		snapshots = append(snapshots, snapshot)
	}
	return times, snapshots, nil
}
