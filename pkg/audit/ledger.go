package audit

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// keys: r:<proposal id>  ->  Record JSON
//       t:<20-digit unix nano>:<proposal id>  ->  Record JSON (time index)
const (
	prefixByID   = "r:"
	prefixByTime = "t:"
)

func byIDKey(proposalID string) []byte {
	return []byte(prefixByID + proposalID)
}

func byTimeKey(producedAtUnixNano int64, proposalID string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixByTime, producedAtUnixNano, proposalID))
}

func byTimePrefix() []byte {
	return []byte(prefixByTime)
}

func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// Ledger is the Pebble-backed store of settlement summaries, the system's
// record of what was actually settled and why. Grounded on the
// trade-history persistence pattern: records are looked up by ID or
// range-scanned by time. Appending a record whose proposal ID is already
// present replaces the by-ID entry, while each append adds its own time
// index entry.
type Ledger struct {
	db *pebble.DB
}

// NewLedger opens a Pebble database at the given path for audit records.
func NewLedger(dbPath string) (*Ledger, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening audit ledger at %s: %w", dbPath, err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append persists a new audit record under both its ID and time indexes.
func (l *Ledger) Append(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling audit record %s: %w", rec.ProposalID, err)
	}

	batch := l.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(byIDKey(rec.ProposalID), data, nil); err != nil {
		return err
	}
	if err := batch.Set(byTimeKey(rec.ProducedAt.UnixNano(), rec.ProposalID), data, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Get retrieves the audit record for a proposal ID.
func (l *Ledger) Get(proposalID string) (*Record, error) {
	data, closer, err := l.db.Get(byIDKey(proposalID))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading audit record %s: %w", proposalID, err)
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling audit record %s: %w", proposalID, err)
	}
	return &rec, nil
}

// Recent returns up to limit of the most recently produced records,
// newest first.
func (l *Ledger) Recent(limit int) ([]*Record, error) {
	prefix := byTimePrefix()
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("opening audit time iterator: %w", err)
	}
	defer iter.Close()

	var out []*Record
	for iter.Last(); iter.Valid() && len(out) < limit; iter.Prev() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}
