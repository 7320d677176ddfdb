package buffers

import "fmt"

// Pebble key schema for the settlement contract's buffer ledger.
//
// The ledger only ever holds one live snapshot (the "current" view of the
// settlement contract's token balances) plus a history of prior snapshots
// retained for audit. Keys are prefix-based so history can be range-scanned
// without touching the current snapshot's key.

const (
	prefixCurrent = "buf:current"  // the single current snapshot
	prefixHistory = "buf:history:" // "buf:history:{20-digit unix nano}"
)

func currentKey() []byte {
	return []byte(prefixCurrent)
}

// historyKey is zero-padded to 20 digits so lexicographic byte order
// matches numeric order, mirroring the account store's trade-timestamp key.
func historyKey(asOfUnixNano int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixHistory, asOfUnixNano))
}

func historyPrefix() []byte {
	return []byte(prefixHistory)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
