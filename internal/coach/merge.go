package coach

import (
	"github.com/dvloznov/finance-coach/internal/domain"
)

// Merge combines the remote or synthesized transaction list with the
// session-local additions and drops everything hidden by a tombstone.
// Remote order comes first, locals are appended in insertion order.
// An empty result is ErrNoTransactions; a tombstone that matches nothing is
// a no-op, which lets users hide items before they have synced from the
// remote origin.
func Merge(remote, added []domain.Transaction, tombstones []domain.Tombstone) ([]domain.Transaction, error) {
	combined := make([]domain.Transaction, 0, len(remote)+len(added))
	combined = append(combined, remote...)
	combined = append(combined, added...)

	merged := combined[:0]
	for _, tx := range combined {
		if hidden(tx, tombstones) {
			continue
		}
		merged = append(merged, tx)
	}

	if len(merged) == 0 {
		return nil, domain.ErrNoTransactions
	}
	return merged, nil
}

func hidden(tx domain.Transaction, tombstones []domain.Tombstone) bool {
	for _, ts := range tombstones {
		if ts.Matches(tx) {
			return true
		}
	}
	return false
}
