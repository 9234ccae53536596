package coach

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// NormalizeRecord converts a raw transaction record from any origin into the
// canonical Transaction shape. Malformed input degrades to zeroed or empty
// fields; it never fails the batch.
func NormalizeRecord(rec map[string]interface{}, source domain.Source) domain.Transaction {
	return domain.Transaction{
		ID:          recordID(rec),
		Description: stringField(rec, "description"),
		Amount:      amountField(rec, "amount"),
		Source:      source,
	}
}

// NormalizeRecords normalizes a whole batch, preserving order.
func NormalizeRecords(recs []map[string]interface{}, source domain.Source) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		txs = append(txs, NormalizeRecord(rec, source))
	}
	return txs
}

// recordID uses the origin-provided id when present and non-empty, otherwise
// synthesizes a fresh one. Ids are never reused across calls.
func recordID(rec map[string]interface{}) string {
	for _, key := range []string{"_id", "id"} {
		if s := stringField(rec, key); s != "" {
			return s
		}
	}
	return uuid.NewString()
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// amountField coerces the value under key to a non-negative float64.
// Statement exports sometimes carry debits as negative magnitudes; those are
// negated rather than dropped. Anything unparseable becomes 0.
func amountField(m map[string]interface{}, key string) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if f < 0 {
		return -f
	}
	return f
}
