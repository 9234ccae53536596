package coach

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// needKeywords drives the deterministic fallback categorizer. A description
// containing any of these (case-insensitive) is a Need; everything else is a
// Want.
var needKeywords = []string{"grocery", "food", "gas", "rent", "utility", "insurance", "medical"}

// Categorizer is the generative classification call. It must return one
// label per input description, aligned positionally.
type Categorizer interface {
	CategorizeTransactions(ctx context.Context, descriptions []string) ([]domain.Category, error)
}

// Categorize tags every transaction Need or Want. The AI path is
// all-or-nothing: any failure (no model, unreachable, malformed output)
// switches the whole batch to the keyword fallback. A shorter-than-input AI
// response keeps its aligned prefix and defaults the rest to Want, the
// conservative choice since Want spending is what triggers advice.
func Categorize(ctx context.Context, cat Categorizer, txs []domain.Transaction, log zerolog.Logger) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)

	labels, err := aiLabels(ctx, cat, txs)
	if err != nil {
		log.Warn().Err(err).Int("count", len(txs)).Msg("AI categorization unavailable, using keyword fallback")
		for i := range out {
			out[i].Category = FallbackCategory(out[i].Description)
		}
		return out
	}

	for i := range out {
		if i < len(labels) {
			out[i].Category = labels[i]
		} else {
			out[i].Category = domain.CategoryWant
		}
	}
	return out
}

func aiLabels(ctx context.Context, cat Categorizer, txs []domain.Transaction) ([]domain.Category, error) {
	if cat == nil {
		return nil, domain.ErrSourceUnavailable
	}

	descriptions := make([]string, len(txs))
	for i, tx := range txs {
		descriptions[i] = tx.Description
	}

	labels, err := cat.CategorizeTransactions(ctx, descriptions)
	if err != nil {
		return nil, err
	}

	// Labels outside the Need/Want vocabulary invalidate the whole batch.
	for _, l := range labels {
		if l != domain.CategoryNeed && l != domain.CategoryWant {
			return nil, domain.ErrMalformedResponse
		}
	}
	return labels, nil
}

// FallbackCategory is the deterministic keyword heuristic. It is total:
// every description maps to exactly one category.
func FallbackCategory(description string) domain.Category {
	lower := strings.ToLower(description)
	for _, kw := range needKeywords {
		if strings.Contains(lower, kw) {
			return domain.CategoryNeed
		}
	}
	return domain.CategoryWant
}
