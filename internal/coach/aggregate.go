package coach

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// Recommender is the generative coaching call.
type Recommender interface {
	Recommend(ctx context.Context, needsTotal, wantsTotal, goal float64, wantDescriptions []string) (string, error)
}

// Aggregate sums the categorized batch and attaches a coaching
// recommendation. The AI recommendation is best-effort; on any failure the
// deterministic template keyed on warnRatio takes over.
func Aggregate(ctx context.Context, rec Recommender, txs []domain.Transaction, goal, budget, warnRatio float64, log zerolog.Logger) domain.AnalysisResult {
	var needsTotal, wantsTotal float64
	var wantDescriptions []string

	for _, tx := range txs {
		switch tx.Category {
		case domain.CategoryNeed:
			needsTotal += tx.Amount
		default:
			wantsTotal += tx.Amount
			wantDescriptions = append(wantDescriptions, tx.Description)
		}
	}

	recommendation := ""
	if rec != nil {
		text, err := rec.Recommend(ctx, needsTotal, wantsTotal, goal, wantDescriptions)
		if err != nil {
			log.Warn().Err(err).Msg("AI recommendation unavailable, using template")
		} else {
			recommendation = text
		}
	}
	if recommendation == "" {
		recommendation = fallbackRecommendation(needsTotal, wantsTotal, goal, warnRatio)
	}

	return domain.AnalysisResult{
		NeedsTotal:              needsTotal,
		WantsTotal:              wantsTotal,
		TotalSpending:           needsTotal + wantsTotal,
		SavingsGoal:             goal,
		Recommendation:          recommendation,
		CategorizedTransactions: txs,
	}
}

func fallbackRecommendation(needsTotal, wantsTotal, goal, warnRatio float64) string {
	if wantsTotal > goal*warnRatio {
		return fmt.Sprintf("Consider reducing your 'Want' spending of $%.2f to better meet your $%.0f savings goal!", wantsTotal, goal)
	}
	return fmt.Sprintf("Great job! You're on track with your $%.0f savings goal. Keep it up!", goal)
}
