package coach

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// CardAdvisor is the generative credit-card recommendation call.
type CardAdvisor interface {
	CreditCards(ctx context.Context, spendingCategories []string) (*domain.CardSet, error)
}

const cardsDisclaimer = "General information only. Offers and terms vary; verify current details. Not financial advice."

// fallbackCards mirrors the static recommendations used when the model is
// unavailable or returns something unusable.
var fallbackCards = []domain.CreditCard{
	{
		Name:              "Blue Cash Everyday",
		Issuer:            "American Express",
		Rewards:           []string{"3% back at U.S. supermarkets", "3% back on U.S. gas", "1% back other"},
		Why:               "Strong everyday categories for groceries and gas.",
		Suitability:       82,
		CategoriesMatched: []string{"grocery", "gas"},
	},
	{
		Name:              "SavorOne",
		Issuer:            "Capital One",
		Rewards:           []string{"3% back dining", "3% back entertainment", "3% back popular streaming", "3% at grocery stores"},
		Why:               "Well-rounded dining, entertainment, streaming, and grocery rewards.",
		Suitability:       80,
		CategoriesMatched: []string{"dining", "entertainment", "streaming", "grocery"},
	},
	{
		Name:              "Citi Custom Cash",
		Issuer:            "Citi",
		Rewards:           []string{"5% back top category (up to cap)", "1% back other"},
		Why:               "Automatically adapts to your highest monthly category.",
		Suitability:       79,
		CategoriesMatched: []string{"dining", "gas", "grocery", "travel", "streaming"},
	},
	{
		Name:              "Discover it Cash Back",
		Issuer:            "Discover",
		Rewards:           []string{"5% rotating categories (activation)", "1% back other"},
		Why:               "Quarterly rotating 5% categories can align with your spend.",
		Suitability:       75,
		CategoriesMatched: []string{"grocery", "gas", "online"},
	},
}

// spendingKeywords maps description fragments to the coarse categories the
// card prompt understands.
var spendingKeywords = map[string]string{
	"grocery":      "grocery",
	"supermarket":  "grocery",
	"market":       "grocery",
	"gas":          "gas",
	"fuel":         "gas",
	"restaurant":   "dining",
	"grill":        "dining",
	"pizza":        "dining",
	"coffee":       "dining",
	"subscription": "streaming",
	"premium":      "streaming",
	"theater":      "entertainment",
	"cinema":       "entertainment",
	"clothing":     "shopping",
	"pharmacy":     "health",
	"insurance":    "insurance",
	"uber":         "travel",
	"ride":         "travel",
}

// SpendingCategories derives the coarse category set present in a
// transaction batch, in first-seen order.
func SpendingCategories(txs []domain.Transaction) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, tx := range txs {
		lower := strings.ToLower(tx.Description)
		for kw, cat := range spendingKeywords {
			if strings.Contains(lower, kw) && !seen[cat] {
				seen[cat] = true
				categories = append(categories, cat)
			}
		}
	}
	return categories
}

// RecommendCards asks the advisor for card suggestions matching the user's
// spending categories, falling back to the static pool on any failure.
func RecommendCards(ctx context.Context, adv CardAdvisor, txs []domain.Transaction, log zerolog.Logger) domain.CardSet {
	categories := SpendingCategories(txs)

	if adv != nil {
		set, err := adv.CreditCards(ctx, categories)
		if err == nil && set != nil && len(set.Cards) > 0 {
			if set.Disclaimer == "" {
				set.Disclaimer = cardsDisclaimer
			}
			return *set
		}
		if err != nil {
			log.Warn().Err(err).Msg("AI card recommendation unavailable, using static pool")
		}
	}

	return domain.CardSet{
		Cards:      append([]domain.CreditCard(nil), fallbackCards...),
		Disclaimer: cardsDisclaimer,
	}
}
