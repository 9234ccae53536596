package domain

// AnalysisResult is the payload returned by a spending analysis run.
type AnalysisResult struct {
	NeedsTotal              float64       `json:"needsTotal"`
	WantsTotal              float64       `json:"wantsTotal"`
	TotalSpending           float64       `json:"totalSpending"`
	MonthlyBudget           float64       `json:"monthlyBudget"`
	SavingsGoal             float64       `json:"savingsGoal"`
	Recommendation          string        `json:"recommendation"`
	CategorizedTransactions []Transaction `json:"categorizedTransactions"`
}

// StockIdea is one trending buy or sell suggestion.
type StockIdea struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IdeaBatch holds the raw buy/sell ideas returned by one generative call.
type IdeaBatch struct {
	Buys  []StockIdea `json:"buys"`
	Sells []StockIdea `json:"sells"`
}

// TrendingIdeaSet is the final trending payload: always exactly three buys
// and three sells.
type TrendingIdeaSet struct {
	Buys       []StockIdea `json:"buys"`
	Sells      []StockIdea `json:"sells"`
	Disclaimer string      `json:"disclaimer"`
}

// CreditCard is one recommended card.
type CreditCard struct {
	Name              string   `json:"name"`
	Issuer            string   `json:"issuer"`
	Rewards           []string `json:"rewards"`
	Why               string   `json:"why"`
	Suitability       int      `json:"suitability"`
	CategoriesMatched []string `json:"categoriesMatched"`
}

// CardSet is the credit-card recommendation payload.
type CardSet struct {
	Cards      []CreditCard `json:"cards"`
	Disclaimer string       `json:"disclaimer"`
}

// InvestmentConcept is an educational explanation, not advice.
type InvestmentConcept struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// SavedStock is a stock the user pinned from the trending card.
type SavedStock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
