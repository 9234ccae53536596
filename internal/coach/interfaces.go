package coach

import (
	"context"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// BankClient is the outbound contract to the banking sandbox. All calls are
// best-effort from the engine's point of view; failure routes into the
// synthesized-data or tombstone fallbacks.
type BankClient interface {
	CreateCustomerAndAccount(ctx context.Context) (customerID, accountID string, err error)
	SeedTransactions(ctx context.Context, accountID string) error
	FetchTransactions(ctx context.Context, accountID string) ([]map[string]interface{}, error)
	CreateTransaction(ctx context.Context, accountID, description string, amount float64) (id string, err error)
	DeleteTransaction(ctx context.Context, accountID, id string) error

	// SampleRecords returns the synthesized stand-in transactions used when
	// the origin is unreachable.
	SampleRecords() []map[string]interface{}
}

// Advisor bundles every generative call the engine makes. A nil Advisor
// means all generative paths fall back deterministically.
type Advisor interface {
	Categorizer
	Recommender
	IdeaGenerator
	CardAdvisor
	InvestmentConcept(ctx context.Context, goal float64) (*domain.InvestmentConcept, error)
}

// HeadlineSource enriches stock ideas with a recent headline. Purely
// additive; absence never blocks output.
type HeadlineSource interface {
	TopHeadline(ctx context.Context, query string) (string, error)
}

// Repository is the durable persistence consumed by the engine. Analysis and
// goal writes are best-effort; saved stocks are the durable feature itself
// and their errors surface.
type Repository interface {
	SaveAccount(ctx context.Context, customerID, accountID string) error
	SaveGoal(ctx context.Context, accountID string, goal, budget float64) error
	SaveAnalysis(ctx context.Context, accountID string, result domain.AnalysisResult) error
	SaveStocks(ctx context.Context, accountID string, stocks []domain.SavedStock) error
	ListSavedStocks(ctx context.Context, accountID string) ([]domain.SavedStock, error)
}
