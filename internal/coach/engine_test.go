package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

type mockBank struct {
	createFunc   func(ctx context.Context) (string, string, error)
	seedFunc     func(ctx context.Context, accountID string) error
	fetchFunc    func(ctx context.Context, accountID string) ([]map[string]interface{}, error)
	createTxFunc func(ctx context.Context, accountID, description string, amount float64) (string, error)
	deleteFunc   func(ctx context.Context, accountID, id string) error
	samples      []map[string]interface{}
}

func (m *mockBank) CreateCustomerAndAccount(ctx context.Context) (string, string, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx)
	}
	return "cust-1", "acct-1", nil
}

func (m *mockBank) SeedTransactions(ctx context.Context, accountID string) error {
	if m.seedFunc != nil {
		return m.seedFunc(ctx, accountID)
	}
	return nil
}

func (m *mockBank) FetchTransactions(ctx context.Context, accountID string) ([]map[string]interface{}, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, accountID)
	}
	return nil, domain.ErrSourceUnavailable
}

func (m *mockBank) CreateTransaction(ctx context.Context, accountID, description string, amount float64) (string, error) {
	if m.createTxFunc != nil {
		return m.createTxFunc(ctx, accountID, description, amount)
	}
	return "", errors.New("sandbox unreachable")
}

func (m *mockBank) DeleteTransaction(ctx context.Context, accountID, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, accountID, id)
	}
	return nil
}

func (m *mockBank) SampleRecords() []map[string]interface{} {
	if m.samples != nil {
		return m.samples
	}
	return []map[string]interface{}{
		{"description": "HEB Grocery Store", "amount": 120.0},
		{"description": "Netflix", "amount": 15.0},
	}
}

type mockRepo struct {
	accounts []string
	goals    map[string]float64
	analyses int
	stocks   map[string][]domain.SavedStock
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		goals:  make(map[string]float64),
		stocks: make(map[string][]domain.SavedStock),
	}
}

func (m *mockRepo) SaveAccount(ctx context.Context, customerID, accountID string) error {
	m.accounts = append(m.accounts, accountID)
	return nil
}

func (m *mockRepo) SaveGoal(ctx context.Context, accountID string, goal, budget float64) error {
	m.goals[accountID] = goal
	return nil
}

func (m *mockRepo) SaveAnalysis(ctx context.Context, accountID string, result domain.AnalysisResult) error {
	m.analyses++
	return nil
}

func (m *mockRepo) SaveStocks(ctx context.Context, accountID string, stocks []domain.SavedStock) error {
	m.stocks[accountID] = append(m.stocks[accountID], stocks...)
	return nil
}

func (m *mockRepo) ListSavedStocks(ctx context.Context, accountID string) ([]domain.SavedStock, error) {
	return m.stocks[accountID], nil
}

type mockNews struct {
	headlineFunc func(ctx context.Context, query string) (string, error)
}

func (m *mockNews) TopHeadline(ctx context.Context, query string) (string, error) {
	if m.headlineFunc != nil {
		return m.headlineFunc(ctx, query)
	}
	return "", nil
}

type mockAdvisor struct {
	categorizeFunc func(ctx context.Context, descriptions []string) ([]domain.Category, error)
	recommendFunc  func(ctx context.Context, needsTotal, wantsTotal, goal float64, wantDescriptions []string) (string, error)
	trendingFunc   func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error)
	cardsFunc      func(ctx context.Context, spendingCategories []string) (*domain.CardSet, error)
	conceptFunc    func(ctx context.Context, goal float64) (*domain.InvestmentConcept, error)
}

func (m *mockAdvisor) CategorizeTransactions(ctx context.Context, descriptions []string) ([]domain.Category, error) {
	if m.categorizeFunc != nil {
		return m.categorizeFunc(ctx, descriptions)
	}
	return nil, domain.ErrSourceUnavailable
}

func (m *mockAdvisor) Recommend(ctx context.Context, needsTotal, wantsTotal, goal float64, wantDescriptions []string) (string, error) {
	if m.recommendFunc != nil {
		return m.recommendFunc(ctx, needsTotal, wantsTotal, goal, wantDescriptions)
	}
	return "", domain.ErrSourceUnavailable
}

func (m *mockAdvisor) TrendingIdeas(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
	if m.trendingFunc != nil {
		return m.trendingFunc(ctx, avoid, seed, temperature)
	}
	return nil, domain.ErrSourceUnavailable
}

func (m *mockAdvisor) CreditCards(ctx context.Context, spendingCategories []string) (*domain.CardSet, error) {
	if m.cardsFunc != nil {
		return m.cardsFunc(ctx, spendingCategories)
	}
	return nil, domain.ErrSourceUnavailable
}

func (m *mockAdvisor) InvestmentConcept(ctx context.Context, goal float64) (*domain.InvestmentConcept, error) {
	if m.conceptFunc != nil {
		return m.conceptFunc(ctx, goal)
	}
	return nil, domain.ErrSourceUnavailable
}

func newTestEngine(bank BankClient, adv Advisor, repo Repository) *Engine {
	return NewEngine(Deps{
		Bank:    bank,
		Advisor: adv,
		Repo:    repo,
		Log:     zerolog.Nop(),
	})
}

func TestOnboardThenAnalyze(t *testing.T) {
	ctx := context.Background()
	bank := &mockBank{
		fetchFunc: func(ctx context.Context, accountID string) ([]map[string]interface{}, error) {
			return []map[string]interface{}{
				{"_id": "r1", "description": "HEB Grocery Store", "amount": 120.0},
				{"_id": "r2", "description": "Netflix", "amount": 15.0},
			}, nil
		},
	}
	repo := newMockRepo()
	engine := newTestEngine(bank, nil, repo)

	onboard, err := engine.Onboard(ctx)
	if err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}
	if onboard.CustomerID != "cust-1" || onboard.AccountID != "acct-1" {
		t.Errorf("onboard = %+v, want cust-1/acct-1", onboard)
	}
	if len(repo.accounts) != 1 {
		t.Errorf("persisted accounts = %d, want 1", len(repo.accounts))
	}

	if _, err := engine.SetGoal(ctx, 500, 2000); err != nil {
		t.Fatalf("SetGoal() error = %v", err)
	}
	if repo.goals["acct-1"] != 500 {
		t.Errorf("persisted goal = %v, want 500", repo.goals["acct-1"])
	}

	result, err := engine.RunAnalysis(ctx)
	if err != nil {
		t.Fatalf("RunAnalysis() error = %v", err)
	}
	if result.NeedsTotal != 120 {
		t.Errorf("NeedsTotal = %v, want 120 (grocery keyword)", result.NeedsTotal)
	}
	if result.WantsTotal != 15 {
		t.Errorf("WantsTotal = %v, want 15", result.WantsTotal)
	}
	if result.SavingsGoal != 500 {
		t.Errorf("SavingsGoal = %v, want 500", result.SavingsGoal)
	}
	if repo.analyses != 1 {
		t.Errorf("persisted analyses = %d, want 1", repo.analyses)
	}
}

func TestAnalyzeUnreachableOriginUsesSamples(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(&mockBank{}, nil, nil)

	if _, err := engine.Onboard(ctx); err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}

	result, err := engine.RunAnalysis(ctx)
	if err != nil {
		t.Fatalf("RunAnalysis() error = %v, want synthesized fallback", err)
	}
	if len(result.CategorizedTransactions) != 2 {
		t.Errorf("transactions = %d, want the 2 sample records", len(result.CategorizedTransactions))
	}
	for _, tx := range result.CategorizedTransactions {
		if tx.Source != domain.SourceLocal {
			t.Errorf("source = %q, want %q for synthesized data", tx.Source, domain.SourceLocal)
		}
	}
}

func TestAnalysisBeforeOnboarding(t *testing.T) {
	engine := newTestEngine(&mockBank{}, nil, nil)

	_, err := engine.RunAnalysis(context.Background())
	if !errors.Is(err, domain.ErrNoTransactions) {
		t.Errorf("RunAnalysis() before onboarding error = %v, want ErrNoTransactions", err)
	}
}

func TestPreOnboardingAdditionsStayLocal(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(&mockBank{}, nil, nil)

	// Added before any account exists: lands in the local bucket.
	if _, err := engine.AddTransaction(ctx, "Early coffee", 5); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	// Still no analyzable account.
	if _, err := engine.RunAnalysis(ctx); !errors.Is(err, domain.ErrNoTransactions) {
		t.Fatalf("RunAnalysis() error = %v, want ErrNoTransactions", err)
	}

	// Onboarding starts a fresh session; the local bucket does not migrate.
	if _, err := engine.Onboard(ctx); err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}
	result, err := engine.RunAnalysis(ctx)
	if err != nil {
		t.Fatalf("RunAnalysis() error = %v", err)
	}
	for _, tx := range result.CategorizedTransactions {
		if tx.Description == "Early coffee" {
			t.Error("pre-onboarding addition leaked into the account session")
		}
	}
}

func TestSetGoalValidation(t *testing.T) {
	engine := newTestEngine(&mockBank{}, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		goal   float64
		budget float64
	}{
		{"zero goal", 0, 2000},
		{"negative goal", -5, 2000},
		{"zero budget", 500, 0},
		{"goal above budget", 2500, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.SetGoal(ctx, tt.goal, tt.budget)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("SetGoal(%v, %v) error = %v, want ValidationError", tt.goal, tt.budget, err)
			}
		})
	}

	result, err := engine.SetGoal(ctx, 500, 2000)
	if err != nil {
		t.Fatalf("SetGoal(valid) error = %v", err)
	}
	if result.Status != "success" || result.GoalSet != 500 {
		t.Errorf("result = %+v, want success with goal 500", result)
	}
}

func TestAddAndRemoveTransaction(t *testing.T) {
	ctx := context.Background()
	bank := &mockBank{
		fetchFunc: func(ctx context.Context, accountID string) ([]map[string]interface{}, error) {
			return []map[string]interface{}{
				{"_id": "r1", "description": "Rent", "amount": 950.0},
			}, nil
		},
		createTxFunc: func(ctx context.Context, accountID, description string, amount float64) (string, error) {
			return "remote-tx-1", nil
		},
	}
	engine := newTestEngine(bank, nil, nil)

	if _, err := engine.Onboard(ctx); err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}

	added, err := engine.AddTransaction(ctx, "Concert tickets", 80)
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if added.ID != "remote-tx-1" {
		t.Errorf("added.ID = %q, want the origin-assigned id", added.ID)
	}
	if added.Source != domain.SourceAdded {
		t.Errorf("added.Source = %q, want %q", added.Source, domain.SourceAdded)
	}

	result, err := engine.RunAnalysis(ctx)
	if err != nil {
		t.Fatalf("RunAnalysis() error = %v", err)
	}
	if len(result.CategorizedTransactions) != 2 {
		t.Fatalf("transactions = %d, want remote + added", len(result.CategorizedTransactions))
	}
	// Remote order first, additions appended.
	if result.CategorizedTransactions[1].Description != "Concert tickets" {
		t.Errorf("last transaction = %q, want the addition appended", result.CategorizedTransactions[1].Description)
	}

	if err := engine.RemoveTransaction(ctx, "remote-tx-1", "Concert tickets", 80); err != nil {
		t.Fatalf("RemoveTransaction() error = %v", err)
	}
	result, err = engine.RunAnalysis(ctx)
	if err != nil {
		t.Fatalf("RunAnalysis() after removal error = %v", err)
	}
	if len(result.CategorizedTransactions) != 1 {
		t.Errorf("transactions = %d, want 1 after removal", len(result.CategorizedTransactions))
	}
}

func TestAddTransactionValidation(t *testing.T) {
	engine := newTestEngine(&mockBank{}, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddTransaction(ctx, "  ", 5); err == nil {
		t.Error("AddTransaction(blank description) = nil, want ValidationError")
	}
	if _, err := engine.AddTransaction(ctx, "Coffee", 0); err == nil {
		t.Error("AddTransaction(zero amount) = nil, want ValidationError")
	}
	if _, err := engine.AddTransaction(ctx, "Coffee", -3); err == nil {
		t.Error("AddTransaction(negative amount) = nil, want ValidationError")
	}
}

func TestRemoveUnknownTransactionSucceeds(t *testing.T) {
	engine := newTestEngine(&mockBank{}, nil, nil)

	if err := engine.RemoveTransaction(context.Background(), "no-such-id", "", 0); err != nil {
		t.Errorf("RemoveTransaction(unknown) error = %v, want nil", err)
	}
}

func TestTrendingIdeasAccumulatesHistory(t *testing.T) {
	ctx := context.Background()
	var served [][]string
	adv := &mockAdvisor{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			served = append(served, avoid)
			// Fresh symbols keyed off the call count so consecutive requests
			// have something new to say.
			n := len(served)
			return &domain.IdeaBatch{
				Buys: []domain.StockIdea{
					{Symbol: fmt.Sprintf("BA%d", n), Name: "a", Reason: "r"},
					{Symbol: fmt.Sprintf("BB%d", n), Name: "b", Reason: "r"},
					{Symbol: fmt.Sprintf("BC%d", n), Name: "c", Reason: "r"},
				},
				Sells: []domain.StockIdea{
					{Symbol: fmt.Sprintf("SA%d", n), Name: "d", Reason: "r"},
					{Symbol: fmt.Sprintf("SB%d", n), Name: "e", Reason: "r"},
					{Symbol: fmt.Sprintf("SC%d", n), Name: "f", Reason: "r"},
				},
			}, nil
		},
	}
	engine := newTestEngine(&mockBank{}, adv, nil)

	first, err := engine.TrendingIdeas(ctx, nil, 42, 0.9, false)
	if err != nil {
		t.Fatalf("TrendingIdeas() error = %v", err)
	}
	second, err := engine.TrendingIdeas(ctx, nil, 43, 0.9, false)
	if err != nil {
		t.Fatalf("TrendingIdeas() second call error = %v", err)
	}

	firstShown := make(map[string]bool)
	for _, sym := range ShownSymbols(*first) {
		firstShown[sym] = true
	}
	for _, sym := range ShownSymbols(*second) {
		if firstShown[sym] {
			t.Errorf("symbol %q repeated across consecutive calls", sym)
		}
	}

	// The second request's avoid list carries the first result.
	lastAvoid := served[len(served)-1]
	avoidSet := make(map[string]bool)
	for _, sym := range lastAvoid {
		avoidSet[sym] = true
	}
	for sym := range firstShown {
		if !avoidSet[sym] {
			t.Errorf("avoid list missing previously shown %q", sym)
		}
	}
}

func TestTrendingIdeasReset(t *testing.T) {
	ctx := context.Background()
	adv := &mockAdvisor{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			return &domain.IdeaBatch{
				Buys:  ideas("PLTR", "SOFI", "RIVN"),
				Sells: ideas("WISH", "CLOV", "BBBY"),
			}, nil
		},
	}
	engine := newTestEngine(&mockBank{}, adv, nil)

	first, err := engine.TrendingIdeas(ctx, nil, 42, 0.9, false)
	if err != nil {
		t.Fatalf("TrendingIdeas() error = %v", err)
	}
	// Without reset the model's only output is exhausted and the static pool
	// takes over; with reset the same symbols come back.
	second, err := engine.TrendingIdeas(ctx, nil, 42, 0.9, true)
	if err != nil {
		t.Fatalf("TrendingIdeas(reset) error = %v", err)
	}
	if first.Buys[0].Symbol != second.Buys[0].Symbol {
		t.Errorf("reset did not clear history: %q vs %q", first.Buys[0].Symbol, second.Buys[0].Symbol)
	}
}

func TestTrendingIdeasHeadlineEnrichment(t *testing.T) {
	ctx := context.Background()
	adv := &mockAdvisor{
		trendingFunc: func(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
			return &domain.IdeaBatch{
				Buys:  ideas("PLTR", "SOFI", "RIVN"),
				Sells: ideas("WISH", "CLOV", "BBBY"),
			}, nil
		},
	}
	news := &mockNews{
		headlineFunc: func(ctx context.Context, query string) (string, error) {
			if strings.Contains(query, "PLTR") {
				return "Palantir wins new contract", nil
			}
			return "", nil
		},
	}
	engine := NewEngine(Deps{Bank: &mockBank{}, Advisor: adv, News: news, Log: zerolog.Nop()})

	set, err := engine.TrendingIdeas(ctx, nil, 42, 0.9, false)
	if err != nil {
		t.Fatalf("TrendingIdeas() error = %v", err)
	}
	if set.Buys[0].Reason != "Latest headline: Palantir wins new contract" {
		t.Errorf("reason = %q, want headline enrichment", set.Buys[0].Reason)
	}
	// No headline leaves the original reason untouched.
	if set.Buys[1].Reason != "test" {
		t.Errorf("reason = %q, want original reason preserved", set.Buys[1].Reason)
	}
}

func TestInvestmentIdeaThreshold(t *testing.T) {
	ctx := context.Background()
	makeEngine := func(wantsAmount float64) *Engine {
		bank := &mockBank{
			fetchFunc: func(ctx context.Context, accountID string) ([]map[string]interface{}, error) {
				return []map[string]interface{}{
					{"_id": "r1", "description": "Netflix", "amount": wantsAmount},
				}, nil
			},
		}
		adv := &mockAdvisor{
			conceptFunc: func(ctx context.Context, goal float64) (*domain.InvestmentConcept, error) {
				return &domain.InvestmentConcept{Title: "Index Funds", Explanation: "Diversification explained."}, nil
			},
		}
		engine := newTestEngine(bank, adv, nil)
		if _, err := engine.Onboard(ctx); err != nil {
			t.Fatalf("Onboard() error = %v", err)
		}
		if _, err := engine.SetGoal(ctx, 500, 2000); err != nil {
			t.Fatalf("SetGoal() error = %v", err)
		}
		return engine
	}

	// Wants above half the goal: keep saving.
	concept, err := makeEngine(300).InvestmentIdea(ctx)
	if err != nil {
		t.Fatalf("InvestmentIdea() error = %v", err)
	}
	if concept.Title != "Keep Saving!" {
		t.Errorf("title = %q, want Keep Saving!", concept.Title)
	}

	// Wants at or below half the goal: the educational concept.
	concept, err = makeEngine(200).InvestmentIdea(ctx)
	if err != nil {
		t.Fatalf("InvestmentIdea() error = %v", err)
	}
	if concept.Title != "Index Funds" {
		t.Errorf("title = %q, want the advisor concept", concept.Title)
	}
}

func TestSaveAndListStocks(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	engine := newTestEngine(&mockBank{}, nil, repo)

	err := engine.SaveStocks(ctx, []domain.SavedStock{
		{Symbol: " aapl ", Name: "Apple"},
		{Symbol: "msft"},
		{Symbol: "   "},
	})
	if err != nil {
		t.Fatalf("SaveStocks() error = %v", err)
	}

	stocks, err := engine.SavedStocks(ctx)
	if err != nil {
		t.Fatalf("SavedStocks() error = %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("stocks = %d, want 2 after dropping the blank symbol", len(stocks))
	}
	if stocks[0].Symbol != "AAPL" {
		t.Errorf("symbol = %q, want normalized AAPL", stocks[0].Symbol)
	}
	if stocks[1].Name != "MSFT" {
		t.Errorf("name = %q, want symbol reused when name missing", stocks[1].Name)
	}

	if err := engine.SaveStocks(ctx, []domain.SavedStock{{Symbol: "  "}}); err == nil {
		t.Error("SaveStocks(all blank) = nil, want ValidationError")
	}
}

func TestCreditCardsWithoutTransactions(t *testing.T) {
	// Card recommendations still work before onboarding: zero transaction
	// signal yields the static pool.
	engine := newTestEngine(&mockBank{samples: []map[string]interface{}{}}, nil, nil)

	set, err := engine.CreditCards(context.Background())
	if err != nil {
		t.Fatalf("CreditCards() error = %v", err)
	}
	if len(set.Cards) == 0 {
		t.Error("cards empty, want static fallback")
	}
}
