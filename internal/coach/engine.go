package coach

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
	"github.com/dvloznov/finance-coach/internal/session"
)

// Engine exposes one synchronous method per use case. The routing layer and
// the background report worker both call into it; all shared state lives in
// the session store, which is safe for concurrent use.
type Engine struct {
	bank     BankClient
	advisor  Advisor
	news     HeadlineSource
	repo     Repository
	sessions *session.Store

	warnRatio float64
	log       zerolog.Logger

	mu      sync.Mutex
	current string // account key of the most recent onboarding
}

// Deps carries the engine's collaborators. Advisor, news and repo may be nil;
// the corresponding paths then use their fallbacks.
type Deps struct {
	Bank      BankClient
	Advisor   Advisor
	News      HeadlineSource
	Repo      Repository
	Sessions  *session.Store
	WarnRatio float64
	Log       zerolog.Logger
}

// NewEngine wires up an engine. A zero WarnRatio gets the historical 0.5
// default.
func NewEngine(deps Deps) *Engine {
	ratio := deps.WarnRatio
	if ratio <= 0 {
		ratio = 0.5
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}
	return &Engine{
		bank:      deps.Bank,
		advisor:   deps.Advisor,
		news:      deps.News,
		repo:      deps.Repo,
		sessions:  sessions,
		warnRatio: ratio,
		log:       deps.Log,
	}
}

// OnboardResult is the payload returned by Onboard.
type OnboardResult struct {
	CustomerID string `json:"customerId"`
	AccountID  string `json:"accountId"`
}

// Onboard creates a sandbox customer and checking account and best-effort
// seeds it with sample purchases. The bank client degrades to mock ids when
// the sandbox is unreachable, so onboarding only fails catastrophically.
func (e *Engine) Onboard(ctx context.Context) (*OnboardResult, error) {
	customerID, accountID, err := e.bank.CreateCustomerAndAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("Onboard: create customer and account: %w", err)
	}

	sess := e.sessions.Get(accountID)
	sess.SetIdentity(customerID, accountID)

	e.mu.Lock()
	e.current = accountID
	e.mu.Unlock()

	if err := e.bank.SeedTransactions(ctx, accountID); err != nil {
		e.log.Warn().Err(err).Str("account_id", accountID).Msg("Could not seed transactions")
	}

	if e.repo != nil {
		if err := e.repo.SaveAccount(ctx, customerID, accountID); err != nil {
			e.log.Warn().Err(err).Msg("Could not persist account")
		}
	}

	e.log.Info().Str("customer_id", customerID).Str("account_id", accountID).Msg("Onboarding complete")
	return &OnboardResult{CustomerID: customerID, AccountID: accountID}, nil
}

// GoalResult is the payload returned by SetGoal.
type GoalResult struct {
	Status    string  `json:"status"`
	GoalSet   float64 `json:"goalSet"`
	BudgetSet float64 `json:"budgetSet"`
}

// SetGoal validates and records the monthly savings goal and budget.
func (e *Engine) SetGoal(ctx context.Context, goal, budget float64) (*GoalResult, error) {
	if goal <= 0 {
		return nil, &domain.ValidationError{Field: "goal", Reason: "must be greater than 0"}
	}
	if budget <= 0 {
		return nil, &domain.ValidationError{Field: "budget", Reason: "must be greater than 0"}
	}
	if goal > budget {
		return nil, &domain.ValidationError{Field: "goal", Reason: "savings goal cannot be greater than budget"}
	}

	key := e.currentKey()
	e.sessions.Get(key).SetGoal(goal, budget)

	if e.repo != nil && key != session.LocalBucket {
		if err := e.repo.SaveGoal(ctx, key, goal, budget); err != nil {
			e.log.Warn().Err(err).Str("account_id", key).Msg("Could not persist goal")
		}
	}

	return &GoalResult{Status: "success", GoalSet: goal, BudgetSet: budget}, nil
}

// RunAnalysis analyzes the most recently onboarded account.
func (e *Engine) RunAnalysis(ctx context.Context) (*domain.AnalysisResult, error) {
	key := e.currentKey()
	if key == session.LocalBucket {
		return nil, domain.ErrNoTransactions
	}
	return e.AnalyzeAccount(ctx, key)
}

// AnalyzeAccount runs the full merge -> categorize -> aggregate pipeline for
// one account. The background report worker calls this directly.
func (e *Engine) AnalyzeAccount(ctx context.Context, accountKey string) (*domain.AnalysisResult, error) {
	snap := e.sessions.Get(accountKey).Snapshot()

	remote := e.fetchRemote(ctx, accountKey)

	merged, err := Merge(remote, snap.Added, snap.Tombstones)
	if err != nil {
		return nil, err
	}

	categorized := Categorize(ctx, e.categorizer(), merged, e.log)
	result := Aggregate(ctx, e.recommender(), categorized, snap.SavingsGoal, snap.MonthlyBudget, e.warnRatio, e.log)
	result.MonthlyBudget = snap.MonthlyBudget

	if e.repo != nil {
		if err := e.repo.SaveAnalysis(ctx, accountKey, result); err != nil {
			e.log.Warn().Err(err).Str("account_id", accountKey).Msg("Could not persist analysis")
		}
	}

	return &result, nil
}

// fetchRemote pulls sandbox transactions, substituting the synthesized
// sample set when the origin fails. The substitution is deliberate: an
// unreachable sandbox must never surface as a hard error here.
func (e *Engine) fetchRemote(ctx context.Context, accountKey string) []domain.Transaction {
	records, err := e.bank.FetchTransactions(ctx, accountKey)
	if err != nil {
		e.log.Warn().Err(err).Str("account_id", accountKey).Msg("Transaction fetch failed, using synthesized data")
		return NormalizeRecords(e.bank.SampleRecords(), domain.SourceLocal)
	}
	return NormalizeRecords(records, domain.SourceRemote)
}

// AddTransaction records a user-created transaction. Creation at the origin
// is attempted first; on failure the transaction lives only in the session.
// Before onboarding it lands in the reserved local bucket.
func (e *Engine) AddTransaction(ctx context.Context, description string, amount float64) (*domain.Transaction, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &domain.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if amount <= 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}

	key := e.currentKey()

	id := ""
	if key != session.LocalBucket {
		remoteID, err := e.bank.CreateTransaction(ctx, key, description, amount)
		if err != nil {
			e.log.Warn().Err(err).Msg("Sandbox transaction create failed, keeping it session-local")
		} else {
			id = remoteID
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	tx := domain.Transaction{
		ID:          id,
		Description: description,
		Amount:      amount,
		Source:      domain.SourceAdded,
	}
	e.sessions.Get(key).AddTransaction(tx)

	return &tx, nil
}

// RemoveTransaction hides a transaction. Deletion at the origin is
// best-effort; a tombstone is always recorded so the transaction never
// reappears in merge output, even when re-fetched with the same id. Removing
// an unknown id is a success (the tombstone simply never matches).
func (e *Engine) RemoveTransaction(ctx context.Context, id, description string, amount float64) error {
	if id == "" && strings.TrimSpace(description) == "" {
		return &domain.ValidationError{Field: "id", Reason: "transaction id or description is required"}
	}

	key := e.currentKey()

	if id != "" && key != session.LocalBucket {
		if err := e.bank.DeleteTransaction(ctx, key, id); err != nil {
			e.log.Warn().Err(err).Str("transaction_id", id).Msg("Sandbox delete failed, relying on tombstone")
		}
	}

	e.sessions.Get(key).AddTombstone(domain.Tombstone{
		ID:          id,
		Description: description,
		Amount:      amount,
	})
	return nil
}

// TrendingIdeas runs the dedup pipeline against the caller's avoid list and
// the session's accumulated history. reset clears the history first.
func (e *Engine) TrendingIdeas(ctx context.Context, avoid []string, seed int64, temperature float64, reset bool) (*domain.TrendingIdeaSet, error) {
	sess := e.sessions.Get(e.currentKey())
	if reset {
		sess.ResetSeen()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if temperature <= 0 {
		temperature = 0.9
	}

	snap := sess.Snapshot()
	set := BuildTrendingIdeas(ctx, e.ideaGenerator(), avoid, snap.LastShown, snap.SeenSymbols, seed, temperature, e.log)

	e.enrichReasons(ctx, set.Buys)
	e.enrichReasons(ctx, set.Sells)

	sess.RecordShown(ShownSymbols(set))
	return &set, nil
}

// enrichReasons upgrades idea reasons with a recent business headline when
// the news source is configured. Failures leave the original reason alone.
func (e *Engine) enrichReasons(ctx context.Context, ideas []domain.StockIdea) {
	if e.news == nil {
		return
	}
	for i := range ideas {
		query := strings.TrimSpace(ideas[i].Name + " " + ideas[i].Symbol)
		headline, err := e.news.TopHeadline(ctx, query)
		if err != nil || headline == "" {
			continue
		}
		ideas[i].Reason = "Latest headline: " + headline
	}
}

// CreditCards recommends cards matching the account's spending mix.
func (e *Engine) CreditCards(ctx context.Context) (*domain.CardSet, error) {
	key := e.currentKey()
	snap := e.sessions.Get(key).Snapshot()

	remote := e.fetchRemote(ctx, key)
	merged, err := Merge(remote, snap.Added, snap.Tombstones)
	if err != nil {
		merged = nil // cards still work with zero transaction signal
	}

	set := RecommendCards(ctx, e.cardAdvisor(), merged, e.log)
	return &set, nil
}

// InvestmentIdea returns an educational concept once wants spending is at or
// below the warn ratio of the savings goal, otherwise an encouragement to
// keep saving.
func (e *Engine) InvestmentIdea(ctx context.Context) (*domain.InvestmentConcept, error) {
	analysis, err := e.RunAnalysis(ctx)
	if err != nil {
		return nil, err
	}

	goal := analysis.SavingsGoal
	if analysis.WantsTotal > goal*e.warnRatio {
		return &domain.InvestmentConcept{
			Title:       "Keep Saving!",
			Explanation: fmt.Sprintf("You're making progress toward your $%.0f goal. Keep up the good work!", goal),
		}, nil
	}

	if e.advisor != nil {
		concept, err := e.advisor.InvestmentConcept(ctx, goal)
		if err == nil && concept != nil && concept.Explanation != "" {
			return concept, nil
		}
		if err != nil {
			e.log.Warn().Err(err).Msg("AI investment concept unavailable, using fallback")
		}
	}

	return &domain.InvestmentConcept{
		Title: "Congratulations on Reaching Your Goal!",
		Explanation: fmt.Sprintf("Congratulations on reaching your $%.0f savings goal! As you keep building savings, "+
			"you may want to learn about index funds: bundles of many stocks that provide diversification compared to "+
			"picking individual companies. This is general educational information, not personal advice. "+
			"Celebrate the milestone - you've earned it!", goal),
	}, nil
}

// SaveStocks persists the user's pinned stocks, deduplicated by symbol.
func (e *Engine) SaveStocks(ctx context.Context, stocks []domain.SavedStock) error {
	cleaned := make([]domain.SavedStock, 0, len(stocks))
	for _, s := range stocks {
		sym := normalizeSymbol(s.Symbol)
		if sym == "" {
			continue
		}
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = sym
		}
		cleaned = append(cleaned, domain.SavedStock{Symbol: sym, Name: name})
	}
	if len(cleaned) == 0 {
		return &domain.ValidationError{Field: "stocks", Reason: "at least one symbol is required"}
	}
	if e.repo == nil {
		return fmt.Errorf("SaveStocks: no repository configured")
	}
	if err := e.repo.SaveStocks(ctx, e.currentKey(), cleaned); err != nil {
		return fmt.Errorf("SaveStocks: %w", err)
	}
	return nil
}

// SavedStocks lists the user's pinned stocks.
func (e *Engine) SavedStocks(ctx context.Context) ([]domain.SavedStock, error) {
	if e.repo == nil {
		return nil, nil
	}
	stocks, err := e.repo.ListSavedStocks(ctx, e.currentKey())
	if err != nil {
		return nil, fmt.Errorf("SavedStocks: %w", err)
	}
	return stocks, nil
}

// AccountKeys lists the onboarded accounts, for the report worker.
func (e *Engine) AccountKeys() []string {
	return e.sessions.Keys()
}

func (e *Engine) currentKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == "" {
		return session.LocalBucket
	}
	return e.current
}

// The advisor accessors keep nil handling in one place: a nil Advisor means
// every generative interface is absent.
func (e *Engine) categorizer() Categorizer {
	if e.advisor == nil {
		return nil
	}
	return e.advisor
}

func (e *Engine) recommender() Recommender {
	if e.advisor == nil {
		return nil
	}
	return e.advisor
}

func (e *Engine) ideaGenerator() IdeaGenerator {
	if e.advisor == nil {
		return nil
	}
	return e.advisor
}

func (e *Engine) cardAdvisor() CardAdvisor {
	if e.advisor == nil {
		return nil
	}
	return e.advisor
}
