// Package store persists accounts, goals, analyses and saved stock picks in
// a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/dvloznov/finance-coach/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS goals (
	account_id TEXT PRIMARY KEY,
	savings_goal REAL NOT NULL,
	monthly_budget REAL NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL,
	needs_total REAL NOT NULL,
	wants_total REAL NOT NULL,
	total_spending REAL NOT NULL,
	recommendation TEXT,
	transactions_json TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS saved_stocks (
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	name TEXT,
	saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(account_id, symbol)
);
`

// Store is a SQLite-backed repository for coaching state.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: open database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: ensure schema: %w", err)
	}
	log.Info().Str("path", path).Msg("Database ready")
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAccount records a provisioned customer/account pair. Re-onboarding the
// same account is a no-op.
func (s *Store) SaveAccount(ctx context.Context, customerID, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (account_id, customer_id) VALUES (?, ?)
		 ON CONFLICT(account_id) DO NOTHING`,
		accountID, customerID)
	if err != nil {
		return fmt.Errorf("SaveAccount: insert account %s: %w", accountID, err)
	}
	return nil
}

// SaveGoal upserts the savings goal and monthly budget for an account.
func (s *Store) SaveGoal(ctx context.Context, accountID string, savingsGoal, monthlyBudget float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (account_id, savings_goal, monthly_budget) VALUES (?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET
			savings_goal = excluded.savings_goal,
			monthly_budget = excluded.monthly_budget,
			updated_at = CURRENT_TIMESTAMP`,
		accountID, savingsGoal, monthlyBudget)
	if err != nil {
		return fmt.Errorf("SaveGoal: upsert goal for %s: %w", accountID, err)
	}
	return nil
}

// SaveAnalysis appends an analysis snapshot for an account. The categorized
// transactions are stored as JSON so the history stays self-contained.
func (s *Store) SaveAnalysis(ctx context.Context, accountID string, result domain.AnalysisResult) error {
	txJSON, err := json.Marshal(result.CategorizedTransactions)
	if err != nil {
		return fmt.Errorf("SaveAnalysis: marshal transactions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (account_id, needs_total, wants_total, total_spending, recommendation, transactions_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, result.NeedsTotal, result.WantsTotal, result.TotalSpending,
		result.Recommendation, string(txJSON))
	if err != nil {
		return fmt.Errorf("SaveAnalysis: insert analysis for %s: %w", accountID, err)
	}
	return nil
}

// SaveStocks records the given picks for an account, skipping symbols that
// are already saved.
func (s *Store) SaveStocks(ctx context.Context, accountID string, stocks []domain.SavedStock) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveStocks: begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stock := range stocks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO saved_stocks (account_id, symbol, name) VALUES (?, ?, ?)
			 ON CONFLICT(account_id, symbol) DO NOTHING`,
			accountID, stock.Symbol, stock.Name); err != nil {
			return fmt.Errorf("SaveStocks: insert %s for %s: %w", stock.Symbol, accountID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SaveStocks: commit: %w", err)
	}
	return nil
}

// ListSavedStocks returns the saved picks for an account, newest first.
func (s *Store) ListSavedStocks(ctx context.Context, accountID string) ([]domain.SavedStock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, name FROM saved_stocks WHERE account_id = ? ORDER BY saved_at DESC, symbol`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("ListSavedStocks: query for %s: %w", accountID, err)
	}
	defer rows.Close()

	var stocks []domain.SavedStock
	for rows.Next() {
		var stock domain.SavedStock
		if err := rows.Scan(&stock.Symbol, &stock.Name); err != nil {
			return nil, fmt.Errorf("ListSavedStocks: scan row: %w", err)
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSavedStocks: iterate rows: %w", err)
	}
	return stocks, nil
}

// LatestAnalysis returns the most recent analysis snapshot for an account,
// or a NotFoundError when none has been recorded.
func (s *Store) LatestAnalysis(ctx context.Context, accountID string) (domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	var txJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT needs_total, wants_total, total_spending, recommendation, transactions_json
		 FROM analyses WHERE account_id = ? ORDER BY id DESC LIMIT 1`,
		accountID).Scan(&result.NeedsTotal, &result.WantsTotal, &result.TotalSpending,
		&result.Recommendation, &txJSON)
	if err == sql.ErrNoRows {
		return domain.AnalysisResult{}, &domain.NotFoundError{Resource: "analysis", ID: accountID}
	}
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("LatestAnalysis: query for %s: %w", accountID, err)
	}
	if txJSON != "" {
		if err := json.Unmarshal([]byte(txJSON), &result.CategorizedTransactions); err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("LatestAnalysis: decode transactions: %w", err)
		}
	}
	return result, nil
}
