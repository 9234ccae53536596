// Package session holds the per-account mutable state shared by foreground
// requests and the background report worker. Every account gets its own
// locked context inside a keyed store.
package session

import (
	"sync"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// LocalBucket is the reserved key for transactions added before onboarding
// has produced a real account id. They stay in this bucket; onboarding does
// not migrate them.
const LocalBucket = "local"

// Context is the session state for one account.
type Context struct {
	mu sync.Mutex

	customerID    string
	accountID     string
	savingsGoal   float64
	monthlyBudget float64

	added      []domain.Transaction
	tombstones []domain.Tombstone

	lastShown   []string
	seenSymbols []string
	seenIndex   map[string]bool
}

// Snapshot is a consistent copy of the fields the analysis pipeline reads.
type Snapshot struct {
	CustomerID    string
	AccountID     string
	SavingsGoal   float64
	MonthlyBudget float64
	Added         []domain.Transaction
	Tombstones    []domain.Tombstone
	LastShown     []string
	SeenSymbols   []string
}

// Snapshot returns a copy of the context taken under its lock.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		CustomerID:    c.customerID,
		AccountID:     c.accountID,
		SavingsGoal:   c.savingsGoal,
		MonthlyBudget: c.monthlyBudget,
		Added:         append([]domain.Transaction(nil), c.added...),
		Tombstones:    append([]domain.Tombstone(nil), c.tombstones...),
		LastShown:     append([]string(nil), c.lastShown...),
		SeenSymbols:   append([]string(nil), c.seenSymbols...),
	}
}

// SetIdentity records the sandbox customer and account ids from onboarding.
func (c *Context) SetIdentity(customerID, accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customerID = customerID
	c.accountID = accountID
}

// SetGoal records the savings goal and monthly budget.
func (c *Context) SetGoal(goal, budget float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.savingsGoal = goal
	c.monthlyBudget = budget
}

// AddTransaction appends a session-local transaction.
func (c *Context) AddTransaction(tx domain.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, tx)
}

// AddTombstone records intent to hide a transaction. Tombstones are never
// removed within a session.
func (c *Context) AddTombstone(ts domain.Tombstone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tombstones = append(c.tombstones, ts)
}

// RecordShown stores the symbols just returned by the trending pipeline and
// appends them to the cumulative seen-history without duplicates.
func (c *Context) RecordShown(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastShown = append([]string(nil), symbols...)
	if c.seenIndex == nil {
		c.seenIndex = make(map[string]bool)
		for _, s := range c.seenSymbols {
			c.seenIndex[s] = true
		}
	}
	for _, s := range symbols {
		if !c.seenIndex[s] {
			c.seenIndex[s] = true
			c.seenSymbols = append(c.seenSymbols, s)
		}
	}
}

// ResetSeen clears the trending seen-history and last-shown set.
func (c *Context) ResetSeen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastShown = nil
	c.seenSymbols = nil
	c.seenIndex = nil
}

// Store is a concurrency-safe keyed collection of account contexts.
type Store struct {
	mu       sync.RWMutex
	contexts map[string]*Context
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{contexts: make(map[string]*Context)}
}

// Get returns the context for key, creating it on first use.
func (s *Store) Get(key string) *Context {
	s.mu.RLock()
	c, ok := s.contexts[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contexts[key]; ok {
		return c
	}
	c = &Context{}
	s.contexts[key] = c
	return c
}

// Keys returns the account keys with live contexts, excluding the pre-onboarding
// local bucket.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.contexts))
	for k := range s.contexts {
		if k == LocalBucket {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
