package domain

import (
	"math"
	"strings"
)

// Category is the binary Need/Want spending classification.
type Category string

const (
	CategoryNeed Category = "Need"
	CategoryWant Category = "Want"
)

// Source records where a transaction came from.
type Source string

const (
	// SourceRemote marks transactions fetched from the banking sandbox.
	SourceRemote Source = "remote"
	// SourceLocal marks synthesized stand-in transactions used when the
	// sandbox is unreachable.
	SourceLocal Source = "local"
	// SourceAdded marks transactions created by the user in this session.
	SourceAdded Source = "added"
)

// Transaction is the canonical unit flowing through the analysis pipeline.
// Category is empty until the categorization chain has run; everything the
// aggregation engine sees carries exactly one category.
type Transaction struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Source      Source   `json:"source"`
	Category    Category `json:"category,omitempty"`
}

// amountEpsilon tolerates float representation drift when matching
// tombstones by (description, amount).
const amountEpsilon = 0.005

// Tombstone records user intent to hide a transaction. It matches either by
// id or, for origins with unstable ids, by normalized description and amount.
type Tombstone struct {
	ID          string  `json:"id,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// Matches reports whether tx should be hidden by this tombstone.
func (ts Tombstone) Matches(tx Transaction) bool {
	if ts.ID != "" && tx.ID != "" && ts.ID == tx.ID {
		return true
	}
	if ts.Description != "" {
		if normalizeDescription(ts.Description) == normalizeDescription(tx.Description) &&
			math.Abs(ts.Amount-tx.Amount) < amountEpsilon {
			return true
		}
	}
	return false
}

func normalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
