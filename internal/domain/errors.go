package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that are recovered locally by the fallback
// chains. They are never surfaced verbatim to the end user.
var (
	// ErrSourceUnavailable signals that an upstream service is unreachable.
	ErrSourceUnavailable = errors.New("upstream source unavailable")

	// ErrMalformedResponse signals that a generative service returned
	// unparseable or structurally invalid output.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrNoTransactions signals that the merge produced an empty list.
	// Unlike the two above, it is surfaced as a user-facing message.
	ErrNoTransactions = errors.New("no transactions found")
)

// ValidationError reports a user-supplied value violating a precondition.
// It propagates to the caller with a plain-language description.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced user or account does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// UserMessage maps an error to the text shown to the end user. Internal
// details never leak; recoverable conditions should have been absorbed by
// the fallback chains before reaching this point.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return nfe.Error()
	}
	if errors.Is(err, ErrNoTransactions) {
		return "No transactions found. Please complete onboarding first."
	}
	return "Something went wrong. Please try again."
}
