package domain

import "fmt"

// ErrorKind is the closed taxonomy every raw placement failure is mapped
// into. The set is fixed; unrecognized failures fold into KindUnknown.
type ErrorKind string

const (
	KindAuthentication      ErrorKind = "AUTHENTICATION"
	KindBalanceInsufficient ErrorKind = "BALANCE_INSUFFICIENT"
	KindOddsChanged         ErrorKind = "ODDS_CHANGED"
	KindMarketSuspended     ErrorKind = "MARKET_SUSPENDED"
	KindNetworkError        ErrorKind = "NETWORK_ERROR"
	KindUnknown             ErrorKind = "UNKNOWN_ERROR"
)

// BetError is a classified placement failure. It wraps the raw cause and
// carries the operator-facing message, a recoverability flag, and the
// suggested next action for the account's owner.
type BetError struct {
	Kind        ErrorKind
	Code        string // raw platform code, if any
	Message     string // raw message text
	UserMessage string
	Suggestion  string
	Recoverable bool
	Cause       error
}

// Error implements the error interface.
func (e *BetError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the raw cause for errors.Is/As chains.
func (e *BetError) Unwrap() error { return e.Cause }

// CodedError is implemented by adapter errors that carry a platform error
// code alongside the message. The classifier consults it before falling back
// to keyword matching.
type CodedError interface {
	error
	ErrorCode() string
}
