// Package classify maps raw placement failures onto the closed betting
// error taxonomy. Classification happens here, centrally, never inside an
// adapter: adapters propagate raw failures unmodified and the pipeline runs
// every terminal failure through Classify before a ticket is written.
package classify

import (
	"errors"
	"strings"

	"github.com/betswarm/betswarm/internal/domain"
)

// rule is one taxonomy entry. Kinds are evaluated in declaration order and
// the first keyword or code-prefix match wins, so more specific kinds must
// stay ahead of the catch-alls.
type rule struct {
	kind         domain.ErrorKind
	keywords     []string // matched case-insensitively against the message
	codePrefixes []string // matched against the raw platform code
	userMessage  string
	suggestion   string
	recoverable  bool
}

var rules = []rule{
	{
		kind:         domain.KindAuthentication,
		keywords:     []string{"unauthorized", "401", "invalid credentials", "invalid password", "token expired", "session expired", "authentication", "login failed", "forbidden"},
		codePrefixes: []string{"AUTH", "401", "403"},
		userMessage:  "The platform rejected this account's credentials.",
		suggestion:   "Re-authenticate the account and verify its login secret.",
	},
	{
		kind:         domain.KindBalanceInsufficient,
		keywords:     []string{"insufficient funds", "insufficient balance", "not enough money", "balance too low", "no funds"},
		codePrefixes: []string{"BAL", "1100"},
		userMessage:  "The account balance does not cover the stake.",
		suggestion:   "Top up the account or lower the stake.",
	},
	{
		kind:         domain.KindOddsChanged,
		keywords:     []string{"odds changed", "odd changed", "price changed", "coefficient changed", "odds are outdated", "stale price"},
		codePrefixes: []string{"ODDS", "2300"},
		userMessage:  "The price moved between selection and placement.",
		suggestion:   "Retry the ticket at the current price.",
		recoverable:  true,
	},
	{
		kind:         domain.KindMarketSuspended,
		keywords:     []string{"suspended", "market closed", "betting stopped", "event not available", "market is locked"},
		codePrefixes: []string{"MKT", "2400"},
		userMessage:  "The market is suspended or closed.",
		suggestion:   "Wait for the market to reopen or pick another selection.",
	},
	{
		kind:         domain.KindNetworkError,
		keywords:     []string{"timeout", "timed out", "connection refused", "connection reset", "no such host", "network", "502", "503", "504", "eof"},
		codePrefixes: []string{"NET", "5"},
		userMessage:  "The platform could not be reached.",
		suggestion:   "Check connectivity and retry the ticket.",
		recoverable:  true,
	},
}

var unknownRule = rule{
	kind:        domain.KindUnknown,
	userMessage: "The platform returned an unrecognized failure.",
	suggestion:  "Inspect the raw payload before retrying manually.",
}

// Classify maps err onto the taxonomy. If err (or anything it wraps) already
// is a *domain.BetError it is returned as-is; a nil err returns nil.
func Classify(err error) *domain.BetError {
	if err == nil {
		return nil
	}

	var already *domain.BetError
	if errors.As(err, &already) {
		return already
	}

	code := ""
	var coded domain.CodedError
	if errors.As(err, &coded) {
		code = coded.ErrorCode()
	}

	return FromMessage(err.Error(), code, err)
}

// FromMessage classifies a raw message/code pair. The cause may be nil when
// classifying text that did not originate from a Go error value.
func FromMessage(message, code string, cause error) *domain.BetError {
	r := match(message, code)
	return &domain.BetError{
		Kind:        r.kind,
		Code:        code,
		Message:     message,
		UserMessage: r.userMessage,
		Suggestion:  r.suggestion,
		Recoverable: r.recoverable,
		Cause:       cause,
	}
}

// Recoverable reports whether the given kind is retry-recoverable.
func Recoverable(kind domain.ErrorKind) bool {
	for _, r := range rules {
		if r.kind == kind {
			return r.recoverable
		}
	}
	return false
}

func match(message, code string) rule {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, p := range r.codePrefixes {
			if code != "" && strings.HasPrefix(strings.ToUpper(code), p) {
				return r
			}
		}
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r
			}
		}
	}
	return unknownRule
}
