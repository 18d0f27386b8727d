package classify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func TestClassifyByMessage(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantKind    domain.ErrorKind
		recoverable bool
	}{
		{"unauthorized", "server said: Unauthorized", domain.KindAuthentication, false},
		{"expired session", "SESSION EXPIRED, please log in", domain.KindAuthentication, false},
		{"insufficient funds", "insufficient funds for this bet", domain.KindBalanceInsufficient, false},
		{"balance too low", "Balance too LOW", domain.KindBalanceInsufficient, false},
		{"odds changed", "the odds changed since selection", domain.KindOddsChanged, true},
		{"stale price", "rejected: stale price", domain.KindOddsChanged, true},
		{"suspended", "market suspended until further notice", domain.KindMarketSuspended, false},
		{"betting stopped", "Betting stopped for this event", domain.KindMarketSuspended, false},
		{"timeout", "context deadline exceeded: request timed out", domain.KindNetworkError, true},
		{"connection refused", "dial tcp: connection refused", domain.KindNetworkError, true},
		{"bad gateway", "upstream returned 502", domain.KindNetworkError, true},
		{"gibberish", "flurble gorp", domain.KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			berr := Classify(errors.New(tt.message))
			require.NotNil(t, berr)
			assert.Equal(t, tt.wantKind, berr.Kind)
			assert.Equal(t, tt.recoverable, berr.Recoverable)
			assert.Equal(t, tt.message, berr.Message)
			assert.NotEmpty(t, berr.UserMessage)
			assert.NotEmpty(t, berr.Suggestion)
		})
	}
}

type codedErr struct {
	code string
	msg  string
}

func (e codedErr) Error() string     { return e.msg }
func (e codedErr) ErrorCode() string { return e.code }

func TestClassifyCodeBeatsMessage(t *testing.T) {
	// The code prefix should win even when the message text would match a
	// different kind.
	berr := Classify(codedErr{code: "ODDS_17", msg: "request failed with timeout"})
	require.NotNil(t, berr)
	assert.Equal(t, domain.KindOddsChanged, berr.Kind)
	assert.Equal(t, "ODDS_17", berr.Code)
	assert.True(t, berr.Recoverable)
}

func TestClassifyCodePrefixCaseInsensitive(t *testing.T) {
	berr := Classify(codedErr{code: "auth-401", msg: "something opaque"})
	require.NotNil(t, berr)
	assert.Equal(t, domain.KindAuthentication, berr.Kind)
}

func TestClassifyNumericCodes(t *testing.T) {
	tests := []struct {
		code string
		want domain.ErrorKind
	}{
		{"1100", domain.KindBalanceInsufficient},
		{"2300", domain.KindOddsChanged},
		{"2400", domain.KindMarketSuspended},
		{"503", domain.KindNetworkError},
	}
	for _, tt := range tests {
		berr := Classify(codedErr{code: tt.code, msg: "opaque"})
		assert.Equal(t, tt.want, berr.Kind, "code %s", tt.code)
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPassesThroughBetError(t *testing.T) {
	orig := &domain.BetError{Kind: domain.KindMarketSuspended, Message: "already classified"}
	wrapped := fmt.Errorf("pipeline: %w", orig)
	assert.Same(t, orig, Classify(wrapped))
}

func TestClassifyKeepsCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	berr := Classify(cause)
	assert.True(t, errors.Is(berr, cause))
}

func TestFromMessageWithoutCause(t *testing.T) {
	berr := FromMessage("odds are outdated", "", nil)
	assert.Equal(t, domain.KindOddsChanged, berr.Kind)
	assert.Nil(t, berr.Cause)
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(domain.KindOddsChanged))
	assert.True(t, Recoverable(domain.KindNetworkError))
	assert.False(t, Recoverable(domain.KindAuthentication))
	assert.False(t, Recoverable(domain.KindBalanceInsufficient))
	assert.False(t, Recoverable(domain.KindMarketSuspended))
	assert.False(t, Recoverable(domain.KindUnknown))
}
