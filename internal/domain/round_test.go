package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		succeeded int
		failed    int
		total     int
		want      RoundStatus
	}{
		{"nothing planned", 0, 0, 0, RoundStatusPending},
		{"still landing", 1, 0, 3, RoundStatusPending},
		{"all succeeded", 3, 0, 3, RoundStatusCompleted},
		{"all failed", 0, 3, 3, RoundStatusFailed},
		{"mixed", 2, 1, 3, RoundStatusPartial},
		{"single success", 1, 0, 1, RoundStatusCompleted},
		{"single failure", 0, 1, 1, RoundStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundStatusFor(tt.succeeded, tt.failed, tt.total))
		})
	}
}

func TestRoundTerminal(t *testing.T) {
	assert.False(t, Round{}.Terminal())
	assert.False(t, Round{TicketsTotal: 3, TicketsSucceeded: 2}.Terminal())
	assert.True(t, Round{TicketsTotal: 3, TicketsSucceeded: 2, TicketsFailed: 1}.Terminal())
}

func TestRoundSuccessRatio(t *testing.T) {
	assert.Zero(t, Round{}.SuccessRatio())
	assert.InDelta(t, 2.0/3.0, Round{TicketsTotal: 3, TicketsSucceeded: 2}.SuccessRatio(), 1e-9)
}

func TestTicketSucceeded(t *testing.T) {
	assert.True(t, Ticket{Status: TicketStatusPending, ExternalID: "x"}.Succeeded())
	assert.False(t, Ticket{Status: TicketStatusPending}.Succeeded())
	assert.False(t, Ticket{Status: TicketStatusFailed, ExternalID: "x"}.Succeeded())
}

func TestSessionEmpty(t *testing.T) {
	assert.True(t, Session{}.Empty())
	assert.False(t, Session{BearerToken: "t"}.Empty())
	assert.False(t, Session{Cookies: map[string]string{"sid": "v"}}.Empty())
}

func TestAccountHasBalanceFor(t *testing.T) {
	acct := Account{BalanceCents: 1000}
	assert.True(t, acct.HasBalanceFor(1000))
	assert.True(t, acct.HasBalanceFor(999))
	assert.False(t, acct.HasBalanceFor(1001))
}
