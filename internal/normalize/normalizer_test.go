package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func baseInput() Input {
	return Input{
		RoundID:       "round-1",
		AccountID:     "acct-1",
		Site:          "betorion",
		Family:        domain.FamilyHivenet,
		StakeCents:    500,
		BalanceBefore: 10_000,
		BalanceAfter:  9_500,
		Elapsed:       1200 * time.Millisecond,
	}
}

func TestNormalizeHivenetSuccess(t *testing.T) {
	in := baseInput()
	in.Raw = json.RawMessage(`{
		"result": {
			"betId": "HV-778",
			"amount": 5.0,
			"price": 1.85,
			"possibleWin": 9.25,
			"events": [
				{"eventName":"A vs B","leagueName":"League One","sportName":"Football","marketName":"1X2","selectionName":"1","price":1.85}
			]
		}
	}`)

	ticket := Normalize(in)

	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, "HV-778", ticket.ExternalID)
	assert.Equal(t, 1.85, ticket.Price)
	assert.Equal(t, int64(925), ticket.PotentialWinCents)
	assert.Equal(t, "round-1", ticket.RoundID)
	assert.Equal(t, "acct-1", ticket.AccountID)
	assert.Equal(t, int64(500), ticket.StakeCents)
	assert.Equal(t, int64(1200), ticket.ElapsedMs)
	assert.Empty(t, ticket.ErrorKind)
	assert.True(t, ticket.Succeeded())

	require.Len(t, ticket.Legs, 1)
	assert.Equal(t, "A vs B", ticket.Legs[0].EventName)
	assert.Equal(t, "1X2", ticket.Legs[0].MarketName)
}

func TestNormalizeHivenetLogicalRejection(t *testing.T) {
	in := baseInput()
	in.Raw = json.RawMessage(`{"error":{"code":"2300","message":"odds changed"}}`)

	ticket := Normalize(in)

	assert.Equal(t, domain.TicketStatusFailed, ticket.Status)
	assert.Equal(t, string(domain.KindOddsChanged), ticket.ErrorKind)
	assert.Empty(t, ticket.ExternalID)
	assert.False(t, ticket.Succeeded())
	// Stake is kept on failure so the round's exposure stays accurate.
	assert.Equal(t, int64(500), ticket.StakeCents)
}

func TestNormalizeHivenetMissingBetID(t *testing.T) {
	in := baseInput()
	in.Raw = json.RawMessage(`{"result":{"betId":"","price":1.5}}`)

	ticket := Normalize(in)
	assert.Equal(t, domain.TicketStatusFailed, ticket.Status)
	assert.Equal(t, string(domain.KindUnknown), ticket.ErrorKind)
}

func TestNormalizeSelfbookReceipt(t *testing.T) {
	in := baseInput()
	in.Site = "betrover"
	in.Family = domain.FamilySelfbook
	in.Raw = json.RawMessage(`{"ticket":{"id":"SB-42","stake":5.0,"odds":2.10,"payout":10.50}}`)

	ticket := Normalize(in)

	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, "SB-42", ticket.ExternalID)
	assert.Equal(t, 2.10, ticket.Price)
	assert.Equal(t, int64(1050), ticket.PotentialWinCents)
	assert.Equal(t, domain.FamilySelfbook, ticket.Platform)
}

func TestNormalizeUnrecognizedShape(t *testing.T) {
	in := baseInput()
	in.Raw = json.RawMessage(`{"status":"ok","something":"else"}`)

	ticket := Normalize(in)

	assert.Equal(t, domain.TicketStatusFailed, ticket.Status)
	assert.Equal(t, string(domain.KindUnknown), ticket.ErrorKind)
	assert.Contains(t, ticket.ErrorText, "unrecognized response format")
	// The raw body is preserved for inspection.
	assert.Equal(t, in.Raw, ticket.RawPayload)
}

func TestNormalizeErrorInput(t *testing.T) {
	in := baseInput()
	in.Err = errors.New("dial tcp: connection refused")

	ticket := Normalize(in)

	assert.Equal(t, domain.TicketStatusFailed, ticket.Status)
	assert.Equal(t, string(domain.KindNetworkError), ticket.ErrorKind)
	assert.Contains(t, ticket.ErrorText, "connection refused")
}

func TestNormalizeEmptyBody(t *testing.T) {
	in := baseInput()
	in.Raw = nil

	ticket := Normalize(in)
	assert.Equal(t, domain.TicketStatusFailed, ticket.Status)
}

func TestNormalizeAssignsUniqueIDs(t *testing.T) {
	in := baseInput()
	in.Err = errors.New("boom")
	a := Normalize(in)
	b := Normalize(in)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want rawShape
	}{
		{"hivenet result", `{"result":{"betId":"x"}}`, shapeHivenet},
		{"hivenet error", `{"error":{"code":"AUTH"}}`, shapeHivenet},
		{"selfbook", `{"ticket":{"id":"y"}}`, shapeSelfbook},
		{"empty object", `{}`, shapeUnknown},
		{"not json", `<html>`, shapeUnknown},
		{"empty", ``, shapeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectShape(json.RawMessage(tt.raw)))
		})
	}
}
