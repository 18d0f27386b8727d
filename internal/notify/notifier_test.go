package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, message)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersByEvent(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := NewNotifier([]Sender{s}, []string{EventRoundCompleted}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), EventRoundDegraded, "t", "m"))
	assert.Empty(t, s.titles)

	require.NoError(t, n.Notify(context.Background(), EventRoundCompleted, "t", "m"))
	assert.Equal(t, []string{"t"}, s.titles)
}

func TestNotifyEmptyFilterAllowsEverything(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := NewNotifier([]Sender{s}, nil, discardLogger())

	require.NoError(t, n.Notify(context.Background(), "anything.at.all", "t", "m"))
	assert.Len(t, s.titles, 1)
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := NewNotifier([]Sender{s}, []string{EventRoundCompleted}, discardLogger())

	require.NoError(t, n.NotifyAll(context.Background(), "t", "m"))
	assert.Len(t, s.titles, 1)
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "telegram", err: errors.New("api down")}
	good := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.NotifyAll(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
	assert.Len(t, good.titles, 1)
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, discardLogger())
	require.NoError(t, n.NotifyAll(context.Background(), "t", "m"))
}

func TestRoundEvent(t *testing.T) {
	assert.Equal(t, EventRoundCompleted, RoundEvent(domain.Round{Status: domain.RoundStatusCompleted}))
	assert.Equal(t, EventRoundDegraded, RoundEvent(domain.Round{Status: domain.RoundStatusPartial}))
	assert.Equal(t, EventRoundDegraded, RoundEvent(domain.Round{Status: domain.RoundStatusFailed}))
}

func TestRoundMessage(t *testing.T) {
	r := domain.Round{
		ID:                "0b7f9c2e-aaaa-bbbb-cccc-000000000000",
		Status:            domain.RoundStatusPartial,
		StakeCents:        500,
		TotalStakeCents:   1500,
		TicketsTotal:      3,
		TicketsSucceeded:  2,
		TicketsFailed:     1,
		AveragePrice:      1.85,
		PotentialWinCents: 1850,
		WallTimeMs:        1200,
		OddsAdjusted:      true,
		PlatformSummary: map[string]domain.PlatformStat{
			"hivenet":  {Attempted: 2, Succeeded: 2},
			"selfbook": {Attempted: 1, Failed: 1},
		},
	}

	title, message := RoundMessage(r)
	assert.Equal(t, "Round 0b7f9c2e partial (2/3 placed)", title)
	assert.Contains(t, message, "Stake:  5.00 per account, 15.00 total")
	assert.Contains(t, message, "Placed: 2 succeeded, 1 failed of 3 (67%)")
	assert.Contains(t, message, "Avg price: 1.85, potential win 18.50")
	assert.Contains(t, message, "Wall time: 1.2s")
	assert.Contains(t, message, "Odds were refreshed before placement.")
	assert.Contains(t, message, "hivenet: 2/2 ok")
	assert.Contains(t, message, "selfbook: 0/1 ok")
}

func TestRoundMessageSkipsWinLineWhenNothingPlaced(t *testing.T) {
	r := domain.Round{
		ID:            "short",
		Status:        domain.RoundStatusFailed,
		StakeCents:    500,
		TicketsTotal:  2,
		TicketsFailed: 2,
	}

	title, message := RoundMessage(r)
	assert.Equal(t, "Round short failed (0/2 placed)", title)
	assert.NotContains(t, message, "Avg price")
}
