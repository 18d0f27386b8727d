package odds

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

type fakeOddsClient struct {
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakeOddsClient) CurrentPrices(_ context.Context, legs []domain.LegKey) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, k := range legs {
		if p, ok := f.prices[k.OddID]; ok {
			out[k.OddID] = p
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildSpec(t *testing.T, prices map[string]float64) *domain.WagerSpec {
	t.Helper()
	b := domain.NewWagerBuilder()
	for id, p := range prices {
		b.AddLeg(domain.Leg{
			OddID:    id,
			EventID:  "ev",
			MarketID: "mk",
			Price:    p,
		})
	}
	spec, err := b.Stake(100).Build()
	require.NoError(t, err)
	return spec
}

func TestReconcileAdjustsDriftedLeg(t *testing.T) {
	spec := buildSpec(t, map[string]float64{"odd-1": 1.50})
	client := &fakeOddsClient{prices: map[string]float64{"odd-1": 1.60}}
	r := NewReconciler(client, 0.01, testLogger())

	adjusted, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, adjusted)
	assert.InDelta(t, 1.60, spec.Legs()[0].Price, 1e-9)
}

func TestReconcileWithinToleranceIsNoop(t *testing.T) {
	spec := buildSpec(t, map[string]float64{"odd-1": 1.50})
	client := &fakeOddsClient{prices: map[string]float64{"odd-1": 1.505}}
	r := NewReconciler(client, 0.01, testLogger())

	adjusted, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.False(t, adjusted)
	assert.InDelta(t, 1.50, spec.Legs()[0].Price, 1e-9)
}

func TestReconcileIdempotent(t *testing.T) {
	spec := buildSpec(t, map[string]float64{"odd-1": 1.50})
	client := &fakeOddsClient{prices: map[string]float64{"odd-1": 1.60}}
	r := NewReconciler(client, 0.01, testLogger())

	adjusted, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, adjusted)

	// Upstream unchanged: the second pass sees its own update and does
	// nothing.
	adjusted, err = r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.False(t, adjusted)
	assert.Equal(t, 2, client.calls)
}

func TestReconcileSkipsMissingAndJunkPrices(t *testing.T) {
	spec := buildSpec(t, map[string]float64{"odd-1": 1.50, "odd-2": 2.00})
	// odd-1 absent from the feed, odd-2 comes back with a junk price.
	client := &fakeOddsClient{prices: map[string]float64{"odd-2": 0.5}}
	r := NewReconciler(client, 0.01, testLogger())

	adjusted, err := r.Reconcile(context.Background(), spec)
	require.NoError(t, err)
	assert.False(t, adjusted)
	for _, l := range spec.Legs() {
		switch l.OddID {
		case "odd-1":
			assert.InDelta(t, 1.50, l.Price, 1e-9)
		case "odd-2":
			assert.InDelta(t, 2.00, l.Price, 1e-9)
		}
	}
}

func TestReconcileClientError(t *testing.T) {
	spec := buildSpec(t, map[string]float64{"odd-1": 1.50})
	client := &fakeOddsClient{err: errors.New("feed unavailable")}
	r := NewReconciler(client, 0.01, testLogger())

	adjusted, err := r.Reconcile(context.Background(), spec)
	assert.Error(t, err)
	assert.False(t, adjusted)
}

func TestNewReconcilerToleranceFallback(t *testing.T) {
	r := NewReconciler(&fakeOddsClient{}, 0, testLogger())
	assert.Equal(t, DefaultTolerance, r.tolerance)
	r = NewReconciler(&fakeOddsClient{}, -1, testLogger())
	assert.Equal(t, DefaultTolerance, r.tolerance)
}
