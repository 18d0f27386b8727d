// Package odds re-validates wager leg prices against the live platform feed
// before placement commits.
package odds

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/betswarm/betswarm/internal/domain"
)

// DefaultTolerance is the price drift, in absolute odds terms, below which a
// stored price is considered current.
const DefaultTolerance = 0.01

// LiveOddsClient is the per-integration bulk current-price query. The
// hivenet network client implements it.
type LiveOddsClient interface {
	CurrentPrices(ctx context.Context, legs []domain.LegKey) (map[string]float64, error)
}

// Reconciler compares a wager's stored leg prices with the integration's
// current prices and updates drifted legs in place. Scope is one integration:
// every account placing through the same integration shares one bulk query.
type Reconciler struct {
	client    LiveOddsClient
	tolerance float64
	logger    *slog.Logger
}

// NewReconciler creates a Reconciler. A non-positive tolerance falls back to
// DefaultTolerance.
func NewReconciler(client LiveOddsClient, tolerance float64, logger *slog.Logger) *Reconciler {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Reconciler{
		client:    client,
		tolerance: tolerance,
		logger:    logger.With(slog.String("component", "odds_reconciler")),
	}
}

// Reconcile issues one bulk current-price query covering every leg and
// mutates any leg whose stored price drifted beyond the tolerance. It
// reports whether any leg changed. Re-running against unchanged upstream
// prices is a no-op.
func (r *Reconciler) Reconcile(ctx context.Context, spec *domain.WagerSpec) (bool, error) {
	legs := spec.Legs()
	keys := make([]domain.LegKey, 0, len(legs))
	for _, l := range legs {
		keys = append(keys, l.Key())
	}

	current, err := r.client.CurrentPrices(ctx, keys)
	if err != nil {
		return false, fmt.Errorf("odds: current prices: %w", err)
	}

	adjusted := false
	for _, l := range legs {
		fresh, ok := current[l.OddID]
		if !ok || fresh <= 1.0 {
			// The feed did not return this leg; leave the stored price and
			// let placement surface a rejection if it is genuinely stale.
			continue
		}
		if math.Abs(fresh-l.Price) <= r.tolerance {
			continue
		}
		if spec.SetLegPrice(l.OddID, fresh) {
			adjusted = true
			r.logger.InfoContext(ctx, "leg price adjusted",
				slog.String("odd_id", l.OddID),
				slog.Float64("stored", l.Price),
				slog.Float64("current", fresh),
			)
		}
	}
	return adjusted, nil
}
