package domain

import (
	"fmt"
	"sync"
)

// WagerKind distinguishes a single-leg wager from a combination.
type WagerKind string

const (
	WagerKindSingle      WagerKind = "single"
	WagerKindCombination WagerKind = "combination"
)

// Leg is one event/market/selection/price tuple of a wager. The identifier
// fields are what the live-odds bulk query keys on; the display fields feed
// the normalized ticket record.
type Leg struct {
	OddID           string  `json:"odd_id"`
	EventID         string  `json:"event_id"`
	MarketID        string  `json:"market_id"`
	SelectionID     string  `json:"selection_id"`
	SelectionTypeID int64   `json:"selection_type_id"`
	SportTypeID     int64   `json:"sport_type_id"`
	Price           float64 `json:"price"`

	EventName     string `json:"event_name,omitempty"`
	LeagueName    string `json:"league_name,omitempty"`
	SportName     string `json:"sport_name,omitempty"`
	MarketName    string `json:"market_name,omitempty"`
	SelectionName string `json:"selection_name,omitempty"`
}

// Key returns the identifier tuple used by live-odds queries.
func (l Leg) Key() LegKey {
	return LegKey{
		OddID:           l.OddID,
		EventID:         l.EventID,
		MarketID:        l.MarketID,
		SelectionTypeID: l.SelectionTypeID,
		SportTypeID:     l.SportTypeID,
	}
}

// LegKey identifies a leg in a bulk current-price query.
type LegKey struct {
	OddID           string
	EventID         string
	MarketID        string
	SelectionTypeID int64
	SportTypeID     int64
}

// WagerSpec is one wager decision shared read-only by every concurrent
// placement pipeline. The leg set, stake, and kind are frozen at build time;
// the only mutation allowed afterwards is an odds-reconciliation price update,
// which is serialized through the internal mutex because pipelines for other
// integrations may be reading concurrently.
type WagerSpec struct {
	mu    sync.RWMutex
	legs  []Leg
	stake int64 // per-account stake, minor currency units
	kind  WagerKind
}

// WagerBuilder assembles an immutable WagerSpec.
type WagerBuilder struct {
	legs  []Leg
	stake int64
}

// NewWagerBuilder returns an empty builder.
func NewWagerBuilder() *WagerBuilder {
	return &WagerBuilder{}
}

// AddLeg appends one leg to the wager under construction.
func (b *WagerBuilder) AddLeg(leg Leg) *WagerBuilder {
	b.legs = append(b.legs, leg)
	return b
}

// Stake sets the per-account stake in minor currency units.
func (b *WagerBuilder) Stake(cents int64) *WagerBuilder {
	b.stake = cents
	return b
}

// Build validates and freezes the wager. The kind is derived from the leg
// count: one leg is a single, more is a combination.
func (b *WagerBuilder) Build() (*WagerSpec, error) {
	if len(b.legs) == 0 {
		return nil, fmt.Errorf("wager: at least one leg is required")
	}
	if b.stake <= 0 {
		return nil, fmt.Errorf("wager: stake must be positive, got %d", b.stake)
	}
	for i, leg := range b.legs {
		if leg.OddID == "" || leg.EventID == "" || leg.MarketID == "" {
			return nil, fmt.Errorf("wager: leg %d is missing identifiers", i)
		}
		if leg.Price <= 1.0 {
			return nil, fmt.Errorf("wager: leg %d has invalid price %.4f", i, leg.Price)
		}
	}

	kind := WagerKindSingle
	if len(b.legs) > 1 {
		kind = WagerKindCombination
	}

	legs := make([]Leg, len(b.legs))
	copy(legs, b.legs)

	return &WagerSpec{legs: legs, stake: b.stake, kind: kind}, nil
}

// Legs returns a snapshot copy of the legs with their current prices.
func (w *WagerSpec) Legs() []Leg {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Leg, len(w.legs))
	copy(out, w.legs)
	return out
}

// StakeCents returns the per-account stake.
func (w *WagerSpec) StakeCents() int64 { return w.stake }

// Kind returns the derived wager kind.
func (w *WagerSpec) Kind() WagerKind { return w.kind }

// TotalPrice returns the product of all current leg prices (the combined
// odds for a combination, or simply the leg price for a single).
func (w *WagerSpec) TotalPrice() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	total := 1.0
	for _, l := range w.legs {
		total *= l.Price
	}
	return total
}

// PotentialWinCents returns the payout for the current prices and stake.
func (w *WagerSpec) PotentialWinCents() int64 {
	return int64(float64(w.stake)*w.TotalPrice() + 0.5)
}

// SetLegPrice updates one leg's price in place. It is used exclusively by
// odds reconciliation and reports whether the stored price actually changed.
func (w *WagerSpec) SetLegPrice(oddID string, price float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.legs {
		if w.legs[i].OddID == oddID && w.legs[i].Price != price {
			w.legs[i].Price = price
			return true
		}
	}
	return false
}
