package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/betswarm/betswarm/internal/domain"
)

// Event types emitted by the placement service.
const (
	EventRoundCompleted = "round.completed"
	EventRoundDegraded  = "round.degraded" // partial or failed
)

// RoundEvent returns the notifier event type for a finished round.
func RoundEvent(r domain.Round) string {
	if r.Status == domain.RoundStatusCompleted {
		return EventRoundCompleted
	}
	return EventRoundDegraded
}

// RoundMessage renders a finished round into a notification title and body.
func RoundMessage(r domain.Round) (title, message string) {
	title = fmt.Sprintf("Round %s %s (%d/%d placed)",
		shortID(r.ID), r.Status, r.TicketsSucceeded, r.TicketsTotal)

	var b strings.Builder
	fmt.Fprintf(&b, "Round:  %s\n", r.ID)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	fmt.Fprintf(&b, "Stake:  %s per account, %s total\n",
		formatCents(r.StakeCents), formatCents(r.TotalStakeCents))
	fmt.Fprintf(&b, "Placed: %d succeeded, %d failed of %d (%.0f%%)\n",
		r.TicketsSucceeded, r.TicketsFailed, r.TicketsTotal, 100*r.SuccessRatio())
	if r.TicketsSucceeded > 0 {
		fmt.Fprintf(&b, "Avg price: %.2f, potential win %s\n",
			r.AveragePrice, formatCents(r.PotentialWinCents))
	}
	if r.WallTimeMs > 0 {
		fmt.Fprintf(&b, "Wall time: %s\n", time.Duration(r.WallTimeMs)*time.Millisecond)
	}
	if r.OddsAdjusted {
		b.WriteString("Odds were refreshed before placement.\n")
	}

	if len(r.PlatformSummary) > 0 {
		platforms := make([]string, 0, len(r.PlatformSummary))
		for p := range r.PlatformSummary {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		for _, p := range platforms {
			st := r.PlatformSummary[p]
			fmt.Fprintf(&b, "  %s: %d/%d ok\n", p, st.Succeeded, st.Attempted)
		}
	}

	return title, b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
