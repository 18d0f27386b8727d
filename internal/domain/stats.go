package domain

// RoundStats is the aggregate a round's ticket set recomputes to. It is the
// single source of the round's counters, derived statistics, status, and
// per-platform breakdown; the store persists it verbatim.
type RoundStats struct {
	TicketsTotal      int
	TicketsSucceeded  int
	TicketsFailed     int
	TotalStakeCents   int64
	AveragePrice      float64
	PotentialWinCents int64
	Status            RoundStatus
	PlatformSummary   map[string]PlatformStat
}

// Terminal reports whether every counted ticket has landed.
func (s RoundStats) Terminal() bool {
	return s.Status != RoundStatusPending
}

// RecomputeStats derives the round aggregate from its full ticket set.
// planned is the attempt count recorded at round creation; the total never
// shrinks below it, so a round stays pending until every planned ticket has
// landed. Retries can grow the total past the plan. A ticket counts as
// succeeded unless it is failed; failed tickets keep their stake in the
// total (exposure accounting), while average price and potential win sum
// over succeeded tickets only.
func RecomputeStats(planned int, tickets []Ticket) RoundStats {
	st := RoundStats{
		TicketsTotal:    planned,
		PlatformSummary: make(map[string]PlatformStat),
	}

	var priceSum float64
	for _, t := range tickets {
		st.TotalStakeCents += t.StakeCents

		ps := st.PlatformSummary[string(t.Platform)]
		ps.Attempted++
		if t.Status == TicketStatusFailed {
			st.TicketsFailed++
			ps.Failed++
		} else {
			st.TicketsSucceeded++
			ps.Succeeded++
			priceSum += t.Price
			st.PotentialWinCents += t.PotentialWinCents
		}
		st.PlatformSummary[string(t.Platform)] = ps
	}

	if counted := st.TicketsSucceeded + st.TicketsFailed; counted > st.TicketsTotal {
		st.TicketsTotal = counted
	}
	if st.TicketsSucceeded > 0 {
		st.AveragePrice = priceSum / float64(st.TicketsSucceeded)
	}
	st.Status = RoundStatusFor(st.TicketsSucceeded, st.TicketsFailed, st.TicketsTotal)
	return st
}
