// Package normalize converts each platform's divergent placement response
// shape into the one canonical ticket record the ledger persists.
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/betswarm/betswarm/internal/classify"
	"github.com/betswarm/betswarm/internal/domain"
)

// Input carries one account's raw outcome plus the context the ticket needs.
// Exactly one of Raw and Err is expected; a Raw body whose shape matches no
// known platform response is an unrecognized-format failure.
type Input struct {
	RoundID       string
	AccountID     string
	Site          string
	Family        domain.PlatformFamily
	StakeCents    int64
	BalanceBefore int64
	BalanceAfter  int64
	Raw           json.RawMessage
	Err           error
	Elapsed       time.Duration
}

// hivenetResult is the network placement success envelope.
type hivenetResult struct {
	Result *struct {
		BetID       string  `json:"betId"`
		Amount      float64 `json:"amount"`
		Price       float64 `json:"price"`
		PossibleWin float64 `json:"possibleWin"`
		Events      []struct {
			EventName     string  `json:"eventName"`
			LeagueName    string  `json:"leagueName"`
			SportName     string  `json:"sportName"`
			MarketName    string  `json:"marketName"`
			SelectionName string  `json:"selectionName"`
			Price         float64 `json:"price"`
		} `json:"events"`
	} `json:"result"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// selfbookReceipt is the origin-site receipt envelope.
type selfbookReceipt struct {
	Ticket *struct {
		ID     string  `json:"id"`
		Stake  float64 `json:"stake"`
		Odds   float64 `json:"odds"`
		Payout float64 `json:"payout"`
	} `json:"ticket"`
}

// Normalize produces the canonical ticket for one placement attempt. Every
// input yields a ticket: successes become pending tickets with an external
// id, failures become terminal failed tickets with a classified error. The
// stake is recorded either way so exposure accounting stays accurate.
func Normalize(in Input) domain.Ticket {
	now := time.Now().UTC()
	t := domain.Ticket{
		ID:                 uuid.New().String(),
		RoundID:            in.RoundID,
		AccountID:          in.AccountID,
		Platform:           in.Family,
		Site:               in.Site,
		StakeCents:         in.StakeCents,
		BalanceBeforeCents: in.BalanceBefore,
		BalanceAfterCents:  in.BalanceAfter,
		RawPayload:         in.Raw,
		ElapsedMs:          in.Elapsed.Milliseconds(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if in.Err != nil {
		return failTicket(t, classify.Classify(in.Err))
	}

	switch detectShape(in.Raw) {
	case shapeHivenet:
		return fromHivenet(t, in.Raw)
	case shapeSelfbook:
		return fromSelfbook(t, in.Raw)
	default:
		berr := classify.FromMessage(
			fmt.Sprintf("unrecognized response format from %s", in.Site), "", nil)
		return failTicket(t, berr)
	}
}

type rawShape int

const (
	shapeUnknown rawShape = iota
	shapeHivenet
	shapeSelfbook
)

// detectShape structurally matches the raw body against the known platform
// response envelopes.
func detectShape(raw json.RawMessage) rawShape {
	if len(raw) == 0 {
		return shapeUnknown
	}
	var hv hivenetResult
	if err := json.Unmarshal(raw, &hv); err == nil && (hv.Result != nil || hv.Error != nil) {
		return shapeHivenet
	}
	var sb selfbookReceipt
	if err := json.Unmarshal(raw, &sb); err == nil && sb.Ticket != nil {
		return shapeSelfbook
	}
	return shapeUnknown
}

func fromHivenet(t domain.Ticket, raw json.RawMessage) domain.Ticket {
	var resp hivenetResult
	if err := json.Unmarshal(raw, &resp); err != nil {
		return failTicket(t, classify.Classify(err))
	}

	// Logical rejection inside a 200 body.
	if resp.Error != nil {
		return failTicket(t, classify.FromMessage(resp.Error.Message, resp.Error.Code, nil))
	}

	r := resp.Result
	if r.BetID == "" {
		return failTicket(t, classify.FromMessage("placement result carried no bet id", "", nil))
	}

	t.ExternalID = r.BetID
	t.Price = r.Price
	t.PotentialWinCents = int64(r.PossibleWin*100 + 0.5)
	t.Status = domain.TicketStatusPending
	for _, ev := range r.Events {
		t.Legs = append(t.Legs, domain.TicketLeg{
			EventName:     ev.EventName,
			LeagueName:    ev.LeagueName,
			SportName:     ev.SportName,
			MarketName:    ev.MarketName,
			SelectionName: ev.SelectionName,
			Price:         ev.Price,
		})
	}
	return t
}

func fromSelfbook(t domain.Ticket, raw json.RawMessage) domain.Ticket {
	var resp selfbookReceipt
	if err := json.Unmarshal(raw, &resp); err != nil {
		return failTicket(t, classify.Classify(err))
	}
	if resp.Ticket.ID == "" {
		return failTicket(t, classify.FromMessage("receipt carried no ticket id", "", nil))
	}

	t.ExternalID = resp.Ticket.ID
	t.Price = resp.Ticket.Odds
	t.PotentialWinCents = int64(resp.Ticket.Payout*100 + 0.5)
	t.Status = domain.TicketStatusPending
	return t
}

// failTicket marks the ticket terminally failed with the classified error.
func failTicket(t domain.Ticket, berr *domain.BetError) domain.Ticket {
	t.Status = domain.TicketStatusFailed
	t.ErrorKind = string(berr.Kind)
	t.ErrorText = berr.UserMessage + " " + berr.Suggestion
	if berr.Message != "" {
		t.ErrorText = berr.Message + ": " + berr.UserMessage + " " + berr.Suggestion
	}
	return t
}
