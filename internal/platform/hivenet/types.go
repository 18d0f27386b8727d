package hivenet

import "fmt"

// apiError is a non-2xx response from a site or the network endpoint. It
// carries the platform code when the body had an error envelope so the
// central classifier can match on code prefixes.
type apiError struct {
	StatusCode int
	Code       string
	Message    string
	Endpoint   string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("hivenet: %s: status %d, code %s: %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("hivenet: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// ErrorCode implements domain.CodedError.
func (e *apiError) ErrorCode() string { return e.Code }

// errorEnvelope is the error body shape shared by the sites and the network.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// loginResponse covers the token field across site API vintages.
type loginResponse struct {
	AccessToken string `json:"accessToken"`
	Data        *struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
}

// widgetSessionResponse is the derive-session response.
type widgetSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// bindResponse is the network session-bind response.
type bindResponse struct {
	Token string `json:"token"`
}

// balanceResponse covers the three balance payload shapes. Amounts are in
// currency units; the adapter converts to minor units.
type balanceResponse struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
	Data     *struct {
		Balance float64 `json:"balance"`
		Wallet  *struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"wallet"`
	} `json:"data"`
}

// profileResponse covers the profile payload shapes.
type profileResponse struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Currency  string       `json:"currency"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Data      *profileData `json:"data"`
}

type profileData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Currency  string `json:"currency"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// placeBetRequest is the common network placement payload.
type placeBetRequest struct {
	Token  string    `json:"token"`
	Type   string    `json:"type"` // "single" or "express"
	Amount float64   `json:"amount"`
	Source string    `json:"source"`
	Bets   []betLeg  `json:"bets"`
}

type betLeg struct {
	OddID           string  `json:"oddId"`
	EventID         string  `json:"eventId"`
	MarketID        string  `json:"marketId"`
	SelectionID     string  `json:"selectionId"`
	SelectionTypeID int64   `json:"selectionTypeId"`
	SportTypeID     int64   `json:"sportTypeId"`
	Price           float64 `json:"price"`
}

// currentOddsRequest is the bulk current-price query payload.
type currentOddsRequest struct {
	Selections []oddsSelection `json:"selections"`
}

type oddsSelection struct {
	OddID           string `json:"oddId"`
	EventID         string `json:"eventId"`
	MarketID        string `json:"marketId"`
	SelectionTypeID int64  `json:"selectionTypeId"`
	SportTypeID     int64  `json:"sportTypeId"`
}

// currentOddsResponse is the bulk current-price query result.
type currentOddsResponse struct {
	Odds []struct {
		OddID string  `json:"oddId"`
		Price float64 `json:"price"`
	} `json:"odds"`
}
