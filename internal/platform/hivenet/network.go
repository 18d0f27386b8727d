package hivenet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/betswarm/betswarm/internal/domain"
)

// defaultCallTimeout is the fixed per-call timeout for every outbound
// request in this family. There is no round-level deadline; a round's wall
// time is bounded by its slowest pipeline's per-call timeouts.
const defaultCallTimeout = 15 * time.Second

// NetworkClient talks to the shared hivenet betting network: session
// binding, the common placement endpoint, and the bulk current-odds query.
// One NetworkClient is safe for concurrent use; it holds no session state.
type NetworkClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewNetworkClient creates a client for the network endpoint, e.g.
// "https://bet.hivenet.example".
func NewNetworkClient(endpoint string) *NetworkClient {
	return &NetworkClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: defaultCallTimeout,
		},
	}
}

// BindSession exchanges a site widget session for a network platform token.
func (c *NetworkClient) BindSession(ctx context.Context, site, sessionID string) (string, error) {
	body := map[string]any{
		"sessionId": sessionID,
		"site":      site,
	}

	respBody, err := c.post(ctx, "/session/bind", body)
	if err != nil {
		return "", fmt.Errorf("hivenet: bind session for %s: %w", site, err)
	}

	var resp bindResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("hivenet: decode bind response: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("hivenet: bind response carried no token")
	}
	return resp.Token, nil
}

// PlaceBet submits the wager through the common placement endpoint and
// returns the raw response body. Logical rejections arrive inside a 200 body
// and are left for central normalization; only transport and status failures
// surface as errors.
func (c *NetworkClient) PlaceBet(ctx context.Context, platformToken string, spec *domain.WagerSpec, stakeCents int64) (json.RawMessage, error) {
	legs := spec.Legs()
	req := placeBetRequest{
		Token:  platformToken,
		Type:   "single",
		Amount: float64(stakeCents) / 100,
		Source: "betswarm",
		Bets:   make([]betLeg, 0, len(legs)),
	}
	if spec.Kind() == domain.WagerKindCombination {
		req.Type = "express"
	}
	for _, l := range legs {
		req.Bets = append(req.Bets, betLeg{
			OddID:           l.OddID,
			EventID:         l.EventID,
			MarketID:        l.MarketID,
			SelectionID:     l.SelectionID,
			SelectionTypeID: l.SelectionTypeID,
			SportTypeID:     l.SportTypeID,
			Price:           l.Price,
		})
	}

	respBody, err := c.post(ctx, "/bets/place", req)
	if err != nil {
		return nil, fmt.Errorf("hivenet: place bet: %w", err)
	}
	return json.RawMessage(respBody), nil
}

// CurrentPrices runs one bulk current-price query for the given legs and
// returns prices keyed by odd id. It implements odds.LiveOddsClient.
func (c *NetworkClient) CurrentPrices(ctx context.Context, legs []domain.LegKey) (map[string]float64, error) {
	req := currentOddsRequest{Selections: make([]oddsSelection, 0, len(legs))}
	for _, k := range legs {
		req.Selections = append(req.Selections, oddsSelection{
			OddID:           k.OddID,
			EventID:         k.EventID,
			MarketID:        k.MarketID,
			SelectionTypeID: k.SelectionTypeID,
			SportTypeID:     k.SportTypeID,
		})
	}

	respBody, err := c.post(ctx, "/odds/current", req)
	if err != nil {
		return nil, fmt.Errorf("hivenet: current odds: %w", err)
	}

	var resp currentOddsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("hivenet: decode current odds: %w", err)
	}

	out := make(map[string]float64, len(resp.Odds))
	for _, o := range resp.Odds {
		out[o.OddID] = o.Price
	}
	return out, nil
}

func (c *NetworkClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// decodeAPIError builds an apiError from a non-2xx body, pulling the code
// and message out of the error envelope when present.
func decodeAPIError(endpoint string, status int, body []byte) *apiError {
	e := &apiError{
		StatusCode: status,
		Endpoint:   endpoint,
		Message:    http.StatusText(status),
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		e.Code = env.Error.Code
		if env.Error.Message != "" {
			e.Message = env.Error.Message
		}
	} else if len(body) > 0 && len(body) < 512 {
		e.Message = string(body)
	}
	return e
}
