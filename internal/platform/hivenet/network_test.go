package hivenet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func newTestNetwork(t *testing.T, handler http.Handler) *NetworkClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNetworkClient(srv.URL)
}

func TestBindSession(t *testing.T) {
	var got map[string]any
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/session/bind", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"token": "plat-tok"})
	}))

	token, err := c.BindSession(context.Background(), "betorion", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "plat-tok", token)
	assert.Equal(t, "sess-1", got["sessionId"])
	assert.Equal(t, "betorion", got["site"])
}

func TestBindSessionEmptyToken(t *testing.T) {
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	_, err := c.BindSession(context.Background(), "betorion", "sess-1")
	assert.ErrorContains(t, err, "no token")
}

func singleLegSpec(t *testing.T) *domain.WagerSpec {
	t.Helper()
	spec, err := domain.NewWagerBuilder().
		AddLeg(domain.Leg{OddID: "o1", EventID: "e1", MarketID: "m1", SelectionID: "s1", SelectionTypeID: 2, SportTypeID: 1, Price: 1.85}).
		Stake(500).
		Build()
	require.NoError(t, err)
	return spec
}

func TestPlaceBetSingle(t *testing.T) {
	var got placeBetRequest
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bets/place", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result":{"betId":"HV-1"}}`))
	}))

	raw, err := c.PlaceBet(context.Background(), "plat-tok", singleLegSpec(t), 500)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"betId":"HV-1"}}`, string(raw))

	assert.Equal(t, "plat-tok", got.Token)
	assert.Equal(t, "single", got.Type)
	assert.InDelta(t, 5.0, got.Amount, 1e-9)
	require.Len(t, got.Bets, 1)
	assert.Equal(t, "o1", got.Bets[0].OddID)
	assert.InDelta(t, 1.85, got.Bets[0].Price, 1e-9)
}

func TestPlaceBetCombinationIsExpress(t *testing.T) {
	var got placeBetRequest
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result":{"betId":"HV-2"}}`))
	}))

	spec, err := domain.NewWagerBuilder().
		AddLeg(domain.Leg{OddID: "o1", EventID: "e1", MarketID: "m1", Price: 1.5}).
		AddLeg(domain.Leg{OddID: "o2", EventID: "e2", MarketID: "m2", Price: 2.0}).
		Stake(1000).
		Build()
	require.NoError(t, err)

	_, err = c.PlaceBet(context.Background(), "tok", spec, 1000)
	require.NoError(t, err)
	assert.Equal(t, "express", got.Type)
	assert.Len(t, got.Bets, 2)
}

func TestPlaceBetLogicalRejectionStaysRaw(t *testing.T) {
	// A 200 body with an error envelope is not an error here; normalization
	// deals with it.
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"2300","message":"odds changed"}}`))
	}))

	raw, err := c.PlaceBet(context.Background(), "tok", singleLegSpec(t), 500)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2300")
}

func TestPlaceBetStatusFailure(t *testing.T) {
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "NET_DOWN", "message": "maintenance"},
		})
	}))

	_, err := c.PlaceBet(context.Background(), "tok", singleLegSpec(t), 500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NET_DOWN")
}

func TestCurrentPrices(t *testing.T) {
	var got currentOddsRequest
	c := newTestNetwork(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/odds/current", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"odds":[{"oddId":"o1","price":1.92},{"oddId":"o2","price":2.05}]}`))
	}))

	prices, err := c.CurrentPrices(context.Background(), []domain.LegKey{
		{OddID: "o1", EventID: "e1", MarketID: "m1"},
		{OddID: "o2", EventID: "e2", MarketID: "m2"},
	})
	require.NoError(t, err)
	assert.Len(t, got.Selections, 2)
	assert.InDelta(t, 1.92, prices["o1"], 1e-9)
	assert.InDelta(t, 2.05, prices["o2"], 1e-9)
}

func TestDecodeAPIErrorFallsBackToBody(t *testing.T) {
	e := decodeAPIError("/x", 500, []byte("plain text failure"))
	assert.Equal(t, "plain text failure", e.Message)
	assert.Empty(t, e.ErrorCode())

	e = decodeAPIError("/x", 502, nil)
	assert.Equal(t, http.StatusText(502), e.Message)
}
