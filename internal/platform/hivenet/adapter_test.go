package hivenet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func newTestAdapter(t *testing.T, site string, handler http.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	a, err := New(site, srv.URL, NewNetworkClient(""))
	require.NoError(t, err)
	return a
}

func TestNewUnknownSite(t *testing.T) {
	_, err := New("nosuchsite", "", NewNetworkClient(""))
	assert.ErrorIs(t, err, domain.ErrUnknownSite)
}

func TestNewUsesDefaultBaseURL(t *testing.T) {
	a, err := New("betorion", "", NewNetworkClient(""))
	require.NoError(t, err)
	assert.Equal(t, "https://api.betorion.example", a.baseURL)
	assert.Equal(t, "betorion", a.Site())
	assert.Equal(t, domain.FamilyHivenet, a.Family())
}

func TestAuthenticateFlatToken(t *testing.T) {
	var gotBody map[string]string
	a := newTestAdapter(t, "betorion", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-1"})
	}))

	token, err := a.Authenticate(context.Background(), domain.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	// betorion logs in with a "login" field.
	assert.Equal(t, "u", gotBody["login"])
	assert.Equal(t, "p", gotBody["password"])
}

func TestAuthenticateDataEnvelopeAndExtraFields(t *testing.T) {
	var gotBody map[string]string
	a := newTestAdapter(t, "maxstake", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"accessToken": "tok-2"},
		})
	}))

	token, err := a.Authenticate(context.Background(), domain.Credentials{Username: "u@x", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	// maxstake logs in with an "email" field plus its constant client field.
	assert.Equal(t, "u@x", gotBody["email"])
	assert.Equal(t, "web", gotBody["client"])
}

func TestAuthenticateMissingToken(t *testing.T) {
	a := newTestAdapter(t, "betorion", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := a.Authenticate(context.Background(), domain.Credentials{})
	assert.ErrorContains(t, err, "no access token")
}

func TestAuthenticateErrorCarriesCode(t *testing.T) {
	a := newTestAdapter(t, "betorion", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "AUTH_001", "message": "bad credentials"},
		})
	}))

	_, err := a.Authenticate(context.Background(), domain.Credentials{})
	require.Error(t, err)

	var coded domain.CodedError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, "AUTH_001", coded.ErrorCode())
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestDeriveSessionToken(t *testing.T) {
	a := newTestAdapter(t, "betorion", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/widget/session", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-9"})
	}))

	sid, err := a.DeriveSessionToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-9", sid)
}

func TestLuckypickSessionFromCookie(t *testing.T) {
	sessionCalls := 0
	a := newTestAdapter(t, "luckypick", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "hv_sid", Value: "cookie-session", Path: "/"})
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-lp"})
		case "/api/v1/widget/session":
			sessionCalls++
		}
	}))

	_, err := a.Authenticate(context.Background(), domain.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	sid, err := a.DeriveSessionToken(context.Background(), "tok-lp")
	require.NoError(t, err)
	assert.Equal(t, "cookie-session", sid)
	// The cookie short-circuits the widget session exchange.
	assert.Zero(t, sessionCalls)
}

func TestLuckypickMissingCookie(t *testing.T) {
	a := newTestAdapter(t, "luckypick", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-lp"})
	}))

	_, err := a.Authenticate(context.Background(), domain.Credentials{})
	require.NoError(t, err)

	_, err = a.DeriveSessionToken(context.Background(), "tok-lp")
	assert.ErrorContains(t, err, "hv_sid")
}

func TestFetchBalanceShapes(t *testing.T) {
	tests := []struct {
		site string
		body string
		want int64
	}{
		{"betorion", `{"balance": 12.34, "currency": "EUR"}`, 1234},
		{"maxstake", `{"data":{"balance": 7.00}}`, 700},
		{"winfield", `{"data":{"wallet":{"amount": 5.25, "currency": "EUR"}}}`, 525},
	}
	for _, tt := range tests {
		t.Run(tt.site, func(t *testing.T) {
			a := newTestAdapter(t, tt.site, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			got, err := a.FetchBalance(context.Background(), "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchBalanceMissingEnvelope(t *testing.T) {
	a := newTestAdapter(t, "winfield", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance": 3.0}`))
	}))
	_, err := a.FetchBalance(context.Background(), "tok")
	assert.ErrorContains(t, err, "wallet")
}

func TestFetchProfileShapes(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		a := newTestAdapter(t, "betorion", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/user/profile", r.URL.Path)
			w.Write([]byte(`{"id":"123","username":"alice","currency":"EUR","firstName":"A","lastName":"B"}`))
		}))
		p, err := a.FetchProfile(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "123", p.ExternalID)
		assert.Equal(t, "alice", p.Username)
		assert.Equal(t, "EUR", p.Currency)
	})

	t.Run("data envelope", func(t *testing.T) {
		a := newTestAdapter(t, "maxstake", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"id":"456","username":"bob","currency":"USD"}}`))
		}))
		p, err := a.FetchProfile(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "456", p.ExternalID)
		assert.Equal(t, "bob", p.Username)
	})
}

func TestSites(t *testing.T) {
	sites := Sites()
	assert.Equal(t, []string{"betorion", "luckypick", "maxstake", "winfield"}, sites)
}
