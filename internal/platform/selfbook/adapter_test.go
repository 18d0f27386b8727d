package selfbook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestAuthenticateHarvestsSessionCookie(t *testing.T) {
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/launch/external":
			gotUser = r.URL.Query().Get("user")
			http.SetCookie(w, &http.Cookie{Name: "tracking", Value: "x", Path: "/"})
			http.Redirect(w, r, "/landing", http.StatusFound)
		case "/landing":
			http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "sb-session", Path: "/"})
		}
	}))
	defer srv.Close()

	a, err := New(srv.URL)
	require.NoError(t, err)

	token, err := a.Authenticate(context.Background(), domain.Credentials{Username: "alice"})
	require.NoError(t, err)
	// The redirect chain ran and the conventional session cookie won over
	// the tracking cookie.
	assert.Equal(t, "sb-session", token)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "x", a.Cookies()["tracking"])
}

func TestAuthenticateNoCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	a, err := New(srv.URL)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), domain.Credentials{Username: "alice"})
	assert.ErrorContains(t, err, "no session cookie")
}

func TestPassThroughSteps(t *testing.T) {
	a, err := New("https://betrover.example")
	require.NoError(t, err)

	sid, err := a.DeriveSessionToken(context.Background(), "cookie-value")
	require.NoError(t, err)
	assert.Equal(t, "cookie-value", sid)

	tok, err := a.BindNetwork(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, "cookie-value", tok)

	_, err = a.DeriveSessionToken(context.Background(), "")
	assert.Error(t, err)
	_, err = a.BindNetwork(context.Background(), "")
	assert.Error(t, err)
}

func TestUnintegratedOperationsFailFast(t *testing.T) {
	a, err := New("https://betrover.example")
	require.NoError(t, err)

	_, err = a.FetchBalance(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrNotImplemented)

	_, err = a.FetchProfile(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrNotImplemented)

	_, err = a.PlaceWager(context.Background(), "tok", nil, 100)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestIdentity(t *testing.T) {
	a, err := New("https://betrover.example")
	require.NoError(t, err)
	assert.Equal(t, SiteName, a.Site())
	assert.Equal(t, domain.FamilySelfbook, a.Family())
}
