// Package selfbook implements the origin-authenticated platform family.
// These sites run their own authentication; the only thing this adapter does
// is follow the account's outbound hand-off URL and harvest the session
// cookies it sets. Wager placement and balance lookup have no integration
// yet and fail fast rather than silently no-op.
package selfbook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/betswarm/betswarm/internal/domain"
)

// SiteName is the single member site of this family today.
const SiteName = "betrover"

// handoffPath is appended to the account base URL to reach the hand-off
// endpoint that mints the session cookies.
const handoffPath = "/launch/external"

const callTimeout = 15 * time.Second

// Adapter harvests origin-site session cookies. Like every adapter it is
// owned by exactly one pipeline; the jar is its private session cache.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
	jar        *cookiejar.Jar
}

// New constructs the betrover adapter for the given account base URL.
func New(baseURL string) (*Adapter, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("selfbook: base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("selfbook: cookie jar: %w", err)
	}
	return &Adapter{
		baseURL: baseURL,
		jar:     jar,
		httpClient: &http.Client{
			Timeout: callTimeout,
			Jar:     jar,
		},
	}, nil
}

// Site returns the member site identifier.
func (a *Adapter) Site() string { return SiteName }

// Family returns domain.FamilySelfbook.
func (a *Adapter) Family() domain.PlatformFamily { return domain.FamilySelfbook }

// Authenticate follows the hand-off URL, letting redirects run so every
// cookie along the chain lands in the jar, and returns the primary session
// cookie value as the token. The username rides along for audit; the origin
// site has already authenticated the account.
func (a *Adapter) Authenticate(ctx context.Context, creds domain.Credentials) (string, error) {
	u := a.baseURL + handoffPath + "?user=" + url.QueryEscape(creds.Username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("selfbook: follow hand-off: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("selfbook: hand-off returned status %d", resp.StatusCode)
	}

	if sid := a.sessionCookie(); sid != "" {
		return sid, nil
	}
	return "", fmt.Errorf("selfbook: hand-off set no session cookie")
}

// DeriveSessionToken is a pass-through: the harvested cookie already is the
// session for this family.
func (a *Adapter) DeriveSessionToken(_ context.Context, bearer string) (string, error) {
	if bearer == "" {
		return "", fmt.Errorf("selfbook: no session to derive from")
	}
	return bearer, nil
}

// BindNetwork is a pass-through for the same reason.
func (a *Adapter) BindNetwork(_ context.Context, widgetToken string) (string, error) {
	if widgetToken == "" {
		return "", fmt.Errorf("selfbook: no session to bind")
	}
	return widgetToken, nil
}

// FetchBalance has no integration for this family yet.
func (a *Adapter) FetchBalance(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("selfbook: fetch balance: %w", domain.ErrNotImplemented)
}

// FetchProfile returns the minimal profile derivable from the session.
func (a *Adapter) FetchProfile(context.Context, string) (domain.Profile, error) {
	return domain.Profile{}, fmt.Errorf("selfbook: fetch profile: %w", domain.ErrNotImplemented)
}

// PlaceWager has no integration for this family yet.
func (a *Adapter) PlaceWager(context.Context, string, *domain.WagerSpec, int64) (json.RawMessage, error) {
	return nil, fmt.Errorf("selfbook: place wager: %w", domain.ErrNotImplemented)
}

// Cookies exposes the harvested cookies for session caching.
func (a *Adapter) Cookies() map[string]string {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil
	}
	out := make(map[string]string)
	for _, c := range a.jar.Cookies(u) {
		out[c.Name] = c.Value
	}
	return out
}

// sessionCookie returns the best candidate session cookie, preferring the
// conventional names before falling back to any cookie at all.
func (a *Adapter) sessionCookie() string {
	cookies := a.Cookies()
	for _, name := range []string{"session_id", "sid", "PHPSESSID"} {
		if v := cookies[name]; v != "" {
			return v
		}
	}
	for _, v := range cookies {
		if v != "" {
			return v
		}
	}
	return ""
}
