// Package hivenet implements the network-hosted platform family: white-label
// betting sites that authenticate locally but place every wager through the
// shared hivenet network endpoint. One generic adapter serves all member
// sites; everything site-specific lives in the profile table.
package hivenet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/betswarm/betswarm/internal/domain"
)

// Adapter is the generic hivenet site adapter. An instance is bound to one
// site and one account pipeline; its cookie jar accumulates login cookies
// between calls and must never be shared across pipelines.
type Adapter struct {
	profile    siteProfile
	baseURL    string
	network    *NetworkClient
	httpClient *http.Client
}

// New constructs an adapter for the given member site. baseURL may be empty
// to use the site's default. The network client may be shared; it is
// stateless.
func New(site, baseURL string, network *NetworkClient) (*Adapter, error) {
	p, ok := profileFor(site)
	if !ok {
		return nil, fmt.Errorf("hivenet: %w: %q", domain.ErrUnknownSite, site)
	}
	if baseURL == "" {
		baseURL = p.defaultBaseURL
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("hivenet: cookie jar: %w", err)
	}

	return &Adapter{
		profile: p,
		baseURL: baseURL,
		network: network,
		httpClient: &http.Client{
			Timeout: defaultCallTimeout,
			Jar:     jar,
		},
	}, nil
}

// Site returns the member site identifier.
func (a *Adapter) Site() string { return a.profile.name }

// Family returns domain.FamilyHivenet.
func (a *Adapter) Family() domain.PlatformFamily { return domain.FamilyHivenet }

// Authenticate logs in against the site and returns the bearer token. Login
// cookies land in the adapter's jar; the luckypick session derivation reads
// one of them later.
func (a *Adapter) Authenticate(ctx context.Context, creds domain.Credentials) (string, error) {
	body := map[string]string{
		a.profile.loginField: creds.Username,
		"password":           creds.Password,
	}
	for k, v := range a.profile.extraLoginFields {
		body[k] = v
	}

	respBody, err := a.post(ctx, "/api/v1/auth/login", "", body)
	if err != nil {
		return "", fmt.Errorf("hivenet: %s: authenticate: %w", a.profile.name, err)
	}

	var resp loginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("hivenet: %s: decode login response: %w", a.profile.name, err)
	}
	token := resp.AccessToken
	if token == "" && resp.Data != nil {
		token = resp.Data.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("hivenet: %s: login response carried no access token", a.profile.name)
	}
	return token, nil
}

// DeriveSessionToken exchanges the bearer token for the widget session id.
// Sites flagged sessionFromCookie skip the exchange and read the session id
// from the cookie their login set instead.
func (a *Adapter) DeriveSessionToken(ctx context.Context, bearer string) (string, error) {
	if a.profile.sessionFromCookie {
		sid := a.cookieValue(a.profile.sessionCookieName)
		if sid == "" {
			return "", fmt.Errorf("hivenet: %s: session cookie %q not captured at login", a.profile.name, a.profile.sessionCookieName)
		}
		return sid, nil
	}

	respBody, err := a.post(ctx, "/api/v1/widget/session", bearer, struct{}{})
	if err != nil {
		return "", fmt.Errorf("hivenet: %s: derive session: %w", a.profile.name, err)
	}

	var resp widgetSessionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("hivenet: %s: decode session response: %w", a.profile.name, err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("hivenet: %s: session response carried no session id", a.profile.name)
	}
	return resp.SessionID, nil
}

// BindNetwork binds the widget session to the betting network.
func (a *Adapter) BindNetwork(ctx context.Context, widgetToken string) (string, error) {
	return a.network.BindSession(ctx, a.profile.name, widgetToken)
}

// FetchBalance reads the account balance and converts it to minor units.
func (a *Adapter) FetchBalance(ctx context.Context, bearer string) (int64, error) {
	respBody, err := a.get(ctx, a.profile.balancePath, bearer)
	if err != nil {
		return 0, fmt.Errorf("hivenet: %s: fetch balance: %w", a.profile.name, err)
	}

	var resp balanceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("hivenet: %s: decode balance: %w", a.profile.name, err)
	}

	var amount float64
	switch a.profile.balanceShape {
	case shapeFlat:
		amount = resp.Balance
	case shapeData:
		if resp.Data == nil {
			return 0, fmt.Errorf("hivenet: %s: balance response missing data envelope", a.profile.name)
		}
		amount = resp.Data.Balance
	case shapeWallet:
		if resp.Data == nil || resp.Data.Wallet == nil {
			return 0, fmt.Errorf("hivenet: %s: balance response missing wallet", a.profile.name)
		}
		amount = resp.Data.Wallet.Amount
	}

	return int64(amount*100 + 0.5), nil
}

// FetchProfile reads and normalizes the account profile.
func (a *Adapter) FetchProfile(ctx context.Context, bearer string) (domain.Profile, error) {
	respBody, err := a.get(ctx, a.profile.profilePath, bearer)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("hivenet: %s: fetch profile: %w", a.profile.name, err)
	}

	var resp profileResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return domain.Profile{}, fmt.Errorf("hivenet: %s: decode profile: %w", a.profile.name, err)
	}

	src := profileData{
		ID:        resp.ID,
		Username:  resp.Username,
		Currency:  resp.Currency,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
	}
	if a.profile.profileShape == shapeData {
		if resp.Data == nil {
			return domain.Profile{}, fmt.Errorf("hivenet: %s: profile response missing data envelope", a.profile.name)
		}
		src = *resp.Data
	}

	return domain.Profile{
		ExternalID: src.ID,
		Username:   src.Username,
		Currency:   src.Currency,
		FirstName:  src.FirstName,
		LastName:   src.LastName,
	}, nil
}

// PlaceWager submits the wager through the shared network endpoint.
func (a *Adapter) PlaceWager(ctx context.Context, platformToken string, spec *domain.WagerSpec, stakeCents int64) (json.RawMessage, error) {
	return a.network.PlaceBet(ctx, platformToken, spec, stakeCents)
}

// cookieValue returns the named cookie captured for the site base URL.
func (a *Adapter) cookieValue(name string) string {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return ""
	}
	for _, c := range a.httpClient.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (a *Adapter) post(ctx context.Context, path, bearer string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return a.do(req, path)
}

func (a *Adapter) get(ctx context.Context, path, bearer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return a.do(req, path)
}

func (a *Adapter) do(req *http.Request, path string) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
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
