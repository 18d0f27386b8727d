package platform

import (
	"fmt"
	"sort"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/platform/hivenet"
	"github.com/betswarm/betswarm/internal/platform/selfbook"
)

// FactoryConfig carries the endpoints the factory binds adapters to.
type FactoryConfig struct {
	// NetworkEndpoint is the shared hivenet placement endpoint.
	NetworkEndpoint string

	// SiteBaseURLs overrides the per-site default base URLs, keyed by site
	// identifier. Accounts may still override per account.
	SiteBaseURLs map[string]string
}

// Factory resolves site identifiers to constructed adapters. Each call
// returns a fresh adapter instance because adapters carry per-pipeline
// session state; the factory itself is safe for concurrent use.
type Factory struct {
	cfg     FactoryConfig
	network *hivenet.NetworkClient
}

// NewFactory creates a Factory. The hivenet network client is built once and
// shared across adapters; it is stateless.
func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{
		cfg:     cfg,
		network: hivenet.NewNetworkClient(cfg.NetworkEndpoint),
	}
}

// ForAccount constructs an adapter bound to the account's site, preferring
// the account's own base URL over the configured and default ones. Unknown
// sites are rejected with a descriptive error.
func (f *Factory) ForAccount(acct domain.Account) (Adapter, error) {
	return f.ForSite(acct.Site, acct.BaseURL)
}

// ForSite constructs an adapter for the given site identifier. baseURL may
// be empty to use the configured or default base URL.
func (f *Factory) ForSite(site, baseURL string) (Adapter, error) {
	if baseURL == "" {
		baseURL = f.cfg.SiteBaseURLs[site]
	}

	if site == selfbook.SiteName {
		return selfbook.New(baseURL)
	}

	for _, s := range hivenet.Sites() {
		if s == site {
			return hivenet.New(site, baseURL, f.network)
		}
	}

	return nil, fmt.Errorf("platform: %w: %q (supported: %v)", domain.ErrUnknownSite, site, SupportedSites())
}

// Network exposes the shared hivenet network client; the odds reconciler
// uses it as its live-odds query.
func (f *Factory) Network() *hivenet.NetworkClient {
	return f.network
}

// SupportedSites returns the closed, sorted set of site identifiers the
// factory can construct, for external validation.
func SupportedSites() []string {
	out := append([]string{}, hivenet.Sites()...)
	out = append(out, selfbook.SiteName)
	sort.Strings(out)
	return out
}

// FamilyForSite reports which platform family a supported site belongs to.
func FamilyForSite(site string) (domain.PlatformFamily, error) {
	if site == selfbook.SiteName {
		return domain.FamilySelfbook, nil
	}
	for _, s := range hivenet.Sites() {
		if s == site {
			return domain.FamilyHivenet, nil
		}
	}
	return "", fmt.Errorf("platform: %w: %q", domain.ErrUnknownSite, site)
}
