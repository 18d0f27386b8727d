package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func TestForSiteKnownSites(t *testing.T) {
	f := NewFactory(FactoryConfig{NetworkEndpoint: "https://bet.example"})

	for _, site := range SupportedSites() {
		adapter, err := f.ForSite(site, "https://api.example")
		require.NoError(t, err, "site %s", site)
		assert.Equal(t, site, adapter.Site())
	}
}

func TestForSiteUnknown(t *testing.T) {
	f := NewFactory(FactoryConfig{})
	_, err := f.ForSite("nosuchsite", "")
	assert.ErrorIs(t, err, domain.ErrUnknownSite)
}

func TestForAccountBaseURLPrecedence(t *testing.T) {
	f := NewFactory(FactoryConfig{
		SiteBaseURLs: map[string]string{"betrover": "https://configured.example"},
	})

	// The account's own base URL wins.
	adapter, err := f.ForAccount(domain.Account{Site: "betrover", BaseURL: "https://account.example"})
	require.NoError(t, err)
	assert.Equal(t, "betrover", adapter.Site())

	// Without one, the configured URL is used (selfbook refuses an empty
	// base URL, so success proves the config value arrived).
	_, err = f.ForAccount(domain.Account{Site: "betrover"})
	require.NoError(t, err)
}

func TestFreshAdapterPerCall(t *testing.T) {
	f := NewFactory(FactoryConfig{})
	a, err := f.ForSite("betorion", "")
	require.NoError(t, err)
	b, err := f.ForSite("betorion", "")
	require.NoError(t, err)
	// Adapters carry per-pipeline session state and must never be shared.
	assert.NotSame(t, a, b)
}

func TestFamilyForSite(t *testing.T) {
	fam, err := FamilyForSite("betorion")
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyHivenet, fam)

	fam, err = FamilyForSite("betrover")
	require.NoError(t, err)
	assert.Equal(t, domain.FamilySelfbook, fam)

	_, err = FamilyForSite("nosuchsite")
	assert.ErrorIs(t, err, domain.ErrUnknownSite)
}

func TestSupportedSitesSortedAndClosed(t *testing.T) {
	sites := SupportedSites()
	assert.Equal(t, []string{"betorion", "betrover", "luckypick", "maxstake", "winfield"}, sites)
}
