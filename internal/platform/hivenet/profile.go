package hivenet

import "sort"

// responseShape selects how a site wraps its balance/profile payloads.
// The network standardizes placement, but each white-label site fronts it
// with its own account API vintage.
type responseShape int

const (
	// shapeFlat: fields at the top level, e.g. {"balance": 12.34}.
	shapeFlat responseShape = iota
	// shapeData: wrapped in a data envelope, e.g. {"data":{"balance": ...}}.
	shapeData
	// shapeWallet: nested wallet object, e.g. {"data":{"wallet":{"amount": ...}}}.
	shapeWallet
)

// siteProfile captures everything site-specific about a hivenet member so
// one generic adapter serves every site. Adding a site is a table entry, not
// a new conditional branch.
type siteProfile struct {
	name             string
	defaultBaseURL   string
	loginField       string            // name of the identifier field in the login payload
	extraLoginFields map[string]string // constant fields some sites insist on
	balancePath      string
	profilePath      string
	balanceShape     responseShape
	profileShape     responseShape

	// sessionFromCookie marks sites whose widget session id is not derived
	// from the bearer token but read from a cookie captured at login.
	sessionFromCookie bool
	sessionCookieName string
}

var profiles = map[string]siteProfile{
	"betorion": {
		name:           "betorion",
		defaultBaseURL: "https://api.betorion.example",
		loginField:     "login",
		balancePath:    "/api/v1/user/balance",
		profilePath:    "/api/v1/user/profile",
		balanceShape:   shapeFlat,
		profileShape:   shapeFlat,
	},
	"maxstake": {
		name:           "maxstake",
		defaultBaseURL: "https://app.maxstake.example",
		loginField:     "email",
		extraLoginFields: map[string]string{
			"client": "web",
		},
		balancePath:  "/api/v1/account/balance",
		profilePath:  "/api/v1/account/me",
		balanceShape: shapeData,
		profileShape: shapeData,
	},
	"winfield": {
		name:           "winfield",
		defaultBaseURL: "https://api.winfield.example",
		loginField:     "username",
		balancePath:    "/api/v2/wallet",
		profilePath:    "/api/v2/profile",
		balanceShape:   shapeWallet,
		profileShape:   shapeData,
	},
	"luckypick": {
		name:           "luckypick",
		defaultBaseURL: "https://www.luckypick.example",
		loginField:     "login",
		extraLoginFields: map[string]string{
			"remember": "true",
		},
		balancePath:       "/api/v1/user/balance",
		profilePath:       "/api/v1/user/profile",
		balanceShape:      shapeFlat,
		profileShape:      shapeFlat,
		sessionFromCookie: true,
		sessionCookieName: "hv_sid",
	},
}

// Sites returns the sorted identifiers of every hivenet member site.
func Sites() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// profileFor looks up the site profile table.
func profileFor(site string) (siteProfile, bool) {
	p, ok := profiles[site]
	return p, ok
}
