package domain

import "time"

// PlatformFamily identifies which adapter family an account belongs to.
type PlatformFamily string

const (
	// FamilyHivenet covers sites hosted on the shared Hivenet betting
	// network. They share one placement endpoint behind per-site logins.
	FamilyHivenet PlatformFamily = "hivenet"

	// FamilySelfbook covers sites that authenticate sessions on their own
	// origin; we only harvest the cookies their hand-off URL sets.
	FamilySelfbook PlatformFamily = "selfbook"
)

// Session holds the cached authentication artifacts an adapter minted for an
// account. Artifacts are only ever replayed against the family that minted
// them.
type Session struct {
	BearerToken   string            `json:"bearer_token,omitempty"`
	WidgetToken   string            `json:"widget_token,omitempty"`
	PlatformToken string            `json:"platform_token,omitempty"`
	Cookies       map[string]string `json:"cookies,omitempty"`
	RefreshedAt   time.Time         `json:"refreshed_at"`
}

// Empty reports whether the session carries no artifacts at all.
func (s Session) Empty() bool {
	return s.BearerToken == "" && s.WidgetToken == "" && s.PlatformToken == "" && len(s.Cookies) == 0
}

// Credentials is the decrypted login material handed to an adapter. It never
// leaves process memory and is never persisted in the clear.
type Credentials struct {
	Username string
	Password string
}

// Account is one betting-site account registered in the directory. Login
// secrets are stored encrypted (see internal/vault); adapters receive the
// decrypted Credentials per call. Accounts are deactivated, never deleted.
type Account struct {
	ID           string
	Site         string
	Family       PlatformFamily
	Username     string
	SecretCipher []byte // vault-encrypted login secret
	BaseURL      string
	Session      Session
	BalanceCents int64      // last known balance in minor currency units
	BalanceAt    *time.Time // nil until the first balance refresh
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasBalanceFor reports whether the last known balance covers the given
// stake. This is a visibility partition only; whether insufficient accounts
// are still attempted is a placement policy decision.
func (a Account) HasBalanceFor(stakeCents int64) bool {
	return a.BalanceCents >= stakeCents
}

// Profile is the normalized subset of a platform profile response that the
// placement pipeline cares about.
type Profile struct {
	ExternalID string
	Username   string
	Currency   string
	FirstName  string
	LastName   string
}

// AccountFilter narrows AccountStore.Find results. Zero-valued fields are
// ignored.
type AccountFilter struct {
	Site       string
	Family     PlatformFamily
	ActiveOnly bool
	IDs        []string
}
