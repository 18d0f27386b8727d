// Package platform defines the uniform adapter contract every betting-site
// integration implements, plus the factory resolving site identifiers to
// constructed adapters.
package platform

import (
	"context"
	"encoding/json"

	"github.com/betswarm/betswarm/internal/domain"
)

// Adapter is the uniform operation set over one betting site. An adapter
// instance is exclusively owned by a single placement pipeline for its
// duration; its in-memory session-cookie cache may mutate between calls but
// the adapter must never retry a failed call on its own. Raw failures
// (network errors, status codes, malformed bodies) propagate unmodified;
// classification is central, never here.
type Adapter interface {
	// Site returns the site identifier the adapter was constructed for.
	Site() string

	// Family returns the platform family the adapter belongs to.
	Family() domain.PlatformFamily

	// Authenticate performs the site login and returns the primary bearer
	// token.
	Authenticate(ctx context.Context, creds domain.Credentials) (string, error)

	// DeriveSessionToken exchanges the primary token for the widget session
	// token used by the betting network hand-off.
	DeriveSessionToken(ctx context.Context, bearer string) (string, error)

	// BindNetwork binds the widget session to the betting network and
	// returns the platform token the placement endpoint accepts.
	BindNetwork(ctx context.Context, widgetToken string) (string, error)

	// FetchBalance returns the account balance in minor currency units.
	FetchBalance(ctx context.Context, bearer string) (int64, error)

	// FetchProfile returns the normalized account profile.
	FetchProfile(ctx context.Context, bearer string) (domain.Profile, error)

	// PlaceWager submits the wager with the given per-account stake and
	// returns the raw platform response for central normalization.
	PlaceWager(ctx context.Context, platformToken string, spec *domain.WagerSpec, stakeCents int64) (json.RawMessage, error)
}
