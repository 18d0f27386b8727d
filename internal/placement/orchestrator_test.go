package placement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/odds"
	"github.com/betswarm/betswarm/internal/platform"
)

// fakeAdapter scripts one account's pipeline behavior.
type fakeAdapter struct {
	site    string
	family  domain.PlatformFamily
	authErr error
	bindErr error

	placeErr   error
	placeResp  json.RawMessage
	placeCalls *atomic.Int32

	balance int64
}

func (f *fakeAdapter) Site() string                  { return f.site }
func (f *fakeAdapter) Family() domain.PlatformFamily { return f.family }

func (f *fakeAdapter) Authenticate(context.Context, domain.Credentials) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return "bearer-token", nil
}

func (f *fakeAdapter) DeriveSessionToken(_ context.Context, bearer string) (string, error) {
	return "widget-" + bearer, nil
}

func (f *fakeAdapter) BindNetwork(_ context.Context, widget string) (string, error) {
	if f.bindErr != nil {
		return "", f.bindErr
	}
	return "platform-" + widget, nil
}

func (f *fakeAdapter) FetchBalance(context.Context, string) (int64, error) {
	return f.balance, nil
}

func (f *fakeAdapter) FetchProfile(context.Context, string) (domain.Profile, error) {
	return domain.Profile{}, nil
}

func (f *fakeAdapter) PlaceWager(context.Context, string, *domain.WagerSpec, int64) (json.RawMessage, error) {
	if f.placeCalls != nil {
		f.placeCalls.Add(1)
	}
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.placeResp, nil
}

// fakeFactory hands out the scripted adapter per account id.
type fakeFactory struct {
	adapters map[string]*fakeAdapter
}

func (f *fakeFactory) ForAccount(acct domain.Account) (platform.Adapter, error) {
	a, ok := f.adapters[acct.ID]
	if !ok {
		return nil, fmt.Errorf("no adapter scripted for %s", acct.ID)
	}
	return a, nil
}

type fakeOpener struct{}

func (fakeOpener) Open(acct domain.Account) (domain.Credentials, error) {
	return domain.Credentials{Username: acct.Username, Password: "pw"}, nil
}

type fakeOddsFeed struct {
	prices map[string]float64
	calls  atomic.Int32
}

func (f *fakeOddsFeed) CurrentPrices(_ context.Context, legs []domain.LegKey) (map[string]float64, error) {
	f.calls.Add(1)
	return f.prices, nil
}

type fakeSessions struct {
	mu          sync.Mutex
	puts        map[string]domain.Session
	invalidated []string
}

func (f *fakeSessions) Put(_ context.Context, id string, s domain.Session, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = make(map[string]domain.Session)
	}
	f.puts[id] = s
	return nil
}

func (f *fakeSessions) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSpec(t *testing.T, price float64) *domain.WagerSpec {
	t.Helper()
	spec, err := domain.NewWagerBuilder().
		AddLeg(domain.Leg{OddID: "odd-1", EventID: "ev", MarketID: "mk", Price: price}).
		Stake(100).
		Build()
	require.NoError(t, err)
	return spec
}

func hivenetAccount(id string) domain.Account {
	return domain.Account{
		ID:           id,
		Site:         "betorion",
		Family:       domain.FamilyHivenet,
		Username:     id + "@example",
		BalanceCents: 10_000,
		Active:       true,
	}
}

func successBody(betID string) json.RawMessage {
	return json.RawMessage(`{"result":{"betId":"` + betID + `","price":1.5,"possibleWin":1.5}}`)
}

func TestPlaceAllSucceed(t *testing.T) {
	accounts := []domain.Account{hivenetAccount("a1"), hivenetAccount("a2"), hivenetAccount("a3")}
	factory := &fakeFactory{adapters: map[string]*fakeAdapter{}}
	for _, a := range accounts {
		factory.adapters[a.ID] = &fakeAdapter{
			site:      a.Site,
			family:    a.Family,
			placeResp: successBody("bet-" + a.ID),
			balance:   9_900,
		}
	}
	sessions := &fakeSessions{}

	o := NewOrchestrator(factory, fakeOpener{}, nil, sessions, nil, nil,
		Config{MaxConcurrent: 8, AttemptInsufficient: true}, discardLogger())

	res, err := o.Place(context.Background(), accounts, testSpec(t, 1.5))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, int64(300), res.TotalStakeCents)
	assert.Empty(t, res.InsufficientIDs)
	assert.False(t, res.OddsAdjusted)

	for _, out := range res.Outcomes {
		assert.True(t, out.Success)
		assert.NotEmpty(t, out.Raw)
		assert.Equal(t, int64(9_900), out.BalanceAfter)
		assert.Equal(t, "bearer-token", out.Session.BearerToken)
		assert.NotEmpty(t, out.Session.PlatformToken)
	}
	// Every pipeline wrote its refreshed session back to the cache.
	assert.Len(t, sessions.puts, 3)
}

func TestPlaceOneAuthFailureDoesNotDisturbOthers(t *testing.T) {
	accounts := []domain.Account{hivenetAccount("good"), hivenetAccount("bad")}
	badCalls := &atomic.Int32{}
	factory := &fakeFactory{adapters: map[string]*fakeAdapter{
		"good": {site: "betorion", family: domain.FamilyHivenet, placeResp: successBody("bet-1"), balance: 9_900},
		"bad":  {site: "betorion", family: domain.FamilyHivenet, authErr: errors.New("401 unauthorized"), placeCalls: badCalls},
	}}
	sessions := &fakeSessions{}

	o := NewOrchestrator(factory, fakeOpener{}, nil, sessions, nil, nil,
		Config{AttemptInsufficient: true}, discardLogger())

	res, err := o.Place(context.Background(), accounts, testSpec(t, 1.5))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	var badOut *Outcome
	for i := range res.Outcomes {
		if res.Outcomes[i].AccountID == "bad" {
			badOut = &res.Outcomes[i]
		}
	}
	require.NotNil(t, badOut)
	assert.False(t, badOut.Success)
	assert.ErrorContains(t, badOut.Err, "unauthorized")
	// The failed handshake never reached placement.
	assert.Zero(t, badCalls.Load())

	// The stale session was evicted for the failing account only.
	assert.Equal(t, []string{"bad"}, sessions.invalidated)
	assert.Len(t, sessions.puts, 1)
	assert.Contains(t, sessions.puts, "good")
}

func TestPlaceAllFail(t *testing.T) {
	accounts := []domain.Account{hivenetAccount("a1"), hivenetAccount("a2")}
	factory := &fakeFactory{adapters: map[string]*fakeAdapter{
		"a1": {site: "betorion", family: domain.FamilyHivenet, placeErr: errors.New("connection reset")},
		"a2": {site: "betorion", family: domain.FamilyHivenet, bindErr: errors.New("bind rejected")},
	}}

	o := NewOrchestrator(factory, fakeOpener{}, nil, nil, nil, nil,
		Config{AttemptInsufficient: true}, discardLogger())

	res, err := o.Place(context.Background(), accounts, testSpec(t, 1.5))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	// Stakes are still accounted for failed attempts.
	assert.Equal(t, int64(200), res.TotalStakeCents)
}

func TestPlaceInsufficientBalancePolicy(t *testing.T) {
	rich := hivenetAccount("rich")
	poor := hivenetAccount("poor")
	poor.BalanceCents = 50 // below the 100 stake

	mkFactory := func(poorCalls *atomic.Int32) *fakeFactory {
		return &fakeFactory{adapters: map[string]*fakeAdapter{
			"rich": {site: "betorion", family: domain.FamilyHivenet, placeResp: successBody("b1"), balance: 9_900},
			"poor": {site: "betorion", family: domain.FamilyHivenet, placeResp: successBody("b2"), balance: 40, placeCalls: poorCalls},
		}}
	}

	t.Run("attempted by default", func(t *testing.T) {
		calls := &atomic.Int32{}
		o := NewOrchestrator(mkFactory(calls), fakeOpener{}, nil, nil, nil, nil,
			Config{AttemptInsufficient: true}, discardLogger())

		res, err := o.Place(context.Background(), []domain.Account{rich, poor}, testSpec(t, 1.5))
		require.NoError(t, err)

		assert.Equal(t, 2, res.Succeeded)
		assert.Equal(t, []string{"poor"}, res.InsufficientIDs)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("skipped when disabled", func(t *testing.T) {
		calls := &atomic.Int32{}
		o := NewOrchestrator(mkFactory(calls), fakeOpener{}, nil, nil, nil, nil,
			Config{AttemptInsufficient: false}, discardLogger())

		res, err := o.Place(context.Background(), []domain.Account{rich, poor}, testSpec(t, 1.5))
		require.NoError(t, err)

		assert.Equal(t, 1, res.Succeeded)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, []string{"poor"}, res.InsufficientIDs)
		assert.Zero(t, calls.Load())

		for _, out := range res.Outcomes {
			if out.AccountID == "poor" {
				assert.ErrorContains(t, out.Err, "insufficient funds")
			}
		}
	})
}

func TestPlaceReconcilesOncePerFamily(t *testing.T) {
	accounts := []domain.Account{hivenetAccount("a1"), hivenetAccount("a2"), hivenetAccount("a3")}
	factory := &fakeFactory{adapters: map[string]*fakeAdapter{}}
	for _, a := range accounts {
		factory.adapters[a.ID] = &fakeAdapter{
			site:      a.Site,
			family:    a.Family,
			placeResp: successBody("bet-" + a.ID),
		}
	}

	feed := &fakeOddsFeed{prices: map[string]float64{"odd-1": 1.60}}
	recons := map[domain.PlatformFamily]*odds.Reconciler{
		domain.FamilyHivenet: odds.NewReconciler(feed, 0.01, discardLogger()),
	}

	o := NewOrchestrator(factory, fakeOpener{}, recons, nil, nil, nil,
		Config{AttemptInsufficient: true}, discardLogger())

	spec := testSpec(t, 1.50)
	res, err := o.Place(context.Background(), accounts, spec)
	require.NoError(t, err)

	// Three pipelines share one bulk odds query.
	assert.Equal(t, int32(1), feed.calls.Load())
	assert.True(t, res.OddsAdjusted)
	assert.InDelta(t, 1.60, spec.Legs()[0].Price, 1e-9)
}

func TestPlaceNoAccounts(t *testing.T) {
	o := NewOrchestrator(&fakeFactory{}, fakeOpener{}, nil, nil, nil, nil, Config{}, discardLogger())
	_, err := o.Place(context.Background(), nil, testSpec(t, 1.5))
	assert.Error(t, err)
}
