// Package placement fans one wager decision out across many accounts and
// collects per-account outcomes without letting any pipeline disturb
// another.
package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/odds"
	"github.com/betswarm/betswarm/internal/platform"
)

// AdapterFactory constructs a fresh, pipeline-owned adapter per account.
type AdapterFactory interface {
	ForAccount(acct domain.Account) (platform.Adapter, error)
}

// SecretOpener decrypts an account's stored login secret into usable
// credentials. The vault implements it.
type SecretOpener interface {
	Open(acct domain.Account) (domain.Credentials, error)
}

// Config holds the placement policy knobs.
type Config struct {
	// MaxConcurrent caps in-flight pipelines. Zero or negative means
	// unbounded, which is only sensible for small account sets.
	MaxConcurrent int64

	// AttemptInsufficient controls whether accounts whose last known
	// balance does not cover the stake are still attempted. The default is
	// true: balances are often stale and the platform is the authority.
	AttemptInsufficient bool

	// SiteRateLimit/SiteRateWindow bound outbound calls per site across all
	// pipelines. Zero disables rate limiting.
	SiteRateLimit  int
	SiteRateWindow time.Duration

	// SessionTTL is how long minted session artifacts stay cached.
	SessionTTL time.Duration

	// LockTTL bounds how long a pipeline may hold its per-account lock.
	LockTTL time.Duration
}

// Outcome is one account's result of the fan-out, feeding normalization.
type Outcome struct {
	AccountID     string
	Site          string
	Family        domain.PlatformFamily
	Success       bool
	Raw           json.RawMessage // raw placement response when the call went through
	Err           error           // raw failure, classified later
	BalanceBefore int64
	BalanceAfter  int64
	Session       domain.Session // refreshed artifacts for write-back
	Elapsed       time.Duration
	PlacedAt      time.Time
}

// Result aggregates a full fan-out.
type Result struct {
	Outcomes        []Outcome
	OddsAdjusted    bool
	WallTime        time.Duration
	Attempted       int
	Succeeded       int
	Failed          int
	TotalStakeCents int64

	// InsufficientIDs lists accounts whose last known balance did not cover
	// the stake, regardless of whether they were attempted.
	InsufficientIDs []string
}

// Orchestrator runs the per-account placement pipelines. It never retries a
// pipeline and one account's failure never aborts another's: the fan-out is
// best effort, not all-or-nothing.
type Orchestrator struct {
	factory  AdapterFactory
	secrets  SecretOpener
	recons   map[domain.PlatformFamily]*odds.Reconciler
	sessions domain.SessionCache // optional
	locks    domain.LockManager  // optional
	limiter  domain.RateLimiter  // optional
	cfg      Config
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. Session cache, lock manager, and
// rate limiter are optional; pass nil to run without them.
func NewOrchestrator(
	factory AdapterFactory,
	secrets SecretOpener,
	recons map[domain.PlatformFamily]*odds.Reconciler,
	sessions domain.SessionCache,
	locks domain.LockManager,
	limiter domain.RateLimiter,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 10 * time.Minute
	}
	return &Orchestrator{
		factory:  factory,
		secrets:  secrets,
		recons:   recons,
		sessions: sessions,
		locks:    locks,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// Place fans the wager out to every account and joins the full set before
// aggregating. The spec is shared read-only across pipelines; the only
// mutation is odds reconciliation, which runs once per unique integration
// and is serialized inside the spec.
func (o *Orchestrator) Place(ctx context.Context, accounts []domain.Account, spec *domain.WagerSpec) (*Result, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("placement: no accounts to place on")
	}

	stake := spec.StakeCents()
	res := &Result{Outcomes: make([]Outcome, len(accounts))}

	// Partition by balance sufficiency for visibility. The partition does
	// not gate attempts unless AttemptInsufficient is off.
	for _, acct := range accounts {
		if !acct.HasBalanceFor(stake) {
			res.InsufficientIDs = append(res.InsufficientIDs, acct.ID)
		}
	}

	var sem *semaphore.Weighted
	if o.cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(o.cfg.MaxConcurrent)
	}

	recon := newReconcileGuard(o.recons, spec)

	start := time.Now()
	var wg sync.WaitGroup
	for i, acct := range accounts {
		wg.Add(1)
		go func(idx int, acct domain.Account) {
			defer wg.Done()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					res.Outcomes[idx] = o.skippedOutcome(acct, fmt.Errorf("placement: %w", domain.ErrContextDone))
					return
				}
				defer sem.Release(1)
			}

			if !o.cfg.AttemptInsufficient && !acct.HasBalanceFor(stake) {
				res.Outcomes[idx] = o.skippedOutcome(acct, fmt.Errorf("insufficient funds: balance %d below stake %d, account not attempted", acct.BalanceCents, stake))
				return
			}

			res.Outcomes[idx] = o.runPipeline(ctx, acct, spec, recon)
		}(i, acct)
	}
	wg.Wait()

	res.WallTime = time.Since(start)
	res.OddsAdjusted = recon.adjusted()
	for _, out := range res.Outcomes {
		res.Attempted++
		res.TotalStakeCents += stake
		if out.Success {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	o.logger.InfoContext(ctx, "placement round finished",
		slog.Int("attempted", res.Attempted),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
		slog.Bool("odds_adjusted", res.OddsAdjusted),
		slog.Duration("wall_time", res.WallTime),
	)
	return res, nil
}

// skippedOutcome records an account that never reached its adapter.
func (o *Orchestrator) skippedOutcome(acct domain.Account, err error) Outcome {
	return Outcome{
		AccountID:     acct.ID,
		Site:          acct.Site,
		Family:        acct.Family,
		Err:           err,
		BalanceBefore: acct.BalanceCents,
		BalanceAfter:  acct.BalanceCents,
		PlacedAt:      time.Now().UTC(),
	}
}

// reconcileGuard runs odds reconciliation once per unique integration for a
// round, no matter how many pipelines share the integration.
type reconcileGuard struct {
	recons map[domain.PlatformFamily]*odds.Reconciler
	spec   *domain.WagerSpec

	mu    sync.Mutex
	onces map[domain.PlatformFamily]*sync.Once
	adj   bool
	errs  map[domain.PlatformFamily]error
}

func newReconcileGuard(recons map[domain.PlatformFamily]*odds.Reconciler, spec *domain.WagerSpec) *reconcileGuard {
	return &reconcileGuard{
		recons: recons,
		spec:   spec,
		onces:  make(map[domain.PlatformFamily]*sync.Once),
		errs:   make(map[domain.PlatformFamily]error),
	}
}

// run executes the family's reconciliation exactly once; later callers for
// the same integration observe the first call's error.
func (g *reconcileGuard) run(ctx context.Context, family domain.PlatformFamily) error {
	r, ok := g.recons[family]
	if !ok {
		return nil // family has no live-odds integration
	}

	g.mu.Lock()
	once, ok := g.onces[family]
	if !ok {
		once = &sync.Once{}
		g.onces[family] = once
	}
	g.mu.Unlock()

	once.Do(func() {
		adjusted, err := r.Reconcile(ctx, g.spec)
		g.mu.Lock()
		if adjusted {
			g.adj = true
		}
		g.errs[family] = err
		g.mu.Unlock()
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errs[family]
}

func (g *reconcileGuard) adjusted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adj
}
