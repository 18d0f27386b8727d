package placement

import (
	"context"
	"log/slog"
	"time"

	"github.com/betswarm/betswarm/internal/domain"
)

// runPipeline executes one account's full placement pipeline. The adapter
// instance and its session-cookie cache belong to this pipeline alone. A
// failure at any step terminates the pipeline for this account only; the
// raw error rides on the outcome for central classification.
func (o *Orchestrator) runPipeline(ctx context.Context, acct domain.Account, spec *domain.WagerSpec, recon *reconcileGuard) Outcome {
	log := o.logger.With(
		slog.String("account_id", acct.ID),
		slog.String("site", acct.Site),
	)

	out := Outcome{
		AccountID:     acct.ID,
		Site:          acct.Site,
		Family:        acct.Family,
		BalanceBefore: acct.BalanceCents,
		BalanceAfter:  acct.BalanceCents,
	}
	start := time.Now()
	defer func() {
		out.Elapsed = time.Since(start)
		out.PlacedAt = time.Now().UTC()
	}()

	fail := func(err error) Outcome {
		out.Err = err
		log.WarnContext(ctx, "pipeline failed", slog.String("error", err.Error()))
		return out
	}

	// Concurrent rounds must never share this account's session state.
	if o.locks != nil {
		unlock, err := o.locks.Acquire(ctx, "placement:account:"+acct.ID, o.cfg.LockTTL)
		if err != nil {
			return fail(err)
		}
		defer unlock()
	}

	if err := o.allowSite(ctx, acct.Site); err != nil {
		return fail(err)
	}

	adapter, err := o.factory.ForAccount(acct)
	if err != nil {
		return fail(err)
	}

	creds, err := o.secrets.Open(acct)
	if err != nil {
		return fail(err)
	}

	// A handshake failure means the account's cached artifacts are stale or
	// revoked; evict them before reporting the error.
	failHandshake := func(err error) Outcome {
		o.dropSession(ctx, acct.ID, log)
		return fail(err)
	}

	// 1. Authenticate.
	bearer, err := adapter.Authenticate(ctx, creds)
	if err != nil {
		return failHandshake(err)
	}
	out.Session.BearerToken = bearer

	// 2. Derive the widget session token.
	widget, err := adapter.DeriveSessionToken(ctx, bearer)
	if err != nil {
		return failHandshake(err)
	}
	out.Session.WidgetToken = widget

	// 3. Bind to the betting network.
	platformToken, err := adapter.BindNetwork(ctx, widget)
	if err != nil {
		return failHandshake(err)
	}
	out.Session.PlatformToken = platformToken
	out.Session.RefreshedAt = time.Now().UTC()

	// 4. Reconcile odds, once per unique integration for the whole round.
	if err := recon.run(ctx, acct.Family); err != nil {
		return fail(err)
	}

	// 5. Place the wager.
	raw, err := adapter.PlaceWager(ctx, platformToken, spec, spec.StakeCents())
	if err != nil {
		return fail(err)
	}
	out.Raw = raw
	out.Success = true

	// 6. Re-authenticate and re-fetch the balance. The wager already went
	// through; a failure here only costs balance freshness.
	if fresh, err := adapter.Authenticate(ctx, creds); err == nil {
		out.Session.BearerToken = fresh
		out.Session.RefreshedAt = time.Now().UTC()
		if bal, err := adapter.FetchBalance(ctx, fresh); err == nil {
			out.BalanceAfter = bal
		} else {
			log.WarnContext(ctx, "balance refresh failed", slog.String("error", err.Error()))
		}
	} else {
		log.WarnContext(ctx, "re-authentication failed", slog.String("error", err.Error()))
	}

	if o.sessions != nil {
		if err := o.sessions.Put(ctx, acct.ID, out.Session, o.cfg.SessionTTL); err != nil {
			log.WarnContext(ctx, "session cache write failed", slog.String("error", err.Error()))
		}
	}

	return out
}

// dropSession evicts an account's cached session artifacts. Best effort.
func (o *Orchestrator) dropSession(ctx context.Context, accountID string, log *slog.Logger) {
	if o.sessions == nil {
		return
	}
	if err := o.sessions.Invalidate(ctx, accountID); err != nil {
		log.WarnContext(ctx, "session cache invalidate failed", slog.String("error", err.Error()))
	}
}

// allowSite applies the per-site rate limit, if one is configured.
func (o *Orchestrator) allowSite(ctx context.Context, site string) error {
	if o.limiter == nil || o.cfg.SiteRateLimit <= 0 {
		return nil
	}
	ok, err := o.limiter.Allow(ctx, "site:"+site, o.cfg.SiteRateLimit, o.cfg.SiteRateWindow)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}
