package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/notify"
	"github.com/betswarm/betswarm/internal/server"
	"github.com/betswarm/betswarm/internal/server/handler"
	"github.com/betswarm/betswarm/internal/server/ws"
	"github.com/betswarm/betswarm/internal/service"
)

// ServeMode runs the long-lived HTTP + WebSocket API until the context is
// cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(deps.EventBus, a.logger, ws.Config{
		Channel:   service.EventChannel,
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
			Limiter:     deps.RateLimiter,
		},
		server.Handlers{
			Health:   handler.NewHealthHandler(a.logger),
			Rounds:   handler.NewRoundHandler(deps.Placement, deps.Queries, a.logger),
			Tickets:  handler.NewTicketHandler(deps.Placement, deps.Queries, a.logger),
			Accounts: handler.NewAccountHandler(deps.Queries, a.logger),
			Sites:    handler.NewSiteHandler(a.logger),
		},
		hub,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// wagerFile is the on-disk shape place mode reads. It matches the POST
// /api/rounds request body so the same document works against both surfaces.
type wagerFile struct {
	Owner      string       `json:"owner"`
	Site       string       `json:"site"`
	AccountIDs []string     `json:"account_ids"`
	Legs       []domain.Leg `json:"legs"`
	StakeCents int64        `json:"stake_cents"`
	Kind       string       `json:"kind"`
}

// PlaceMode runs a single round from a wager request file and prints the
// outcome. It exits once the round is fully settled.
func (a *App) PlaceMode(ctx context.Context, deps *Dependencies) error {
	if a.wagerFile == "" {
		return fmt.Errorf("place mode: a wager file is required (pass -wager)")
	}

	data, err := os.ReadFile(a.wagerFile)
	if err != nil {
		return fmt.Errorf("place mode: read wager file: %w", err)
	}
	var w wagerFile
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("place mode: parse wager file: %w", err)
	}

	a.logger.InfoContext(ctx, "starting place mode",
		slog.String("file", a.wagerFile),
		slog.Int("legs", len(w.Legs)),
		slog.Int64("stake_cents", w.StakeCents),
	)

	res, err := deps.Placement.PlaceRound(ctx, service.PlaceRequest{
		Owner:      w.Owner,
		Site:       w.Site,
		AccountIDs: w.AccountIDs,
		Legs:       w.Legs,
		StakeCents: w.StakeCents,
		Kind:       domain.WagerKind(w.Kind),
	})
	if err != nil {
		return fmt.Errorf("place mode: %w", err)
	}

	title, message := notify.RoundMessage(res.Round)
	fmt.Fprintf(os.Stdout, "%s\n\n%s\n", title, message)

	if res.Round.Status == domain.RoundStatusFailed {
		return fmt.Errorf("place mode: round %s failed on every account", res.Round.ID)
	}
	return nil
}
