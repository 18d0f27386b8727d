package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/betswarm/betswarm/internal/blob/s3"
	"github.com/betswarm/betswarm/internal/cache/redis"
	"github.com/betswarm/betswarm/internal/config"
	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/notify"
	"github.com/betswarm/betswarm/internal/odds"
	"github.com/betswarm/betswarm/internal/placement"
	"github.com/betswarm/betswarm/internal/platform"
	"github.com/betswarm/betswarm/internal/service"
	"github.com/betswarm/betswarm/internal/store/postgres"
	"github.com/betswarm/betswarm/internal/vault"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	AccountStore domain.AccountStore
	RoundStore   domain.RoundStore
	TicketStore  domain.TicketStore

	// Caches
	SessionCache   domain.SessionCache
	RateLimiter    domain.RateLimiter
	LockManager    domain.LockManager
	EventBus       domain.EventBus
	FailureCounter domain.FailureCounter

	// Blob storage, nil unless s3.enabled
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.PayloadArchiver

	// Platform access
	Factory *platform.Factory
	Vault   *vault.Vault

	// Services
	Orchestrator *placement.Orchestrator
	Placement    *service.PlacementService
	Queries      *service.QueryService

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.AccountStore = postgres.NewAccountStore(pool)
	deps.RoundStore = postgres.NewRoundStore(pool)
	deps.TicketStore = postgres.NewTicketStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SessionCache = redis.NewSessionCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.EventBus = redis.NewEventBus(redisClient)
	deps.FailureCounter = redis.NewFailureCounter(redisClient)

	// --- S3 payload archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewPayloadArchiver(deps.BlobWriter, deps.BlobReader)
	}

	// --- Credential vault ---
	v, err := vault.New(cfg.Vault.MasterPassword)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: vault: %w", err)
	}
	deps.Vault = v

	// --- Platform adapters ---
	deps.Factory = platform.NewFactory(platform.FactoryConfig{
		NetworkEndpoint: cfg.Network.Endpoint,
		SiteBaseURLs:    cfg.Sites.BaseURLs,
	})

	// Live-odds reconciliation exists only for the network family; the
	// origin-authenticated family has no odds endpoint to check against.
	recons := map[domain.PlatformFamily]*odds.Reconciler{
		domain.FamilyHivenet: odds.NewReconciler(deps.Factory.Network(), cfg.Placement.OddsTolerance, logger),
	}

	deps.Orchestrator = placement.NewOrchestrator(
		deps.Factory,
		deps.Vault,
		recons,
		deps.SessionCache,
		deps.LockManager,
		deps.RateLimiter,
		placement.Config{
			MaxConcurrent:       cfg.Placement.MaxConcurrent,
			AttemptInsufficient: cfg.Placement.AttemptInsufficient,
			SiteRateLimit:       cfg.Placement.SiteRateLimit,
			SiteRateWindow:      cfg.Placement.SiteRateWindow.Duration,
			SessionTTL:          cfg.Placement.SessionTTL.Duration,
			LockTTL:             cfg.Placement.LockTTL.Duration,
		},
		logger,
	)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Services ---
	deps.Placement = service.NewPlacementService(
		deps.AccountStore,
		deps.RoundStore,
		deps.TicketStore,
		deps.Orchestrator,
		deps.Archiver,
		deps.EventBus,
		deps.FailureCounter,
		deps.Notifier,
		logger,
	)
	deps.Queries = service.NewQueryService(
		deps.AccountStore,
		deps.RoundStore,
		deps.TicketStore,
		deps.Archiver,
		logger,
	)

	return deps, cleanup, nil
}
