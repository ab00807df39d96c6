package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"verimint/internal/chain/algod"
	"verimint/internal/credential"
	credentialstore "verimint/internal/credential/store"
	jwttoken "verimint/internal/jwt_token"
	minthandler "verimint/internal/mint/handler"
	mintmetrics "verimint/internal/mint/metrics"
	mintmodels "verimint/internal/mint/models"
	mintports "verimint/internal/mint/ports"
	mintservice "verimint/internal/mint/service"
	"verimint/internal/mint/store/ledger"
	"verimint/internal/platform/config"
	"verimint/internal/platform/metrics"
	"verimint/internal/platform/postgres"
	redisclient "verimint/internal/platform/redis"
	rlmetrics "verimint/internal/ratelimit/metrics"
	ratelimit "verimint/internal/ratelimit/middleware"
	rlmodels "verimint/internal/ratelimit/models"
	"verimint/internal/ratelimit/store/bucket"
	vfeed "verimint/internal/verification/feed"
	vhandler "verimint/internal/verification/handler"
	vmetrics "verimint/internal/verification/metrics"
	vports "verimint/internal/verification/ports"
	"verimint/internal/verification/reconciler"
	vservice "verimint/internal/verification/service"
	"verimint/internal/verification/store/status"
	"verimint/internal/wallet/adapters/devkey"
	wallethandler "verimint/internal/wallet/handler"
	walletmetrics "verimint/internal/wallet/metrics"
	walletports "verimint/internal/wallet/ports"
	walletservice "verimint/internal/wallet/service"
	"verimint/internal/wallet/store/authorization"
	"verimint/pkg/platform/audit/publisher"
	auditmemory "verimint/pkg/platform/audit/store/memory"
	auditpostgres "verimint/pkg/platform/audit/store/postgres"
	"verimint/pkg/platform/httputil"
	txcontext "verimint/pkg/platform/tx"
)

type app struct {
	router       http.Handler
	verification *vservice.Service
	feedRunner   func(ctx context.Context) error
	closers      []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// backends are the optional shared connections. Either may be nil.
type backends struct {
	db    *sql.DB
	redis *redisclient.Client
}

func wire(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	b, err := connect(ctx, cfg, log, a)
	if err != nil {
		a.close()
		return nil, err
	}

	auditPublisher := newAuditPublisher(b, log)
	a.closers = append(a.closers, auditPublisher.Close)

	// Verification
	hub := vfeed.NewHub(vfeed.WithBuffer(cfg.Feed.SubscriberBuff))
	var statusStore vports.StatusStore
	if b.db != nil {
		statusStore = status.NewPostgres(b.db)
	} else {
		statusStore = status.NewInMemory(status.WithChangeHook(hub.Publish), status.WithAutoProvision())
	}
	changeFeed, runner, err := newChangeFeed(cfg, b, hub, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.feedRunner = runner

	rec, err := reconciler.New(statusStore, changeFeed,
		reconciler.WithPollInterval(cfg.Verification.PollInterval),
		reconciler.WithDeadline(cfg.Verification.Deadline),
		reconciler.WithLogger(log),
		reconciler.WithMetrics(vmetrics.New()),
		reconciler.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	verificationOpts := []vservice.Option{
		vservice.WithLogger(log),
		vservice.WithAuditPublisher(auditPublisher),
		vservice.WithDevMode(cfg.Server.DevMode),
	}
	if b.db != nil {
		verificationOpts = append(verificationOpts, vservice.WithTxRunner(txcontext.NewRunner(b.db)))
	}
	verification, err := vservice.New(rec, statusStore, verificationOpts...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.verification = verification

	// Wallet
	connector, err := devkey.New(cfg.Wallet.Mnemonic, devkey.WithApprover(devkey.Always(cfg.Wallet.AutoApprove)))
	if err != nil {
		a.close()
		return nil, err
	}
	wallet, err := walletservice.New(connector,
		walletservice.WithLogger(log),
		walletservice.WithMetrics(walletmetrics.New()),
		walletservice.WithAuditPublisher(auditPublisher),
		walletservice.WithAuthorizationCache(newAuthorizationCache(b)),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, wallet.Close)
	if conn, err := wallet.ReconnectExisting(ctx); err != nil {
		log.Warn("wallet reconnect failed", "error", err)
	} else if conn.Connected {
		log.Info("wallet connection restored", "address", conn.Address)
	}

	// Mint
	chainClient, err := algod.Dial(cfg.Algod.Address, cfg.Algod.Token, algod.WithLogger(log))
	if err != nil {
		a.close()
		return nil, err
	}
	credentials := credential.New(newFlagStore(b),
		credential.WithLogger(log),
		credential.WithSessionMarker(verification),
	)
	mint, err := mintservice.New(chainClient, wallet, newLedger(b), credentials,
		mintservice.WithLogger(log),
		mintservice.WithMetrics(mintmetrics.New()),
		mintservice.WithAuditPublisher(auditPublisher),
		mintservice.WithVerificationGate(verification),
		mintservice.WithDevMode(cfg.Server.DevMode),
		mintservice.WithSettings(mintmodels.Settings{
			UnitName:        cfg.Mint.UnitName,
			AssetNamePrefix: cfg.Mint.AssetNamePrefix,
			MetadataURL:     cfg.Mint.MetadataURL,
			MaxWaitRounds:   cfg.Mint.MaxWaitRounds,
			ConfirmTimeout:  cfg.Mint.ConfirmTimeout,
		}),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	// HTTP
	httpMetrics := metrics.New()
	jwtValidator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "verimint", "verimint-dashboard"),
	)
	limiter := newRateLimiter(cfg, b, log)
	promptThrottle := limiter.PerUser(rlmodels.ClassWalletPrompt)
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(b, rec))
	vhandler.New(verification, log, httpMetrics, jwtValidator,
		vhandler.WithThrottle(limiter.PerUser(rlmodels.ClassVerificationStart)),
	).Register(r)
	wallethandler.New(wallet, log, httpMetrics, jwtValidator,
		wallethandler.WithThrottle(promptThrottle),
	).Register(r)
	minthandler.New(mint, wallet, log, httpMetrics, jwtValidator,
		minthandler.WithThrottle(promptThrottle),
	).Register(r)
	a.router = r

	return a, nil
}

func connect(ctx context.Context, cfg *config.Config, log *slog.Logger, a *app) (backends, error) {
	var b backends
	if cfg.Database.URL != "" {
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(cfg.Database.URL); err != nil {
				return b, err
			}
			log.Info("database migrations applied")
		}
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return b, err
		}
		b.db = db
		a.closers = append(a.closers, func() { _ = db.Close() })
	}

	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return b, err
	}
	if client != nil {
		b.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}
	return b, nil
}

func newRateLimiter(cfg *config.Config, b backends, log *slog.Logger) *ratelimit.Middleware {
	var store ratelimit.Store = bucket.NewInMemory()
	if b.redis != nil {
		store = bucket.NewRedis(b.redis.Client)
	}
	return ratelimit.New(store, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(rlmetrics.New()),
		ratelimit.WithPolicy(rlmodels.ClassWalletPrompt, rlmodels.Policy{
			Limit:  cfg.RateLimit.PromptLimit,
			Window: cfg.RateLimit.PromptWindow,
		}),
		ratelimit.WithPolicy(rlmodels.ClassVerificationStart, rlmodels.Policy{
			Limit:  cfg.RateLimit.StartLimit,
			Window: cfg.RateLimit.StartWindow,
		}),
	)
}

func newAuditPublisher(b backends, log *slog.Logger) *publisher.Publisher {
	var store publisher.Store = auditmemory.NewInMemoryStore()
	if b.db != nil {
		store = auditpostgres.New(b.db)
	}
	return publisher.NewPublisher(store, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
}

// newChangeFeed selects the push channel. The returned runner, if any, must
// run for the life of the process.
func newChangeFeed(cfg *config.Config, b backends, hub *vfeed.Hub, log *slog.Logger) (vports.ChangeFeed, func(context.Context) error, error) {
	switch cfg.Feed.Driver {
	case config.FeedMemory:
		return hub, nil, nil
	case config.FeedPostgres:
		if cfg.Database.URL == "" {
			return nil, nil, errors.New("FEED_DRIVER=postgres requires DATABASE_URL")
		}
		pf, err := vfeed.NewPostgres(cfg.Database.URL, cfg.Feed.PostgresChan, hub, vfeed.WithPostgresLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return pf, pf.Run, nil
	case config.FeedRedis:
		if b.redis == nil {
			return nil, nil, errors.New("FEED_DRIVER=redis requires REDIS_URL")
		}
		return vfeed.NewRedis(b.redis.Client, cfg.Feed.RedisPrefix,
			vfeed.WithRedisLogger(log),
			vfeed.WithRedisBuffer(cfg.Feed.SubscriberBuff),
		), nil, nil
	case config.FeedKafka:
		kf, err := vfeed.NewKafka(cfg.Feed.KafkaBrokers, cfg.Feed.KafkaTopic, hub, vfeed.WithKafkaLogger(log))
		if err != nil {
			return nil, nil, err
		}
		run := func(ctx context.Context) error {
			if err := kf.EnsureTopic(ctx); err != nil {
				log.Warn("kafka topic check failed", "topic", cfg.Feed.KafkaTopic, "error", err)
			}
			return kf.Run(ctx)
		}
		return kf, run, nil
	default:
		return nil, nil, fmt.Errorf("unknown FEED_DRIVER %q", cfg.Feed.Driver)
	}
}

func newLedger(b backends) mintports.Ledger {
	if b.redis != nil {
		return ledger.NewRedis(b.redis.Client)
	}
	return ledger.NewInMemory()
}

// newFlagStore prefers the profiles table, then Redis.
func newFlagStore(b backends) credential.FlagStore {
	switch {
	case b.db != nil:
		return credentialstore.NewPostgres(b.db)
	case b.redis != nil:
		return credentialstore.NewRedis(b.redis.Client)
	default:
		return credentialstore.NewInMemory()
	}
}

func newAuthorizationCache(b backends) walletports.AuthorizationCache {
	if b.redis != nil {
		return authorization.NewRedis(b.redis.Client)
	}
	return authorization.NewInMemory()
}

// storeHealth reports the status-store breaker of the reconciler.
type storeHealth interface {
	StoreDegraded() bool
}

func healthHandler(b backends, statusStore storeHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{"status_store": "ok"}
		healthy := true
		if statusStore.StoreDegraded() {
			checks["status_store"] = "degraded"
			healthy = false
		}
		if b.db != nil {
			checks["postgres"] = "ok"
			if err := b.db.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if b.redis != nil {
			checks["redis"] = "ok"
			if err := b.redis.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
	}
}
