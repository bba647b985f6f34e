// Command entitlekitd serves the entitlement API.
//
// Configuration comes from the environment (and a .env file when present).
// The storage backend of each record kind is chosen independently through
// ENTITLEMENT_*_BACKEND; see svc/entitlement.Config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/clientip"
	"github.com/dmitrymomot/entitlekit/pkg/config"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/mongo"
	"github.com/dmitrymomot/entitlekit/pkg/mongostore"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/pgstore"
	"github.com/dmitrymomot/entitlekit/pkg/ratelimiter"
	"github.com/dmitrymomot/entitlekit/pkg/redis"
	"github.com/dmitrymomot/entitlekit/pkg/redisstore"
	"github.com/dmitrymomot/entitlekit/pkg/subscription"
	"github.com/dmitrymomot/entitlekit/pkg/trial"
	svc "github.com/dmitrymomot/entitlekit/svc/entitlement"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("entitlekitd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg svc.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithContextExtractors(svc.RequestIDExtractor(), clientip.LoggerExtractor()),
	)
	slog.SetDefault(log)

	deps := &dependencies{log: log}
	defer deps.close()

	subs, overrides, rules, err := deps.stores(ctx, cfg)
	if err != nil {
		return err
	}

	auditStorage, err := deps.auditStorage(ctx, cfg)
	if err != nil {
		return err
	}

	service := svc.NewService(subs, overrides, rules,
		svc.WithLogger(log),
		svc.WithStoreTimeout(cfg.StoreTimeout),
		svc.WithAuditStorage(auditStorage),
	)

	limiter, err := deps.trialLimiter(ctx, cfg)
	if err != nil {
		return err
	}

	routerOpts := []svc.RouterOption{
		svc.WithRouterLogger(log),
		svc.WithReadinessChecks(deps.checks...),
		svc.WithClientIP(clientip.New(cfg.TrustedIPHeaders...)),
		svc.WithTrialLimiter(limiter),
	}
	if cfg.PaddleEnabled {
		var paddleCfg subscription.PaddleConfig
		if err := config.Load(&paddleCfg); err != nil {
			return err
		}
		provider, err := subscription.NewPaddleProvider(paddleCfg)
		if err != nil {
			return err
		}
		routerOpts = append(routerOpts,
			svc.WithSyncer(subscription.NewSyncer(provider, subs,
				subscription.WithPremiumPrices(paddleCfg.PremiumPriceIDs...),
				subscription.WithSyncerLogger(log),
			)),
			svc.WithSwitcher(subscription.NewSwitcher(provider,
				subscription.WithIntervalPrices(paddleCfg.IntervalPrices()),
				subscription.WithSwitcherLogger(log),
			)),
		)
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, svc.NewRouter(service, routerOpts...))
}

// dependencies opens each backing service at most once and closes them on exit.
type dependencies struct {
	log         *slog.Logger
	pool        *pgxpool.Pool
	redis       *goredis.Client
	redisPrefix string
	mongo       *mongodriver.Client
	checks      []httpserver.Check
	closers     []func()
}

func (d *dependencies) stores(ctx context.Context, cfg svc.Config) (entitlement.SubscriptionStore, entitlement.OverrideStore, trial.Store, error) {
	memory := entitlement.NewMemoryStore()

	var subs entitlement.SubscriptionStore = memory
	if cfg.SubscriptionBackend == svc.BackendPostgres {
		pool, err := d.postgres(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		subs = pgstore.New(pool)
	}

	var overrides entitlement.OverrideStore = memory
	switch cfg.OverrideBackend {
	case svc.BackendPostgres:
		pool, err := d.postgres(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		overrides = pgstore.New(pool)
	case svc.BackendRedis:
		client, prefix, err := d.redisClient(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		overrides = redisstore.New(client, redisstore.WithPrefix(prefix))
	}

	rules, err := d.rules(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return subs, overrides, rules, nil
}

func (d *dependencies) rules(ctx context.Context, cfg svc.Config) (trial.Store, error) {
	if cfg.RulesFile != "" {
		seed, err := trial.LoadYAMLFile(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		d.log.InfoContext(ctx, "trial rules loaded from file",
			slog.String("path", cfg.RulesFile),
			slog.Int("count", len(seed)),
		)
		return trial.NewMemoryStore(seed...)
	}

	switch cfg.RulesBackend {
	case svc.BackendPostgres:
		pool, err := d.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.New(pool), nil
	case svc.BackendMongo:
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return nil, err
		}
		client, db, err := mongo.NewWithDatabase(ctx, mongoCfg)
		if err != nil {
			return nil, err
		}
		d.mongo = client
		d.checks = append(d.checks, httpserver.Check{Name: "mongodb", Probe: mongo.Healthcheck(client)})

		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return trial.NewMemoryStore()
}

// auditStorage keeps admin audit events in Postgres or in process.
func (d *dependencies) auditStorage(ctx context.Context, cfg svc.Config) (audit.Storage, error) {
	if cfg.AuditBackend != svc.BackendPostgres {
		return audit.NewMemoryStorage(), nil
	}
	pool, err := d.postgres(ctx)
	if err != nil {
		return nil, err
	}
	return pgstore.NewAuditStorage(pool), nil
}

// trialLimiter returns nil when lookups are not limited.
func (d *dependencies) trialLimiter(ctx context.Context, cfg svc.Config) (*ratelimiter.Bucket, error) {
	if cfg.TrialLookupBurst == 0 {
		return nil, nil
	}
	var store ratelimiter.Store
	if cfg.RateLimitBackend == svc.BackendRedis {
		client, prefix, err := d.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		store = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix(prefix+"ratelimit:"))
	} else {
		mem := ratelimiter.NewMemoryStore()
		d.closers = append(d.closers, mem.Close)
		store = mem
	}
	return ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       cfg.TrialLookupBurst,
		RefillRate:     1,
		RefillInterval: cfg.TrialLookupRefill,
	})
}

// redisClient connects on first use and returns the configured key prefix.
func (d *dependencies) redisClient(ctx context.Context) (*goredis.Client, string, error) {
	if d.redis != nil {
		return d.redis, d.redisPrefix, nil
	}
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, "", err
	}
	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, "", err
	}
	d.redis, d.redisPrefix = client, redisCfg.KeyPrefix
	d.checks = append(d.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	return client, redisCfg.KeyPrefix, nil
}

// postgres connects and migrates on first use.
func (d *dependencies) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if d.pool != nil {
		return d.pool, nil
	}
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, pgCfg, pgstore.Migrations, "migrations", d.log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	d.pool = pool
	d.checks = append(d.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	return pool, nil
}

func (d *dependencies) close() {
	for _, c := range d.closers {
		c()
	}
	if d.pool != nil {
		d.pool.Close()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.log.Error("failed to close redis client", logger.Error(err))
		}
	}
	if d.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.mongo.Disconnect(ctx); err != nil && !errors.Is(err, mongodriver.ErrClientDisconnected) {
			d.log.Error("failed to disconnect mongodb", logger.Error(err))
		}
	}
}
