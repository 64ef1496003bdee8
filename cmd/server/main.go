package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/opsdeck/modules/provisioning"
	"github.com/opsdeck/opsdeck/pkg/config"
	"github.com/opsdeck/opsdeck/pkg/environment"
	"github.com/opsdeck/opsdeck/pkg/httpserver"
	"github.com/opsdeck/opsdeck/pkg/idempotency"
	"github.com/opsdeck/opsdeck/pkg/jwt"
	"github.com/opsdeck/opsdeck/pkg/logger"
	"github.com/opsdeck/opsdeck/pkg/pg"
	"github.com/opsdeck/opsdeck/pkg/ratelimit"
	"github.com/opsdeck/opsdeck/pkg/rbac"
	"github.com/opsdeck/opsdeck/pkg/redis"
	"github.com/opsdeck/opsdeck/pkg/requestid"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"
	"github.com/opsdeck/opsdeck/pkg/tenantfilter"
)

type appConfig struct {
	Env          environment.Environment `env:"APP_ENV" envDefault:"development"`
	SigningKey   string                  `env:"AUTH_SIGNING_KEY,required"`
	MultiTenancy bool                    `env:"MULTI_TENANCY_ENABLED" envDefault:"true"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg  appConfig
		httpCfg httpserver.Config
		pgCfg   pg.Config
		rdCfg   redis.Config
		provCfg provisioning.Config
	)
	for _, err := range []error{
		config.Load(&appCfg),
		config.Load(&httpCfg),
		config.Load(&pgCfg),
		config.Load(&rdCfg),
		config.Load(&provCfg),
	} {
		if err != nil {
			return err
		}
	}

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "opsdeck"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenantctx.LoggerExtractor(),
		),
	)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, rdCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	jwtSvc, err := jwt.NewFromString(appCfg.SigningKey)
	if err != nil {
		return err
	}

	binderOpts := []tenantctx.Option{tenantctx.WithLogger(log)}
	filterOpts := []tenantfilter.Option{}
	if !appCfg.MultiTenancy {
		// Single-tenant deployment: membership is optional and queries are
		// not tenant-scoped.
		binderOpts = append(binderOpts, tenantctx.WithTenantOptional())
		filterOpts = append(filterOpts, tenantfilter.Disabled())
	}
	binder := tenantctx.Middleware(
		tenantctx.NewJWTAuthenticator(jwtSvc),
		pgMemberships(pool),
		binderOpts...,
	)

	perms, err := rbac.NewEvaluator(rbac.DefaultRoles())
	if err != nil {
		return err
	}

	// Rate limit windows live in Redis so every instance counts against the
	// same budget.
	limitStore := ratelimit.NewRedisStore(rdb)
	entityLimiter, err := ratelimit.New(limitStore, ratelimit.Config{
		Limit:  provCfg.EntitySetupLimit,
		Window: provCfg.EntitySetupWindow,
	})
	if err != nil {
		return err
	}
	presetLimiter, err := ratelimit.New(limitStore, ratelimit.Config{
		Limit:  provCfg.PresetCreateLimit,
		Window: provCfg.PresetCreateWindow,
	})
	if err != nil {
		return err
	}

	repo := provisioning.NewPostgresRepository(pool, tenantfilter.New(filterOpts...))
	svc := provisioning.NewService(repo, idempotency.NewPostgresStore(pool), perms, provCfg, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/ready", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(rdb),
	))
	r.Mount("/v1/provisioning", provisioning.Router(provisioning.RouterDeps{
		Service:             svc,
		Binder:              binder,
		EntitySetupLimiter:  entityLimiter,
		PresetCreateLimiter: presetLimiter,
		Log:                 log,
	}))

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// pgMemberships resolves tenant membership from the memberships table.
// Users without a row get ErrTenantRequired; the binder decides whether
// that is fatal based on deployment mode and caller privileges.
func pgMemberships(pool *pgxpool.Pool) tenantctx.MembershipResolver {
	return tenantctx.MembershipResolverFunc(func(ctx context.Context, userID uuid.UUID) (tenantctx.Membership, error) {
		var m tenantctx.Membership
		err := pool.QueryRow(ctx,
			`SELECT tenant_id, role FROM memberships WHERE user_id = $1`,
			userID,
		).Scan(&m.TenantID, &m.Role)
		if err != nil {
			if pg.IsNotFound(err) {
				return tenantctx.Membership{}, tenantctx.ErrTenantRequired
			}
			return tenantctx.Membership{}, errors.Join(tenantctx.ErrMembershipLookup, err)
		}
		return m, nil
	})
}
