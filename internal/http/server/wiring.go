// Package server arma todas las dependencias del servicio a partir de la
// configuración: store, cache, cliente de Meta, services, controllers y router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/brandkit/internal/cache"
	"github.com/dropDatabas3/brandkit/internal/config"
	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/email"
	cronctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/cron"
	healthctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/health"
	insightsctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/insights"
	socialctrl "github.com/dropDatabas3/brandkit/internal/http/controllers/social"
	insightsdto "github.com/dropDatabas3/brandkit/internal/http/dto/insights"
	"github.com/dropDatabas3/brandkit/internal/http/helpers"
	mw "github.com/dropDatabas3/brandkit/internal/http/middlewares"
	"github.com/dropDatabas3/brandkit/internal/http/router"
	healthsvc "github.com/dropDatabas3/brandkit/internal/http/services/health"
	insightssvc "github.com/dropDatabas3/brandkit/internal/http/services/insights"
	socialsvc "github.com/dropDatabas3/brandkit/internal/http/services/social"
	"github.com/dropDatabas3/brandkit/internal/metrics"
	"github.com/dropDatabas3/brandkit/internal/oauth/meta"
	"github.com/dropDatabas3/brandkit/internal/oauthstate"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
	"github.com/dropDatabas3/brandkit/internal/rate"
	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
	"github.com/dropDatabas3/brandkit/internal/store"
	"github.com/dropDatabas3/brandkit/internal/store/pg"
	"github.com/dropDatabas3/brandkit/internal/util"
)

// App es el servicio armado.
type App struct {
	Handler   http.Handler
	Harvester *insightssvc.Harvester
	Scheduler *insightssvc.Scheduler

	closers []func() error
}

// Close libera store, cache y redis en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build crea todas las dependencias. Solo falla por infraestructura
// (db, redis); la configuración faltante de Meta, cifrado o cron degrada el
// flujo correspondiente, que responde 500.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.From(ctx).With(logger.Component("server.wiring"))
	app := &App{}

	// 1. Store
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.closers = append(app.closers, st.Close)

	// 2. Redis compartido entre cache y rate limiter
	var redisClient *rdb.Client
	if cfg.Cache.Kind == "redis" {
		redisClient = rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		app.closers = append(app.closers, redisClient.Close)
	}
	cacheClient, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.Cache.Memory.DefaultTTL,
		Redis:      redisClient,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, cacheClient.Close)

	// 3. Cifrado de tokens. Sin clave el Sealer/Opener queda como interfaz
	// nil (no un *Cipher nil) para que los services lo detecten.
	var sealer socialsvc.Sealer
	var opener insightssvc.Opener
	if c, err := secretbox.New(cfg.Secrets.TokenEncryptionKey); err == nil {
		sealer, opener = c, c
	} else {
		log.Warn("token encryption key not configured; oauth linking and insights disabled")
	}

	// 4. Cliente de Meta
	graph := meta.New(meta.Config{
		AppID:       cfg.Meta.AppID,
		AppSecret:   cfg.Meta.AppSecret,
		RedirectURI: cfg.Meta.RedirectURI,
		Scopes:      cfg.Meta.Scopes,
		GraphURL:    cfg.Meta.GraphURL,
		DialogURL:   cfg.Meta.DialogURL,
		Timeout:     cfg.Meta.Timeout,
		RPS:         cfg.Meta.RPS,
		Burst:       cfg.Meta.Burst,
	})

	// 5. Services
	social := socialsvc.NewServices(socialsvc.Deps{
		Accounts: st.Accounts(),
		Graph:    graph,
		States:   oauthstate.New(cacheClient, cfg.OAuth.StateTTL),
		Cipher:   sealer,
		OAuth: socialsvc.OAuthConfig{
			AppID:       cfg.Meta.AppID,
			AppSecret:   cfg.Meta.AppSecret,
			RedirectURI: cfg.Meta.RedirectURI,
		},
	})
	insights := insightssvc.NewServices(insightssvc.Deps{
		Accounts:  st.Accounts(),
		Snapshots: st.Snapshots(),
		Graph:     graph,
		Cipher:    opener,
		Workers:   cfg.Cron.Workers,
	}, harvestNotifier(cfg))
	app.Harvester = insights.Harvester
	app.Scheduler = insightssvc.NewScheduler(insights.Harvester, cfg.Cron.Interval)

	health := healthsvc.NewHealthService(healthsvc.Deps{
		DBCheck:          st.Ping,
		CacheCheck:       cacheClient.Ping,
		OAuthConfigured:  cfg.Meta.AppID != "" && cfg.Meta.AppSecret != "" && cfg.Meta.RedirectURI != "",
		CipherConfigured: opener != nil,
		CronConfigured:   cfg.Cron.Secret != "",
	})

	// 6. Rate limit de los endpoints OAuth
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if redisClient != nil {
			limiter = rate.NewRedisLimiter(redisClient, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	// 7. Métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		mcfg := metrics.Config{}
		if pgStore, ok := st.(*pg.Store); ok {
			mcfg.Pool = func() *pgxpool.Pool { return pgStore.Pool() }
		}
		if metricsHandler, err = metrics.Register(mcfg); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	app.Handler = router.New(router.Deps{
		Social: socialctrl.NewControllers(social, socialctrl.Config{
			AccountsPath:    cfg.App.AccountsPath,
			StateCookieName: cfg.OAuth.StateCookieName,
			Cookie: helpers.CookieOptions{
				Path:   cfg.OAuth.StateCookiePath,
				Secure: cfg.OAuth.SecureCookie,
			},
			StateTTL: cfg.OAuth.StateTTL,
		}),
		Insights: insightsctrl.NewController(insights.Engine),
		Cron:     cronctrl.NewController(insights.Harvester),
		Health:   healthctrl.NewHealthController(health),
		Auth: mw.AuthConfig{
			Secret:     []byte(cfg.Auth.JWTSecret),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			CookieName: cfg.Auth.CookieName,
			Leeway:     30 * time.Second,
			Resolver:   membershipResolver(st, cfg),
		},
		CronSecret:  cfg.Cron.Secret,
		RateLimiter: limiter,
		Metrics:     metricsHandler,
	})
	return app, nil
}

func membershipResolver(st repository.Store, cfg *config.Config) *mw.MembershipResolver {
	return mw.NewMembershipResolver(st.Memberships(), cfg.Auth.TenantClaim, cfg.Auth.Membership.CacheSize, cfg.Auth.Membership.CacheTTL)
}

// harvestNotifier devuelve nil (sin notificación) si no hay SMTP configurado.
func harvestNotifier(cfg *config.Config) insightssvc.Notifier {
	if cfg.SMTP.Host == "" || len(cfg.SMTP.ReportTo) == 0 {
		return nil
	}
	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	return &emailNotifier{
		reporter: email.NewHarvestReporter(sender, cfg.SMTP.ReportTo),
		to:       cfg.SMTP.ReportTo,
	}
}

// emailNotifier adapta el reporte del harvest al mail de operaciones.
type emailNotifier struct {
	reporter *email.HarvestReporter
	to       []string
}

func (n *emailNotifier) NotifyHarvest(ctx context.Context, r insightsdto.HarvestReport) error {
	if err := n.reporter.Report(ctx, ToSummary(r)); err != nil {
		return err
	}
	logger.From(ctx).Info("harvest report sent",
		logger.String("to", strings.Join(util.MaskEmails(n.to), ",")),
		logger.Int("failed", r.Failed),
	)
	return nil
}

// ToSummary convierte el reporte HTTP al resumen del mail.
func ToSummary(r insightsdto.HarvestReport) email.HarvestSummary {
	s := email.HarvestSummary{
		Date:      r.Date,
		Processed: r.Processed,
		Saved:     r.Saved,
		Failed:    r.Failed,
		Failures:  make([]email.HarvestFailure, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		s.Failures = append(s.Failures, email.HarvestFailure{AccountID: f.AccountID, Reason: f.Reason})
	}
	return s
}
