package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/pickem/external/linesmaker"
	"github.com/riskibarqy/pickem/external/schedulecsv"
	"github.com/riskibarqy/pickem/internal/config"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/infrastructure/account/facebook"
	"github.com/riskibarqy/pickem/internal/infrastructure/account/session"
	"github.com/riskibarqy/pickem/internal/interfaces/httpapi"
	"github.com/riskibarqy/pickem/internal/platform/cache"
	idgen "github.com/riskibarqy/pickem/internal/platform/id"
	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/platform/resilience"
	"github.com/riskibarqy/pickem/internal/scheduler"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const sessionIssuer = "pickem"

// Services holds the use cases built on top of Repositories.
type Services struct {
	Accounts *usecase.AccountService
	Teams    *usecase.TeamService
	Seasons  *usecase.SeasonService
	Pools    *usecase.PoolService
	Picks    *usecase.PickService
	Imports  *usecase.ImportService
	Sessions *session.Manager

	// CurrentCache memoises the current season and slate.
	CurrentCache *cache.Store
}

func NewServices(cfg config.Config, repos *Repositories, logger *logging.Logger) (*Services, error) {
	sessions, err := session.NewManager(cfg.SessionSecret, sessionIssuer, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}

	var provider usecase.OAuthProvider
	if cfg.FacebookEnabled() {
		fb, err := facebook.NewProvider(facebook.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.FacebookRedirectURL,
			Timeout:      cfg.FacebookTimeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build facebook provider: %w", err)
		}
		provider = fb
	} else {
		logger.Warn("facebook login disabled", "reason", "FACEBOOK_CLIENT_ID or FACEBOOK_CLIENT_SECRET empty")
	}

	ids := idgen.NewUUIDGenerator()
	currentCache := cache.NewStore(cfg.CurrentCacheTTL)
	seasons := usecase.NewSeasonService(
		repos.Seasons,
		repos.Games,
		currentCache,
		repos.Generation,
		cfg.CurrentSeasonPolicy,
		logger,
	)
	picks := usecase.NewPickService(repos.Pools, repos.Seasons, repos.Games, repos.Teams, repos.Picks, repos.Accounts, cfg.ImportWorkers, logger)

	return &Services{
		Accounts: usecase.NewAccountService(repos.Accounts, provider, sessions, ids, logger),
		Teams:    usecase.NewTeamService(repos.Teams),
		Seasons:  seasons,
		Pools: usecase.NewPoolService(
			repos.Pools,
			repos.Seasons,
			repos.Teams,
			repos.Accounts,
			seasons,
			pool.NewInviteCoder(cfg.InviteCodeSecret),
			ids,
			logger,
		),
		Picks:        picks,
		Imports:      usecase.NewImportService(repos.Teams, repos.Seasons, repos.Games, picks, seasons, cfg.ImportWorkers, logger),
		Sessions:     sessions,
		CurrentCache: currentCache,
	}, nil
}

func cachePurgers(stores ...*cache.Store) []scheduler.CachePurger {
	out := make([]scheduler.CachePurger, 0, len(stores))
	for _, store := range stores {
		if store != nil {
			out = append(out, store)
		}
	}
	return out
}

func NewOddsClient(cfg config.Config, logger *logging.Logger) *linesmaker.Client {
	return linesmaker.NewClient(linesmaker.ClientConfig{
		FeedURL:    cfg.OddsFeedURL,
		Timeout:    cfg.OddsTimeout,
		MaxRetries: cfg.OddsMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OddsCircuitEnabled,
			FailureThreshold: cfg.OddsCircuitFailureCount,
			OpenTimeout:      cfg.OddsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OddsCircuitHalfOpenMaxReq,
		},
	})
}

// App is the assembled api process.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler
	repos     *Repositories
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := OpenRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	services, err := NewServices(cfg, repos, logger)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	parser, err := schedulecsv.NewParser(nil)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	odds := NewOddsClient(cfg, logger)

	handler := httpapi.NewHandler(httpapi.Services{
		Accounts: services.Accounts,
		Teams:    services.Teams,
		Seasons:  services.Seasons,
		Pools:    services.Pools,
		Picks:    services.Picks,
		Imports:  services.Imports,
		Schedule: parser,
		Odds:     odds,
	}, cfg.AppEnv != config.EnvDev, logger)
	router := httpapi.NewRouter(
		handler,
		services.Sessions,
		logger,
		cfg.AppEnv != config.EnvProd,
		cfg.CORSAllowedOrigins,
		cfg.InternalJobToken,
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		_ = repos.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	out := &App{Server: server, repos: repos}
	if cfg.SchedulerEnabled {
		out.Scheduler, err = scheduler.New(scheduler.Config{
			OddsSpec:         cfg.OddsCron,
			DefaultPicksSpec: cfg.DefaultPicksCron,
			EvaluationSpec:   cfg.EvaluationCron,
			CachePurgeSpec:   cfg.CachePurgeCron,
		}, scheduler.Deps{
			Odds:    odds,
			Imports: services.Imports,
			Slates:  services.Seasons,
			Picks:   services.Picks,
			Caches:  cachePurgers(services.CurrentCache, repos.Cache),
		}, logger)
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
	}

	return out, nil
}

func (a *App) Close() error {
	return a.repos.Close()
}
