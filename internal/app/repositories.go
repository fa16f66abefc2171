package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/pickem/internal/config"
	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/pick"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	cacherepo "github.com/riskibarqy/pickem/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pickem/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/pickem/internal/platform/cache"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

const cacheGenerationKey = "pickem:cache:generation"

// Repositories bundles the storage backends shared by the api and the importer.
type Repositories struct {
	Teams      team.Repository
	Seasons    season.Repository
	Games      game.Repository
	Pools      pool.Repository
	Picks      pick.Repository
	Accounts   account.Repository
	Generation cache.Generation

	// Cache backs the team and season decorators; nil when caching is off.
	Cache *cache.Store

	closers []func() error
}

func (r *Repositories) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenRepositories uses Postgres when DB_URL is set and in-memory storage
// otherwise. Team and season reads go through the cache decorators when enabled.
func OpenRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Repositories, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos := &Repositories{}
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using in-memory storage")
		repos.Teams = memory.NewTeamRepository(memory.SeedTeams())
		repos.Seasons = memory.NewSeasonRepository()
		repos.Games = memory.NewGameRepository()
		repos.Pools = memory.NewPoolRepository()
		repos.Picks = memory.NewPickRepository()
		repos.Accounts = memory.NewAccountRepository()
	} else {
		db, err := openDB(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		repos.closers = append(repos.closers, db.Close)
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = repos.Close()
			return nil, err
		}
		repos.Teams = postgres.NewTeamRepository(db)
		repos.Seasons = postgres.NewSeasonRepository(db)
		repos.Games = postgres.NewGameRepository(db)
		repos.Pools = postgres.NewPoolRepository(db)
		repos.Picks = postgres.NewPickRepository(db)
		repos.Accounts = postgres.NewAccountRepository(db)
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		repos.closers = append(repos.closers, client.Close)
		repos.Generation = cache.NewRedisGeneration(client, cacheGenerationKey)
	} else {
		repos.Generation = cache.NewLocalGeneration()
	}

	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.Cache = store
		repos.Teams = cacherepo.NewTeamRepository(repos.Teams, store, repos.Generation)
		repos.Seasons = cacherepo.NewSeasonRepository(repos.Seasons, store, repos.Generation)
	}

	return repos, nil
}

func openDB(ctx context.Context, rawURL string) (*sqlx.DB, error) {
	target, err := parseDBURL(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := otelsqlx.Open(target.Driver, target.DSN,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(target.Name),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
