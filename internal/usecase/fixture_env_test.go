package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pickem/internal/platform/cache"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

const (
	testSeasonID = "2011-2012"
	testManager  = "acc-manager"
)

var (
	testSlate1 = season.SlateKey(testSeasonID, 1)
	testSlate2 = season.SlateKey(testSeasonID, 2)
	testGameGB = game.Key(testSlate1, "no", "gb")
	testGameCH = game.Key(testSlate1, "atl", "chi")
)

type sequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%03d", g.prefix, g.next), nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type testEnv struct {
	clock *testClock

	teamRepo    *memory.TeamRepository
	seasonRepo  *memory.SeasonRepository
	gameRepo    *memory.GameRepository
	poolRepo    *memory.PoolRepository
	pickRepo    *memory.PickRepository
	accountRepo *memory.AccountRepository

	seasons *SeasonService
	pools   *PoolService
	picks   *PickService
	imports *ImportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logging.NewNop()
	env := &testEnv{
		clock:       &testClock{now: time.Date(2011, time.September, 5, 12, 0, 0, 0, time.UTC)},
		teamRepo:    memory.NewTeamRepository(memory.SeedTeams()),
		seasonRepo:  memory.NewSeasonRepository(),
		gameRepo:    memory.NewGameRepository(),
		poolRepo:    memory.NewPoolRepository(),
		pickRepo:    memory.NewPickRepository(),
		accountRepo: memory.NewAccountRepository(),
	}

	env.seasons = NewSeasonService(env.seasonRepo, env.gameRepo, cache.NewStore(time.Minute), cache.NewLocalGeneration(), season.PolicyEndNotPassed, logger)
	env.seasons.now = env.clock.Now
	env.pools = NewPoolService(
		env.poolRepo,
		env.seasonRepo,
		env.teamRepo,
		env.accountRepo,
		env.seasons,
		pool.NewInviteCoder("test-invite-secret"),
		&sequenceIDGenerator{prefix: "id"},
		logger,
	)
	env.pools.now = env.clock.Now
	env.picks = NewPickService(env.poolRepo, env.seasonRepo, env.gameRepo, env.teamRepo, env.pickRepo, env.accountRepo, 4, logger)
	env.picks.now = env.clock.Now
	env.imports = NewImportService(env.teamRepo, env.seasonRepo, env.gameRepo, env.picks, env.seasons, 4, logger)
	env.imports.now = env.clock.Now
	return env
}

// seedSchedule stores one season with two slates. Slate 1 holds NO@GB and ATL@CHI.
func (e *testEnv) seedSchedule(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	kickoff1 := time.Date(2011, time.September, 9, 0, 30, 0, 0, time.UTC)
	kickoff2 := time.Date(2011, time.September, 16, 17, 0, 0, 0, time.UTC)
	mustUpsert(t)(e.seasonRepo.Upsert(ctx, season.Season{
		ID:        testSeasonID,
		Name:      testSeasonID,
		StartDate: time.Date(2011, time.September, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2012, time.February, 5, 0, 0, 0, 0, time.UTC),
	}))
	mustUpsert(t)(e.seasonRepo.UpsertSlate(ctx, season.Slate{
		ID:      testSlate1, SeasonID: testSeasonID, Ordinal: 1, Name: season.SlateName(1),
		StartAt: kickoff1, EndAt: kickoff1.Add(3 * 24 * time.Hour),
	}))
	mustUpsert(t)(e.seasonRepo.UpsertSlate(ctx, season.Slate{
		ID:      testSlate2, SeasonID: testSeasonID, Ordinal: 2, Name: season.SlateName(2),
		StartAt: kickoff2, EndAt: kickoff2.Add(3 * 24 * time.Hour),
	}))
	mustUpsert(t)(e.gameRepo.Upsert(ctx, game.Game{
		ID:         testGameGB, SlateID: testSlate1, SeasonID: testSeasonID,
		HomeTeamID: "gb", AwayTeamID: "no", StartAt: kickoff1,
	}))
	mustUpsert(t)(e.gameRepo.Upsert(ctx, game.Game{
		ID:         testGameCH, SlateID: testSlate1, SeasonID: testSeasonID,
		HomeTeamID: "chi", AwayTeamID: "atl", StartAt: kickoff1.Add(60 * time.Hour),
	}))
}

func (e *testEnv) seedAccount(t *testing.T, id, first string) account.Account {
	t.Helper()
	item := account.Account{
		ID:         id,
		Email:      id + "@example.com",
		FirstName:  first,
		LastName:   "Tester",
		Provider:   "facebook",
		ExternalID: "fb-" + id,
	}
	saved, _, err := e.accountRepo.UpsertByExternalID(context.Background(), item)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return saved
}

func (e *testEnv) createPool(t *testing.T, input CreatePoolInput) pool.Pool {
	t.Helper()
	if input.ManagerID == "" {
		input.ManagerID = testManager
	}
	if input.SeasonID == "" {
		input.SeasonID = testSeasonID
	}
	if input.Name == "" {
		input.Name = "Office Pool"
	}
	item, err := e.pools.CreatePool(context.Background(), input)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return item
}

func (e *testEnv) finishGame(t *testing.T, gameID string, home, away int) {
	t.Helper()
	ctx := context.Background()
	g, exists, err := e.gameRepo.GetByID(ctx, gameID)
	if err != nil || !exists {
		t.Fatalf("get game %s: exists=%v err=%v", gameID, exists, err)
	}
	g.HomeScore = home
	g.AwayScore = away
	g.Final = true
	mustUpsert(t)(e.gameRepo.Upsert(ctx, g))
}

func mustUpsert(t *testing.T) func(bool, error) {
	return func(_ bool, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
}

func boolPtr(v bool) *bool {
	return &v
}
