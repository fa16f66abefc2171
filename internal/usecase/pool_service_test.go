package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/infrastructure/repository/memory"
)

func TestPoolService_CreatePoolDefaults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()

	item, err := env.pools.CreatePool(ctx, CreatePoolInput{
		ManagerID:     testManager,
		Name:          "  Sunday Crew  ",
		DefaultTeamID: "GB",
		ManagerPlays:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sunday Crew", item.Name)
	assert.Equal(t, testSeasonID, item.SeasonID, "empty season resolves to the current season")
	assert.True(t, item.InviteOnly, "pools are invite only by default")
	assert.Equal(t, "gb", item.DefaultTeamID)

	member, err := env.pools.IsMember(ctx, item.ID, testManager)
	require.NoError(t, err)
	assert.True(t, member, "manager who plays gets an entry")
}

type failingEntryPoolRepository struct {
	*memory.PoolRepository
	failures int
}

func (r *failingEntryPoolRepository) RunInPool(ctx context.Context, poolID string, fn func(ctx context.Context, tx pool.EntryTx) error) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	return r.PoolRepository.RunInPool(ctx, poolID, fn)
}

func TestPoolService_CreatePoolKeepsPoolWhenManagerEntryFails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	env.pools.poolRepo = &failingEntryPoolRepository{PoolRepository: env.poolRepo, failures: 1}
	ctx := context.Background()

	item, err := env.pools.CreatePool(ctx, CreatePoolInput{ManagerID: testManager, Name: "Flaky", ManagerPlays: true})
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	stored, exists, err := env.poolRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "Flaky", stored.Name)

	member, err := env.pools.IsMember(ctx, item.ID, testManager)
	require.NoError(t, err)
	assert.False(t, member)

	_, created, err := env.pools.JoinPool(ctx, JoinPoolInput{PoolID: item.ID, AccountID: testManager})
	require.NoError(t, err)
	assert.True(t, created, "manager recovers the entry without an invite code")
}

func TestPoolService_CreatePoolValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)

	tests := []struct {
		name  string
		input CreatePoolInput
		want  error
	}{
		{name: "missing manager", input: CreatePoolInput{Name: "x", SeasonID: testSeasonID}, want: ErrInvalidInput},
		{name: "missing name", input: CreatePoolInput{ManagerID: testManager, SeasonID: testSeasonID}, want: ErrInvalidInput},
		{name: "negative fee", input: CreatePoolInput{ManagerID: testManager, Name: "x", SeasonID: testSeasonID, EntryFee: -1}, want: ErrInvalidInput},
		{name: "unknown season", input: CreatePoolInput{ManagerID: testManager, Name: "x", SeasonID: "1999-2000"}, want: ErrNotFound},
		{name: "unknown default team", input: CreatePoolInput{ManagerID: testManager, Name: "x", SeasonID: testSeasonID, DefaultTeamID: "zzz"}, want: ErrInvalidInput},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := env.pools.CreatePool(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPoolService_AddEntryIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{})

	first, created, err := env.pools.AddEntry(ctx, item, "acc-1")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := env.pools.AddEntry(ctx, item, "acc-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	entries, err := env.poolRepo.ListEntries(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPoolService_AddEntryConcurrentCreatesOne(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{})

	const callers = 24
	start := make(chan struct{})
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		entryIDs = make(map[string]struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			entry, isNew, err := env.pools.AddEntry(ctx, item, "acc-racer")
			if err != nil {
				t.Errorf("add entry: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if isNew {
				created++
			}
			entryIDs[entry.ID] = struct{}{}
		}()
	}
	close(start)
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one created entry, got %d", created)
	}
	if len(entryIDs) != 1 {
		t.Fatalf("expected every caller to see the same entry, got %d ids", len(entryIDs))
	}
}

func TestPoolService_PotFromPaidEntries(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{EntryFee: 10})

	entryIDs := make([]string, 0, 4)
	for _, accountID := range []string{"acc-1", "acc-2", "acc-3", "acc-4"} {
		entry, _, err := env.pools.AddEntry(ctx, item, accountID)
		require.NoError(t, err)
		assert.False(t, entry.Paid, "paid pools start unpaid")
		entryIDs = append(entryIDs, entry.ID)
	}
	for _, entryID := range entryIDs[:3] {
		_, err := env.pools.UpdateEntryStatus(ctx, UpdateEntryStatusInput{
			PoolID:    item.ID,
			EntryID:   entryID,
			AccountID: testManager,
			Paid:      boolPtr(true),
		})
		require.NoError(t, err)
	}

	summary, err := env.pools.Summary(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, summary.Pot)
	assert.Equal(t, 40.0, summary.PotentialPot)
	assert.Len(t, summary.Paid, 3)
	assert.Len(t, summary.Unpaid, 1)
	assert.Len(t, summary.Active, 4)
}

func TestPoolService_UpdateEntryStatusRequiresManager(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{EntryFee: 5})
	entry, _, err := env.pools.AddEntry(ctx, item, "acc-1")
	require.NoError(t, err)

	_, err = env.pools.UpdateEntryStatus(ctx, UpdateEntryStatusInput{
		PoolID:    item.ID,
		EntryID:   entry.ID,
		AccountID: "acc-1",
		Paid:      boolPtr(true),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPoolService_ViewPoolInviteOnlyPreview(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	env.seedAccount(t, testManager, "Morgan")
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{ManagerPlays: true})

	view, err := env.pools.ViewPool(ctx, item.ID, "acc-stranger")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	assert.True(t, IsForbiddenPreview(view, err))
	assert.True(t, view.Preview)
	assert.Equal(t, item.Name, view.Pool.Name)
	assert.Equal(t, "Morgan Tester", view.Manager)
	assert.Equal(t, 1, view.EntryCount)
	assert.Empty(t, view.Entries, "preview has no roster")

	memberView, err := env.pools.ViewPool(ctx, item.ID, testManager)
	require.NoError(t, err)
	assert.False(t, memberView.Preview)
	assert.Len(t, memberView.Entries, 1)
	assert.Equal(t, "Morgan Tester", memberView.Entries[0].DisplayName)
}

func TestPoolService_ViewPublicPool(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	item := env.createPool(t, CreatePoolInput{InviteOnly: boolPtr(false)})

	view, err := env.pools.ViewPool(context.Background(), item.ID, "acc-stranger")
	require.NoError(t, err)
	assert.False(t, view.Preview)
	assert.False(t, view.IsMember)
}

func TestPoolService_JoinPoolInviteCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{})

	_, _, err := env.pools.JoinPool(ctx, JoinPoolInput{PoolID: item.ID, AccountID: "acc-1", InviteCode: "WRONGCODE0"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for bad code, got %v", err)
	}

	_, err = env.pools.InviteCode(ctx, item.ID, "acc-1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected only the manager to read the code, got %v", err)
	}

	code, err := env.pools.InviteCode(ctx, item.ID, testManager)
	require.NoError(t, err)
	assert.True(t, env.pools.CheckInviteCode(item, code))

	entry, created, err := env.pools.JoinPool(ctx, JoinPoolInput{PoolID: item.ID, AccountID: "acc-1", InviteCode: code})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "acc-1", entry.AccountID)

	_, created, err = env.pools.JoinPool(ctx, JoinPoolInput{PoolID: item.ID, AccountID: "acc-1"})
	require.NoError(t, err, "existing members rejoin without a code")
	assert.False(t, created)
}

func TestPoolService_UpdatePoolRequiresManager(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{})

	_, err := env.pools.UpdatePool(ctx, UpdatePoolInput{PoolID: item.ID, AccountID: "acc-1", Name: "Hijacked"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := env.pools.UpdatePool(ctx, UpdatePoolInput{
		PoolID:        item.ID,
		AccountID:     testManager,
		Name:          "Renamed",
		AgainstSpread: true,
		InviteOnly:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.AgainstSpread)
}

func TestPoolService_ListEntriesRequiresMembership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedSchedule(t)
	ctx := context.Background()
	item := env.createPool(t, CreatePoolInput{})
	_, _, err := env.pools.AddEntry(ctx, item, "acc-1")
	require.NoError(t, err)

	_, err = env.pools.ListEntries(ctx, item.ID, "acc-stranger")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	entries, err := env.pools.ListEntries(ctx, item.ID, "acc-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	mine, err := env.pools.ListMyPools(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, item.ID, mine[0].ID)
}
