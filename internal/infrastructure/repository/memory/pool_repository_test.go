package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/pick"
	"github.com/riskibarqy/pickem/internal/domain/pool"
)

func TestPoolRepository_RunInPoolDiscardsOnError(t *testing.T) {
	t.Parallel()

	repo := NewPoolRepository()
	ctx := context.Background()
	p := pool.Pool{ID: "p1", SeasonID: "2011-2012", ManagerID: "a1", Name: "Office"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	boom := errors.New("boom")
	err := repo.RunInPool(ctx, p.ID, func(ctx context.Context, tx pool.EntryTx) error {
		if err := tx.InsertEntry(ctx, pool.NewEntry(p, "e1", "a2", time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	entries, err := repo.ListEntries(ctx, p.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected rollback to drop pending entry, got %d entries", len(entries))
	}
}

func TestPoolRepository_RunInPoolSerialisesLookupThenInsert(t *testing.T) {
	t.Parallel()

	repo := NewPoolRepository()
	ctx := context.Background()
	p := pool.Pool{ID: "p1", SeasonID: "2011-2012", ManagerID: "a1", Name: "Office"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		entryID := string(rune('a' + i))
		go func() {
			defer wg.Done()
			<-start
			errCh <- repo.RunInPool(ctx, p.ID, func(ctx context.Context, tx pool.EntryTx) error {
				if _, exists, err := tx.FindEntryByAccount(ctx, "a2"); err != nil || exists {
					return err
				}
				return tx.InsertEntry(ctx, pool.NewEntry(p, entryID, "a2", time.Now()))
			})
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, _ := repo.ListEntries(ctx, p.ID)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
}

func TestPickRepository_RunInEntryOverwritesPerSlate(t *testing.T) {
	t.Parallel()

	repo := NewPickRepository()
	ctx := context.Background()

	put := func(teamID string) {
		err := repo.RunInEntry(ctx, "e1", func(ctx context.Context, tx pick.Tx) error {
			return tx.Put(ctx, pick.Pick{EntryID: "e1", SlateID: "2011-2012:1", PoolID: "p1", GameID: "g1", TeamID: teamID})
		})
		if err != nil {
			t.Fatalf("put pick: %v", err)
		}
	}
	put("kc")
	put("sd")

	items, err := repo.ListByEntry(ctx, "e1")
	if err != nil {
		t.Fatalf("list picks: %v", err)
	}
	if len(items) != 1 || items[0].TeamID != "sd" {
		t.Fatalf("expected single overwritten pick, got %+v", items)
	}

	if err := repo.UpdateCorrect(ctx, "e1", "2011-2012:1", true, time.Now()); err != nil {
		t.Fatalf("update correct: %v", err)
	}
	got, ok, _ := repo.Get(ctx, "e1", "2011-2012:1")
	if !ok || got.Outcome() != pick.OutcomeCorrect {
		t.Fatalf("expected correct pick, got %+v", got)
	}
}
