package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/platform/cache"
	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

type fakeOdds struct {
	records []usecase.OddsRecord
	rowErrs []usecase.RecordError
	err     error
}

func (f *fakeOdds) FetchOdds(context.Context) ([]usecase.OddsRecord, []usecase.RecordError, error) {
	return f.records, f.rowErrs, f.err
}

type fakeImporter struct {
	got []usecase.OddsRecord
}

func (f *fakeImporter) ImportOdds(_ context.Context, records []usecase.OddsRecord) (usecase.ImportReport, error) {
	f.got = records
	return usecase.ImportReport{Processed: len(records), Updated: len(records)}, nil
}

type fakeSlates struct {
	seasonID string
	slates   []season.Slate
}

func (f *fakeSlates) CurrentSeason(context.Context) (season.Season, error) {
	return season.Season{ID: f.seasonID}, nil
}

func (f *fakeSlates) ListSlates(_ context.Context, seasonID string) ([]season.Slate, error) {
	if seasonID != f.seasonID {
		return nil, errors.New("unexpected season")
	}
	return f.slates, nil
}

type fakePicks struct {
	assigned  []string
	evaluated []string
}

func (f *fakePicks) AssignDefaultPicksForSlate(_ context.Context, slate season.Slate) (int, error) {
	f.assigned = append(f.assigned, slate.ID)
	return 1, nil
}

func (f *fakePicks) EvaluateSlate(_ context.Context, slateID string) ([]usecase.EvaluationReport, error) {
	f.evaluated = append(f.evaluated, slateID)
	return []usecase.EvaluationReport{{Evaluated: 2}}, nil
}

type countingPurger struct {
	removed int
	calls   int
}

func (c *countingPurger) Purge() int {
	c.calls++
	return c.removed
}

func newTestScheduler(t *testing.T, deps Deps, now time.Time) *Scheduler {
	t.Helper()
	s, err := New(Config{}, deps, logging.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestNew_RejectsInvalidSpec(t *testing.T) {
	_, err := New(Config{OddsSpec: "every now and then"}, Deps{}, logging.NewNop())
	require.Error(t, err)
}

func TestNew_AcceptsSecondsSpecs(t *testing.T) {
	s, err := New(Config{
		OddsSpec:         "0 0 */6 * * *",
		DefaultPicksSpec: "0 */15 * * * *",
		EvaluationSpec:   "0 */10 * * * *",
	}, Deps{}, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestRefreshOdds(t *testing.T) {
	odds := &fakeOdds{
		records: []usecase.OddsRecord{{Home: "Packers(Green Bay)", Away: "Saints(New Orleans)", Spread: -4.5}},
		rowErrs: []usecase.RecordError{{Index: 1, Message: "bad date"}},
	}
	importer := &fakeImporter{}
	s := newTestScheduler(t, Deps{Odds: odds, Imports: importer}, time.Now())

	require.NoError(t, s.RefreshOdds(context.Background()))
	assert.Equal(t, odds.records, importer.got)
}

func TestRefreshOdds_FetchFailure(t *testing.T) {
	s := newTestScheduler(t, Deps{Odds: &fakeOdds{err: errors.New("feed down")}, Imports: &fakeImporter{}}, time.Now())

	err := s.RefreshOdds(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
}

func TestRefreshOdds_NotConfigured(t *testing.T) {
	s := newTestScheduler(t, Deps{}, time.Now())

	err := s.RefreshOdds(context.Background())
	assert.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
}

func TestPickJobsOnlyTouchRecentlyClosedSlates(t *testing.T) {
	now := time.Date(2011, time.October, 20, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	slates := &fakeSlates{
		seasonID: "2011-2012",
		slates: []season.Slate{
			{ID: "old", StartAt: now.Add(-20 * day), EndAt: now.Add(-17 * day)},
			{ID: "last-week", StartAt: now.Add(-6 * day), EndAt: now.Add(-3 * day)},
			{ID: "in-progress", StartAt: now.Add(-time.Hour), EndAt: now.Add(2 * day)},
			{ID: "upcoming", StartAt: now.Add(day), EndAt: now.Add(4 * day)},
		},
	}
	picks := &fakePicks{}
	s := newTestScheduler(t, Deps{Slates: slates, Picks: picks}, now)

	require.NoError(t, s.AssignDefaultPicks(context.Background()))
	require.NoError(t, s.SweepEvaluations(context.Background()))

	assert.Equal(t, []string{"last-week", "in-progress"}, picks.assigned)
	assert.Equal(t, []string{"last-week", "in-progress"}, picks.evaluated)
}

func TestNew_SchedulesCachePurge(t *testing.T) {
	s, err := New(Config{CachePurgeSpec: "0 */5 * * * *"}, Deps{}, logging.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestPurgeCaches(t *testing.T) {
	store := cache.NewStore(time.Nanosecond)
	store.Set(context.Background(), cache.GenerationKey(3, "season:current"), "stale")
	time.Sleep(time.Millisecond)

	other := &countingPurger{removed: 2}
	s := newTestScheduler(t, Deps{Caches: []CachePurger{store, other, nil}}, time.Now())
	require.NoError(t, s.PurgeCaches(context.Background()))

	assert.Equal(t, 1, other.calls)
	_, ok := store.Get(context.Background(), cache.GenerationKey(3, "season:current"))
	assert.False(t, ok)
	assert.Zero(t, store.Purge(), "expired entries were already dropped")
}
