package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	defaultJobTimeout  = 5 * time.Minute
	defaultSweepWindow = 7 * 24 * time.Hour
)

type OddsSource interface {
	FetchOdds(ctx context.Context) ([]usecase.OddsRecord, []usecase.RecordError, error)
}

type OddsImporter interface {
	ImportOdds(ctx context.Context, records []usecase.OddsRecord) (usecase.ImportReport, error)
}

type SlateSource interface {
	CurrentSeason(ctx context.Context) (season.Season, error)
	ListSlates(ctx context.Context, seasonID string) ([]season.Slate, error)
}

type PickJobs interface {
	AssignDefaultPicksForSlate(ctx context.Context, slate season.Slate) (int, error)
	EvaluateSlate(ctx context.Context, slateID string) ([]usecase.EvaluationReport, error)
}

// CachePurger drops expired cache entries, including keys orphaned by a
// generation bump.
type CachePurger interface {
	Purge() int
}

type Config struct {
	OddsSpec         string
	DefaultPicksSpec string
	EvaluationSpec   string
	CachePurgeSpec   string
	// SweepWindow bounds how long after a slate ends it is still revisited.
	SweepWindow time.Duration
	JobTimeout  time.Duration
}

type Deps struct {
	Odds    OddsSource
	Imports OddsImporter
	Slates  SlateSource
	Picks   PickJobs
	Caches  []CachePurger
}

// Scheduler runs the periodic feed and pick jobs plus cache housekeeping.
type Scheduler struct {
	cron   *cron.Cron
	deps   Deps
	cfg    Config
	logger *logging.Logger
	now    func() time.Time
}

func New(cfg Config, deps Deps, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SweepWindow <= 0 {
		cfg.SweepWindow = defaultSweepWindow
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}

	cronLogger := cronLogAdapter{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{name: "odds_refresh", spec: cfg.OddsSpec, run: s.RefreshOdds},
		{name: "default_picks", spec: cfg.DefaultPicksSpec, run: s.AssignDefaultPicks},
		{name: "evaluation_sweep", spec: cfg.EvaluationSpec, run: s.SweepEvaluations},
		{name: "cache_purge", spec: cfg.CachePurgeSpec, run: s.PurgeCaches},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() { s.runJob(job.name, job.run) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
		logger.Info("job scheduled", "job", job.name, "spec", job.spec)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runJob(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	started := time.Now()
	if err := run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled job failed", "job", name, "error", err, "duration_ms", time.Since(started).Milliseconds())
		return
	}
	s.logger.InfoContext(ctx, "scheduled job finished", "job", name, "duration_ms", time.Since(started).Milliseconds())
}

func (s *Scheduler) RefreshOdds(ctx context.Context) error {
	if s.deps.Odds == nil || s.deps.Imports == nil {
		return fmt.Errorf("%w: odds refresh is not configured", usecase.ErrDependencyUnavailable)
	}

	records, rowErrors, err := s.deps.Odds.FetchOdds(ctx)
	if err != nil {
		return fmt.Errorf("fetch odds: %w", err)
	}
	for _, rowErr := range rowErrors {
		s.logger.WarnContext(ctx, "odds record skipped", "index", rowErr.Index, "error", rowErr.Message)
	}

	report, err := s.deps.Imports.ImportOdds(ctx, records)
	if err != nil {
		return fmt.Errorf("import odds: %w", err)
	}
	s.logger.InfoContext(ctx, "odds refreshed", "processed", report.Processed, "updated", report.Updated, "skipped", report.Skipped+len(rowErrors))
	return nil
}

func (s *Scheduler) AssignDefaultPicks(ctx context.Context) error {
	slates, err := s.recentlyClosedSlates(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, slate := range slates {
		n, err := s.deps.Picks.AssignDefaultPicksForSlate(ctx, slate)
		if err != nil {
			s.logger.WarnContext(ctx, "assign default picks failed", "slate_id", slate.ID, "error", err)
			continue
		}
		total += n
	}
	if total > 0 {
		s.logger.InfoContext(ctx, "default picks assigned", "count", total)
	}
	return nil
}

// SweepEvaluations re-scores final games of recent slates so late score
// corrections reach the picks.
func (s *Scheduler) SweepEvaluations(ctx context.Context) error {
	slates, err := s.recentlyClosedSlates(ctx)
	if err != nil {
		return err
	}

	evaluated := 0
	for _, slate := range slates {
		reports, err := s.deps.Picks.EvaluateSlate(ctx, slate.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "evaluate slate failed", "slate_id", slate.ID, "error", err)
			continue
		}
		for _, report := range reports {
			evaluated += report.Evaluated
		}
	}
	s.logger.DebugContext(ctx, "evaluation sweep done", "slates", len(slates), "evaluated", evaluated)
	return nil
}

func (s *Scheduler) PurgeCaches(ctx context.Context) error {
	removed := 0
	for _, store := range s.deps.Caches {
		if store == nil {
			continue
		}
		removed += store.Purge()
	}
	s.logger.DebugContext(ctx, "cache purge done", "stores", len(s.deps.Caches), "removed", removed)
	return nil
}

func (s *Scheduler) recentlyClosedSlates(ctx context.Context) ([]season.Slate, error) {
	if s.deps.Slates == nil || s.deps.Picks == nil {
		return nil, fmt.Errorf("%w: pick jobs are not configured", usecase.ErrDependencyUnavailable)
	}

	current, err := s.deps.Slates.CurrentSeason(ctx)
	if err != nil {
		return nil, fmt.Errorf("current season: %w", err)
	}
	slates, err := s.deps.Slates.ListSlates(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("list slates: %w", err)
	}

	now := s.now().UTC()
	cutoff := now.Add(-s.cfg.SweepWindow)
	out := make([]season.Slate, 0, len(slates))
	for _, slate := range slates {
		if !slate.IsClosed(now) {
			continue
		}
		if !slate.EndAt.IsZero() && slate.EndAt.Before(cutoff) {
			continue
		}
		out = append(out, slate)
	}
	return out, nil
}

type cronLogAdapter struct {
	logger *logging.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
