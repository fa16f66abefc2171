package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

const (
	defaultImportWorkers = 8
	slateTrailingWindow  = 5 * time.Hour
)

type TeamRecord struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Place string `json:"place"`
}

// ScheduleRecord is one scheduled game. KickoffAt is in UTC.
type ScheduleRecord struct {
	Home         string
	Away         string
	KickoffAt    time.Time
	SlateOrdinal int
	SlateName    string
}

// OddsRecord carries the home spread for the first game between Home and Away
// starting on or after EventDate.
type OddsRecord struct {
	Home      string
	Away      string
	EventDate time.Time
	Spread    float64
}

type ScoreRecord struct {
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	EventDate time.Time `json:"event_date"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Final     bool      `json:"final"`
}

type RecordError struct {
	Index   int
	Message string
}

// ImportReport summarises a feed batch. Unchanged records are not written.
type ImportReport struct {
	Processed int
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Evaluated int
	Errors    []RecordError
}

func (r *ImportReport) skip(index int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, RecordError{Index: index, Message: err.Error()})
}

// WithDecodeErrors folds errors raised while decoding a feed into the report of
// importing the rows that did decode. Every source row yields either one
// record or one decode error, so record indices are mapped back to source rows.
func WithDecodeErrors(report ImportReport, decodeErrors []RecordError) ImportReport {
	if len(decodeErrors) == 0 {
		return report
	}

	failed := make(map[int]bool, len(decodeErrors))
	for _, item := range decodeErrors {
		failed[item.Index] = true
	}
	sourceRow := func(recordIndex int) int {
		row := 0
		for {
			for failed[row] {
				row++
			}
			if recordIndex == 0 {
				return row
			}
			recordIndex--
			row++
		}
	}

	merged := make([]RecordError, 0, len(decodeErrors)+len(report.Errors))
	merged = append(merged, decodeErrors...)
	for _, item := range report.Errors {
		merged = append(merged, RecordError{Index: sourceRow(item.Index), Message: item.Message})
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Index < merged[j].Index })

	report.Processed += len(decodeErrors)
	report.Skipped += len(decodeErrors)
	report.Errors = merged
	return report
}

// GameEvaluator re-scores picks placed on a game.
type GameEvaluator interface {
	EvaluateGame(ctx context.Context, gameID string) (EvaluationReport, error)
}

type ImportService struct {
	teamRepo    team.Repository
	seasonRepo  season.Repository
	gameRepo    game.Repository
	evaluator   GameEvaluator
	invalidator CurrentInvalidator
	workers     int
	logger      *logging.Logger
	now         func() time.Time
}

func NewImportService(
	teamRepo team.Repository,
	seasonRepo season.Repository,
	gameRepo game.Repository,
	evaluator GameEvaluator,
	invalidator CurrentInvalidator,
	workers int,
	logger *logging.Logger,
) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = defaultImportWorkers
	}

	return &ImportService{
		teamRepo:    teamRepo,
		seasonRepo:  seasonRepo,
		gameRepo:    gameRepo,
		evaluator:   evaluator,
		invalidator: invalidator,
		workers:     workers,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ImportService) ImportTeams(ctx context.Context, records []TeamRecord) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportTeams")
	defer span.End()

	var report ImportReport
	for idx, record := range records {
		report.Processed++

		item := team.Team{
			Slug:  team.NormalizeSlug(record.Slug),
			Name:  strings.TrimSpace(record.Name),
			Place: strings.TrimSpace(record.Place),
		}
		if err := item.Validate(); err != nil {
			report.skip(idx, err)
			continue
		}

		existing, exists, err := s.teamRepo.GetBySlug(ctx, item.Slug)
		if err != nil {
			return report, fmt.Errorf("get team: %w", err)
		}
		if exists && existing == item {
			report.Unchanged++
			continue
		}

		created, err := s.teamRepo.Upsert(ctx, item)
		if err != nil {
			return report, fmt.Errorf("upsert team=%s: %w", item.Slug, err)
		}
		countWrite(&report, created)
	}

	s.logReport(ctx, "teams", report)
	return report, nil
}

// ImportSchedule upserts seasons, slates and games. Existing games keep their
// scores and spread; only the kickoff moves. Slate and season windows are then
// rebuilt from the stored kickoffs.
func (s *ImportService) ImportSchedule(ctx context.Context, records []ScheduleRecord) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportSchedule")
	defer span.End()

	resolver, err := s.loadResolver(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	type scheduled struct {
		index  int
		record ScheduleRecord
		home   string
		away   string
		season string
		slate  string
	}

	var report ImportReport
	seasons := make(map[string]season.Season)
	slates := make(map[string]season.Slate)
	rows := make([]scheduled, 0, len(records))
	for idx, record := range records {
		report.Processed++

		row, err := func() (scheduled, error) {
			if record.KickoffAt.IsZero() {
				return scheduled{}, fmt.Errorf("kickoff is required")
			}
			if record.SlateOrdinal <= 0 {
				return scheduled{}, fmt.Errorf("slate ordinal must be > 0")
			}
			home, err := resolver.resolve(record.Home)
			if err != nil {
				return scheduled{}, err
			}
			away, err := resolver.resolve(record.Away)
			if err != nil {
				return scheduled{}, err
			}
			if home == away {
				return scheduled{}, fmt.Errorf("home and away resolve to the same team %q", home)
			}
			kickoff := record.KickoffAt.UTC()
			seasonID := season.KeyFor(kickoff)
			record.KickoffAt = kickoff
			return scheduled{
				index:  idx,
				record: record,
				home:   home,
				away:   away,
				season: seasonID,
				slate:  season.SlateKey(seasonID, record.SlateOrdinal),
			}, nil
		}()
		if err != nil {
			s.logger.WarnContext(ctx, "skip schedule record", "index", idx, "error", err)
			report.skip(idx, err)
			continue
		}
		rows = append(rows, row)

		kickoff := row.record.KickoffAt
		ss, ok := seasons[row.season]
		if !ok {
			ss = season.Season{ID: row.season, Name: row.season, StartDate: kickoff, EndDate: kickoff}
		}
		seasons[row.season] = widenSeason(ss, kickoff, kickoff)

		sl, ok := slates[row.slate]
		if !ok {
			name := strings.TrimSpace(record.SlateName)
			if name == "" {
				name = season.SlateName(record.SlateOrdinal)
			}
			sl = season.Slate{
				ID:       row.slate,
				SeasonID: row.season,
				Ordinal:  record.SlateOrdinal,
				Name:     name,
				StartAt:  kickoff,
				EndAt:    kickoff.Add(slateTrailingWindow),
			}
		}
		slates[row.slate] = widenSlate(sl, kickoff, kickoff.Add(slateTrailingWindow))
	}

	// New seasons and slates are created first with the batch window. Windows
	// are recomputed from the stored games once every game is written.
	wrote := false
	for _, item := range sortedSeasons(seasons) {
		created, err := s.ensureSeason(ctx, item)
		if err != nil {
			return report, err
		}
		wrote = wrote || created
	}
	for _, item := range sortedSlates(slates) {
		created, err := s.ensureSlate(ctx, item)
		if err != nil {
			return report, err
		}
		wrote = wrote || created
	}

	now := s.now().UTC()
	for _, row := range rows {
		gameID := game.Key(row.slate, row.away, row.home)
		existing, exists, err := s.gameRepo.GetByID(ctx, gameID)
		if err != nil {
			return report, fmt.Errorf("get game: %w", err)
		}

		item := existing
		if !exists {
			item = game.Game{
				ID:         gameID,
				SlateID:    row.slate,
				SeasonID:   row.season,
				HomeTeamID: row.home,
				AwayTeamID: row.away,
			}
		} else if item.StartAt.Equal(row.record.KickoffAt) {
			report.Unchanged++
			continue
		}
		item.StartAt = row.record.KickoffAt
		item.UpdatedAt = now
		if err := item.Validate(); err != nil {
			report.skip(row.index, err)
			continue
		}

		created, err := s.gameRepo.Upsert(ctx, item)
		if err != nil {
			return report, fmt.Errorf("upsert game=%s: %w", gameID, err)
		}
		countWrite(&report, created)
		wrote = true
	}

	for _, item := range sortedSlates(slates) {
		changed, err := s.refreshSlateWindow(ctx, item.ID)
		if err != nil {
			return report, err
		}
		wrote = wrote || changed
	}
	for _, item := range sortedSeasons(seasons) {
		changed, err := s.refreshSeasonWindow(ctx, item.ID)
		if err != nil {
			return report, err
		}
		wrote = wrote || changed
	}

	if wrote && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "invalidate current season cache failed", "error", err)
		}
	}

	s.logReport(ctx, "schedule", report)
	return report, nil
}

// ImportOdds applies spreads concurrently. Final games are left untouched.
func (s *ImportService) ImportOdds(ctx context.Context, records []OddsRecord) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportOdds")
	defer span.End()

	resolver, err := s.loadResolver(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	workerPool, err := ants.NewPool(s.workers)
	if err != nil {
		return ImportReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var (
		updated   atomic.Int32
		unchanged atomic.Int32
		mu        sync.Mutex
		failures  []RecordError
		fatal     error
		workers   sync.WaitGroup
	)
	fail := func(idx int, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, RecordError{Index: idx, Message: err.Error()})
	}

	now := s.now().UTC()
	for idx, record := range records {
		idx, record := idx, record
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			changed, err := s.applyOdds(ctx, resolver, record, now)
			if err != nil {
				s.logger.WarnContext(ctx, "skip odds record", "index", idx, "error", err)
				fail(idx, err)
				return
			}
			if changed {
				updated.Add(1)
			} else {
				unchanged.Add(1)
			}
		}); err != nil {
			workers.Done()
			fatal = fmt.Errorf("submit odds record to worker pool: %w", err)
			break
		}
	}
	workers.Wait()
	if fatal != nil {
		return ImportReport{}, fatal
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	report := ImportReport{
		Processed: len(records),
		Updated:   int(updated.Load()),
		Unchanged: int(unchanged.Load()),
		Skipped:   len(failures),
		Errors:    failures,
	}
	s.logReport(ctx, "odds", report)
	return report, nil
}

func (s *ImportService) applyOdds(ctx context.Context, resolver teamResolver, record OddsRecord, now time.Time) (bool, error) {
	g, err := s.matchGame(ctx, resolver, record.Home, record.Away, record.EventDate)
	if err != nil {
		return false, err
	}
	if g.Final || g.Spread == record.Spread {
		return false, nil
	}

	g.Spread = record.Spread
	g.UpdatedAt = now
	if _, err := s.gameRepo.Upsert(ctx, g); err != nil {
		return false, fmt.Errorf("upsert game=%s: %w", g.ID, err)
	}
	return true, nil
}

// ImportScores records scores. Final is never reverted, and picks are
// re-evaluated for every game that is final after the write.
func (s *ImportService) ImportScores(ctx context.Context, records []ScoreRecord) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.ImportScores")
	defer span.End()

	resolver, err := s.loadResolver(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	var report ImportReport
	now := s.now().UTC()
	for idx, record := range records {
		report.Processed++

		if record.HomeScore < 0 || record.AwayScore < 0 {
			report.skip(idx, fmt.Errorf("scores must be >= 0"))
			continue
		}
		g, err := s.matchGame(ctx, resolver, record.Home, record.Away, record.EventDate)
		if err != nil {
			s.logger.WarnContext(ctx, "skip score record", "index", idx, "error", err)
			report.skip(idx, err)
			continue
		}

		final := g.Final || record.Final
		if g.HomeScore == record.HomeScore && g.AwayScore == record.AwayScore && g.Final == final {
			report.Unchanged++
		} else {
			g.HomeScore = record.HomeScore
			g.AwayScore = record.AwayScore
			g.Final = final
			g.UpdatedAt = now
			if _, err := s.gameRepo.Upsert(ctx, g); err != nil {
				return report, fmt.Errorf("upsert game=%s: %w", g.ID, err)
			}
			report.Updated++
		}

		if g.Final && s.evaluator != nil {
			if _, err := s.evaluator.EvaluateGame(ctx, g.ID); err != nil {
				s.logger.ErrorContext(ctx, "evaluate game picks failed", "game_id", g.ID, "error", err)
				continue
			}
			report.Evaluated++
		}
	}

	s.logReport(ctx, "scores", report)
	return report, nil
}

func (s *ImportService) matchGame(ctx context.Context, resolver teamResolver, homeRaw, awayRaw string, since time.Time) (game.Game, error) {
	home, err := resolver.resolve(homeRaw)
	if err != nil {
		return game.Game{}, err
	}
	away, err := resolver.resolve(awayRaw)
	if err != nil {
		return game.Game{}, err
	}
	if since.IsZero() {
		return game.Game{}, fmt.Errorf("event date is required")
	}

	g, exists, err := s.gameRepo.FindByTeamsOnOrAfter(ctx, home, away, since.UTC())
	if err != nil {
		return game.Game{}, fmt.Errorf("find game: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("no game %s@%s on or after %s", away, home, since.UTC().Format(time.DateOnly))
	}
	return g, nil
}

func (s *ImportService) ensureSeason(ctx context.Context, item season.Season) (bool, error) {
	_, exists, err := s.seasonRepo.GetByID(ctx, item.ID)
	if err != nil {
		return false, fmt.Errorf("get season: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := s.seasonRepo.Upsert(ctx, item); err != nil {
		return false, fmt.Errorf("upsert season=%s: %w", item.ID, err)
	}
	return true, nil
}

func (s *ImportService) ensureSlate(ctx context.Context, item season.Slate) (bool, error) {
	_, exists, err := s.seasonRepo.GetSlate(ctx, item.ID)
	if err != nil {
		return false, fmt.Errorf("get slate: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := s.seasonRepo.UpsertSlate(ctx, item); err != nil {
		return false, fmt.Errorf("upsert slate=%s: %w", item.ID, err)
	}
	return true, nil
}

// refreshSlateWindow sets the slate window from the kickoffs of its stored
// games, so a moved kickoff can shrink it as well as widen it.
func (s *ImportService) refreshSlateWindow(ctx context.Context, slateID string) (bool, error) {
	slate, exists, err := s.seasonRepo.GetSlate(ctx, slateID)
	if err != nil {
		return false, fmt.Errorf("get slate: %w", err)
	}
	if !exists {
		return false, nil
	}
	games, err := s.gameRepo.ListBySlate(ctx, slateID)
	if err != nil {
		return false, fmt.Errorf("list games slate=%s: %w", slateID, err)
	}
	if len(games) == 0 {
		return false, nil
	}

	first, last := games[0].StartAt, games[0].StartAt
	for _, g := range games[1:] {
		if g.StartAt.Before(first) {
			first = g.StartAt
		}
		if g.StartAt.After(last) {
			last = g.StartAt
		}
	}
	end := last.Add(slateTrailingWindow)
	if slate.StartAt.Equal(first) && slate.EndAt.Equal(end) {
		return false, nil
	}

	slate.StartAt = first
	slate.EndAt = end
	if _, err := s.seasonRepo.UpsertSlate(ctx, slate); err != nil {
		return false, fmt.Errorf("upsert slate=%s: %w", slate.ID, err)
	}
	return true, nil
}

// refreshSeasonWindow spans the season from its first slate start to its last kickoff.
func (s *ImportService) refreshSeasonWindow(ctx context.Context, seasonID string) (bool, error) {
	item, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return false, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return false, nil
	}
	slates, err := s.seasonRepo.ListSlates(ctx, seasonID)
	if err != nil {
		return false, fmt.Errorf("list slates season=%s: %w", seasonID, err)
	}
	if len(slates) == 0 {
		return false, nil
	}

	var start, end time.Time
	for idx, slate := range slates {
		last := slate.StartAt
		if !slate.EndAt.IsZero() {
			last = slate.EndAt.Add(-slateTrailingWindow)
		}
		if idx == 0 || slate.StartAt.Before(start) {
			start = slate.StartAt
		}
		if idx == 0 || last.After(end) {
			end = last
		}
	}
	if item.StartDate.Equal(start) && item.EndDate.Equal(end) {
		return false, nil
	}

	item.StartDate = start
	item.EndDate = end
	if _, err := s.seasonRepo.Upsert(ctx, item); err != nil {
		return false, fmt.Errorf("upsert season=%s: %w", item.ID, err)
	}
	return true, nil
}

func (s *ImportService) loadResolver(ctx context.Context) (teamResolver, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return teamResolver{}, fmt.Errorf("list teams: %w", err)
	}
	return newTeamResolver(teams), nil
}

func (s *ImportService) logReport(ctx context.Context, feed string, report ImportReport) {
	s.logger.InfoContext(ctx, "feed imported",
		"feed", feed,
		"processed", report.Processed,
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"evaluated", report.Evaluated,
	)
}

func countWrite(report *ImportReport, created bool) {
	if created {
		report.Created++
		return
	}
	report.Updated++
}

func widenSeason(item season.Season, start, end time.Time) season.Season {
	if start.Before(item.StartDate) {
		item.StartDate = start
	}
	if end.After(item.EndDate) {
		item.EndDate = end
	}
	return item
}

func widenSlate(item season.Slate, start, end time.Time) season.Slate {
	if start.Before(item.StartAt) {
		item.StartAt = start
	}
	if end.After(item.EndAt) {
		item.EndAt = end
	}
	return item
}

func sortedSeasons(items map[string]season.Season) []season.Season {
	out := make([]season.Season, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedSlates(items map[string]season.Slate) []season.Slate {
	out := make([]season.Slate, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeasonID != out[j].SeasonID {
			return out[i].SeasonID < out[j].SeasonID
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}

// teamResolver maps feed spellings to team slugs. A place shared by two teams
// never resolves on its own.
type teamResolver struct {
	index map[string]string
}

func newTeamResolver(teams []team.Team) teamResolver {
	index := make(map[string]string, len(teams)*5)
	ambiguous := make(map[string]bool)
	add := func(key, slug string) {
		key = resolverKey(key)
		if key == "" || ambiguous[key] {
			return
		}
		if current, ok := index[key]; ok && current != slug {
			delete(index, key)
			ambiguous[key] = true
			return
		}
		index[key] = slug
	}

	for _, item := range teams {
		add(item.Slug, item.Slug)
		add(item.Name, item.Slug)
		add(item.Place, item.Slug)
		add(item.DisplayName(), item.Slug)
		if item.Place != "" {
			add(item.Name+"("+item.Place+")", item.Slug)
		}
	}
	return teamResolver{index: index}
}

func (r teamResolver) resolve(raw string) (string, error) {
	slug, ok := r.index[resolverKey(raw)]
	if !ok {
		return "", fmt.Errorf("unknown team %q", strings.TrimSpace(raw))
	}
	return slug, nil
}

func resolverKey(raw string) string {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	key = strings.ReplaceAll(key, " (", "(")
	return strings.ReplaceAll(key, "( ", "(")
}
