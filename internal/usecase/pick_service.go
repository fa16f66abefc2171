package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	concpool "github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/pick"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

const defaultEvaluationWorkers = 8

type SubmitPickInput struct {
	PoolID    string
	EntryID   string
	AccountID string
	SlateID   string
	TeamID    string
}

type ListPicksInput struct {
	PoolID    string
	EntryID   string
	AccountID string
}

// EvaluationReport counts pick outcomes written by one evaluation run.
type EvaluationReport struct {
	GameID    string
	Final     bool
	Evaluated int
	Correct   int
	Incorrect int
	Pending   int
}

type Standing struct {
	Rank        int
	EntryID     string
	AccountID   string
	DisplayName string
	Active      bool
	Paid        bool
	Correct     int
	Incorrect   int
	Pending     int
}

type PickService struct {
	poolRepo    pool.Repository
	seasonRepo  season.Repository
	gameRepo    game.Repository
	teamRepo    team.Repository
	pickRepo    pick.Repository
	accountRepo account.Repository
	workers     int
	logger      *logging.Logger
	now         func() time.Time
}

func NewPickService(
	poolRepo pool.Repository,
	seasonRepo season.Repository,
	gameRepo game.Repository,
	teamRepo team.Repository,
	pickRepo pick.Repository,
	accountRepo account.Repository,
	workers int,
	logger *logging.Logger,
) *PickService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = defaultEvaluationWorkers
	}

	return &PickService{
		poolRepo:    poolRepo,
		seasonRepo:  seasonRepo,
		gameRepo:    gameRepo,
		teamRepo:    teamRepo,
		pickRepo:    pickRepo,
		accountRepo: accountRepo,
		workers:     workers,
		logger:      logger,
		now:         time.Now,
	}
}

// SubmitPick records the entry's team for a slate, replacing any earlier pick
// while the slate is still open.
func (s *PickService) SubmitPick(ctx context.Context, input SubmitPickInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SubmitPick",
		attribute.String("pickem.entry_id", input.EntryID),
		attribute.String("pickem.slate_id", input.SlateID),
	)
	defer span.End()

	input.PoolID = strings.TrimSpace(input.PoolID)
	input.EntryID = strings.TrimSpace(input.EntryID)
	input.AccountID = strings.TrimSpace(input.AccountID)
	input.SlateID = strings.TrimSpace(input.SlateID)
	input.TeamID = team.NormalizeSlug(input.TeamID)

	if input.PoolID == "" || input.EntryID == "" {
		return pick.Pick{}, fmt.Errorf("%w: pool id and entry id are required", ErrInvalidInput)
	}
	if input.SlateID == "" {
		return pick.Pick{}, fmt.Errorf("%w: slate id is required", ErrInvalidInput)
	}
	if input.TeamID == "" {
		return pick.Pick{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	p, entry, err := s.loadEntry(ctx, input.PoolID, input.EntryID)
	if err != nil {
		return pick.Pick{}, err
	}
	if entry.AccountID != input.AccountID {
		return pick.Pick{}, fmt.Errorf("%w: entry=%s belongs to another account", ErrForbidden, entry.ID)
	}
	if !entry.Active {
		return pick.Pick{}, fmt.Errorf("%w: entry=%s is inactive", ErrConflict, entry.ID)
	}

	slate, exists, err := s.seasonRepo.GetSlate(ctx, input.SlateID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get slate: %w", err)
	}
	if !exists {
		return pick.Pick{}, fmt.Errorf("%w: slate=%s", ErrNotFound, input.SlateID)
	}
	if slate.SeasonID != p.SeasonID {
		return pick.Pick{}, fmt.Errorf("%w: slate=%s is not part of season=%s", ErrInvalidInput, slate.ID, p.SeasonID)
	}

	now := s.now().UTC()
	if slate.IsClosed(now) {
		return pick.Pick{}, fmt.Errorf("%w: slate=%s is closed for picks", ErrConflict, slate.ID)
	}

	if _, exists, err := s.teamRepo.GetBySlug(ctx, input.TeamID); err != nil {
		return pick.Pick{}, fmt.Errorf("get team: %w", err)
	} else if !exists {
		return pick.Pick{}, fmt.Errorf("%w: team=%s not found", ErrInvalidInput, input.TeamID)
	}

	g, exists, err := s.gameRepo.FindBySlateAndTeam(ctx, slate.ID, input.TeamID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("find game by slate and team: %w", err)
	}
	if !exists {
		return pick.Pick{}, fmt.Errorf("%w: team=%s has no game in slate=%s", ErrInvalidInput, input.TeamID, slate.ID)
	}

	item := pick.Pick{
		EntryID:     entry.ID,
		SlateID:     slate.ID,
		PoolID:      p.ID,
		GameID:      g.ID,
		TeamID:      input.TeamID,
		SubmittedAt: now,
	}
	err = s.pickRepo.RunInEntry(ctx, entry.ID, func(ctx context.Context, tx pick.Tx) error {
		// Default picks are written under the same entry lock once the slate
		// closes, so closure is checked again while holding it.
		current, exists, err := s.seasonRepo.GetSlate(ctx, slate.ID)
		if err != nil {
			return fmt.Errorf("get slate: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: slate=%s", ErrNotFound, slate.ID)
		}
		item.SubmittedAt = s.now().UTC()
		if current.IsClosed(item.SubmittedAt) {
			return fmt.Errorf("%w: slate=%s is closed for picks", ErrConflict, slate.ID)
		}
		return tx.Put(ctx, item)
	})
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return pick.Pick{}, err
	}
	if err != nil {
		return pick.Pick{}, fmt.Errorf("save pick: %w", err)
	}

	s.logger.InfoContext(ctx, "pick submitted", "pool_id", p.ID, "entry_id", entry.ID, "slate_id", slate.ID, "team_id", item.TeamID)
	return item, nil
}

// Evaluate scores a single pick against its game. Nothing is written while the
// game is still open.
func (s *PickService) Evaluate(ctx context.Context, item pick.Pick) (pick.Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.Evaluate")
	defer span.End()

	g, exists, err := s.gameRepo.GetByID(ctx, item.GameID)
	if err != nil {
		return "", fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: game=%s", ErrNotFound, item.GameID)
	}

	p, exists, err := s.poolRepo.GetByID(ctx, item.PoolID)
	if err != nil {
		return "", fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: pool=%s", ErrNotFound, item.PoolID)
	}

	return s.evaluate(ctx, item, g, p.AgainstSpread)
}

func (s *PickService) evaluate(ctx context.Context, item pick.Pick, g game.Game, againstSpread bool) (pick.Outcome, error) {
	if !g.Final {
		return pick.OutcomePending, nil
	}
	correct := g.IsWinner(item.TeamID, againstSpread)
	if err := s.pickRepo.UpdateCorrect(ctx, item.EntryID, item.SlateID, correct, s.now().UTC()); err != nil {
		return "", fmt.Errorf("update pick outcome: %w", err)
	}
	return pick.OutcomeOf(correct), nil
}

// EvaluateGame re-scores every pick placed on a game.
func (s *PickService) EvaluateGame(ctx context.Context, gameID string) (EvaluationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.EvaluateGame", attribute.String("pickem.game_id", gameID))
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return EvaluationReport{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	g, exists, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return EvaluationReport{}, fmt.Errorf("%w: game=%s", ErrNotFound, gameID)
	}

	picks, err := s.pickRepo.ListByGame(ctx, gameID)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("list picks by game: %w", err)
	}

	report := EvaluationReport{GameID: gameID, Final: g.Final}
	if !g.Final {
		report.Pending = len(picks)
		return report, nil
	}

	spreadByPool, err := s.spreadByPool(ctx, picks)
	if err != nil {
		return EvaluationReport{}, err
	}

	var correct, incorrect atomic.Int64
	workers := concpool.New().WithContext(ctx).WithMaxGoroutines(s.workers)
	for _, item := range picks {
		item := item
		workers.Go(func(ctx context.Context) error {
			outcome, err := s.evaluate(ctx, item, g, spreadByPool[item.PoolID])
			if err != nil {
				return fmt.Errorf("evaluate pick entry=%s slate=%s: %w", item.EntryID, item.SlateID, err)
			}
			if outcome == pick.OutcomeCorrect {
				correct.Add(1)
			} else {
				incorrect.Add(1)
			}
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return EvaluationReport{}, err
	}

	report.Correct = int(correct.Load())
	report.Incorrect = int(incorrect.Load())
	report.Evaluated = report.Correct + report.Incorrect
	s.logger.InfoContext(ctx, "game picks evaluated",
		"game_id", gameID,
		"evaluated", report.Evaluated,
		"correct", report.Correct,
		"incorrect", report.Incorrect,
	)
	return report, nil
}

// EvaluateSlate evaluates every final game of a slate.
func (s *PickService) EvaluateSlate(ctx context.Context, slateID string) ([]EvaluationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.EvaluateSlate", attribute.String("pickem.slate_id", slateID))
	defer span.End()

	games, err := s.gameRepo.ListBySlate(ctx, slateID)
	if err != nil {
		return nil, fmt.Errorf("list games by slate: %w", err)
	}

	out := make([]EvaluationReport, 0, len(games))
	for _, g := range games {
		if !g.Final {
			continue
		}
		report, err := s.EvaluateGame(ctx, g.ID)
		if err != nil {
			return out, err
		}
		out = append(out, report)
	}
	return out, nil
}

// AssignDefaultPicks gives every active entry without a pick the pool's default
// team once the slate has closed. It returns how many picks were written.
func (s *PickService) AssignDefaultPicks(ctx context.Context, poolID, slateID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.AssignDefaultPicks")
	defer span.End()

	p, exists, err := s.poolRepo.GetByID(ctx, strings.TrimSpace(poolID))
	if err != nil {
		return 0, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	if p.DefaultTeamID == "" {
		return 0, nil
	}

	slate, exists, err := s.seasonRepo.GetSlate(ctx, strings.TrimSpace(slateID))
	if err != nil {
		return 0, fmt.Errorf("get slate: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: slate=%s", ErrNotFound, slateID)
	}
	now := s.now().UTC()
	if !slate.IsClosed(now) {
		return 0, nil
	}

	g, exists, err := s.gameRepo.FindBySlateAndTeam(ctx, slate.ID, p.DefaultTeamID)
	if err != nil {
		return 0, fmt.Errorf("find default team game: %w", err)
	}
	if !exists {
		s.logger.WarnContext(ctx, "default team has no game in slate", "pool_id", p.ID, "slate_id", slate.ID, "team_id", p.DefaultTeamID)
		return 0, nil
	}

	entries, err := s.poolRepo.ListEntries(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("list pool entries: %w", err)
	}

	assigned := 0
	for _, entry := range entries {
		if !entry.Active {
			continue
		}
		wrote := false
		err := s.pickRepo.RunInEntry(ctx, entry.ID, func(ctx context.Context, tx pick.Tx) error {
			if _, exists, err := tx.Get(ctx, slate.ID); err != nil || exists {
				return err
			}
			wrote = true
			return tx.Put(ctx, pick.Pick{
				EntryID:     entry.ID,
				SlateID:     slate.ID,
				PoolID:      p.ID,
				GameID:      g.ID,
				TeamID:      p.DefaultTeamID,
				SubmittedAt: now,
			})
		})
		if err != nil {
			return assigned, fmt.Errorf("assign default pick entry=%s: %w", entry.ID, err)
		}
		if wrote {
			assigned++
		}
	}

	if assigned > 0 {
		s.logger.InfoContext(ctx, "default picks assigned", "pool_id", p.ID, "slate_id", slate.ID, "count", assigned)
	}
	return assigned, nil
}

// AssignDefaultPicksForSlate runs AssignDefaultPicks for every pool of the slate's season.
func (s *PickService) AssignDefaultPicksForSlate(ctx context.Context, slate season.Slate) (int, error) {
	pools, err := s.poolRepo.ListBySeason(ctx, slate.SeasonID)
	if err != nil {
		return 0, fmt.Errorf("list pools by season: %w", err)
	}

	total := 0
	for _, p := range pools {
		n, err := s.AssignDefaultPicks(ctx, p.ID, slate.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "assign default picks failed", "pool_id", p.ID, "slate_id", slate.ID, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// ListPicks returns an entry's picks. Other members only see picks of closed slates.
func (s *PickService) ListPicks(ctx context.Context, input ListPicksInput) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.ListPicks")
	defer span.End()

	p, entry, err := s.loadEntry(ctx, input.PoolID, input.EntryID)
	if err != nil {
		return nil, err
	}

	accountID := strings.TrimSpace(input.AccountID)
	owner := entry.AccountID == accountID || p.IsManager(accountID)
	if !owner {
		_, member, err := s.poolRepo.FindEntryByAccount(ctx, p.ID, accountID)
		if err != nil {
			return nil, fmt.Errorf("find entry by account: %w", err)
		}
		if !member {
			return nil, fmt.Errorf("%w: account is not a member of pool=%s", ErrForbidden, p.ID)
		}
	}

	items, err := s.pickRepo.ListByEntry(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("list picks by entry: %w", err)
	}
	if owner {
		return items, nil
	}

	now := s.now().UTC()
	visible := make([]pick.Pick, 0, len(items))
	for _, item := range items {
		slate, exists, err := s.seasonRepo.GetSlate(ctx, item.SlateID)
		if err != nil {
			return nil, fmt.Errorf("get slate: %w", err)
		}
		if exists && slate.IsClosed(now) {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// Standings ranks entries by correct picks. Equal scores share a rank.
func (s *PickService) Standings(ctx context.Context, poolID string) ([]Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.Standings")
	defer span.End()

	p, exists, err := s.poolRepo.GetByID(ctx, strings.TrimSpace(poolID))
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}

	entries, err := s.poolRepo.ListEntries(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list pool entries: %w", err)
	}
	picks, err := s.pickRepo.ListByPool(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list picks by pool: %w", err)
	}

	accountIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		accountIDs = append(accountIDs, e.AccountID)
	}
	accounts, err := s.accountRepo.GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("get entry accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.DisplayName()
	}

	byEntry := make(map[string]*Standing, len(entries))
	out := make([]Standing, 0, len(entries))
	for _, e := range entries {
		out = append(out, Standing{
			EntryID:     e.ID,
			AccountID:   e.AccountID,
			DisplayName: names[e.AccountID],
			Active:      e.Active,
			Paid:        e.Paid,
		})
	}
	for i := range out {
		byEntry[out[i].EntryID] = &out[i]
	}
	for _, item := range picks {
		row, ok := byEntry[item.EntryID]
		if !ok {
			continue
		}
		switch item.Outcome() {
		case pick.OutcomeCorrect:
			row.Correct++
		case pick.OutcomeIncorrect:
			row.Incorrect++
		default:
			row.Pending++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Correct != out[j].Correct {
			return out[i].Correct > out[j].Correct
		}
		return out[i].Incorrect < out[j].Incorrect
	})
	rank := 0
	for i := range out {
		if i == 0 || out[i].Correct != out[i-1].Correct {
			rank++
		}
		out[i].Rank = rank
	}
	return out, nil
}

func (s *PickService) loadEntry(ctx context.Context, poolID, entryID string) (pool.Pool, pool.Entry, error) {
	p, exists, err := s.poolRepo.GetByID(ctx, strings.TrimSpace(poolID))
	if err != nil {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	entry, exists, err := s.poolRepo.GetEntry(ctx, p.ID, strings.TrimSpace(entryID))
	if err != nil {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	if !exists {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("%w: entry=%s", ErrNotFound, entryID)
	}
	return p, entry, nil
}

func (s *PickService) spreadByPool(ctx context.Context, picks []pick.Pick) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, item := range picks {
		if _, seen := out[item.PoolID]; seen {
			continue
		}
		p, exists, err := s.poolRepo.GetByID(ctx, item.PoolID)
		if err != nil {
			return nil, fmt.Errorf("get pool=%s: %w", item.PoolID, err)
		}
		out[item.PoolID] = exists && p.AgainstSpread
	}
	return out, nil
}
