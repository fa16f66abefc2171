package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	idgen "github.com/riskibarqy/pickem/internal/platform/id"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

// CurrentSeasonProvider resolves the season new pools default to.
type CurrentSeasonProvider interface {
	CurrentSeason(ctx context.Context) (season.Season, error)
}

type CreatePoolInput struct {
	ManagerID     string
	SeasonID      string
	Name          string
	Description   string
	InviteOnly    *bool
	EntryFee      float64
	AgainstSpread bool
	DefaultTeamID string
	EmailUpdates  bool
	ManagerPlays  bool
}

type UpdatePoolInput struct {
	PoolID        string
	AccountID     string
	Name          string
	Description   string
	InviteOnly    bool
	EntryFee      float64
	AgainstSpread bool
	DefaultTeamID string
	EmailUpdates  bool
}

type JoinPoolInput struct {
	PoolID     string
	AccountID  string
	InviteCode string
}

type UpdateEntryStatusInput struct {
	PoolID    string
	EntryID   string
	AccountID string
	Paid      *bool
	Active    *bool
}

// EntryView is an entry with its owner's display name.
type EntryView struct {
	pool.Entry
	DisplayName string
}

// PoolView is what a caller may see of a pool. Preview views carry no roster.
type PoolView struct {
	Pool       pool.Pool
	Preview    bool
	IsMember   bool
	IsManager  bool
	Manager    string
	EntryCount int
	Summary    pool.Summary
	Entries    []EntryView
}

type PoolService struct {
	poolRepo    pool.Repository
	seasonRepo  season.Repository
	teamRepo    team.Repository
	accountRepo account.Repository
	seasons     CurrentSeasonProvider
	invites     *pool.InviteCoder
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewPoolService(
	poolRepo pool.Repository,
	seasonRepo season.Repository,
	teamRepo team.Repository,
	accountRepo account.Repository,
	seasons CurrentSeasonProvider,
	invites *pool.InviteCoder,
	idGen idgen.Generator,
	logger *logging.Logger,
) *PoolService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PoolService{
		poolRepo:    poolRepo,
		seasonRepo:  seasonRepo,
		teamRepo:    teamRepo,
		accountRepo: accountRepo,
		seasons:     seasons,
		invites:     invites,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *PoolService) CreatePool(ctx context.Context, input CreatePoolInput) (pool.Pool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.CreatePool")
	defer span.End()

	input.ManagerID = strings.TrimSpace(input.ManagerID)
	input.SeasonID = strings.TrimSpace(input.SeasonID)
	input.Name = strings.TrimSpace(input.Name)
	input.DefaultTeamID = team.NormalizeSlug(input.DefaultTeamID)

	if input.ManagerID == "" {
		return pool.Pool{}, fmt.Errorf("%w: manager id is required", ErrInvalidInput)
	}
	if input.Name == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool name is required", ErrInvalidInput)
	}
	if input.EntryFee < 0 {
		return pool.Pool{}, fmt.Errorf("%w: entry fee must be >= 0", ErrInvalidInput)
	}

	seasonID, err := s.resolveSeason(ctx, input.SeasonID)
	if err != nil {
		return pool.Pool{}, err
	}
	if err := s.validateDefaultTeam(ctx, input.DefaultTeamID); err != nil {
		return pool.Pool{}, err
	}

	poolID, err := s.idGen.NewID()
	if err != nil {
		return pool.Pool{}, fmt.Errorf("generate pool id: %w", err)
	}

	inviteOnly := true
	if input.InviteOnly != nil {
		inviteOnly = *input.InviteOnly
	}

	now := s.now().UTC()
	item := pool.Pool{
		ID:            poolID,
		SeasonID:      seasonID,
		ManagerID:     input.ManagerID,
		Name:          input.Name,
		Description:   strings.TrimSpace(input.Description),
		InviteOnly:    inviteOnly,
		EntryFee:      input.EntryFee,
		AgainstSpread: input.AgainstSpread,
		DefaultTeamID: input.DefaultTeamID,
		EmailUpdates:  input.EmailUpdates,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := item.Validate(); err != nil {
		return pool.Pool{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.poolRepo.Create(ctx, item); err != nil {
		return pool.Pool{}, fmt.Errorf("create pool: %w", err)
	}

	// The pool is already stored. A missing manager entry is recoverable
	// through JoinPool, which never asks the manager for an invite code.
	if input.ManagerPlays {
		if _, _, err := s.AddEntry(ctx, item, input.ManagerID); err != nil {
			s.logger.ErrorContext(ctx, "add manager entry failed", "pool_id", item.ID, "manager_id", item.ManagerID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "pool created", "pool_id", item.ID, "season_id", item.SeasonID, "manager_id", item.ManagerID)
	return item, nil
}

func (s *PoolService) UpdatePool(ctx context.Context, input UpdatePoolInput) (pool.Pool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.UpdatePool")
	defer span.End()

	item, err := s.GetPool(ctx, input.PoolID)
	if err != nil {
		return pool.Pool{}, err
	}
	if !item.IsManager(strings.TrimSpace(input.AccountID)) {
		return pool.Pool{}, fmt.Errorf("%w: only the pool manager can update pool=%s", ErrForbidden, item.ID)
	}

	defaultTeamID := team.NormalizeSlug(input.DefaultTeamID)
	if err := s.validateDefaultTeam(ctx, defaultTeamID); err != nil {
		return pool.Pool{}, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Description = strings.TrimSpace(input.Description)
	item.InviteOnly = input.InviteOnly
	item.EntryFee = input.EntryFee
	item.AgainstSpread = input.AgainstSpread
	item.DefaultTeamID = defaultTeamID
	item.EmailUpdates = input.EmailUpdates
	item.UpdatedAt = s.now().UTC()
	if err := item.Validate(); err != nil {
		return pool.Pool{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.poolRepo.Update(ctx, item); err != nil {
		return pool.Pool{}, fmt.Errorf("update pool: %w", err)
	}
	return item, nil
}

func (s *PoolService) GetPool(ctx context.Context, poolID string) (pool.Pool, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return pool.Pool{}, fmt.Errorf("%w: pool id is required", ErrInvalidInput)
	}

	item, exists, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return pool.Pool{}, fmt.Errorf("get pool: %w", err)
	}
	if !exists {
		return pool.Pool{}, fmt.Errorf("%w: pool=%s", ErrNotFound, poolID)
	}
	return item, nil
}

func (s *PoolService) ListMyPools(ctx context.Context, accountID string) ([]pool.Pool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ListMyPools")
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	items, err := s.poolRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list pools by account: %w", err)
	}
	return items, nil
}

// AddEntry returns the account's entry in the pool, creating it when missing.
// Lookup and insert share one pool-scoped transaction.
func (s *PoolService) AddEntry(ctx context.Context, p pool.Pool, accountID string) (pool.Entry, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.AddEntry", attribute.String("pickem.pool_id", p.ID))
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return pool.Entry{}, false, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}

	var (
		out     pool.Entry
		created bool
	)
	err := s.poolRepo.RunInPool(ctx, p.ID, func(ctx context.Context, tx pool.EntryTx) error {
		existing, exists, err := tx.FindEntryByAccount(ctx, accountID)
		if err != nil {
			return fmt.Errorf("find entry by account: %w", err)
		}
		if exists {
			out = existing
			created = false
			return nil
		}

		entryID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate entry id: %w", err)
		}
		entry := pool.NewEntry(p, entryID, accountID, s.now().UTC())
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		out = entry
		created = true
		return nil
	})
	if err != nil {
		return pool.Entry{}, false, err
	}

	if created {
		s.logger.InfoContext(ctx, "pool entry created", "pool_id", p.ID, "entry_id", out.ID, "account_id", accountID)
	}
	return out, created, nil
}

func (s *PoolService) IsMember(ctx context.Context, poolID, accountID string) (bool, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return false, nil
	}
	_, exists, err := s.poolRepo.FindEntryByAccount(ctx, strings.TrimSpace(poolID), accountID)
	if err != nil {
		return false, fmt.Errorf("find entry by account: %w", err)
	}
	return exists, nil
}

func (s *PoolService) CheckInviteCode(p pool.Pool, code string) bool {
	return s.invites.Check(p, code)
}

func (s *PoolService) InviteCode(ctx context.Context, poolID, accountID string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.InviteCode")
	defer span.End()

	item, err := s.GetPool(ctx, poolID)
	if err != nil {
		return "", err
	}
	if !item.IsManager(strings.TrimSpace(accountID)) {
		return "", fmt.Errorf("%w: only the pool manager can read the invite code", ErrForbidden)
	}
	return s.invites.Code(item), nil
}

// JoinPool adds the caller to the pool. Invite-only pools require a valid code
// unless the caller manages the pool.
func (s *PoolService) JoinPool(ctx context.Context, input JoinPoolInput) (pool.Entry, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.JoinPool", attribute.String("pickem.pool_id", input.PoolID))
	defer span.End()

	item, err := s.GetPool(ctx, input.PoolID)
	if err != nil {
		return pool.Entry{}, false, err
	}

	accountID := strings.TrimSpace(input.AccountID)
	if item.InviteOnly && !item.IsManager(accountID) {
		member, err := s.IsMember(ctx, item.ID, accountID)
		if err != nil {
			return pool.Entry{}, false, err
		}
		if !member && !s.CheckInviteCode(item, input.InviteCode) {
			s.logger.WarnContext(ctx, "pool join rejected", "pool_id", item.ID, "account_id", accountID)
			return pool.Entry{}, false, fmt.Errorf("%w: invalid invite code for pool=%s", ErrForbidden, item.ID)
		}
	}

	return s.AddEntry(ctx, item, accountID)
}

// ViewPool returns the full pool view for members. Non-members of invite-only
// pools get a preview together with ErrForbidden.
func (s *PoolService) ViewPool(ctx context.Context, poolID, accountID string) (PoolView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ViewPool")
	defer span.End()

	item, err := s.GetPool(ctx, poolID)
	if err != nil {
		return PoolView{}, err
	}
	accountID = strings.TrimSpace(accountID)

	entries, err := s.poolRepo.ListEntries(ctx, item.ID)
	if err != nil {
		return PoolView{}, fmt.Errorf("list pool entries: %w", err)
	}

	view := PoolView{
		Pool:       item,
		IsManager:  item.IsManager(accountID),
		EntryCount: len(entries),
	}
	for _, e := range entries {
		if e.AccountID == accountID {
			view.IsMember = true
			break
		}
	}
	view.Manager = s.displayName(ctx, item.ManagerID)

	if item.InviteOnly && !view.IsMember && !view.IsManager {
		view.Preview = true
		return view, fmt.Errorf("%w: pool=%s is invite only", ErrForbidden, item.ID)
	}

	view.Summary = pool.Summarize(item, entries)
	view.Entries, err = s.entryViews(ctx, entries)
	if err != nil {
		return PoolView{}, err
	}
	return view, nil
}

func (s *PoolService) ListEntries(ctx context.Context, poolID, accountID string) ([]EntryView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ListEntries")
	defer span.End()

	item, err := s.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMemberOrManager(ctx, item, accountID); err != nil {
		return nil, err
	}

	entries, err := s.poolRepo.ListEntries(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list pool entries: %w", err)
	}
	return s.entryViews(ctx, entries)
}

func (s *PoolService) Summary(ctx context.Context, poolID string) (pool.Summary, error) {
	item, err := s.GetPool(ctx, poolID)
	if err != nil {
		return pool.Summary{}, err
	}
	entries, err := s.poolRepo.ListEntries(ctx, item.ID)
	if err != nil {
		return pool.Summary{}, fmt.Errorf("list pool entries: %w", err)
	}
	return pool.Summarize(item, entries), nil
}

func (s *PoolService) UpdateEntryStatus(ctx context.Context, input UpdateEntryStatusInput) (pool.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.UpdateEntryStatus")
	defer span.End()

	item, err := s.GetPool(ctx, input.PoolID)
	if err != nil {
		return pool.Entry{}, err
	}
	if !item.IsManager(strings.TrimSpace(input.AccountID)) {
		return pool.Entry{}, fmt.Errorf("%w: only the pool manager can update entries", ErrForbidden)
	}
	if input.Paid == nil && input.Active == nil {
		return pool.Entry{}, fmt.Errorf("%w: paid or active is required", ErrInvalidInput)
	}

	entry, exists, err := s.poolRepo.GetEntry(ctx, item.ID, strings.TrimSpace(input.EntryID))
	if err != nil {
		return pool.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	if !exists {
		return pool.Entry{}, fmt.Errorf("%w: entry=%s", ErrNotFound, input.EntryID)
	}

	if input.Paid != nil {
		entry.Paid = *input.Paid
	}
	if input.Active != nil {
		entry.Active = *input.Active
	}
	entry.UpdatedAt = s.now().UTC()
	if err := s.poolRepo.UpdateEntry(ctx, entry); err != nil {
		return pool.Entry{}, fmt.Errorf("update entry: %w", err)
	}
	return entry, nil
}

// ResolveEntry loads an entry and checks it belongs to the pool.
func (s *PoolService) ResolveEntry(ctx context.Context, poolID, entryID string) (pool.Pool, pool.Entry, error) {
	item, err := s.GetPool(ctx, poolID)
	if err != nil {
		return pool.Pool{}, pool.Entry{}, err
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("%w: entry id is required", ErrInvalidInput)
	}
	entry, exists, err := s.poolRepo.GetEntry(ctx, item.ID, entryID)
	if err != nil {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	if !exists {
		return pool.Pool{}, pool.Entry{}, fmt.Errorf("%w: entry=%s", ErrNotFound, entryID)
	}
	return item, entry, nil
}

func (s *PoolService) requireMemberOrManager(ctx context.Context, item pool.Pool, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if item.IsManager(accountID) {
		return nil
	}
	member, err := s.IsMember(ctx, item.ID, accountID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: account is not a member of pool=%s", ErrForbidden, item.ID)
	}
	return nil
}

func (s *PoolService) resolveSeason(ctx context.Context, seasonID string) (string, error) {
	if seasonID == "" {
		if s.seasons == nil {
			return "", fmt.Errorf("%w: season id is required", ErrInvalidInput)
		}
		current, err := s.seasons.CurrentSeason(ctx)
		if err != nil {
			return "", fmt.Errorf("resolve current season: %w", err)
		}
		return current.ID, nil
	}

	_, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return "", fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}
	return seasonID, nil
}

func (s *PoolService) validateDefaultTeam(ctx context.Context, teamID string) error {
	if teamID == "" {
		return nil
	}
	_, exists, err := s.teamRepo.GetBySlug(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get default team: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: default team %s not found", ErrInvalidInput, teamID)
	}
	return nil
}

func (s *PoolService) displayName(ctx context.Context, accountID string) string {
	item, exists, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		s.logger.WarnContext(ctx, "load account for display name failed", "account_id", accountID, "error", err)
		return ""
	}
	if !exists {
		return ""
	}
	return item.DisplayName()
}

func (s *PoolService) entryViews(ctx context.Context, entries []pool.Entry) ([]EntryView, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.AccountID)
	}
	accounts, err := s.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get entry accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.DisplayName()
	}

	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryView{Entry: e, DisplayName: names[e.AccountID]})
	}
	return out, nil
}

// IsForbiddenPreview reports whether err carries a preview-only pool view.
func IsForbiddenPreview(view PoolView, err error) bool {
	return errors.Is(err, ErrForbidden) && view.Preview
}
