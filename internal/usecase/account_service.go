package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/account"
	idgen "github.com/riskibarqy/pickem/internal/platform/id"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

// ExternalProfile is the identity an OAuth provider returns after a code exchange.
type ExternalProfile struct {
	Provider    string
	ExternalID  string
	Email       string
	FirstName   string
	LastName    string
	AccessToken string
}

type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (ExternalProfile, error)
}

type SessionIssuer interface {
	Issue(principal account.Principal) (string, time.Time, error)
}

type LoginResult struct {
	Account   account.Account
	Token     string
	ExpiresAt time.Time
	Created   bool
}

type AccountService struct {
	accountRepo account.Repository
	provider    OAuthProvider
	sessions    SessionIssuer
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewAccountService(
	accountRepo account.Repository,
	provider OAuthProvider,
	sessions SessionIssuer,
	idGen idgen.Generator,
	logger *logging.Logger,
) *AccountService {
	if logger == nil {
		logger = logging.Default()
	}

	return &AccountService{
		accountRepo: accountRepo,
		provider:    provider,
		sessions:    sessions,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AccountService) LoginURL(state string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("%w: oauth login is not configured", ErrDependencyUnavailable)
	}
	if strings.TrimSpace(state) == "" {
		return "", fmt.Errorf("%w: state is required", ErrInvalidInput)
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin exchanges an authorization code, upserts the account by its provider
// identity and issues a session token.
func (s *AccountService) CompleteLogin(ctx context.Context, code string) (LoginResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.CompleteLogin")
	defer span.End()

	if s.provider == nil {
		return LoginResult{}, fmt.Errorf("%w: oauth login is not configured", ErrDependencyUnavailable)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return LoginResult{}, fmt.Errorf("%w: authorization code is required", ErrInvalidInput)
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "oauth exchange failed", "error", err)
		return LoginResult{}, fmt.Errorf("%w: oauth exchange: %v", ErrUnauthorized, err)
	}

	item, created, err := s.upsertProfile(ctx, profile)
	if err != nil {
		return LoginResult{}, err
	}

	token, expiresAt, err := s.sessions.Issue(account.Principal{AccountID: item.ID, Email: item.Email})
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in", "account_id", item.ID, "provider", item.Provider, "created", created)
	return LoginResult{
		Account:   item,
		Token:     token,
		ExpiresAt: expiresAt,
		Created:   created,
	}, nil
}

func (s *AccountService) upsertProfile(ctx context.Context, profile ExternalProfile) (account.Account, bool, error) {
	accountID, err := s.idGen.NewID()
	if err != nil {
		return account.Account{}, false, fmt.Errorf("generate account id: %w", err)
	}

	now := s.now().UTC()
	item := account.Account{
		ID:          accountID,
		Email:       strings.ToLower(strings.TrimSpace(profile.Email)),
		FirstName:   strings.TrimSpace(profile.FirstName),
		LastName:    strings.TrimSpace(profile.LastName),
		Provider:    strings.TrimSpace(profile.Provider),
		ExternalID:  strings.TrimSpace(profile.ExternalID),
		AccessToken: profile.AccessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.Validate(); err != nil {
		return account.Account{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	saved, created, err := s.accountRepo.UpsertByExternalID(ctx, item)
	if err != nil {
		return account.Account{}, false, fmt.Errorf("upsert account: %w", err)
	}
	return saved, created, nil
}

func (s *AccountService) Me(ctx context.Context, accountID string) (account.Account, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.Me")
	defer span.End()

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return account.Account{}, fmt.Errorf("%w: account id is required", ErrUnauthorized)
	}

	item, exists, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	if !exists {
		return account.Account{}, fmt.Errorf("%w: account=%s", ErrNotFound, accountID)
	}
	return item, nil
}
