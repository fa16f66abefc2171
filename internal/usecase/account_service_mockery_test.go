package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/pickem/internal/domain/account"
	accountmock "github.com/riskibarqy/pickem/internal/mocks/domain/account"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

type stubProvider struct {
	profile ExternalProfile
	err     error
}

func (p stubProvider) AuthCodeURL(state string) string {
	return "https://provider.test/dialog?state=" + state
}

func (p stubProvider) Exchange(context.Context, string) (ExternalProfile, error) {
	return p.profile, p.err
}

type stubIssuer struct {
	issued []account.Principal
}

func (s *stubIssuer) Issue(principal account.Principal) (string, time.Time, error) {
	s.issued = append(s.issued, principal)
	return "token-" + principal.AccountID, time.Date(2011, time.October, 1, 0, 0, 0, 0, time.UTC), nil
}

func TestAccountService_CompleteLoginUpsertsAccountUsingMockery(t *testing.T) {
	t.Parallel()

	accountRepo := accountmock.NewRepository(t)
	issuer := &stubIssuer{}
	provider := stubProvider{profile: ExternalProfile{
		Provider:    "facebook",
		ExternalID:  "10001",
		Email:       "  Casey@Example.com ",
		FirstName:   "Casey",
		LastName:    "Jones",
		AccessToken: "fb-token",
	}}
	service := NewAccountService(accountRepo, provider, issuer, &sequenceIDGenerator{prefix: "acc"}, logging.NewNop())

	accountRepo.
		On("UpsertByExternalID", mock.Anything, mock.MatchedBy(func(item account.Account) bool {
			return item.Email == "casey@example.com" && item.ExternalID == "10001" && item.ID == "acc-001"
		})).
		Return(func(_ context.Context, item account.Account) (account.Account, bool, error) {
			item.ID = "acc-existing"
			return item, false, nil
		}).
		Once()

	result, err := service.CompleteLogin(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "acc-existing", result.Account.ID)
	assert.False(t, result.Created)
	assert.Equal(t, "token-acc-existing", result.Token)
	require.Len(t, issuer.issued, 1)
	assert.Equal(t, "casey@example.com", issuer.issued[0].Email)
}

func TestAccountService_CompleteLoginExchangeFailureUsingMockery(t *testing.T) {
	t.Parallel()

	accountRepo := accountmock.NewRepository(t)
	service := NewAccountService(accountRepo, stubProvider{err: errors.New("bad code")}, &stubIssuer{}, &sequenceIDGenerator{prefix: "acc"}, logging.NewNop())

	_, err := service.CompleteLogin(context.Background(), "auth-code")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAccountService_LoginWithoutProvider(t *testing.T) {
	t.Parallel()

	service := NewAccountService(accountmock.NewRepository(t), nil, &stubIssuer{}, &sequenceIDGenerator{prefix: "acc"}, logging.NewNop())

	_, err := service.LoginURL("state")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	_, err = service.CompleteLogin(context.Background(), "code")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestAccountService_MeUsingMockery(t *testing.T) {
	t.Parallel()

	accountRepo := accountmock.NewRepository(t)
	service := NewAccountService(accountRepo, nil, &stubIssuer{}, &sequenceIDGenerator{prefix: "acc"}, logging.NewNop())

	accountRepo.
		On("GetByID", mock.Anything, "acc-1").
		Return(account.Account{ID: "acc-1", Email: "a@example.com"}, true, nil).
		Once()
	accountRepo.
		On("GetByID", mock.Anything, "acc-2").
		Return(account.Account{}, false, nil).
		Once()

	item, err := service.Me(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", item.Email)

	_, err = service.Me(context.Background(), "acc-2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = service.Me(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
