package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/pickem/internal/domain/team"
	teammock "github.com/riskibarqy/pickem/internal/mocks/domain/team"
)

func TestTeamService_GetNormalisesSlugUsingMockery(t *testing.T) {
	t.Parallel()

	teamRepo := teammock.NewRepository(t)
	service := NewTeamService(teamRepo)

	teamRepo.
		On("GetBySlug", mock.Anything, "gb").
		Return(team.Team{Slug: "gb", Place: "Green Bay", Name: "Packers"}, true, nil).
		Once()

	got, err := service.Get(context.Background(), "  GB ")
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if got.DisplayName() != "Green Bay Packers" {
		t.Fatalf("unexpected team: %+v", got)
	}
}

func TestTeamService_GetNotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	teamRepo := teammock.NewRepository(t)
	service := NewTeamService(teamRepo)

	teamRepo.
		On("GetBySlug", mock.Anything, "zzz").
		Return(team.Team{}, false, nil).
		Once()

	_, err := service.Get(context.Background(), "zzz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTeamService_ListPropagatesErrorUsingMockery(t *testing.T) {
	t.Parallel()

	teamRepo := teammock.NewRepository(t)
	service := NewTeamService(teamRepo)
	boom := errors.New("db down")

	teamRepo.
		On("List", mock.Anything).
		Return(nil, boom).
		Once()

	_, err := service.List(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}
