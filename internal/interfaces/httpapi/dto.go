package httpapi

import (
	"time"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/pick"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	"github.com/riskibarqy/pickem/internal/usecase"
)

type accountDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
}

type sessionDTO struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Created   bool       `json:"created"`
	Account   accountDTO `json:"account"`
}

type teamDTO struct {
	Slug        string `json:"slug"`
	Place       string `json:"place"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type seasonDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type slateDTO struct {
	ID       string    `json:"id"`
	SeasonID string    `json:"season_id"`
	Ordinal  int       `json:"ordinal"`
	Name     string    `json:"name"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Closed   bool      `json:"closed"`
}

type currentSeasonDTO struct {
	Season seasonDTO `json:"season"`
	Slate  *slateDTO `json:"slate,omitempty"`
}

type gameDTO struct {
	ID         string    `json:"id"`
	SlateID    string    `json:"slate_id"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
	Spread     float64   `json:"spread"`
	StartAt    time.Time `json:"start_at"`
	Final      bool      `json:"final"`
}

type slateGamesDTO struct {
	Slate slateDTO  `json:"slate"`
	Games []gameDTO `json:"games"`
}

type poolDTO struct {
	ID            string    `json:"id"`
	SeasonID      string    `json:"season_id"`
	ManagerID     string    `json:"manager_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	InviteOnly    bool      `json:"invite_only"`
	EntryFee      float64   `json:"entry_fee"`
	AgainstSpread bool      `json:"against_spread"`
	DefaultTeamID string    `json:"default_team_id,omitempty"`
	EmailUpdates  bool      `json:"email_updates"`
	CreatedAt     time.Time `json:"created_at"`
}

type entryDTO struct {
	ID          string `json:"id"`
	PoolID      string `json:"pool_id"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name,omitempty"`
	Active      bool   `json:"active"`
	Paid        bool   `json:"paid"`
}

type poolSummaryDTO struct {
	Active       int     `json:"active"`
	Inactive     int     `json:"inactive"`
	Paid         int     `json:"paid"`
	Unpaid       int     `json:"unpaid"`
	Pot          float64 `json:"pot"`
	PotentialPot float64 `json:"potential_pot"`
}

type poolViewDTO struct {
	Pool       poolDTO         `json:"pool"`
	Preview    bool            `json:"preview"`
	IsMember   bool            `json:"is_member"`
	IsManager  bool            `json:"is_manager"`
	Manager    string          `json:"manager"`
	EntryCount int             `json:"entry_count"`
	Summary    *poolSummaryDTO `json:"summary,omitempty"`
	Entries    []entryDTO      `json:"entries,omitempty"`
}

type joinResultDTO struct {
	Entry   entryDTO `json:"entry"`
	Created bool     `json:"created"`
}

type pickDTO struct {
	EntryID     string     `json:"entry_id"`
	SlateID     string     `json:"slate_id"`
	GameID      string     `json:"game_id"`
	TeamID      string     `json:"team_id"`
	Outcome     string     `json:"outcome"`
	SubmittedAt time.Time  `json:"submitted_at"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"`
}

type standingDTO struct {
	Rank        int    `json:"rank"`
	EntryID     string `json:"entry_id"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
	Paid        bool   `json:"paid"`
	Correct     int    `json:"correct"`
	Incorrect   int    `json:"incorrect"`
	Pending     int    `json:"pending"`
}

type recordErrorDTO struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type importReportDTO struct {
	Processed int              `json:"processed"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Unchanged int              `json:"unchanged"`
	Skipped   int              `json:"skipped"`
	Evaluated int              `json:"evaluated"`
	Errors    []recordErrorDTO `json:"errors,omitempty"`
}

type evaluationReportDTO struct {
	GameID    string `json:"game_id"`
	Final     bool   `json:"final"`
	Evaluated int    `json:"evaluated"`
	Correct   int    `json:"correct"`
	Incorrect int    `json:"incorrect"`
	Pending   int    `json:"pending"`
}

func accountToDTO(item account.Account) accountDTO {
	return accountDTO{
		ID:          item.ID,
		Email:       item.Email,
		FirstName:   item.FirstName,
		LastName:    item.LastName,
		DisplayName: item.DisplayName(),
	}
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{
		Slug:        item.Slug,
		Place:       item.Place,
		Name:        item.Name,
		DisplayName: item.DisplayName(),
	}
}

func seasonToDTO(item season.Season) seasonDTO {
	return seasonDTO{
		ID:        item.ID,
		Name:      item.Name,
		StartDate: item.StartDate,
		EndDate:   item.EndDate,
	}
}

func slateToDTO(item season.Slate, now time.Time) slateDTO {
	return slateDTO{
		ID:       item.ID,
		SeasonID: item.SeasonID,
		Ordinal:  item.Ordinal,
		Name:     item.Name,
		StartAt:  item.StartAt,
		EndAt:    item.EndAt,
		Closed:   item.IsClosed(now),
	}
}

func gameToDTO(item game.Game) gameDTO {
	return gameDTO{
		ID:         item.ID,
		SlateID:    item.SlateID,
		HomeTeamID: item.HomeTeamID,
		AwayTeamID: item.AwayTeamID,
		HomeScore:  item.HomeScore,
		AwayScore:  item.AwayScore,
		Spread:     item.Spread,
		StartAt:    item.StartAt,
		Final:      item.Final,
	}
}

func poolToDTO(item pool.Pool) poolDTO {
	return poolDTO{
		ID:            item.ID,
		SeasonID:      item.SeasonID,
		ManagerID:     item.ManagerID,
		Name:          item.Name,
		Description:   item.Description,
		InviteOnly:    item.InviteOnly,
		EntryFee:      item.EntryFee,
		AgainstSpread: item.AgainstSpread,
		DefaultTeamID: item.DefaultTeamID,
		EmailUpdates:  item.EmailUpdates,
		CreatedAt:     item.CreatedAt,
	}
}

func entryToDTO(item pool.Entry, displayName string) entryDTO {
	return entryDTO{
		ID:          item.ID,
		PoolID:      item.PoolID,
		AccountID:   item.AccountID,
		DisplayName: displayName,
		Active:      item.Active,
		Paid:        item.Paid,
	}
}

func poolViewToDTO(view usecase.PoolView) poolViewDTO {
	out := poolViewDTO{
		Pool:       poolToDTO(view.Pool),
		Preview:    view.Preview,
		IsMember:   view.IsMember,
		IsManager:  view.IsManager,
		Manager:    view.Manager,
		EntryCount: view.EntryCount,
	}
	if view.Preview {
		return out
	}

	out.Summary = &poolSummaryDTO{
		Active:       len(view.Summary.Active),
		Inactive:     len(view.Summary.Inactive),
		Paid:         len(view.Summary.Paid),
		Unpaid:       len(view.Summary.Unpaid),
		Pot:          view.Summary.Pot,
		PotentialPot: view.Summary.PotentialPot,
	}
	out.Entries = make([]entryDTO, 0, len(view.Entries))
	for _, e := range view.Entries {
		out.Entries = append(out.Entries, entryToDTO(e.Entry, e.DisplayName))
	}
	return out
}

func pickToDTO(item pick.Pick) pickDTO {
	return pickDTO{
		EntryID:     item.EntryID,
		SlateID:     item.SlateID,
		GameID:      item.GameID,
		TeamID:      item.TeamID,
		Outcome:     string(item.Outcome()),
		SubmittedAt: item.SubmittedAt,
		EvaluatedAt: item.EvaluatedAt,
	}
}

func standingToDTO(item usecase.Standing) standingDTO {
	return standingDTO{
		Rank:        item.Rank,
		EntryID:     item.EntryID,
		AccountID:   item.AccountID,
		DisplayName: item.DisplayName,
		Active:      item.Active,
		Paid:        item.Paid,
		Correct:     item.Correct,
		Incorrect:   item.Incorrect,
		Pending:     item.Pending,
	}
}

func importReportToDTO(report usecase.ImportReport) importReportDTO {
	out := importReportDTO{
		Processed: report.Processed,
		Created:   report.Created,
		Updated:   report.Updated,
		Unchanged: report.Unchanged,
		Skipped:   report.Skipped,
		Evaluated: report.Evaluated,
	}
	for _, item := range report.Errors {
		out.Errors = append(out.Errors, recordErrorDTO{Index: item.Index, Message: item.Message})
	}
	return out
}

func evaluationReportToDTO(report usecase.EvaluationReport) evaluationReportDTO {
	return evaluationReportDTO{
		GameID:    report.GameID,
		Final:     report.Final,
		Evaluated: report.Evaluated,
		Correct:   report.Correct,
		Incorrect: report.Incorrect,
		Pending:   report.Pending,
	}
}
