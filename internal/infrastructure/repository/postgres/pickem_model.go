package postgres

import (
	"database/sql"
	"time"
)

type accountTableModel struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	Provider    string    `db:"provider"`
	ExternalID  string    `db:"external_id"`
	AccessToken string    `db:"access_token"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type teamTableModel struct {
	Slug      string    `db:"slug"`
	Place     string    `db:"place"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	Slug  string `db:"slug"`
	Place string `db:"place"`
	Name  string `db:"name"`
}

type seasonTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type seasonInsertModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

type slateTableModel struct {
	ID        string    `db:"id"`
	SeasonID  string    `db:"season_id"`
	Ordinal   int       `db:"ordinal"`
	Name      string    `db:"name"`
	StartAt   time.Time `db:"start_at"`
	EndAt     time.Time `db:"end_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type slateInsertModel struct {
	ID       string    `db:"id"`
	SeasonID string    `db:"season_id"`
	Ordinal  int       `db:"ordinal"`
	Name     string    `db:"name"`
	StartAt  time.Time `db:"start_at"`
	EndAt    time.Time `db:"end_at"`
}

type gameTableModel struct {
	ID         string    `db:"id"`
	SlateID    string    `db:"slate_id"`
	SeasonID   string    `db:"season_id"`
	HomeTeamID string    `db:"home_team_id"`
	AwayTeamID string    `db:"away_team_id"`
	HomeScore  int       `db:"home_score"`
	AwayScore  int       `db:"away_score"`
	Spread     float64   `db:"spread"`
	StartAt    time.Time `db:"start_at"`
	Final      bool      `db:"final"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type poolTableModel struct {
	ID            string         `db:"id"`
	SeasonID      string         `db:"season_id"`
	ManagerID     string         `db:"manager_id"`
	Name          string         `db:"name"`
	Description   string         `db:"description"`
	InviteOnly    bool           `db:"invite_only"`
	EntryFee      float64        `db:"entry_fee"`
	AgainstSpread bool           `db:"against_spread"`
	DefaultTeamID sql.NullString `db:"default_team_id"`
	EmailUpdates  bool           `db:"email_updates"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type entryTableModel struct {
	ID        string    `db:"id"`
	PoolID    string    `db:"pool_id"`
	AccountID string    `db:"account_id"`
	Active    bool      `db:"active"`
	Paid      bool      `db:"paid"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type pickTableModel struct {
	EntryID     string       `db:"entry_id"`
	SlateID     string       `db:"slate_id"`
	PoolID      string       `db:"pool_id"`
	GameID      string       `db:"game_id"`
	TeamID      string       `db:"team_id"`
	Correct     sql.NullBool `db:"correct"`
	SubmittedAt time.Time    `db:"submitted_at"`
	EvaluatedAt sql.NullTime `db:"evaluated_at"`
}
