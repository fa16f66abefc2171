package game

import (
	"fmt"
	"strings"
	"time"
)

// Game is a single fixture inside a slate. Spread is the line quoted for the
// home team and is added to the home margin when picks are scored against it.
type Game struct {
	ID         string
	SlateID    string
	SeasonID   string
	HomeTeamID string
	AwayTeamID string
	HomeScore  int
	AwayScore  int
	Spread     float64
	StartAt    time.Time
	Final      bool
	UpdatedAt  time.Time
}

// Key builds the natural key of a game inside its slate.
func Key(slateID, awayTeamID, homeTeamID string) string {
	return slateID + ":" + awayTeamID + "@" + homeTeamID
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.SlateID) == "" {
		return fmt.Errorf("game slate id is required")
	}
	if strings.TrimSpace(g.HomeTeamID) == "" || strings.TrimSpace(g.AwayTeamID) == "" {
		return fmt.Errorf("game teams are required")
	}
	if g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("game home and away team must differ")
	}
	if g.StartAt.IsZero() {
		return fmt.Errorf("game start is required")
	}
	if g.HomeScore < 0 || g.AwayScore < 0 {
		return fmt.Errorf("game scores must be >= 0")
	}
	return nil
}

func (g Game) Teams() []string {
	return []string{g.HomeTeamID, g.AwayTeamID}
}

func (g Game) HasTeam(teamID string) bool {
	return teamID != "" && (g.HomeTeamID == teamID || g.AwayTeamID == teamID)
}

// Margin is the home margin, adjusted by the spread when requested.
func (g Game) Margin(againstSpread bool) float64 {
	diff := float64(g.HomeScore - g.AwayScore)
	if againstSpread {
		diff += g.Spread
	}
	return diff
}

// Winner returns the winning team. ok is false on a push.
func (g Game) Winner(againstSpread bool) (string, bool) {
	diff := g.Margin(againstSpread)
	switch {
	case diff > 0:
		return g.HomeTeamID, true
	case diff < 0:
		return g.AwayTeamID, true
	default:
		return "", false
	}
}

// IsWinner reports whether picking teamID wins. A push counts for both sides.
func (g Game) IsWinner(teamID string, againstSpread bool) bool {
	if !g.HasTeam(teamID) {
		return false
	}
	winner, ok := g.Winner(againstSpread)
	if !ok {
		return true
	}
	return winner == teamID
}
