package pick

import (
	"fmt"
	"strings"
	"time"
)

// Pick is an entry's chosen team for one slate.
type Pick struct {
	EntryID     string
	SlateID     string
	PoolID      string
	GameID      string
	TeamID      string
	Correct     *bool
	SubmittedAt time.Time
	EvaluatedAt *time.Time
}

func (p Pick) Validate() error {
	if strings.TrimSpace(p.EntryID) == "" || strings.TrimSpace(p.SlateID) == "" {
		return fmt.Errorf("pick entry and slate are required")
	}
	if strings.TrimSpace(p.GameID) == "" || strings.TrimSpace(p.TeamID) == "" {
		return fmt.Errorf("pick game and team are required")
	}
	return nil
}

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

func (p Pick) Outcome() Outcome {
	switch {
	case p.Correct == nil:
		return OutcomePending
	case *p.Correct:
		return OutcomeCorrect
	default:
		return OutcomeIncorrect
	}
}

func OutcomeOf(correct bool) Outcome {
	if correct {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}
