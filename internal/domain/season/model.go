package season

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Season is one competition year, keyed by its year range ("2011-2012").
type Season struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

func (s Season) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("season id is required")
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("season dates are required")
	}
	if s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("season end date must not be before start date")
	}
	return nil
}

// Key builds the year range key of the season that starts in startYear.
func Key(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// KeyFor returns the season key for a kickoff time. Games before June
// belong to the season that started the previous year.
func KeyFor(kickoff time.Time) string {
	year := kickoff.Year()
	if kickoff.Month() < time.June {
		year--
	}
	return Key(year)
}

// Slate is a scheduled group of games, usually one week.
type Slate struct {
	ID       string
	SeasonID string
	Ordinal  int
	Name     string
	StartAt  time.Time
	EndAt    time.Time
}

func SlateKey(seasonID string, ordinal int) string {
	return seasonID + ":" + strconv.Itoa(ordinal)
}

// ParseSlateKey splits "<seasonID>:<ordinal>".
func ParseSlateKey(slateID string) (string, int, error) {
	idx := strings.LastIndex(slateID, ":")
	if idx <= 0 || idx == len(slateID)-1 {
		return "", 0, fmt.Errorf("invalid slate id %q", slateID)
	}
	ordinal, err := strconv.Atoi(slateID[idx+1:])
	if err != nil || ordinal <= 0 {
		return "", 0, fmt.Errorf("invalid slate ordinal in %q", slateID)
	}
	return slateID[:idx], ordinal, nil
}

func SlateName(ordinal int) string {
	return "Week " + strconv.Itoa(ordinal)
}

// IsClosed reports whether picks are locked, which happens at the first kickoff.
func (s Slate) IsClosed(now time.Time) bool {
	return !now.Before(s.StartAt)
}

func (s Slate) Validate() error {
	if strings.TrimSpace(s.SeasonID) == "" {
		return fmt.Errorf("slate season id is required")
	}
	if s.Ordinal <= 0 {
		return fmt.Errorf("slate ordinal must be > 0")
	}
	if s.StartAt.IsZero() {
		return fmt.Errorf("slate start is required")
	}
	if !s.EndAt.IsZero() && s.EndAt.Before(s.StartAt) {
		return fmt.Errorf("slate end must not be before start")
	}
	return nil
}

type CurrentPolicy string

const (
	PolicyEndNotPassed CurrentPolicy = "end_not_passed"
	PolicyLatestStart  CurrentPolicy = "latest_start"
)

func ParseCurrentPolicy(raw string) (CurrentPolicy, error) {
	switch CurrentPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyEndNotPassed:
		return PolicyEndNotPassed, nil
	case PolicyLatestStart:
		return PolicyLatestStart, nil
	default:
		return "", fmt.Errorf("unsupported current season policy %q", raw)
	}
}

// SelectCurrent picks the season that is current at now under the given policy.
func SelectCurrent(items []Season, now time.Time, policy CurrentPolicy) (Season, bool) {
	if len(items) == 0 {
		return Season{}, false
	}

	sorted := append([]Season(nil), items...)
	today := truncateDay(now)

	switch policy {
	case PolicyLatestStart:
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartDate.After(sorted[j].StartDate) })
		for _, s := range sorted {
			if !truncateDay(s.StartDate).After(today) {
				return s, true
			}
		}
		return sorted[len(sorted)-1], true
	default:
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].EndDate.Before(sorted[j].EndDate) })
		for _, s := range sorted {
			if !truncateDay(s.EndDate).Before(today) {
				return s, true
			}
		}
		return sorted[len(sorted)-1], true
	}
}

// SelectCurrentSlate returns the first slate that has not ended yet, or the last one.
func SelectCurrentSlate(slates []Slate, now time.Time) (Slate, bool) {
	if len(slates) == 0 {
		return Slate{}, false
	}
	sorted := append([]Slate(nil), slates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })
	for _, s := range sorted {
		if s.EndAt.IsZero() || now.Before(s.EndAt) {
			return s, true
		}
	}
	return sorted[len(sorted)-1], true
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
