package pool

import (
	"fmt"
	"strings"
	"time"
)

// Pool is a pick'em competition for one season, owned by a single manager.
type Pool struct {
	ID            string
	SeasonID      string
	ManagerID     string
	Name          string
	Description   string
	InviteOnly    bool
	EntryFee      float64
	AgainstSpread bool
	DefaultTeamID string
	EmailUpdates  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p Pool) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pool id is required")
	}
	if strings.TrimSpace(p.SeasonID) == "" {
		return fmt.Errorf("pool season id is required")
	}
	if strings.TrimSpace(p.ManagerID) == "" {
		return fmt.Errorf("pool manager is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pool name is required")
	}
	if p.EntryFee < 0 {
		return fmt.Errorf("pool entry fee must be >= 0")
	}
	return nil
}

func (p Pool) IsManager(accountID string) bool {
	return accountID != "" && p.ManagerID == accountID
}

func (p Pool) IsFree() bool {
	return p.EntryFee <= 0
}

// Entry is one account's participation in one pool.
type Entry struct {
	ID        string
	PoolID    string
	AccountID string
	Active    bool
	Paid      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntry builds a fresh entry. Entries in free pools start out paid.
func NewEntry(p Pool, entryID, accountID string, now time.Time) Entry {
	return Entry{
		ID:        entryID,
		PoolID:    p.ID,
		AccountID: accountID,
		Active:    true,
		Paid:      p.IsFree(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Summary partitions a pool's entries and derives its pot.
type Summary struct {
	Active       []Entry
	Inactive     []Entry
	Paid         []Entry
	Unpaid       []Entry
	Pot          float64
	PotentialPot float64
}

func (s Summary) EntryCount() int {
	return len(s.Active) + len(s.Inactive)
}

func Summarize(p Pool, entries []Entry) Summary {
	out := Summary{}
	for _, e := range entries {
		if e.Active {
			out.Active = append(out.Active, e)
		} else {
			out.Inactive = append(out.Inactive, e)
		}
		if e.Paid {
			out.Paid = append(out.Paid, e)
		} else {
			out.Unpaid = append(out.Unpaid, e)
		}
	}
	out.Pot = p.EntryFee * float64(len(out.Paid))
	out.PotentialPot = p.EntryFee * float64(len(entries))
	return out
}
