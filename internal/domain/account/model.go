package account

import (
	"fmt"
	"strings"
	"time"
)

// Account is a player or pool manager identity.
type Account struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	Provider    string
	ExternalID  string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Account) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
	if name == "" {
		return a.Email
	}
	return name
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	if strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("account email is required")
	}
	if strings.TrimSpace(a.Provider) == "" || strings.TrimSpace(a.ExternalID) == "" {
		return fmt.Errorf("account provider identity is required")
	}
	return nil
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	AccountID string
	Email     string
}
