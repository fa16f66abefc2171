package team

import (
	"fmt"
	"strings"
)

// Team is a real-world club. Slug is the stable short key used by score feeds.
type Team struct {
	Slug  string
	Place string
	Name  string
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Slug) == "" {
		return fmt.Errorf("team slug is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// DisplayName renders "Place Name", e.g. "Kansas City Chiefs".
func (t Team) DisplayName() string {
	place := strings.TrimSpace(t.Place)
	if place == "" {
		return t.Name
	}
	return place + " " + t.Name
}

func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
