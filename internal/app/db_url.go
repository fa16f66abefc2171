package app

import (
	"fmt"
	"strings"

	"github.com/xo/dburl"
)

type dbTarget struct {
	Driver string
	DSN    string
	Name   string
}

// parseDBURL resolves the driver and driver-specific DSN for a database URL.
// Only postgres is wired into the repositories.
func parseDBURL(raw string) (dbTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dbTarget{}, fmt.Errorf("database url is empty")
	}

	u, err := dburl.Parse(raw)
	if err != nil {
		return dbTarget{}, fmt.Errorf("parse database url: %w", err)
	}
	if u.Driver != "postgres" {
		return dbTarget{}, fmt.Errorf("unsupported database driver %q", u.Driver)
	}

	return dbTarget{
		Driver: u.Driver,
		DSN:    u.DSN,
		Name:   strings.TrimSpace(strings.TrimPrefix(u.Path, "/")),
	}, nil
}
