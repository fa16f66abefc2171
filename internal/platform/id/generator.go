package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for pools, entries and accounts.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues version 7 UUIDs, which sort by creation time so
// primary key inserts stay append-mostly.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}
