package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get pool: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("boom")) {
		t.Fatalf("expected unrelated error to be found")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches unique violation", func(t *testing.T) {
		err := fmt.Errorf("insert entry: %w", &pq.Error{Code: "23505", Constraint: "pool_entries_pool_account_key"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other pq errors", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected false for foreign key violation")
		}
	})

	t.Run("ignores plain errors", func(t *testing.T) {
		if isUniqueViolation(fakeErr("duplicate key")) {
			t.Fatalf("expected false for non pq error")
		}
	})
}

func TestNullableConversions(t *testing.T) {
	if got := boolPtr(nullBool(nil)); got != nil {
		t.Fatalf("expected nil bool, got %v", *got)
	}
	correct := true
	if got := boolPtr(nullBool(&correct)); got == nil || !*got {
		t.Fatalf("expected true, got %v", got)
	}

	if got := timePtr(nullTime(nil)); got != nil {
		t.Fatalf("expected nil time, got %v", got)
	}
	at := time.Date(2011, time.September, 9, 0, 30, 0, 0, time.UTC)
	if got := timePtr(nullTime(&at)); got == nil || !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}

	if nullString("").Valid {
		t.Fatalf("expected empty string to be null")
	}
	if !nullString("gb").Valid {
		t.Fatalf("expected non-empty string to be valid")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
