// Package testutil provides shared test helpers: in-memory databases and
// domain fixtures.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/service"
	"github.com/contaflux/contaflux/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite database with cleanup
// registered on the test.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// PendingEntry builds an unpaid ledger entry fixture.
func PendingEntry(kind model.EntryKind, description, amountText string, dueDate time.Time) model.LedgerEntry {
	return model.LedgerEntry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Description: description,
		AmountText:  amountText,
		DueDate:     dueDate,
	}
}

// Candidate builds an extracted statement candidate fixture.
func Candidate(kind model.EntryKind, description, amountText string, dueDate time.Time) model.ExtractedCandidate {
	return model.ExtractedCandidate{
		Kind:        kind,
		Description: description,
		AmountText:  amountText,
		DueDate:     dueDate,
		Paid:        true,
	}
}

// Supplier builds a supplier fixture.
func Supplier(name, category string) model.Supplier {
	return model.Supplier{
		ID:       uuid.NewString(),
		Name:     name,
		Category: category,
	}
}

// Date is a shorthand for a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
