// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/contaflux/contaflux/internal/model"
)

// EntryFilter defines filtering options for ledger entry queries.
type EntryFilter struct {
	Kind        model.EntryKind
	PendingOnly bool
	Limit       int
}

// Storage defines the contract for our persistence layer. The reconciliation
// engine itself works on in-memory collections loaded through this interface
// and persists its results back after each invocation completes.
type Storage interface {
	// Ledger entry operations
	SaveEntry(ctx context.Context, entry *model.LedgerEntry) error
	SaveEntries(ctx context.Context, entries []model.LedgerEntry) error
	GetEntryByID(ctx context.Context, id string) (*model.LedgerEntry, error)
	GetEntries(ctx context.Context, filter EntryFilter) ([]model.LedgerEntry, error)
	GetPendingEntries(ctx context.Context) ([]model.LedgerEntry, error)
	MarkReconciled(ctx context.Context, id string) error
	DeleteEntry(ctx context.Context, id string) error

	// Supplier operations
	GetSupplierByID(ctx context.Context, id string) (*model.Supplier, error)
	GetAllSuppliers(ctx context.Context) ([]model.Supplier, error)
	SaveSupplier(ctx context.Context, supplier *model.Supplier) error
	UpdateSupplierDefaultNature(ctx context.Context, id string, nature model.Nature) error

	// Pattern mapping operations
	GetPatternMappings(ctx context.Context) ([]model.PatternMapping, error)
	AppendPatternMappings(ctx context.Context, mappings []model.PatternMapping) error

	// Schema management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
