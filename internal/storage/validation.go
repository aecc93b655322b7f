package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/contaflux/contaflux/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateEntry(entry *model.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if err := validateString(entry.ID, "entry id"); err != nil {
		return err
	}
	if !entry.Kind.Valid() {
		return fmt.Errorf("invalid entry kind %q", entry.Kind)
	}
	if err := validateString(entry.AmountText, "entry amount"); err != nil {
		return err
	}
	if entry.DueDate.IsZero() {
		return fmt.Errorf("entry due date cannot be zero")
	}
	return nil
}

func validateSupplier(supplier *model.Supplier) error {
	if supplier == nil {
		return fmt.Errorf("supplier cannot be nil")
	}
	if err := validateString(supplier.ID, "supplier id"); err != nil {
		return err
	}
	return validateString(supplier.Name, "supplier name")
}
