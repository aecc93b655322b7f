package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/contaflux/contaflux/internal/common"
	"github.com/contaflux/contaflux/internal/model"
)

// GetSupplierByID retrieves a supplier.
func (s *SQLiteStorage) GetSupplierByID(ctx context.Context, id string) (*model.Supplier, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(modality, ''), COALESCE(grp, ''),
			COALESCE(category, ''), COALESCE(default_nature, ''), COALESCE(aliases, '')
		FROM suppliers WHERE id = ?
	`, id)

	supplier, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return supplier, nil
}

// GetAllSuppliers retrieves every supplier, ordered by name.
func (s *SQLiteStorage) GetAllSuppliers(ctx context.Context) ([]model.Supplier, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(modality, ''), COALESCE(grp, ''),
			COALESCE(category, ''), COALESCE(default_nature, ''), COALESCE(aliases, '')
		FROM suppliers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var suppliers []model.Supplier
	for rows.Next() {
		supplier, scanErr := scanSupplier(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", scanErr)
		}
		suppliers = append(suppliers, *supplier)
	}
	return suppliers, rows.Err()
}

// SaveSupplier inserts or updates a supplier.
func (s *SQLiteStorage) SaveSupplier(ctx context.Context, supplier *model.Supplier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSupplier(supplier); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, modality, grp, category, default_nature, aliases)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			modality = excluded.modality,
			grp = excluded.grp,
			category = excluded.category,
			default_nature = excluded.default_nature,
			aliases = excluded.aliases
	`, supplier.ID, supplier.Name, nullable(supplier.Modality), nullable(supplier.Group),
		nullable(supplier.Category), nullable(string(supplier.DefaultNature)),
		nullable(strings.Join(supplier.Aliases, "\n")))
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

// UpdateSupplierDefaultNature records the reviewer's latest nature choice as
// the supplier's default. Last choice wins.
func (s *SQLiteStorage) UpdateSupplierDefaultNature(ctx context.Context, id string, nature model.Nature) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE suppliers SET default_nature = ? WHERE id = ?`, string(nature), id)
	if err != nil {
		return fmt.Errorf("failed to update supplier nature: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanSupplier(row rowScanner) (*model.Supplier, error) {
	var supplier model.Supplier
	var nature, aliases string
	if err := row.Scan(&supplier.ID, &supplier.Name, &supplier.Modality,
		&supplier.Group, &supplier.Category, &nature, &aliases); err != nil {
		return nil, err
	}
	supplier.DefaultNature = model.Nature(nature)
	if aliases != "" {
		supplier.Aliases = strings.Split(aliases, "\n")
	}
	return &supplier, nil
}
