package storage

import (
	"context"
	"fmt"

	"github.com/contaflux/contaflux/internal/model"
)

// GetPatternMappings loads the full append-only mapping log in insert order.
func (s *SQLiteStorage) GetPatternMappings(ctx context.Context) ([]model.PatternMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern, supplier_id, created_at FROM pattern_mappings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mappings []model.PatternMapping
	for rows.Next() {
		var m model.PatternMapping
		if err := rows.Scan(&m.Pattern, &m.SupplierID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// AppendPatternMappings persists newly learned mappings. Duplicate patterns
// are avoided before insert, not enforced as a hard constraint, matching the
// store's idempotent-insert contract.
func (s *SQLiteStorage) AppendPatternMappings(ctx context.Context, mappings []model.PatternMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(mappings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range mappings {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM pattern_mappings WHERE pattern = ?)`,
			m.Pattern).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check pattern existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pattern_mappings (pattern, supplier_id, created_at) VALUES (?, ?, ?)`,
			m.Pattern, m.SupplierID, m.CreatedAt); err != nil {
			return fmt.Errorf("failed to append pattern mapping: %w", err)
		}
	}
	return tx.Commit()
}
