package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/contaflux/contaflux/internal/common"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/service"
)

const entryColumns = `id, kind, description, amount_text, due_date, paid, reconciled, scheduled,
	COALESCE(supplier_id, ''), COALESCE(category, ''), COALESCE(nature, '')`

// SaveEntry inserts or updates a ledger entry.
func (s *SQLiteStorage) SaveEntry(ctx context.Context, entry *model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return s.saveEntry(ctx, s.db, entry)
}

// SaveEntries inserts or updates a batch of entries in one transaction.
func (s *SQLiteStorage) SaveEntries(ctx context.Context, entries []model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range entries {
		if err := validateEntry(&entries[i]); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range entries {
		if err := s.saveEntry(ctx, tx, &entries[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) saveEntry(ctx context.Context, q queryable, entry *model.LedgerEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO entries (id, kind, description, amount_text, due_date, paid, reconciled, scheduled, supplier_id, category, nature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			description = excluded.description,
			amount_text = excluded.amount_text,
			due_date = excluded.due_date,
			paid = excluded.paid,
			reconciled = excluded.reconciled,
			scheduled = excluded.scheduled,
			supplier_id = excluded.supplier_id,
			category = excluded.category,
			nature = excluded.nature
	`, entry.ID, string(entry.Kind), entry.Description, entry.AmountText, entry.DueDate,
		entry.Paid, entry.Reconciled, entry.Scheduled,
		nullable(entry.SupplierID), nullable(entry.Category), nullable(string(entry.Nature)))
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// GetEntryByID retrieves one entry.
func (s *SQLiteStorage) GetEntryByID(ctx context.Context, id string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// GetEntries retrieves entries matching the filter, in insertion order.
func (s *SQLiteStorage) GetEntries(ctx context.Context, filter service.EntryFilter) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	if filter.PendingOnly {
		conditions = append(conditions, "paid = 0")
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY rowid"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", scanErr)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// GetPendingEntries retrieves all unpaid entries in ledger order. This is the
// pool the matching engine consumes.
func (s *SQLiteStorage) GetPendingEntries(ctx context.Context) ([]model.LedgerEntry, error) {
	return s.GetEntries(ctx, service.EntryFilter{PendingOnly: true})
}

// MarkReconciled flags an entry as matched against a real bank movement and
// settled.
func (s *SQLiteStorage) MarkReconciled(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET reconciled = 1, paid = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry reconciled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry. Entries are only deleted by explicit user
// action.
func (s *SQLiteStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var kind, nature string
	if err := row.Scan(&entry.ID, &kind, &entry.Description, &entry.AmountText,
		&entry.DueDate, &entry.Paid, &entry.Reconciled, &entry.Scheduled,
		&entry.SupplierID, &entry.Category, &nature); err != nil {
		return nil, err
	}
	entry.Kind = model.EntryKind(kind)
	entry.Nature = model.Nature(nature)
	return &entry, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
