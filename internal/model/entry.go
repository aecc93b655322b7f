// Package model defines the core domain types shared across the engine.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaflux/contaflux/internal/money"
)

// EntryKind identifies the cash-movement type of a ledger entry.
type EntryKind string

const (
	// KindPayable is an obligation to pay a supplier.
	KindPayable EntryKind = "payable"
	// KindReceivable is money expected from a customer.
	KindReceivable EntryKind = "receivable"
	// KindIntercompany is a transfer between related companies.
	KindIntercompany EntryKind = "intercompany"
	// KindDeposit is a cash deposit.
	KindDeposit EntryKind = "deposit"
	// KindWithdrawal is a cash withdrawal.
	KindWithdrawal EntryKind = "withdrawal"
	// KindCard is a card settlement movement.
	KindCard EntryKind = "card"
)

// Valid reports whether the kind is one of the known entry kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindPayable, KindReceivable, KindIntercompany, KindDeposit, KindWithdrawal, KindCard:
		return true
	}
	return false
}

// Nature classifies an entry for cash-flow reporting.
type Nature string

const (
	// NatureOperational marks day-to-day operating movements.
	NatureOperational Nature = "operational"
	// NatureWorkingCapital marks financing and capital-goods movements.
	NatureWorkingCapital Nature = "workingCapital"
)

// LedgerEntry is a single payable/receivable/cash-movement record.
// Amounts are stored as pt-BR formatted text and parsed on demand; id is the
// only uniqueness guarantee, so all matching against entries is heuristic.
type LedgerEntry struct {
	DueDate     time.Time `json:"dataVencimento"`
	ID          string    `json:"id"`
	Kind        EntryKind `json:"tipo"`
	Description string    `json:"descricao"`
	AmountText  string    `json:"valor"`
	SupplierID  string    `json:"fornecedorId,omitempty"`
	Category    string    `json:"categoria,omitempty"`
	Nature      Nature    `json:"natureza,omitempty"`
	Paid        bool      `json:"pago"`
	Reconciled  bool      `json:"conciliado"`
	Scheduled   bool      `json:"agendado"`
}

// Amount parses the entry's formatted amount text.
func (e *LedgerEntry) Amount() (decimal.Decimal, error) {
	d, err := money.Parse(e.AmountText)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return d, nil
}

// ExtractedCandidate is one structured transaction produced by the extraction
// service for a statement batch. Candidates are transient: consumed by the
// matching engine or the review queue, never persisted.
type ExtractedCandidate struct {
	DueDate     time.Time `json:"dataVencimento"`
	Kind        EntryKind `json:"tipo"`
	Subkind     string    `json:"subtipo,omitempty"`
	Description string    `json:"descricao"`
	AmountText  string    `json:"valor"`
	Paid        bool      `json:"pago"`
}

// Amount parses the candidate's formatted amount text.
func (c *ExtractedCandidate) Amount() (decimal.Decimal, error) {
	d, err := money.Parse(c.AmountText)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("candidate %q: %w", c.Description, err)
	}
	return d, nil
}
