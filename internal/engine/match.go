package engine

import (
	"time"

	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/money"
)

// dueDateToleranceDays is how far apart a candidate and a pool entry may fall
// and still be considered the same movement.
const dueDateToleranceDays = 1

// Pool is the consumable ordered collection of pending ledger entries for one
// import run. Consumption is explicit tombstoning so the "matched once"
// invariant stays auditable: a taken entry is never eligible again.
type Pool struct {
	entries  []model.LedgerEntry
	consumed []bool
}

// NewPool builds a pool over the pending entries, preserving ledger order.
// Entries already paid are excluded.
func NewPool(entries []model.LedgerEntry) *Pool {
	pending := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Paid {
			pending = append(pending, e)
		}
	}
	return &Pool{
		entries:  pending,
		consumed: make([]bool, len(pending)),
	}
}

// Take scans the pool in ledger order and consumes the first entry matching
// the candidate by kind, amount tolerance and due-date tolerance. The first
// structurally eligible entry wins; ties by closeness are not broken.
func (p *Pool) Take(c *model.ExtractedCandidate) (*model.LedgerEntry, bool) {
	candidateAmount, err := c.Amount()
	if err != nil {
		return nil, false
	}

	for i := range p.entries {
		if p.consumed[i] {
			continue
		}
		entry := &p.entries[i]
		if entry.Kind != c.Kind {
			continue
		}

		entryAmount, amountErr := entry.Amount()
		if amountErr != nil {
			continue // unparseable entries never match
		}
		if !money.WithinTolerance(entryAmount, candidateAmount) {
			continue
		}
		if daysApart(entry.DueDate, c.DueDate) > dueDateToleranceDays {
			continue
		}

		p.consumed[i] = true
		return entry, true
	}
	return nil, false
}

// Remaining returns the entries still unconsumed, in ledger order.
func (p *Pool) Remaining() []model.LedgerEntry {
	var out []model.LedgerEntry
	for i, e := range p.entries {
		if !p.consumed[i] {
			out = append(out, e)
		}
	}
	return out
}

// Consumed returns the entries taken so far, in ledger order.
func (p *Pool) Consumed() []model.LedgerEntry {
	var out []model.LedgerEntry
	for i, e := range p.entries {
		if p.consumed[i] {
			out = append(out, e)
		}
	}
	return out
}

// Len reports how many entries remain available.
func (p *Pool) Len() int {
	n := 0
	for _, c := range p.consumed {
		if !c {
			n++
		}
	}
	return n
}

// daysApart computes the whole-day distance between two dates, ignoring the
// time-of-day component.
func daysApart(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(ad.Sub(bd).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
