package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/pattern"
	"github.com/contaflux/contaflux/internal/textutil"
)

// resolve runs the supplier resolution cascade for an unmatched candidate:
// learned mapping, then fuzzy supplier match, then fallback by kind. Returns
// the new entry, or queued=true when the candidate needs manual review.
func (e *Engine) resolve(c *model.ExtractedCandidate, sess *Session) (*model.LedgerEntry, bool) {
	if supplierID, ok := sess.Patterns.Lookup(c.Description); ok {
		if supplier := sess.supplierByID(supplierID); supplier != nil {
			slog.Debug("Candidate resolved by learned mapping",
				"description", c.Description,
				"supplier", supplier.Name)
			return newEntryFromCandidate(c, c.Kind, supplier, ""), false
		}
	}

	if supplier := bestSupplierMatch(c.Description, sess.Suppliers, e.cfg.MinSimilarity); supplier != nil {
		slog.Debug("Candidate resolved by fuzzy supplier match",
			"description", c.Description,
			"supplier", supplier.Name)
		return newEntryFromCandidate(c, c.Kind, supplier, ""), false
	}

	// Payables are never silently filed without a counterparty.
	if c.Kind == model.KindPayable {
		return nil, true
	}
	return newEntryFromCandidate(c, c.Kind, nil, ""), false
}

// bestSupplierMatch scans all suppliers and returns the one whose name or
// alias scores the highest token similarity against the description, provided
// it clears the minimum bar. Equal scores fall back to the smaller edit
// distance on the supplier name.
func bestSupplierMatch(description string, suppliers []model.Supplier, minSimilarity float64) *model.Supplier {
	var best *model.Supplier
	bestScore := 0.0
	bestDistance := 0

	for i := range suppliers {
		s := &suppliers[i]
		score := textutil.Similarity(description, s.Name)
		for _, alias := range s.Aliases {
			if aliasScore := textutil.Similarity(description, alias); aliasScore > score {
				score = aliasScore
			}
		}
		if score < minSimilarity {
			continue
		}

		distance := textutil.Distance(description, s.Name)
		if best == nil || score > bestScore || (score == bestScore && distance < bestDistance) {
			best = s
			bestScore = score
			bestDistance = distance
		}
	}
	return best
}

// newEntryFromCandidate files a candidate as a reconciled, settled ledger
// entry, copying supplier classification when a supplier was resolved.
func newEntryFromCandidate(c *model.ExtractedCandidate, kind model.EntryKind, supplier *model.Supplier, natureOverride model.Nature) *model.LedgerEntry {
	entry := &model.LedgerEntry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Description: c.Description,
		AmountText:  c.AmountText,
		DueDate:     c.DueDate,
		Paid:        true,
		Reconciled:  true,
	}
	if supplier != nil {
		entry.SupplierID = supplier.ID
		entry.Category = supplier.Category
		entry.Nature = supplier.DefaultNatureFor()
	}
	if natureOverride != "" {
		entry.Nature = natureOverride
	}
	return entry
}

// ReviewDecision is the reviewer's final word on a queued candidate.
type ReviewDecision struct {
	SupplierID     string
	KindOverride   model.EntryKind
	NatureOverride model.Nature
}

// NatureUpdate signals that the reviewer's nature choice should become the
// supplier's new default. Last reviewer choice wins.
type NatureUpdate struct {
	SupplierID string
	Nature     model.Nature
}

// ReviewOutcome carries everything the caller must persist after a review:
// the new entry, any pattern learned, and a supplier default-nature change.
type ReviewOutcome struct {
	NatureUpdate    *NatureUpdate
	Entry           model.LedgerEntry
	PatternRecorded bool
}

// ResolveReview files a reviewed candidate. When a supplier was chosen the
// derived pattern is learned (write-through), and a nature override that
// differs from the supplier's stored default updates that default.
func (e *Engine) ResolveReview(c *model.ExtractedCandidate, decision ReviewDecision, sess *Session) (*ReviewOutcome, error) {
	kind := c.Kind
	if decision.KindOverride != "" {
		if !decision.KindOverride.Valid() {
			return nil, fmt.Errorf("invalid kind override %q", decision.KindOverride)
		}
		kind = decision.KindOverride
	}

	var supplier *model.Supplier
	if decision.SupplierID != "" {
		supplier = sess.supplierByID(decision.SupplierID)
		if supplier == nil {
			return nil, fmt.Errorf("unknown supplier %q", decision.SupplierID)
		}
	}

	entry := newEntryFromCandidate(c, kind, supplier, decision.NatureOverride)
	outcome := &ReviewOutcome{Entry: *entry}

	if supplier != nil {
		pat := pattern.ExtractPattern(c.Description)
		outcome.PatternRecorded = sess.Patterns.Record(pat, supplier.ID, time.Now())

		if decision.NatureOverride != "" && supplier.DefaultNature != decision.NatureOverride {
			supplier.DefaultNature = decision.NatureOverride
			outcome.NatureUpdate = &NatureUpdate{
				SupplierID: supplier.ID,
				Nature:     decision.NatureOverride,
			}
		}
	}

	return outcome, nil
}

func (s *Session) supplierByID(id string) *model.Supplier {
	for i := range s.Suppliers {
		if s.Suppliers[i].ID == id {
			return &s.Suppliers[i]
		}
	}
	return nil
}
