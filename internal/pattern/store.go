// Package pattern implements the learned description-pattern store that maps
// normalized statement description fragments to suppliers.
package pattern

import (
	"strings"
	"time"

	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/textutil"
)

// MinPatternLen is the shortest pattern worth learning. Anything shorter is
// too generic to identify a counterparty and recording it is a no-op.
const MinPatternLen = 5

// ExtractPattern derives the stable mapping key for a description. Returns ""
// when the normalized description is too short to be a usable pattern.
func ExtractPattern(description string) string {
	p := textutil.Normalize(description)
	if len(p) < MinPatternLen {
		return ""
	}
	return p
}

// Store holds the append-only mapping log plus a derived lookup index. It is
// loaded per engine invocation and persisted back by the caller; no eviction,
// growth is monotonic.
type Store struct {
	index    map[string]string
	mappings []model.PatternMapping
	appended []model.PatternMapping
}

// NewStore builds a store from previously persisted mappings.
func NewStore(mappings []model.PatternMapping) *Store {
	s := &Store{
		mappings: mappings,
		index:    make(map[string]string, len(mappings)),
	}
	for _, m := range mappings {
		if _, ok := s.index[m.Pattern]; !ok {
			s.index[m.Pattern] = m.SupplierID
		}
	}
	return s
}

// Lookup scans stored mappings for a pattern contained in (or equal to) the
// normalized description and returns the mapped supplier id.
func (s *Store) Lookup(description string) (string, bool) {
	normalized := textutil.Normalize(description)
	if normalized == "" {
		return "", false
	}

	if id, ok := s.index[normalized]; ok {
		return id, true
	}
	for _, m := range s.mappings {
		if m.Pattern != "" && strings.Contains(normalized, m.Pattern) {
			return m.SupplierID, true
		}
	}
	return "", false
}

// Record appends a mapping unless the exact pattern is already stored or the
// pattern is too short. Returns true when a new mapping was added.
func (s *Store) Record(pat, supplierID string, at time.Time) bool {
	if len(pat) < MinPatternLen || supplierID == "" {
		return false
	}
	if _, exists := s.index[pat]; exists {
		return false
	}

	m := model.PatternMapping{Pattern: pat, SupplierID: supplierID, CreatedAt: at}
	s.mappings = append(s.mappings, m)
	s.appended = append(s.appended, m)
	s.index[pat] = supplierID
	return true
}

// Appended returns the mappings recorded since the store was built, in insert
// order, for the caller to persist.
func (s *Store) Appended() []model.PatternMapping {
	return s.appended
}

// Len reports the total number of stored mappings.
func (s *Store) Len() int {
	return len(s.mappings)
}
