// Package dedup detects clusters of probably-duplicated pending payable
// entries. Groups are recomputed from scratch on every read; dismissal state
// is held by the caller, keyed by each group's identity key.
package dedup

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/money"
	"github.com/contaflux/contaflux/internal/textutil"
)

// Strategy selects how clusters are formed.
type Strategy string

const (
	// Heuristic is the default single-pass greedy clustering: an entry
	// already assigned to a group is never reconsidered as a new seed and is
	// excluded from later seeds. Not a maximal-clustering guarantee.
	Heuristic Strategy = "heuristic"
	// Exact computes connected components over the pairwise duplicate
	// predicate, so A~B and B~C place all three in one group even when A and
	// C fail the pairwise test.
	Exact Strategy = "exact"
)

const (
	// maxDayGap is the widest due-date spread for similarity-based grouping.
	maxDayGap = 7
	// minSimilarity is the description-overlap bar when dates differ.
	minSimilarity = 0.4
)

// Group is a set of at least two entries suspected to be the same obligation.
type Group struct {
	Entries []model.LedgerEntry `json:"lancamentos"`
}

// Key derives the group's identity from the sorted member ids. Dismissals are
// tracked against this key across recomputations.
func (g *Group) Key() string {
	ids := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		ids[i] = e.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// Detector finds duplicate groups among pending payable entries.
type Detector struct {
	strategy Strategy
}

// NewDetector creates a detector with the given strategy.
func NewDetector(strategy Strategy) *Detector {
	if strategy == "" {
		strategy = Heuristic
	}
	return &Detector{strategy: strategy}
}

// Detect groups the pending payable entries. Entries that are paid or not
// payables are ignored; groups of one are discarded.
func (d *Detector) Detect(entries []model.LedgerEntry) []Group {
	eligible := make([]model.LedgerEntry, 0, len(entries))
	amounts := make([]decimal.Decimal, 0, len(entries))
	for _, e := range entries {
		if e.Paid || e.Kind != model.KindPayable {
			continue
		}
		amount, err := e.Amount()
		if err != nil {
			continue // unparseable amounts cannot be compared
		}
		eligible = append(eligible, e)
		amounts = append(amounts, amount)
	}

	if d.strategy == Exact {
		return exactGroups(eligible, amounts)
	}
	return greedyGroups(eligible, amounts)
}

// duplicatePair is the pairwise predicate: equal amounts within tolerance,
// and either the same due date or close dates with overlapping descriptions.
func duplicatePair(a, b *model.LedgerEntry, amountA, amountB decimal.Decimal) bool {
	if !money.WithinTolerance(amountA, amountB) {
		return false
	}
	dayDiff := daysApart(a.DueDate, b.DueDate)
	if dayDiff == 0 {
		return true
	}
	return dayDiff <= maxDayGap && textutil.Similarity(a.Description, b.Description) >= minSimilarity
}

func greedyGroups(entries []model.LedgerEntry, amounts []decimal.Decimal) []Group {
	assigned := make([]bool, len(entries))
	var groups []Group

	for i := range entries {
		if assigned[i] {
			continue
		}
		group := Group{Entries: []model.LedgerEntry{entries[i]}}
		for j := i + 1; j < len(entries); j++ {
			if assigned[j] {
				continue
			}
			if duplicatePair(&entries[i], &entries[j], amounts[i], amounts[j]) {
				group.Entries = append(group.Entries, entries[j])
				assigned[j] = true
			}
		}
		if len(group.Entries) >= 2 {
			assigned[i] = true
			groups = append(groups, group)
		}
	}
	return groups
}

func exactGroups(entries []model.LedgerEntry, amounts []decimal.Decimal) []Group {
	parent := make([]int, len(entries))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if duplicatePair(&entries[i], &entries[j], amounts[i], amounts[j]) {
				union(i, j)
			}
		}
	}

	members := make(map[int][]model.LedgerEntry)
	order := make([]int, 0)
	for i := range entries {
		root := find(i)
		if _, seen := members[root]; !seen {
			order = append(order, root)
		}
		members[root] = append(members[root], entries[i])
	}

	var groups []Group
	for _, root := range order {
		if len(members[root]) >= 2 {
			groups = append(groups, Group{Entries: members[root]})
		}
	}
	return groups
}

func daysApart(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(ad.Sub(bd).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}
