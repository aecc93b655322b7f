// Package textutil provides the shared text normalization and similarity
// primitives used by supplier matching and duplicate detection.
package textutil

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

var accentFold = map[rune]rune{
	'Á': 'A', 'À': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'Ó': 'O', 'Ò': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U',
	'Ç': 'C', 'Ñ': 'N',
}

// Normalize uppercases the input, folds common Latin accents, deletes every
// character outside [A-Z0-9 ], collapses runs of whitespace and trims.
// Punctuation is deleted, never turned into a separator: "S.A." becomes "SA"
// and "PIX*FULANO" stays a single token.
func Normalize(s string) string {
	upper := strings.ToUpper(s)

	var b strings.Builder
	b.Grow(len(upper))
	lastSpace := true // leading spaces are dropped
	for _, r := range upper {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// minTokenLen filters out short noise tokens ("DE", "DA", "01") before scoring.
const minTokenLen = 3

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(Normalize(s)) {
		if len(tok) >= minTokenLen {
			set[tok] = true
		}
	}
	return set
}

// Similarity scores token overlap between two strings in [0, 1]. Tokens
// shorter than three characters are discarded; the denominator is the larger
// set, which rewards near-subset matches ("PIX FULANO" vs "PIX FULANO LTDA").
// Returns 0 when either token set is empty. Pure and order-independent.
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}

	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(inter) / float64(denom)
}

// Distance is the levenshtein edit distance between the normalized forms of
// two strings. Used as a tie-breaker when token similarity scores are equal.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(Normalize(a), Normalize(b))
}
