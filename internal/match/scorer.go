package match

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer rates the similarity of two comparison strings from 0 to 100.
type Scorer func(a, b string) int

// TokenSortRatio scores a and b after folding and sorting their tokens.
//
// Two empty strings are not considered similar and score 0.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(Fold(a)), sortTokens(Fold(b)))
}

// Ratio is the Levenshtein similarity of a and b, measured in runes.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(maxLen))))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}
