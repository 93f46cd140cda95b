// Package similarity scores how close two short strings are, for flagging
// records that probably describe the same person.
package similarity

import "strings"

const DefaultThreshold = 3

// Distance returns the edit distance between a and b where insertion,
// deletion and substitution each cost 1. It compares runes, not bytes.
func Distance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)

	table := make([][]int, len(ar)+1)
	for i := range table {
		table[i] = make([]int, len(br)+1)
		table[i][0] = i
	}
	for j := range table[0] {
		table[0][j] = j
	}

	for i := 1; i <= len(ar); i++ {
		for j := 1; j <= len(br); j++ {
			if ar[i-1] == br[j-1] {
				table[i][j] = table[i-1][j-1]
				continue
			}
			table[i][j] = 1 + min(table[i][j-1], table[i-1][j], table[i-1][j-1])
		}
	}

	return table[len(ar)][len(br)]
}

// IsFuzzyMatch trims and lowercases both inputs and reports whether their
// distance is within threshold.
func IsFuzzyMatch(a, b string, threshold int) bool {
	return Distance(normalize(a), normalize(b)) <= threshold
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
