// Package fuzzy resolves free-text names against a roster of candidates.
// Scores are 0-100 and token-order independent, so "acme distribuidora" and
// "distribuidora acme" score 100 against each other.
package fuzzy

import (
	"sort"
	"strings"

	"pedibot/internal/util"
)

type Match struct {
	Index int
	Value string
	Score float64
}

// ExtractOne returns the best-scoring candidate at or above cutoff. Ties
// keep the first candidate in input order; callers must not reorder the
// roster before calling. An empty candidate list never matches.
func ExtractOne(query string, candidates []string, cutoff float64) (Match, bool) {
	best := Match{Index: -1}
	for i, candidate := range candidates {
		score := TokenSetRatio(query, candidate)
		if best.Index < 0 || score > best.Score {
			best = Match{Index: i, Value: candidate, Score: score}
		}
	}
	if best.Index < 0 || best.Score < cutoff {
		return Match{Index: -1}, false
	}
	return best, true
}

// TokenSetRatio normalizes and tokenizes both strings, then compares the
// sorted token intersection against each side's remainder. A query whose
// tokens are all contained in the candidate (or vice versa) scores 100.
func TokenSetRatio(a, b string) float64 {
	normA := util.Normalize(a)
	normB := util.Normalize(b)
	if normA == normB {
		if normA == "" {
			return 0
		}
		return 100
	}

	setA := tokenSet(normA)
	setB := tokenSet(normB)

	inter := make([]string, 0, len(setA))
	diffA := make([]string, 0, len(setA))
	for token := range setA {
		if _, ok := setB[token]; ok {
			inter = append(inter, token)
		} else {
			diffA = append(diffA, token)
		}
	}
	diffB := make([]string, 0, len(setB))
	for token := range setB {
		if _, ok := setA[token]; !ok {
			diffB = append(diffB, token)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(inter, " ")
	full1 := joinNonEmpty(base, strings.Join(diffA, " "))
	full2 := joinNonEmpty(base, strings.Join(diffB, " "))

	score := indelSimilarity(full1, full2)
	if base != "" {
		if s := indelSimilarity(base, full1); s > score {
			score = s
		}
		if s := indelSimilarity(base, full2); s > score {
			score = s
		}
	}
	return score
}

// Ratio is the plain normalized indel similarity, without token reordering.
func Ratio(a, b string) float64 {
	return indelSimilarity(util.Normalize(a), util.Normalize(b))
}

func tokenSet(normalized string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, token := range strings.Split(normalized, " ") {
		if token != "" {
			out[token] = struct{}{}
		}
	}
	return out
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// indelSimilarity is 100 * (1 - indelDistance/(len(a)+len(b))), which
// reduces to 200*LCS/(len(a)+len(b)).
func indelSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	lcs := lcsLength(ra, rb)
	return 200 * float64(lcs) / float64(len(ra)+len(rb))
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
