// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders candidate records by string similarity to a query.
package rank

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Candidate pairs the text a record is matched on with the record itself.
type Candidate[T any] struct {
	Text   string
	Record T
}

// Ranked is a candidate record with its similarity score in [0, 1].
type Ranked[T any] struct {
	Score  float64 `json:"score"`
	Record T       `json:"record"`
}

// Ratio returns 2*M/T where M is the length of the longest common
// subsequence of a and b and T is their combined length, both measured in
// runes. Two empty strings are identical and score 1.
func Ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	return 2 * float64(matchr.LongestCommonSubsequence(a, b)) / float64(total)
}

// Rank scores every candidate against query, case-insensitively, and returns
// them sorted by descending score. Candidates with equal scores keep their
// input order.
func Rank[T any](query string, candidates []Candidate[T]) []Ranked[T] {
	q := strings.ToLower(query)
	out := make([]Ranked[T], len(candidates))
	for i, c := range candidates {
		out[i] = Ranked[T]{Score: Ratio(q, strings.ToLower(c.Text)), Record: c.Record}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Best returns the top-ranked entry, or false when ranked is empty.
func Best[T any](ranked []Ranked[T]) (Ranked[T], bool) {
	if len(ranked) == 0 {
		var zero Ranked[T]
		return zero, false
	}
	return ranked[0], true
}
