package scoring

import "sort"

// Rank orders candidates by composite score descending. Ties break on
// email ascending so identical snapshots always produce identical
// rankings. The input slice is not modified.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Email < ranked[j].Email
	})
	return ranked
}
