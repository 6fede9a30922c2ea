package pattern

import (
	"math"
	"sort"
)

// firstStageScale bounds the first-stage significance scores.
const firstStageScale = 3.0

// Rescore replaces each pattern's significance with the final [0,1]
// score: confidence scaled by how often the pattern occurred relative to
// the dataset size. Confidence is the producer-supplied value when set,
// otherwise the first-stage score normalized by its scale. The result is
// sorted descending by score; equal scores keep their input order.
func Rescore(patterns []Pattern, totalRecords int) []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)

	denom := 0.1 * float64(totalRecords)
	for i := range out {
		confidence := clamp(out[i].Significance/firstStageScale, 0, 1)
		if out[i].Confidence != nil {
			confidence = clamp(*out[i].Confidence, 0, 1)
		}
		factor := 0.0
		if denom > 0 {
			factor = math.Min(1, float64(out[i].Occurrences)/denom)
		}
		out[i].Significance = confidence * factor
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Significance > out[j].Significance
	})
	return out
}
