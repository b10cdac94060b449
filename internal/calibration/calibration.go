package calibration

// DefaultBins is used when the requested bucket count is out of range.
const DefaultBins = 10

const (
	minBins = 2
	maxBins = 50
)

// Point is one bucket of a reliability diagram.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Count int     `json:"count"`
}

// Summary condenses a list of forecasts into headline numbers.
type Summary struct {
	Observations   int     `json:"observations"`
	Accuracy       float64 `json:"accuracy"`
	MeanConfidence float64 `json:"mean_confidence"`
	// Overconfidence is mean confidence (as a probability) minus accuracy.
	// Positive means the player claims more certainty than they earn.
	Overconfidence float64 `json:"overconfidence"`
}

// NormalizeBins returns bins when it is in [2,50], otherwise DefaultBins.
func NormalizeBins(bins int) int {
	if bins < minBins || bins > maxBins {
		return DefaultBins
	}
	return bins
}

// BucketIndex maps a confidence in [0,100] to one of bins buckets. Values on an
// interior boundary fall into the upper bucket; 100 falls into the last one.
func BucketIndex(confidence, bins int) int {
	c := min(max(confidence, 0), 100)
	return min(c*bins/100, bins-1)
}

// Chart builds a reliability diagram from parallel confidences and outcomes.
// Empty buckets are omitted and the result is ordered by bucket. Lists of
// different lengths are read up to the shorter one.
func Chart(confidences []int, outcomes []bool, bins int) []Point {
	bins = NormalizeBins(bins)
	n := min(len(confidences), len(outcomes))

	sums := make([]int, bins)
	hits := make([]int, bins)
	counts := make([]int, bins)
	for i := 0; i < n; i++ {
		idx := BucketIndex(confidences[i], bins)
		sums[idx] += min(max(confidences[i], 0), 100)
		counts[idx]++
		if outcomes[i] {
			hits[idx]++
		}
	}

	points := []Point{}
	for k := 0; k < bins; k++ {
		if counts[k] == 0 {
			continue
		}
		points = append(points, Point{
			X:     float64(sums[k]) / float64(counts[k]),
			Y:     float64(hits[k]) / float64(counts[k]),
			Count: counts[k],
		})
	}
	return points
}

// Summarize reports accuracy and mean confidence over the shorter of the two
// lists.
func Summarize(confidences []int, outcomes []bool) Summary {
	n := min(len(confidences), len(outcomes))
	if n == 0 {
		return Summary{}
	}
	var confSum, hits int
	for i := 0; i < n; i++ {
		confSum += min(max(confidences[i], 0), 100)
		if outcomes[i] {
			hits++
		}
	}
	acc := float64(hits) / float64(n)
	mean := float64(confSum) / float64(n)
	return Summary{
		Observations:   n,
		Accuracy:       acc,
		MeanConfidence: mean,
		Overconfidence: mean/100 - acc,
	}
}
