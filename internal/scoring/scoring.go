package scoring

import "math"

// Coefficients shape the points curve. Correct answers earn
// BaseCorrect + MultCorrect*confidence; incorrect answers earn
// BaseIncorrect + MultIncorrect*(100-confidence).
type Coefficients struct {
	BaseCorrect   float64
	MultCorrect   float64
	BaseIncorrect float64
	MultIncorrect float64
}

// DefaultCoefficients returns the curve used to seed the settings store.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		BaseCorrect:   10,
		MultCorrect:   0.9,
		BaseIncorrect: -100,
		MultIncorrect: 0.9,
	}
}

func clampConfidence(confidence int) int {
	return min(max(confidence, 0), 100)
}

// BrierScore returns the squared error between the stated probability and the
// outcome. 0 is a perfect forecast, 1 the worst possible one.
func BrierScore(confidence int, correct bool) float64 {
	p := float64(clampConfidence(confidence)) / 100
	outcome := 0.0
	if correct {
		outcome = 1.0
	}
	d := p - outcome
	return d * d
}

// Points returns the signed points for one answer, rounded to 2 decimals.
func Points(confidence int, correct bool, c Coefficients) float64 {
	conf := float64(clampConfidence(confidence))
	if correct {
		return Round(c.BaseCorrect+c.MultCorrect*conf, 2)
	}
	return Round(c.BaseIncorrect+c.MultIncorrect*(100-conf), 2)
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// MeanBrier returns the arithmetic mean of scores, or 0 for an empty list.
func MeanBrier(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
