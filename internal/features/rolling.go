package features

import "math"

// rollingStd computes the trailing sample standard deviation of vals over a
// window of the given size. Positions before the window fills use however
// many samples exist so far (growing window); positions with fewer than 2
// samples report 0.0.
func rollingStd(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = sampleStd(vals[start : i+1])
	}
	return out
}

// sampleStd is the n-1 denominator standard deviation, 0.0 for fewer than
// 2 samples.
func sampleStd(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0.0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
