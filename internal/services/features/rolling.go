package features

// rollingMean computes the trailing rolling mean over at most window values,
// with a minimum of one observation (the first elements average whatever is
// available so far).
func rollingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}
