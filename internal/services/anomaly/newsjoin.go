package anomaly

// priorWindowAny reports, for each position of a time-ordered indicator
// series, whether any of the previous window values is positive. The current
// day is excluded: today's own news never counts as prior news.
func priorWindowAny(vals []int, window int) []bool {
	out := make([]bool, len(vals))
	sum := 0
	for i := range vals {
		out[i] = sum > 0
		sum += vals[i]
		if i-window >= 0 {
			sum -= vals[i-window]
		}
	}
	return out
}

// futureWindowAny is the forward mirror of priorWindowAny: whether any of
// the next window values is positive, excluding the current day.
func futureWindowAny(vals []int, window int) []bool {
	out := make([]bool, len(vals))
	sum := 0
	for i := len(vals) - 1; i >= 0; i-- {
		out[i] = sum > 0
		sum += vals[i]
		if i+window < len(vals) {
			sum -= vals[i+window]
		}
	}
	return out
}
