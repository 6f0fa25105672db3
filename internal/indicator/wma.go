package indicator

import (
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// WMA returns the weighted moving average of every full window of n samples.
// Inside a window the oldest sample has weight 1 and the newest weight n, and
// the weighted sum is divided by n(n+1)/2. The result has len(data)-n+1 values.
func WMA(data []float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "wma period must be a positive integer, got %d", n)
	}

	if len(data) < n {
		return nil, errors.NewInsufficientHistoryErrorf(n, len(data), "wma period %d", n)
	}

	divisor := weightSum(n)
	out := make([]float64, len(data)-n+1)

	for i := range out {
		out[i] = weightedSum(data[i:i+n]) / divisor
	}

	return out, nil
}

// WMALastValue returns the last value of WMA(data, n) using only the final window.
func WMALastValue(data []float64, n int) (float64, error) {
	if n <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "wma period must be a positive integer, got %d", n)
	}

	if len(data) < n {
		return 0, errors.NewInsufficientHistoryErrorf(n, len(data), "wma period %d", n)
	}

	return weightedSum(data[len(data)-n:]) / weightSum(n), nil
}

// weightedSum applies weights 1..len(window) from oldest to newest.
func weightedSum(window []float64) float64 {
	sum := 0.0
	for j, value := range window {
		sum += value * float64(j+1)
	}

	return sum
}

func weightSum(n int) float64 {
	return float64(n*(n+1)) / 2
}
