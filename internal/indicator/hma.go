package indicator

import (
	"math"

	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// MinHMAPeriod is the smallest Hull period. The half-period WMA needs n/2 >= 1.
const MinHMAPeriod = 2

// HMA returns the Hull moving average series of data:
//
//	WMA(2*WMA(data, n/2) - WMA(data, n), floor(sqrt(n)))
//
// The half-period series is aligned to the full-period one by its trailing values.
// Odd periods truncate n/2.
func HMA(data []float64, n int) ([]float64, error) {
	if err := checkHMAPeriod(n); err != nil {
		return nil, err
	}

	if required := HMASeriesWindow(n); len(data) < required {
		return nil, errors.NewInsufficientHistoryErrorf(required, len(data), "hma period %d", n)
	}

	raw, err := hullRaw(data, n)
	if err != nil {
		return nil, err
	}

	return WMA(raw, sqrtPeriod(n))
}

// HMALastValue returns the last value of HMA(data, n) computed from the trailing
// HMALastValueWindow(n) samples only.
func HMALastValue(data []float64, n int) (float64, error) {
	if err := checkHMAPeriod(n); err != nil {
		return 0, err
	}

	required := HMALastValueWindow(n)
	if len(data) < required {
		return 0, errors.NewInsufficientHistoryErrorf(required, len(data), "hma period %d", n)
	}

	raw, err := hullRaw(data[len(data)-required:], n)
	if err != nil {
		return 0, err
	}

	return WMALastValue(raw, sqrtPeriod(n))
}

// HMALastValueWindow is the number of trailing samples HMALastValue reads.
func HMALastValueWindow(n int) int {
	return n + sqrtPeriod(n)
}

// HMASeriesWindow is the shortest input for which HMA yields at least one value.
func HMASeriesWindow(n int) int {
	return n + sqrtPeriod(n) - 1
}

// hullRaw computes 2*half - full over the windows where the full-period WMA exists.
func hullRaw(data []float64, n int) ([]float64, error) {
	full, err := WMA(data, n)
	if err != nil {
		return nil, err
	}

	half, err := WMA(data, n/2)
	if err != nil {
		return nil, err
	}

	aligned := half[len(half)-len(full):]
	raw := make([]float64, len(full))

	for i := range full {
		raw[i] = 2*aligned[i] - full[i]
	}

	return raw, nil
}

func sqrtPeriod(n int) int {
	return int(math.Sqrt(float64(n)))
}

func checkHMAPeriod(n int) error {
	if n < MinHMAPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "hma period must be at least %d, got %d", MinHMAPeriod, n)
	}

	return nil
}
