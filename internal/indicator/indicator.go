package indicator

import (
	"fmt"

	"github.com/rxtech-lab/bitbroker/internal/types"
)

// Indicator is a named moving average over a price series.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config sets the period. Expected parameters: period (int or float64).
	Config(params ...any) error
	// Series returns every value the indicator produces over data.
	Series(data []float64) ([]float64, error)
	// RawValue returns only the most recent value over data.
	RawValue(data []float64) (float64, error)
	// Window returns the number of trailing samples RawValue needs.
	Window() int
}

// WMAIndicator exposes WMA through the Indicator interface.
type WMAIndicator struct {
	period int
}

// NewWMA creates a new WMA indicator with default configuration.
func NewWMA() Indicator {
	return &WMAIndicator{
		period: 20,
	}
}

func (w *WMAIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeWMA
}

func (w *WMAIndicator) Config(params ...any) error {
	period, err := parsePeriod(params...)
	if err != nil {
		return err
	}

	w.period = period

	return nil
}

func (w *WMAIndicator) Series(data []float64) ([]float64, error) {
	return WMA(data, w.period)
}

func (w *WMAIndicator) RawValue(data []float64) (float64, error) {
	return WMALastValue(data, w.period)
}

func (w *WMAIndicator) Window() int {
	return w.period
}

// HMAIndicator exposes the Hull moving average through the Indicator interface.
type HMAIndicator struct {
	period int
}

// NewHMA creates a new HMA indicator with default configuration.
func NewHMA() Indicator {
	return &HMAIndicator{
		period: 16,
	}
}

func (h *HMAIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeHMA
}

func (h *HMAIndicator) Config(params ...any) error {
	period, err := parsePeriod(params...)
	if err != nil {
		return err
	}

	if period < MinHMAPeriod {
		return fmt.Errorf("hma period must be at least %d, got %d", MinHMAPeriod, period)
	}

	h.period = period

	return nil
}

func (h *HMAIndicator) Series(data []float64) ([]float64, error) {
	return HMA(data, h.period)
}

func (h *HMAIndicator) RawValue(data []float64) (float64, error) {
	return HMALastValue(data, h.period)
}

func (h *HMAIndicator) Window() int {
	return HMALastValueWindow(h.period)
}

func parsePeriod(params ...any) (int, error) {
	if len(params) != 1 {
		return 0, fmt.Errorf("Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		periodFloat, ok := params[0].(float64)
		if !ok {
			return 0, fmt.Errorf("invalid type for period parameter, expected int or float")
		}

		period = int(periodFloat)
	}

	if period <= 0 {
		return 0, fmt.Errorf("period must be a positive integer, got %d", period)
	}

	return period, nil
}
