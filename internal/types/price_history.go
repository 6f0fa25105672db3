package types

// PriceHistory is the append-only sequence of observed close prices of one run.
type PriceHistory struct {
	closes  []float64
	candles []MarketData
}

// NewPriceHistory creates a history pre-seeded with warm-up candles.
func NewPriceHistory(seed []MarketData) *PriceHistory {
	h := &PriceHistory{
		closes:  make([]float64, 0, len(seed)),
		candles: make([]MarketData, 0, len(seed)),
	}

	for _, data := range seed {
		h.Append(data)
	}

	return h
}

// Append records a new candle.
func (h *PriceHistory) Append(data MarketData) {
	h.closes = append(h.closes, data.Close)
	h.candles = append(h.candles, data)
}

// Closes returns the close prices in order. Callers must not modify the slice.
func (h *PriceHistory) Closes() []float64 {
	return h.closes
}

// Candles returns the full candle records in order. Callers must not modify the slice.
func (h *PriceHistory) Candles() []MarketData {
	return h.candles
}

// Len returns the number of recorded prices.
func (h *PriceHistory) Len() int {
	return len(h.closes)
}

// Last returns the most recent close price, or 0 for an empty history.
func (h *PriceHistory) Last() float64 {
	if len(h.closes) == 0 {
		return 0
	}

	return h.closes[len(h.closes)-1]
}
