package types

// Desire is the tri-state signal a strategy emits on every tick.
type Desire string

const (
	DesireBuy  Desire = "buy"
	DesireSell Desire = "sell"
	DesireNone Desire = "none"
)

// Invert swaps buy and sell. None stays none.
func (d Desire) Invert() Desire {
	switch d {
	case DesireBuy:
		return DesireSell
	case DesireSell:
		return DesireBuy
	default:
		return DesireNone
	}
}
