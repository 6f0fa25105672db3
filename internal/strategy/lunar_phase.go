package strategy

import (
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// LunarPhase buys in the waxing half of the lunation and sells in the waning half.
type LunarPhase struct {
	ephemeris Ephemeris
	reversed  bool
}

// NewLunarPhase uses MeanLunation when ephemeris is nil.
func NewLunarPhase(ephemeris Ephemeris, reversed bool) *LunarPhase {
	if ephemeris == nil {
		ephemeris = NewMeanLunation()
	}

	return &LunarPhase{
		ephemeris: ephemeris,
		reversed:  reversed,
	}
}

func (l *LunarPhase) Name() string {
	return string(l.Kind())
}

func (l *LunarPhase) Kind() types.StrategyKind {
	if l.reversed {
		return types.StrategyLunarPhaseReversed
	}

	return types.StrategyLunarPhase
}

func (l *LunarPhase) ComputeDesire(_ *types.PriceHistory, data types.MarketData) (types.Desire, error) {
	if data.Time.IsZero() {
		return types.DesireNone, errors.New(errors.ErrCodeMissingTimestamp, "lunar phase strategy requires candle timestamps")
	}

	newMoon := l.ephemeris.PreviousNewMoon(data.Time)
	fullMoon := l.ephemeris.PreviousFullMoon(data.Time)

	desire := types.DesireNone
	switch {
	case fullMoon.Before(newMoon):
		desire = types.DesireBuy
	case newMoon.Before(fullMoon):
		desire = types.DesireSell
	}

	if l.reversed {
		return desire.Invert(), nil
	}

	return desire, nil
}
