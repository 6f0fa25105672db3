// Package strategy turns price history into a buy/sell/none desire once per tick.
//
// Variants form a closed set selected by types.StrategyKind. Each value returned by New
// owns its mutable state and belongs to exactly one run.
package strategy

import (
	"github.com/rxtech-lab/bitbroker/internal/indicator"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// Strategy produces a Desire for the latest tick.
type Strategy interface {
	// Name returns the name of the strategy
	Name() string
	// Kind returns the variant this strategy implements
	Kind() types.StrategyKind
	// ComputeDesire is called after data has been appended to history.
	ComputeDesire(history *types.PriceHistory, data types.MarketData) (types.Desire, error)
}

// Seeding selects how the momentum strategy maintains its Hull history.
type Seeding string

const (
	// SeedingIncremental seeds the Hull history from the warm-up window once and
	// appends one value per tick.
	SeedingIncremental Seeding = "incremental"
	// SeedingRecompute recomputes the whole Hull series from the price history every tick.
	SeedingRecompute Seeding = "recompute"
)

var AllSeedings = []any{SeedingIncremental, SeedingRecompute}

// Params carries the per-run strategy parameters.
type Params struct {
	// Period is the Hull period. Crossover variants also read 2*Period.
	Period int
	// ScoreOffset widens the neutral band around 0.5 for score classification.
	ScoreOffset float64
	// Seeding applies to the momentum strategy only.
	Seeding Seeding
	// Ephemeris is required by the lunar variants. Nil selects MeanLunation.
	Ephemeris Ephemeris
}

// New builds the strategy variant for kind. warmup holds the close prices the
// run is seeded with.
func New(kind types.StrategyKind, params Params, warmup []float64) (Strategy, error) {
	if kind.UsesHull() && params.Period < indicator.MinHMAPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"%s needs a period of at least %d, got %d", kind, indicator.MinHMAPeriod, params.Period)
	}

	switch kind {
	case types.StrategyCrossoverHullFastBelow:
		return NewCrossoverHull(params.Period, CrossoverFastBelow), nil
	case types.StrategyCrossoverHullFastAbove:
		return NewCrossoverHull(params.Period, CrossoverFastAbove), nil
	case types.StrategySimpleHull:
		return NewSimpleHull(params.Period), nil
	case types.StrategyMomentumHull:
		momentum, err := NewMomentumHull(params.Period, params.Seeding, warmup)
		if err != nil {
			return nil, err
		}

		return momentum, nil
	case types.StrategyMomentumHullCombo:
		return NewMomentumHullCombo(params.Period), nil
	case types.StrategyLunarPhase:
		return NewLunarPhase(params.Ephemeris, false), nil
	case types.StrategyLunarPhaseReversed:
		return NewLunarPhase(params.Ephemeris, true), nil
	case types.StrategyScoreClassification:
		classification, err := NewScoreClassification(params.ScoreOffset)
		if err != nil {
			return nil, err
		}

		return classification, nil
	case types.StrategyScoreRegression:
		return NewScoreRegression(), nil
	case types.StrategyAlwaysBuy:
		return NewAlwaysBuy(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", kind)
	}
}

// RequiredHistory returns the number of closes the variant needs in the price
// history before ComputeDesire can succeed.
func RequiredHistory(kind types.StrategyKind, period int) int {
	switch kind {
	case types.StrategyCrossoverHullFastBelow, types.StrategyCrossoverHullFastAbove, types.StrategyMomentumHullCombo:
		return indicator.HMALastValueWindow(2 * period)
	case types.StrategySimpleHull:
		return indicator.HMALastValueWindow(period)
	case types.StrategyMomentumHull:
		return indicator.HMASeriesWindow(period) + minMomentumHullValues - 1
	default:
		return 0
	}
}
