package strategy

import (
	"fmt"

	"github.com/rxtech-lab/bitbroker/internal/indicator"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// CrossoverDirection decides which ordering of the fast and slow Hull means buy.
type CrossoverDirection int

const (
	// CrossoverFastBelow buys while the fast Hull is below the slow Hull.
	CrossoverFastBelow CrossoverDirection = iota
	// CrossoverFastAbove buys while the fast Hull is above the slow Hull.
	CrossoverFastAbove
)

// CrossoverHull compares the Hull of period against the Hull of 2*period.
type CrossoverHull struct {
	period    int
	direction CrossoverDirection
}

func NewCrossoverHull(period int, direction CrossoverDirection) *CrossoverHull {
	return &CrossoverHull{
		period:    period,
		direction: direction,
	}
}

func (c *CrossoverHull) Name() string {
	return fmt.Sprintf("%s_%d", c.Kind(), c.period)
}

func (c *CrossoverHull) Kind() types.StrategyKind {
	if c.direction == CrossoverFastAbove {
		return types.StrategyCrossoverHullFastAbove
	}

	return types.StrategyCrossoverHullFastBelow
}

func (c *CrossoverHull) ComputeDesire(history *types.PriceHistory, _ types.MarketData) (types.Desire, error) {
	fast, slow, err := fastSlowHull(history.Closes(), c.period)
	if err != nil {
		return types.DesireNone, err
	}

	buy := fast > slow
	if c.direction == CrossoverFastBelow {
		buy = fast < slow
	}

	if buy {
		return types.DesireBuy, nil
	}

	return types.DesireSell, nil
}

func fastSlowHull(closes []float64, period int) (fast float64, slow float64, err error) {
	fast, err = indicator.HMALastValue(closes, period)
	if err != nil {
		return 0, 0, err
	}

	slow, err = indicator.HMALastValue(closes, 2*period)
	if err != nil {
		return 0, 0, err
	}

	return fast, slow, nil
}
