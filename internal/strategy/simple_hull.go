package strategy

import (
	"fmt"

	"github.com/rxtech-lab/bitbroker/internal/indicator"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// SimpleHull sells while the price is below its Hull and buys otherwise.
type SimpleHull struct {
	period int
}

func NewSimpleHull(period int) *SimpleHull {
	return &SimpleHull{period: period}
}

func (s *SimpleHull) Name() string {
	return fmt.Sprintf("%s_%d", s.Kind(), s.period)
}

func (s *SimpleHull) Kind() types.StrategyKind {
	return types.StrategySimpleHull
}

func (s *SimpleHull) ComputeDesire(history *types.PriceHistory, data types.MarketData) (types.Desire, error) {
	hull, err := indicator.HMALastValue(history.Closes(), s.period)
	if err != nil {
		return types.DesireNone, err
	}

	if data.Close < hull {
		return types.DesireSell, nil
	}

	return types.DesireBuy, nil
}
