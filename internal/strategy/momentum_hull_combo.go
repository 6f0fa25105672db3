package strategy

import (
	"fmt"

	"github.com/rxtech-lab/bitbroker/internal/types"
)

// MomentumHullCombo is a fast-above crossover whose signals must be confirmed
// by the price being on the same side of the fast Hull.
type MomentumHullCombo struct {
	period int
}

func NewMomentumHullCombo(period int) *MomentumHullCombo {
	return &MomentumHullCombo{period: period}
}

func (m *MomentumHullCombo) Name() string {
	return fmt.Sprintf("%s_%d", m.Kind(), m.period)
}

func (m *MomentumHullCombo) Kind() types.StrategyKind {
	return types.StrategyMomentumHullCombo
}

func (m *MomentumHullCombo) ComputeDesire(history *types.PriceHistory, data types.MarketData) (types.Desire, error) {
	fast, slow, err := fastSlowHull(history.Closes(), m.period)
	if err != nil {
		return types.DesireNone, err
	}

	if fast > slow {
		if data.Close > fast {
			return types.DesireBuy, nil
		}

		return types.DesireNone, nil
	}

	if data.Close < fast {
		return types.DesireSell, nil
	}

	return types.DesireNone, nil
}
