package strategy

import "github.com/rxtech-lab/bitbroker/internal/types"

// AlwaysBuy converts everything to the asset on the first tick and holds it.
type AlwaysBuy struct{}

func NewAlwaysBuy() *AlwaysBuy {
	return &AlwaysBuy{}
}

func (a *AlwaysBuy) Name() string {
	return string(a.Kind())
}

func (a *AlwaysBuy) Kind() types.StrategyKind {
	return types.StrategyAlwaysBuy
}

func (a *AlwaysBuy) ComputeDesire(_ *types.PriceHistory, _ types.MarketData) (types.Desire, error) {
	return types.DesireBuy, nil
}
