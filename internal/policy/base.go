package policy

import (
	"github.com/rxtech-lab/bitbroker/internal/ledger"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// BasePolicy is the two-state machine: buy while not holding, sell while holding.
type BasePolicy struct {
	ledger *ledger.Ledger
}

func NewBasePolicy(l *ledger.Ledger) *BasePolicy {
	return &BasePolicy{ledger: l}
}

func (p *BasePolicy) Act(desire types.Desire, balance types.Balance, price float64, _ *types.BalanceHistory) (Result, error) {
	holding := balance.IsHolding()

	switch {
	case desire == types.DesireBuy && !holding && balance.USD > 0:
		next, fee, err := p.ledger.Buy(balance, price)
		if err != nil {
			return Result{Balance: balance, Outcome: OutcomeNoop}, err
		}

		return Result{Balance: next, Outcome: OutcomeBought, Fee: fee}, nil
	case desire == types.DesireSell && holding:
		return p.Liquidate(balance, price)
	default:
		return Result{Balance: balance, Outcome: OutcomeNoop}, nil
	}
}

func (p *BasePolicy) Liquidate(balance types.Balance, price float64) (Result, error) {
	if balance.BTC <= 0 {
		return Result{Balance: balance, Outcome: OutcomeNoop}, nil
	}

	next, fee, err := p.ledger.Sell(balance, price)
	if err != nil {
		return Result{Balance: balance, Outcome: OutcomeNoop}, err
	}

	return Result{Balance: next, Outcome: OutcomeSold, Fee: fee}, nil
}
