package policy

import (
	"github.com/rxtech-lab/bitbroker/internal/ledger"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// NoLossPolicy refuses a sell unless it realizes more cash than the account
// held the last time it was fully in cash.
type NoLossPolicy struct {
	next       ActPolicy
	ledger     *ledger.Ledger
	initialUSD float64
}

func NewNoLossPolicy(next ActPolicy, l *ledger.Ledger, initialUSD float64) *NoLossPolicy {
	return &NoLossPolicy{
		next:       next,
		ledger:     l,
		initialUSD: initialUSD,
	}
}

func (p *NoLossPolicy) Act(desire types.Desire, balance types.Balance, price float64, history *types.BalanceHistory) (Result, error) {
	if desire != types.DesireSell || !balance.IsHolding() {
		return p.next.Act(desire, balance, price, history)
	}

	candidate, _, err := p.ledger.Sell(balance, price)
	if err != nil {
		return Result{Balance: balance, Outcome: OutcomeNoop}, err
	}

	if candidate.USD <= p.reference(history) {
		return Result{Balance: balance, Outcome: OutcomeBlocked}, nil
	}

	return p.next.Act(desire, balance, price, history)
}

func (p *NoLossPolicy) Liquidate(balance types.Balance, price float64) (Result, error) {
	return p.next.Liquidate(balance, price)
}

func (p *NoLossPolicy) reference(history *types.BalanceHistory) float64 {
	if history != nil {
		if usd, ok := history.LastCashUSD(); ok {
			return usd
		}
	}

	return p.initialUSD
}
