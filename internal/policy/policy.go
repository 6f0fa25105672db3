// Package policy applies a Desire to a Balance through the ledger.
package policy

import (
	"github.com/rxtech-lab/bitbroker/internal/ledger"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// Outcome describes what an Act call did to the balance.
type Outcome string

const (
	OutcomeNoop   Outcome = "noop"
	OutcomeBought Outcome = "bought"
	OutcomeSold   Outcome = "sold"
	// OutcomeBlocked is a sell desire refused by the no-loss guard.
	OutcomeBlocked Outcome = "blocked"
)

// Result is the balance after one Act call.
type Result struct {
	Balance types.Balance
	Outcome Outcome
	// Fee is the commission paid in USD, zero unless a conversion happened.
	Fee float64
}

// Executed reports whether the ledger was invoked.
func (r Result) Executed() bool {
	return r.Outcome == OutcomeBought || r.Outcome == OutcomeSold
}

type ActPolicy interface {
	// Act turns a desire into the next balance. history holds every balance
	// committed so far, including the initial one.
	Act(desire types.Desire, balance types.Balance, price float64, history *types.BalanceHistory) (Result, error)
	// Liquidate sells any asset position, bypassing every guard.
	Liquidate(balance types.Balance, price float64) (Result, error)
}

// New composes the policy for a run.
func New(l *ledger.Ledger, noLoss bool, initialUSD float64) ActPolicy {
	var p ActPolicy = NewBasePolicy(l)
	if noLoss {
		p = NewNoLossPolicy(p, l, initialUSD)
	}

	return p
}
