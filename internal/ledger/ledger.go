// Package ledger holds the balance transitions of a single-asset cash account.
package ledger

import (
	"github.com/rxtech-lab/bitbroker/internal/ledger/commission_fee"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// Buy converts all cash into the asset at price, keeping fee of the converted amount.
func Buy(balance types.Balance, price float64, fee float64) (types.Balance, error) {
	if balance.USD <= 0 {
		return balance, errors.Newf(errors.ErrCodeLedgerInvariant, "buy requires cash, balance is %+v", balance)
	}

	if err := checkPrice(price); err != nil {
		return balance, err
	}

	return types.Balance{
		USD: 0,
		BTC: balance.USD/price*(1-fee) + balance.BTC,
	}, nil
}

// Sell converts all of the asset into cash at price, keeping fee of the converted amount.
func Sell(balance types.Balance, price float64, fee float64) (types.Balance, error) {
	if balance.BTC <= 0 {
		return balance, errors.Newf(errors.ErrCodeLedgerInvariant, "sell requires an asset position, balance is %+v", balance)
	}

	if err := checkPrice(price); err != nil {
		return balance, err
	}

	return types.Balance{
		USD: balance.BTC*price*(1-fee) + balance.USD,
		BTC: 0,
	}, nil
}

// MustBuy is Buy for callers that have already established the precondition.
func MustBuy(balance types.Balance, price float64, fee float64) types.Balance {
	next, err := Buy(balance, price, fee)
	if err != nil {
		panic(err)
	}

	return next
}

// MustSell is Sell for callers that have already established the precondition.
func MustSell(balance types.Balance, price float64, fee float64) types.Balance {
	next, err := Sell(balance, price, fee)
	if err != nil {
		panic(err)
	}

	return next
}

func checkPrice(price float64) error {
	if price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive, got %f", price)
	}

	return nil
}

// Ledger applies a broker's fee model to Buy and Sell.
type Ledger struct {
	fee commission_fee.CommissionFee
}

func NewLedger(fee commission_fee.CommissionFee) *Ledger {
	if fee == nil {
		fee = commission_fee.NewZeroCommissionFee()
	}

	return &Ledger{fee: fee}
}

// FeeRate returns the fraction kept on every conversion.
func (l *Ledger) FeeRate() float64 {
	return l.fee.Rate()
}

// Buy returns the next balance and the fee paid in USD.
func (l *Ledger) Buy(balance types.Balance, price float64) (types.Balance, float64, error) {
	next, err := Buy(balance, price, l.fee.Rate())
	if err != nil {
		return balance, 0, err
	}

	return next, l.fee.Calculate(balance.USD), nil
}

// Sell returns the next balance and the fee paid in USD.
func (l *Ledger) Sell(balance types.Balance, price float64) (types.Balance, float64, error) {
	next, err := Sell(balance, price, l.fee.Rate())
	if err != nil {
		return balance, 0, err
	}

	return next, l.fee.Calculate(balance.BTC * price), nil
}
