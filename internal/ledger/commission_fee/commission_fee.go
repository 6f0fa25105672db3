package commission_fee

import "github.com/rxtech-lab/bitbroker/pkg/errors"

type CommissionFee interface {
	// Rate returns the fraction of every conversion kept by the broker
	Rate() float64
	// Calculate the commission fee for a given notional and returns the fee in the notional's currency
	Calculate(notional float64) float64
}

type Broker string

const (
	BrokerPercentage Broker = "percentage"
	BrokerZero       Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerPercentage,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model for broker. The rate is only
// read by the percentage broker and must be in [0, 1).
func GetCommissionFeeHandler(broker Broker, rate float64) (CommissionFee, error) {
	switch broker {
	case BrokerPercentage:
		return NewPercentageCommissionFee(rate)
	case BrokerZero:
		return NewZeroCommissionFee(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker: %s", broker)
	}
}

// ValidateRate checks that a fee fraction leaves something to convert.
func ValidateRate(rate float64) error {
	if rate < 0 || rate >= 1 {
		return errors.Newf(errors.ErrCodeInvalidFee, "fee must be in [0, 1), got %f", rate)
	}

	return nil
}
