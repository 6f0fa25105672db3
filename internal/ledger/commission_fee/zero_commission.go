package commission_fee

// ZeroCommissionFee implements CommissionFee interface with zero commission.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

func (c *ZeroCommissionFee) Rate() float64 {
	return 0
}

// Calculate returns 0 for any notional.
func (c *ZeroCommissionFee) Calculate(notional float64) float64 {
	return 0.0
}
