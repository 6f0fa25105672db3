package commission_fee

// PercentageCommissionFee charges a fixed fraction of every conversion.
type PercentageCommissionFee struct {
	rate float64
}

func NewPercentageCommissionFee(rate float64) (CommissionFee, error) {
	if err := ValidateRate(rate); err != nil {
		return nil, err
	}

	return &PercentageCommissionFee{rate: rate}, nil
}

func (c *PercentageCommissionFee) Rate() float64 {
	return c.rate
}

func (c *PercentageCommissionFee) Calculate(notional float64) float64 {
	return notional * c.rate
}
