package types

type IndicatorType string

const (
	IndicatorTypeWMA IndicatorType = "wma"
	IndicatorTypeHMA IndicatorType = "hma"
)
