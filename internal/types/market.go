package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

var validate = validator.New()

// MarketData is one candle pulled from a feed.
type MarketData struct {
	Time   time.Time `yaml:"time" json:"time"`
	Symbol string    `yaml:"symbol" json:"symbol"`
	Open   float64   `yaml:"open" json:"open" validate:"gte=0"`
	High   float64   `yaml:"high" json:"high" validate:"gte=0"`
	Low    float64   `yaml:"low" json:"low" validate:"gte=0"`
	Close  float64   `yaml:"close" json:"close" validate:"gt=0"`
	Volume float64   `yaml:"volume" json:"volume" validate:"gte=0"`
	// Score is an externally computed classification score in [0, 1].
	Score optional.Option[float64] `yaml:"score" json:"score"`
	// Prediction is an externally computed next-price estimate.
	Prediction optional.Option[float64] `yaml:"prediction" json:"prediction"`
}

// NewCloseData builds a candle carrying only a close price.
func NewCloseData(close float64) MarketData {
	return MarketData{
		Open:       close,
		High:       close,
		Low:        close,
		Close:      close,
		Score:      optional.None[float64](),
		Prediction: optional.None[float64](),
	}
}

// Validate rejects candles with a non-positive close, negative prices or volume,
// or a score outside [0, 1].
func (m *MarketData) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPrice, "invalid market data", err)
	}

	if m.Score.IsSome() {
		score := m.Score.Unwrap()
		if score < 0 || score > 1 {
			return errors.Newf(errors.ErrCodeInvalidScore, "score must be in [0, 1], got %f", score)
		}
	}

	return nil
}
