package strategy

import (
	"fmt"

	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// MaxScoreOffset bounds the neutral band so that both thresholds stay within [0, 1].
const MaxScoreOffset = 0.5

// ScoreClassification trades on an external probability that the price goes up.
type ScoreClassification struct {
	offset float64
}

func NewScoreClassification(offset float64) (*ScoreClassification, error) {
	if offset < 0 || offset > MaxScoreOffset {
		return nil, errors.Newf(errors.ErrCodeInvalidOffset, "score offset must be in [0, %.1f], got %f", MaxScoreOffset, offset)
	}

	return &ScoreClassification{offset: offset}, nil
}

func (s *ScoreClassification) Name() string {
	return fmt.Sprintf("%s_%.4f", s.Kind(), s.offset)
}

func (s *ScoreClassification) Kind() types.StrategyKind {
	return types.StrategyScoreClassification
}

func (s *ScoreClassification) ComputeDesire(_ *types.PriceHistory, data types.MarketData) (types.Desire, error) {
	if data.Score.IsNone() {
		return types.DesireNone, errors.New(errors.ErrCodeMissingScore, "candle carries no score")
	}

	score := data.Score.Unwrap()
	switch {
	case score > 0.5+s.offset:
		return types.DesireBuy, nil
	case score < 0.5-s.offset:
		return types.DesireSell, nil
	default:
		return types.DesireNone, nil
	}
}

// ScoreRegression trades on an external next-price prediction.
type ScoreRegression struct{}

func NewScoreRegression() *ScoreRegression {
	return &ScoreRegression{}
}

func (s *ScoreRegression) Name() string {
	return string(s.Kind())
}

func (s *ScoreRegression) Kind() types.StrategyKind {
	return types.StrategyScoreRegression
}

func (s *ScoreRegression) ComputeDesire(_ *types.PriceHistory, data types.MarketData) (types.Desire, error) {
	if data.Prediction.IsNone() {
		return types.DesireNone, errors.New(errors.ErrCodeMissingPrediction, "candle carries no prediction")
	}

	if data.Prediction.Unwrap() > data.Close {
		return types.DesireBuy, nil
	}

	return types.DesireSell, nil
}
