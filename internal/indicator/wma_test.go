package indicator

import (
	"testing"

	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type WMATestSuite struct {
	suite.Suite
}

func TestWMASuite(t *testing.T) {
	suite.Run(t, new(WMATestSuite))
}

func (suite *WMATestSuite) TestWMA() {
	tests := []struct {
		name     string
		data     []float64
		period   int
		expected []float64
	}{
		{"period equals length", []float64{0, 0, 1}, 3, []float64{0.5}},
		{"period two", []float64{0, 0, 1}, 2, []float64{0, 2.0 / 3}},
		{"period one is identity", []float64{0, 0, 1}, 1, []float64{0, 0, 1}},
		{"constant series", []float64{5, 5, 5, 5}, 3, []float64{5, 5}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := WMA(tc.data, tc.period)
			suite.Require().NoError(err)
			suite.Require().Len(result, len(tc.expected))

			for i := range tc.expected {
				suite.InDelta(tc.expected[i], result[i], 1e-12)
			}
		})
	}
}

func (suite *WMATestSuite) TestWMALastValue() {
	tests := []struct {
		name     string
		data     []float64
		period   int
		expected float64
	}{
		{"oldest weighted lowest", []float64{1, 0, 0}, 2, 0},
		{"old sample outside window", []float64{6, 0, 0}, 3, 1},
		{"newest weighted highest", []float64{0, 0, 2}, 3, 1},
		{"mixed", []float64{100, 10, 2}, 3, 21},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := WMALastValue(tc.data, tc.period)
			suite.Require().NoError(err)
			suite.InDelta(tc.expected, result, 1e-12)

			series, err := WMA(tc.data, tc.period)
			suite.Require().NoError(err)
			suite.InDelta(series[len(series)-1], result, 1e-12)
		})
	}
}

func (suite *WMATestSuite) TestInsufficientHistory() {
	_, err := WMA([]float64{1, 2}, 3)
	suite.True(errors.IsInsufficientHistoryError(err))

	_, err = WMALastValue([]float64{}, 1)
	suite.True(errors.IsInsufficientHistoryError(err))
}

func (suite *WMATestSuite) TestInvalidPeriod() {
	_, err := WMA([]float64{1, 2}, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = WMALastValue([]float64{1, 2}, -1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *WMATestSuite) TestWMAIndicator() {
	wma := NewWMA()
	suite.NoError(wma.Config(3.0))
	suite.Equal(3, wma.Window())

	value, err := wma.RawValue([]float64{100, 10, 2})
	suite.NoError(err)
	suite.InDelta(21.0, value, 1e-12)

	suite.Error(wma.Config())
	suite.Error(wma.Config("three"))
	suite.Error(wma.Config(0))
}
