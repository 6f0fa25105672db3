package indicator

import (
	"math/rand"
	"testing"

	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HMATestSuite struct {
	suite.Suite
}

func TestHMASuite(t *testing.T) {
	suite.Run(t, new(HMATestSuite))
}

func (suite *HMATestSuite) TestHMA() {
	tests := []struct {
		name     string
		data     []float64
		period   int
		expected []float64
	}{
		{"three samples", []float64{1, 10, 100}, 2, []float64{13, 130}},
		{"four samples", []float64{1, 10, 100, 1000}, 2, []float64{13, 130, 1300}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := HMA(tc.data, tc.period)
			suite.Require().NoError(err)
			suite.Require().Len(result, len(tc.expected))

			for i := range tc.expected {
				suite.InDelta(tc.expected[i], result[i], 1e-9)
			}
		})
	}
}

func (suite *HMATestSuite) TestHMALastValue() {
	value, err := HMALastValue([]float64{1, 10, 100}, 2)
	suite.NoError(err)
	suite.InDelta(130.0, value, 1e-9)

	value, err = HMALastValue([]float64{1, 10, 100, 1000}, 2)
	suite.NoError(err)
	suite.InDelta(1300.0, value, 1e-9)
}

func (suite *HMATestSuite) TestOutputShorterThanInput() {
	data := randomWalk(rand.New(rand.NewSource(1)), 50)

	for _, period := range []int{2, 3, 4, 9, 16} {
		result, err := HMA(data, period)
		suite.Require().NoError(err)
		suite.Less(len(result), len(data))
		suite.Equal(len(data)-HMASeriesWindow(period)+1, len(result))
	}
}

func (suite *HMATestSuite) TestConstantSeries() {
	data := []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7}

	result, err := HMA(data, 4)
	suite.Require().NoError(err)

	for _, value := range result {
		suite.InDelta(7.0, value, 1e-12)
	}
}

func (suite *HMATestSuite) TestInsufficientHistory() {
	// period 4 needs 4 + 2 samples for the last value
	_, err := HMALastValue([]float64{1, 2, 3, 4, 5}, 4)
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientHistoryError(err))

	var historyErr *errors.InsufficientHistoryError
	suite.Require().True(errors.As(err, &historyErr))
	suite.Equal(6, historyErr.Required)
	suite.Equal(5, historyErr.Actual)

	_, err = HMA([]float64{1, 2, 3, 4}, 4)
	suite.True(errors.IsInsufficientHistoryError(err))
}

func (suite *HMATestSuite) TestInvalidPeriod() {
	_, err := HMA([]float64{1, 2, 3}, 1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = HMALastValue([]float64{1, 2, 3}, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func TestHMALastValueMatchesSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		period := 2 + rng.Intn(40)
		length := HMALastValueWindow(period) + rng.Intn(100)
		data := randomWalk(rng, length)

		series, err := HMA(data, period)
		require.NoError(t, err)

		last, err := HMALastValue(data, period)
		require.NoError(t, err)

		assert.InDelta(t, series[len(series)-1], last, 1e-8, "period %d length %d", period, length)
	}
}

func TestHMAIndicator(t *testing.T) {
	hma := NewHMA()
	require.NoError(t, hma.Config(2))
	assert.Equal(t, 3, hma.Window())

	series, err := hma.Series([]float64{1, 10, 100, 1000})
	require.NoError(t, err)
	assert.Len(t, series, 3)

	value, err := hma.RawValue([]float64{1, 10, 100, 1000})
	require.NoError(t, err)
	assert.InDelta(t, 1300.0, value, 1e-9)

	assert.Error(t, hma.Config(1))
}

func randomWalk(rng *rand.Rand, length int) []float64 {
	data := make([]float64, length)
	price := 10000.0

	for i := range data {
		price += rng.NormFloat64() * 50
		if price < 1 {
			price = 1
		}

		data[i] = price
	}

	return data
}
