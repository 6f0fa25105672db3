package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// DataGenerator generates synthetic BTC candles for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	Symbol string
	// StartTime is the time of the first candle
	StartTime time.Time
	// Interval is the duration between candles
	Interval time.Duration
	// Count is the number of candles to generate
	Count        int
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per candle)
	Volatility float64
	// Trend is the total drift over the series (-0.5 to 0.5 for bearish to bullish)
	Trend      float64
	VolumeBase float64
	// WithSignals fills Score and Prediction so the score variants can run on the data
	WithSignals bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "BTC-USD",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     24 * time.Hour,
		Count:        1000,
		InitialPrice: 40000.0,
		Volatility:   0.03,
		Trend:        0.0,
		VolumeBase:   25000,
		WithSignals:  false,
	}
}

// Generate creates candles following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, close) * (1 - g.rng.Float64()*config.Volatility*0.5)

		candle := types.MarketData{
			Symbol:     config.Symbol,
			Time:       currentTime,
			Open:       roundToDecimals(open, 2),
			High:       roundToDecimals(high, 2),
			Low:        roundToDecimals(low, 2),
			Close:      roundToDecimals(close, 2),
			Volume:     roundToDecimals(config.VolumeBase*(0.5+g.rng.Float64()), 4),
			Score:      optional.None[float64](),
			Prediction: optional.None[float64](),
		}

		if config.WithSignals {
			candle.Score = optional.Some(roundToDecimals(g.rng.Float64(), 4))
			candle.Prediction = optional.Some(roundToDecimals(close*(1+config.Volatility*(g.rng.Float64()*2-1)), 2))
		}

		data[i] = candle

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// GenerateCloses is Generate reduced to the close prices.
func (g *DataGenerator) GenerateCloses(config GeneratorConfig) []float64 {
	data := g.Generate(config)

	closes := make([]float64, len(data))
	for i, candle := range data {
		closes[i] = candle.Close
	}

	return closes
}

// Generate1K is a convenience function returning 1,000 daily candles with a fixed seed.
func Generate1K() []types.MarketData {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = 1000

	return gen.Generate(config)
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
