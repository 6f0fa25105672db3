package datasource

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"go.uber.org/zap"
)

func init() {
	// headers such as Date,Open,Close map onto the lower case tags
	gocsv.SetHeaderNormalizer(strings.ToLower)
}

// csvCandle is one row of a candle CSV. Optional columns may be absent or empty.
type csvCandle struct {
	Date       string `csv:"date"`
	Time       string `csv:"time"`
	Symbol     string `csv:"symbol"`
	Open       string `csv:"open"`
	High       string `csv:"high"`
	Low        string `csv:"low"`
	Close      string `csv:"close"`
	Volume     string `csv:"volume"`
	Score      string `csv:"score"`
	Prediction string `csv:"prediction"`
}

func (c csvCandle) toMarketData() (types.MarketData, error) {
	closePrice, err := parseFloat(c.Close)
	if err != nil || closePrice.IsNone() {
		return types.MarketData{}, errors.Newf(errors.ErrCodeFeedFailed, "invalid close price %q", c.Close)
	}

	data := types.NewCloseData(closePrice.Unwrap())
	data.Symbol = c.Symbol

	stamp := c.Date
	if stamp == "" {
		stamp = c.Time
	}

	if data.Time, err = parseTimestamp(stamp); err != nil {
		return types.MarketData{}, err
	}

	for _, field := range []struct {
		raw    string
		target *float64
	}{
		{c.Open, &data.Open},
		{c.High, &data.High},
		{c.Low, &data.Low},
		{c.Volume, &data.Volume},
	} {
		value, err := parseFloat(field.raw)
		if err != nil {
			return types.MarketData{}, err
		}

		if value.IsSome() {
			*field.target = value.Unwrap()
		}
	}

	if data.Score, err = parseFloat(c.Score); err != nil {
		return types.MarketData{}, err
	}

	if data.Prediction, err = parseFloat(c.Prediction); err != nil {
		return types.MarketData{}, err
	}

	return data, nil
}

func parseFloat(raw string) (optional.Option[float64], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return optional.None[float64](), nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return optional.None[float64](), errors.Wrapf(errors.ErrCodeFeedFailed, err, "invalid number %q", raw)
	}

	return optional.Some(value), nil
}

// CSVDataSource loads a candle CSV into memory with gocsv.
type CSVDataSource struct {
	logger *logger.Logger
	data   []types.MarketData
}

func NewCSVDataSource(logger *logger.Logger) DataSource {
	return &CSVDataSource{logger: logger}
}

// Initialize implements DataSource.
func (c *CSVDataSource) Initialize(path string) error {
	c.logger.Debug("Initializing CSV data source", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeFeedUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []csvCandle
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return errors.Wrapf(errors.ErrCodeFeedFailed, err, "failed to parse %s", path)
	}

	data := make([]types.MarketData, 0, len(rows))

	for _, row := range rows {
		candle, err := row.toMarketData()
		if err != nil {
			return err
		}

		data = append(data, candle)
	}

	sort.SliceStable(data, func(i, j int) bool { return data[i].Time.Before(data[j].Time) })
	c.data = data

	return nil
}

// ReadAll implements DataSource.
func (c *CSVDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		for _, data := range c.data {
			if !inRange(data.Time, start, end) {
				continue
			}

			if !yield(data, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (c *CSVDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, data := range c.data {
		if inRange(data.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (c *CSVDataSource) Close() error {
	c.data = nil

	return nil
}
