package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const candleCSV = `Date,Open,High,Low,Close,Volume,score
2019-01-03,101,106,99,104,10,0.7
2019-01-01,99,101,98,100,12,
2019-01-02,100,103,97,102,8,0.2
2019-01-04,104,110,103,50,9,
`

type DataSourceTestSuite struct {
	suite.Suite
	logger *logger.Logger
	dir    string
}

func TestDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DataSourceTestSuite))
}

func (suite *DataSourceTestSuite) SetupTest() {
	suite.logger = logger.NewNopLogger()
	suite.dir = suite.T().TempDir()
}

func (suite *DataSourceTestSuite) writeCSV(content string) string {
	path := filepath.Join(suite.dir, "candles.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func drain(ctx context.Context, feed puller) ([]types.MarketData, error) {
	var out []types.MarketData

	for {
		data, err := feed.Next(ctx)
		if err != nil {
			return out, err
		}

		if data.IsNone() {
			return out, nil
		}

		out = append(out, data.Unwrap())
	}
}

func (suite *DataSourceTestSuite) TestSliceFeed() {
	feed := NewCloseFeed(1, 2, 3)
	suite.Equal(3, feed.Remaining())

	data, err := drain(context.Background(), feed)
	suite.Require().NoError(err)
	suite.Len(data, 3)
	suite.Equal(3.0, data[2].Close)
	suite.Equal(0, feed.Remaining())

	next, err := feed.Next(context.Background())
	suite.NoError(err)
	suite.True(next.IsNone())
}

func (suite *DataSourceTestSuite) TestSliceFeedCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCloseFeed(1).Next(ctx)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *DataSourceTestSuite) TestFilteredFeed() {
	feed := NewFilteredFeed(NewCloseFeed(50, 100, 150, 100000, 99999), PriceRange{Min: 100, Max: 100000})

	data, err := drain(context.Background(), feed)
	suite.Require().NoError(err)
	suite.Require().Len(data, 2)
	suite.Equal(150.0, data[0].Close)
	suite.Equal(99999.0, data[1].Close)
	suite.Equal(3, feed.Dropped())

	suite.True(PriceRange{}.Contains(-1))
}

func (suite *DataSourceTestSuite) TestCSVDataSource() {
	ds := NewCSVDataSource(suite.logger)
	suite.Require().NoError(ds.Initialize(suite.writeCSV(candleCSV)))
	defer ds.Close()

	data, err := LoadAll(ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(data, 4)

	suite.Equal(100.0, data[0].Close)
	suite.Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), data[0].Time)
	suite.True(data[0].Score.IsNone())
	suite.Equal(102.0, data[1].Close)
	suite.Equal(optional.Some(0.2), data[1].Score)
	suite.Equal(106.0, data[2].High)
	suite.True(data[2].Prediction.IsNone())

	count, err := ds.Count(optional.Some(time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)), optional.Some(time.Date(2019, 1, 3, 0, 0, 0, 0, time.UTC)))
	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func (suite *DataSourceTestSuite) TestCSVDataSourceErrors() {
	ds := NewCSVDataSource(suite.logger)

	err := ds.Initialize(filepath.Join(suite.dir, "missing.csv"))
	suite.Equal(errors.ErrCodeFeedUnavailable, errors.GetCode(err))

	err = ds.Initialize(suite.writeCSV("date,close\n2019-01-01,abc\n"))
	suite.Equal(errors.ErrCodeFeedFailed, errors.GetCode(err))

	err = ds.Initialize(suite.writeCSV("date,close\nyesterday,1\n"))
	suite.Equal(errors.ErrCodeFeedFailed, errors.GetCode(err))
}

func (suite *DataSourceTestSuite) TestDataSourceFeed() {
	ds := NewCSVDataSource(suite.logger)
	suite.Require().NoError(ds.Initialize(suite.writeCSV(candleCSV)))

	feed := NewDataSourceFeed(ds, optional.Some(time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)), optional.None[time.Time]())
	data, err := drain(context.Background(), feed)
	suite.Require().NoError(err)
	suite.Require().Len(data, 3)
	suite.Equal([]float64{102, 104, 50}, []float64{data[0].Close, data[1].Close, data[2].Close})

	feed.Close()
}

func (suite *DataSourceTestSuite) TestDuckDBDataSource() {
	ds, err := NewDataSource(":memory:", suite.logger)
	suite.Require().NoError(err)
	defer ds.Close()

	suite.Require().NoError(ds.Initialize(suite.writeCSV(candleCSV)))

	count, err := ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(4, count)

	data, err := LoadAll(ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(data, 4)
	suite.Equal(100.0, data[0].Close)
	suite.Equal(102.0, data[1].Close)
	suite.True(data[0].Score.IsNone())
	suite.Equal(optional.Some(0.7), data[2].Score)
	suite.True(data[3].Prediction.IsNone())
	suite.Equal(2019, data[3].Time.Year())

	filtered, err := LoadAll(ds, optional.Some(time.Date(2019, 1, 3, 0, 0, 0, 0, time.UTC)), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(filtered, 2)
}

func (suite *DataSourceTestSuite) TestDuckDBDataSourceKeepsFileOrderForEqualTimestamps() {
	rows := 2*readBatchSize + 500

	var content strings.Builder
	content.WriteString("Date,Close\n")

	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&content, "2019-01-02,%d.0\n", i)
	}

	content.WriteString("2019-01-01,0.5\n")

	ds, err := NewDataSource(":memory:", suite.logger)
	suite.Require().NoError(err)
	defer ds.Close()

	suite.Require().NoError(ds.Initialize(suite.writeCSV(content.String())))

	data, err := LoadAll(ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(data, rows+1)

	suite.Equal(0.5, data[0].Close)

	for i := 1; i <= rows; i++ {
		suite.Require().Equal(float64(i), data[i].Close, "row %d", i)
	}
}

func (suite *DataSourceTestSuite) TestDuckDBDataSourceRejectsUnknownFormat() {
	ds, err := NewDataSource(":memory:", suite.logger)
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(filepath.Join(suite.dir, "candles.json"))
	suite.Equal(errors.ErrCodeFeedUnavailable, errors.GetCode(err))

	_, err = ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Error(err)
}

func (suite *DataSourceTestSuite) TestParseTimestamp() {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2021-03-04T05:06:07Z", time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)},
		{"2021-03-04 05:06:07", time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)},
		{"2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"1600000000", time.Unix(1600000000, 0).UTC()},
		{"", time.Time{}},
	}

	for _, tc := range tests {
		parsed, err := parseTimestamp(tc.input)
		suite.Require().NoError(err, tc.input)
		suite.True(tc.expected.Equal(parsed), tc.input)
	}
}
