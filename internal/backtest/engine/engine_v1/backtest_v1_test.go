package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	engine_types "github.com/rxtech-lab/bitbroker/internal/backtest/engine"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/mocks"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const traceConfig = `
strategy: simple_hull
period: 2
fee: 0
warmup: 4
warmup_skip: 0
`

func writeCloseCSV(t *testing.T, dir string, name string, closes ...float64) string {
	t.Helper()

	var builder strings.Builder
	builder.WriteString("Date,Close\n")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		fmt.Fprintf(&builder, "%s,%v\n", day.AddDate(0, 0, i).Format("2006-01-02"), c)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(builder.String()), 0644))

	return path
}

func newTestEngine(t *testing.T, config string) engine_types.Engine {
	t.Helper()

	backtest := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	require.NoError(t, backtest.Initialize(config))

	return backtest
}

func TestBacktestEngineV1_Run(t *testing.T) {
	t.Run("Runs every data file and writes results", func(t *testing.T) {
		dataDir := t.TempDir()
		resultsDir := t.TempDir()

		writeCloseCSV(t, dataDir, "btc_a.csv", 100, 100, 100, 100, 105, 95, 90)
		writeCloseCSV(t, dataDir, "btc_b.csv", 100, 100, 100, 100, 95, 105, 110)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(filepath.Join(dataDir, "*.csv")))
		require.NoError(t, backtest.SetResultsFolder(resultsDir))
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))

		var (
			startFiles  int
			runStarts   []string
			runTotals   []int
			runEnds     []string
			processed   int
			transitions int
			ended       bool
		)

		onBacktestStart := engine_types.OnBacktestStartCallback(func(totalDataFiles int) error {
			startFiles = totalDataFiles

			return nil
		})
		onBacktestEnd := engine_types.OnBacktestEndCallback(func(err error) {
			assert.NoError(t, err)
			ended = true
		})
		onRunStart := engine_types.OnRunStartCallback(func(runID string, strategyName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
			assert.NotEmpty(t, runID)
			assert.Equal(t, "simple_hull_2", strategyName)
			runStarts = append(runStarts, filepath.Base(dataFilePath))
			runTotals = append(runTotals, totalDataPoints)

			return nil
		})
		onRunEnd := engine_types.OnRunEndCallback(func(runID string, dataFileIndex int, dataFilePath string, resultFolderPath string, stats types.RunStats) {
			assert.Equal(t, runID, stats.ID)
			runEnds = append(runEnds, resultFolderPath)
		})
		onProcessData := engine_types.OnProcessDataCallback(func(current int, total int) error {
			processed++
			assert.Equal(t, 3, total)

			return nil
		})
		onTransition := engine_types.OnTransitionCallback(func(runID string, transition types.Transition) {
			transitions++
		})

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{
			OnBacktestStart: &onBacktestStart,
			OnBacktestEnd:   &onBacktestEnd,
			OnRunStart:      &onRunStart,
			OnRunEnd:        &onRunEnd,
			OnProcessData:   &onProcessData,
			OnTransition:    &onTransition,
		})
		require.NoError(t, err)

		assert.True(t, ended)
		assert.Equal(t, 2, startFiles)
		assert.Equal(t, []string{"btc_a.csv", "btc_b.csv"}, runStarts)
		assert.Equal(t, []int{3, 3}, runTotals)
		assert.Equal(t, 6, processed)
		assert.Positive(t, transitions)
		require.Len(t, runEnds, 2)
		assert.Equal(t, filepath.Join(resultsDir, "btc_a_simple_hull_2"), runEnds[0])

		for _, name := range []string{"stats.yaml", "balances.csv", "transitions.csv", "balances.parquet", "transitions.parquet"} {
			_, err := os.Stat(filepath.Join(runEnds[0], name))
			assert.NoError(t, err, name)
		}

		stats := backtest.Stats()
		require.Len(t, stats, 2)
		assert.InDelta(t, 947.368421, stats[0].Pnl.FinalUSD, 1e-6)
		assert.Equal(t, 3, stats[0].Result.Ticks)
		assert.True(t, strings.HasSuffix(stats[0].DataPath, "btc_a.csv"))
	})

	t.Run("Skips writing without a results folder", func(t *testing.T) {
		dataDir := t.TempDir()
		path := writeCloseCSV(t, dataDir, "btc.csv", 100, 100, 100, 100, 105, 95, 90)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))

		var folder = "unset"
		onRunEnd := engine_types.OnRunEndCallback(func(runID string, dataFileIndex int, dataFilePath string, resultFolderPath string, stats types.RunStats) {
			folder = resultFolderPath
		})

		require.NoError(t, backtest.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunEnd: &onRunEnd}))
		assert.Equal(t, "", folder)
	})

	t.Run("Reads from a mocked datasource", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDatasource := mocks.NewMockDataSource(ctrl)

		closes := []float64{100, 100, 100, 100, 105, 95, 90}
		readAll := func(yield func(types.MarketData, error) bool) {
			for _, c := range closes {
				if !yield(types.NewCloseData(c), nil) {
					return
				}
			}
		}

		mockDatasource.EXPECT().Initialize(gomock.Any()).Return(nil).Times(1)
		mockDatasource.EXPECT().Count(gomock.Any(), gomock.Any()).Return(len(closes), nil).Times(1)
		mockDatasource.EXPECT().ReadAll(gomock.Any(), gomock.Any()).Return(readAll).Times(1)

		path := writeCloseCSV(t, t.TempDir(), "ignored.csv", 1)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(mockDatasource))
		require.NoError(t, backtest.Run(context.Background(), engine_types.LifecycleCallbacks{}))

		stats := backtest.Stats()
		require.Len(t, stats, 1)
		assert.Equal(t, 1, stats[0].Result.NumberOfBuys)
		assert.InDelta(t, 947.368421, stats[0].Pnl.FinalUSD, 1e-6)
	})

	t.Run("Applies the price range filter", func(t *testing.T) {
		dataDir := t.TempDir()
		path := writeCloseCSV(t, dataDir, "btc.csv", 10, 20, 30, 999999, 40)

		backtest := newTestEngine(t, `
strategy: always_buy
period: 1
warmup: 0
warmup_skip: 0
max_price: 100000
`)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))
		require.NoError(t, backtest.Run(context.Background(), engine_types.LifecycleCallbacks{}))

		stats := backtest.Stats()
		require.Len(t, stats, 1)
		assert.Equal(t, 4, stats[0].Result.Ticks)
		assert.InDelta(t, 4000.0, stats[0].Pnl.FinalUSD, 1e-9)
	})

	t.Run("Replays transitions from the run state", func(t *testing.T) {
		path := writeCloseCSV(t, t.TempDir(), "btc.csv", 100, 110, 120)

		backtest := newTestEngine(t, `
strategy: always_buy
period: 1
fee: 0.01
warmup: 0
warmup_skip: 0
`)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))

		var received []types.Transition
		onTransition := engine_types.OnTransitionCallback(func(runID string, transition types.Transition) {
			received = append(received, transition)
		})

		require.NoError(t, backtest.Run(context.Background(), engine_types.LifecycleCallbacks{OnTransition: &onTransition}))

		require.Len(t, received, 2)
		assert.Equal(t, types.DesireBuy, received[0].Side)
		assert.False(t, received[0].Forced)
		assert.Equal(t, types.DesireSell, received[1].Side)
		assert.True(t, received[1].Forced)
		assert.NotEmpty(t, received[0].ID)
		assert.NotEqual(t, received[0].ID, received[1].ID)
		assert.Equal(t, 2024, received[0].Time.Year())

		stats := backtest.Stats()
		require.Len(t, stats, 1)
		assert.InDelta(t, 10.0, received[0].Fee, 1e-9)
		assert.InDelta(t, received[0].Fee+received[1].Fee, stats[0].Pnl.TotalFees, 1e-9)
	})

	t.Run("Propagates datasource errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDatasource := mocks.NewMockDataSource(ctrl)
		mockDatasource.EXPECT().Initialize(gomock.Any()).
			Return(errors.New(errors.ErrCodeFeedUnavailable, "no such file")).Times(1)

		path := writeCloseCSV(t, t.TempDir(), "btc.csv", 1)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(mockDatasource))

		var endErr error
		onBacktestEnd := engine_types.OnBacktestEndCallback(func(err error) {
			endErr = err
		})

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{OnBacktestEnd: &onBacktestEnd})
		assert.True(t, errors.HasCode(err, errors.ErrCodeFeedUnavailable))
		assert.Equal(t, err, endErr)
	})

	t.Run("Fails on data shorter than the warm-up", func(t *testing.T) {
		path := writeCloseCSV(t, t.TempDir(), "btc.csv", 100, 101)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{})
		assert.True(t, errors.IsInsufficientHistoryError(err))
	})

	t.Run("Aborts when a start callback fails", func(t *testing.T) {
		path := writeCloseCSV(t, t.TempDir(), "btc.csv", 100, 101)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(path))
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))

		abort := errors.New(errors.ErrCodeUnknown, "abort")
		onBacktestStart := engine_types.OnBacktestStartCallback(func(int) error { return abort })

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{OnBacktestStart: &onBacktestStart})
		assert.ErrorIs(t, err, abort)
	})
}

func TestBacktestEngineV1_PreRunCheck(t *testing.T) {
	t.Run("Not initialized", func(t *testing.T) {
		backtest := NewBacktestEngineV1()

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestNotInitialized))
	})

	t.Run("No data paths", func(t *testing.T) {
		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataSource(datasource.NewCSVDataSource(logger.NewNopLogger())))

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeFeedUnavailable))
	})

	t.Run("No datasource", func(t *testing.T) {
		path := writeCloseCSV(t, t.TempDir(), "btc.csv", 1)

		backtest := newTestEngine(t, traceConfig)
		require.NoError(t, backtest.SetDataPath(path))

		err := backtest.Run(context.Background(), engine_types.LifecycleCallbacks{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeFeedUnavailable))
	})
}

func TestBacktestEngineV1_Initialize(t *testing.T) {
	t.Run("Rejects an invalid configuration", func(t *testing.T) {
		backtest := NewBacktestEngineV1WithLogger(logger.NewNopLogger())

		err := backtest.Initialize("strategy: simple_hull\nperiod: 1\n")
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidPeriod))
	})

	t.Run("Exposes the configuration schema", func(t *testing.T) {
		backtest := newTestEngine(t, traceConfig)

		schema, err := backtest.GetConfigSchema()
		require.NoError(t, err)
		assert.Contains(t, schema, "no_loss")
	})
}

func TestBacktestEngineV1_GetResultFolder(t *testing.T) {
	b := &BacktestEngineV1{config: TestConfig(types.StrategyMomentumHull, 9, 0), resultsFolder: "results"}

	assert.Equal(t, filepath.Join("results", "btc_2021_momentum_hull_9"), b.getResultFolder("/data/btc_2021.parquet"))

	b.config = TestConfig(types.StrategyLunarPhase, 1, 0)
	assert.Equal(t, filepath.Join("results", "btc_lunar_phase"), b.getResultFolder("btc.csv"))

	b.resultsFolder = ""
	assert.Equal(t, "", b.getResultFolder("btc.csv"))
}
