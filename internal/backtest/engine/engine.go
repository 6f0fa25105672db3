package engine

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// Feed is a pull-based source of candles. Next returns None once the feed is
// exhausted; exhaustion is not an error. A feed belongs to a single run.
type Feed interface {
	Next(ctx context.Context) (optional.Option[types.MarketData], error)
}

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when a run over one data file begins.
// runID is a unique identifier for this run, generated before processing starts.
// totalDataPoints counts the candles left to trade after warm-up and skip, the
// same total OnProcessData reports.
type OnRunStartCallback func(runID string, strategyName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error

// OnRunEndCallback is called when a run ends, after the final liquidation.
type OnRunEndCallback func(runID string, dataFileIndex int, dataFilePath string, resultFolderPath string, stats types.RunStats)

// OnProcessDataCallback is called for each traded data point.
// total is zero when the data source cannot count its rows.
type OnProcessDataCallback func(current int, total int) error

// OnTransitionCallback is called for every executed transition once the run is liquidated.
type OnTransitionCallback func(runID string, transition types.Transition)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
	OnTransition    *OnTransitionCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the path to the market data file.
	// Accepts glob patterns for batch loading (e.g., "data/*.parquet"); every match is one run.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Results are written to <folder>/<data file>_<strategy name>. An empty folder disables writing.
	SetResultsFolder(folder string) error
	// SetDataSource sets the data source the data files are read with.
	SetDataSource(dataSource datasource.DataSource) error
	// Run runs one backtest per data file.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// Stats returns the statistics of every run completed by the last Run call.
	Stats() []types.RunStats
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
