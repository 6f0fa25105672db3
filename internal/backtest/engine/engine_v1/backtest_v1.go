package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/policy"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"go.uber.org/zap"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	initialized   bool
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	state         *BacktestState
	datasource    datasource.DataSource
	stats         []types.RunStats
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		initialized:   false,
		dataPaths:     nil,
		resultsFolder: "",
		log:           nil,
		state:         nil,
		datasource:    nil,
		stats:         nil,
	}
}

// NewBacktestEngineV1WithLogger creates an engine that logs to log instead of a fresh production logger.
func NewBacktestEngineV1WithLogger(log *logger.Logger) engine.Engine {
	b := NewBacktestEngineV1().(*BacktestEngineV1)
	b.log = log

	return b
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	b.config = parsed

	if b.log == nil {
		b.log, err = logger.NewLogger()
		if err != nil {
			return err
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("strategy", string(b.config.Strategy)),
		zap.Int("period", b.config.Period),
		zap.Float64("fee", b.config.Fee),
		zap.Bool("no_loss", b.config.NoLoss),
	)

	if b.state != nil {
		_ = b.state.Close()
	}

	b.state, err = NewBacktestState(b.log)
	if err != nil {
		return err
	}

	if err := b.state.Initialize(); err != nil {
		return err
	}

	b.initialized = true

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.logError("Failed to set data path", zap.String("path", path), zap.Error(err))

		return errors.Wrapf(errors.ErrCodeFeedUnavailable, err, "invalid data path %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.logError("Failed to get absolute path", zap.String("path", file), zap.Error(err))

			return errors.Wrapf(errors.ErrCodeFeedUnavailable, err, "invalid data path %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths

	if b.log != nil {
		b.log.Debug("Data paths set", zap.Strings("files", absolutePaths))
	}

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	if b.log != nil {
		b.log.Debug("Results folder set", zap.String("folder", folder))
	}

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// Stats implements engine.Engine.
func (b *BacktestEngineV1) Stats() []types.RunStats {
	out := make([]types.RunStats, len(b.stats))
	copy(out, b.stats)

	return out
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return err
	}

	b.stats = nil

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.dataPaths)); err != nil {
			return err
		}
	}

	for index, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, err := b.runFile(ctx, callbacks, index, dataPath)
		if err != nil {
			b.log.Error("Run failed",
				zap.String("data", dataPath),
				zap.Error(err),
			)

			return err
		}

		b.stats = append(b.stats, stats)
	}

	return nil
}

func (b *BacktestEngineV1) runFile(ctx context.Context, callbacks engine.LifecycleCallbacks, index int, dataPath string) (types.RunStats, error) {
	if err := b.datasource.Initialize(dataPath); err != nil {
		return types.RunStats{}, err
	}

	count, err := b.datasource.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return types.RunStats{}, err
	}

	runID := uuid.New().String()
	strategyName := b.strategyName()
	resultFolderPath := b.getResultFolder(dataPath)

	b.log.Debug("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", strategyName),
		zap.String("data", dataPath),
		zap.String("result", resultFolderPath),
	)

	// Only traded candles are reported. Candles outside the price range leave current short of total.
	tradedTotal := max(count-b.config.WarmupSize()-b.config.WarmupSkipSize(), 0)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, strategyName, index, dataPath, tradedTotal); err != nil {
			return types.RunStats{}, err
		}
	}

	dataFeed := datasource.NewDataSourceFeed(b.datasource, b.config.StartTime, b.config.EndTime)
	defer dataFeed.Close()

	feed := datasource.NewFilteredFeed(dataFeed, b.config.PriceRange())

	onTick := func(tick int, data types.MarketData, desire types.Desire, result policy.Result) error {
		if callbacks.OnProcessData != nil {
			return (*callbacks.OnProcessData)(tick, tradedTotal)
		}

		return nil
	}

	output, err := Backtest(ctx, b.config, feed, b.log, onTick)
	if err != nil {
		return types.RunStats{}, err
	}

	output.ID = runID
	output.Stats.ID = runID
	output.Stats.DataPath = dataPath

	if dropped := feed.Dropped(); dropped > 0 {
		b.log.Info("Candles outside the price range skipped",
			zap.String("data", dataPath),
			zap.Int("dropped", dropped),
		)
	}

	if err := b.state.Persist(runID, output); err != nil {
		return types.RunStats{}, err
	}

	if err := b.replayRun(runID, output, callbacks); err != nil {
		return types.RunStats{}, err
	}

	if resultFolderPath != "" {
		if err := b.writeResults(resultFolderPath, output); err != nil {
			return types.RunStats{}, err
		}
	}

	if err := b.state.Cleanup(); err != nil {
		return types.RunStats{}, err
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(runID, index, dataPath, resultFolderPath, output.Stats)
	}

	return output.Stats, nil
}

// replayRun reads a persisted run back. OnTransition receives the stored rows,
// carrying the IDs written to transitions.parquet, and the reported fee total is
// the stored sum.
func (b *BacktestEngineV1) replayRun(runID string, output *RunOutput, callbacks engine.LifecycleCallbacks) error {
	stored, err := b.state.CountBalances(runID)
	if err != nil {
		return err
	}

	if stored != len(output.Records) {
		return errors.Newf(errors.ErrCodeStateFailed, "stored %d balance records for run %s, expected %d", stored, runID, len(output.Records))
	}

	fees, err := b.state.GetTotalFees(runID)
	if err != nil {
		return err
	}

	output.Stats.Pnl.TotalFees = fees

	if callbacks.OnTransition == nil {
		return nil
	}

	transitions, err := b.state.GetTransitions(runID)
	if err != nil {
		return err
	}

	for _, transition := range transitions {
		(*callbacks.OnTransition)(runID, transition)
	}

	return nil
}

func (b *BacktestEngineV1) writeResults(resultFolderPath string, output *RunOutput) error {
	if err := WriteResults(resultFolderPath, output); err != nil {
		return err
	}

	return b.state.Write(resultFolderPath)
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) strategyName() string {
	if b.config.Strategy.UsesHull() {
		return fmt.Sprintf("%s_%d", b.config.Strategy, b.config.Period)
	}

	return string(b.config.Strategy)
}

// getResultFolder returns <results>/<data file without extension>_<strategy>, or "" when writing is disabled.
func (b *BacktestEngineV1) getResultFolder(dataPath string) string {
	if b.resultsFolder == "" {
		return ""
	}

	base := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(b.resultsFolder, fmt.Sprintf("%s_%s", base, b.strategyName()))
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized || b.state == nil {
		return errors.New(errors.ErrCodeBacktestNotInitialized, "engine is not initialized")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeFeedUnavailable, "no data paths loaded")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeFeedUnavailable, "no datasource set")
	}

	return nil
}

func (b *BacktestEngineV1) logError(msg string, fields ...zap.Field) {
	if b.log != nil {
		b.log.Error(msg, fields...)
	}
}
