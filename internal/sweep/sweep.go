// Package sweep runs one strategy over a grid of periods and fees and renders the results.
package sweep

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/moznion/go-optional"
	engine "github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of runs in flight.
const DefaultConcurrency = 4

type Options struct {
	// Base is copied for every run; Period and Fee are overwritten.
	Base    engine.BacktestEngineV1Config
	Periods []int
	Fees    []float64
	// Concurrency <= 0 selects DefaultConcurrency.
	Concurrency int
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
}

// Result is one finished run of the grid.
type Result struct {
	Period int
	Fee    float64
	Stats  types.RunStats
}

type Report struct {
	Strategy   types.StrategyKind
	InitialUSD float64
	// BaselineUSD is a fee-free buy at the first candle held to the last.
	BaselineUSD float64
	// Results are sorted by period, then fee.
	Results []Result
}

// Periods expands an inclusive range. step must be positive.
func Periods(from, to, step int) ([]int, error) {
	if step <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "step must be positive, got %d", step)
	}

	if from > to {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "from %d is above to %d", from, to)
	}

	periods := make([]int, 0, (to-from)/step+1)
	for p := from; p <= to; p += step {
		periods = append(periods, p)
	}

	return periods, nil
}

// Run backtests every period and fee combination over candles. Every run gets
// its own feed, strategy and ledger; only the candle slice is shared.
func Run(ctx context.Context, candles []types.MarketData, opts Options, log *logger.Logger) (*Report, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if len(opts.Periods) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no periods to sweep")
	}

	fees := opts.Fees
	if len(fees) == 0 {
		fees = []float64{opts.Base.Fee}
	}

	configs := make([]engine.BacktestEngineV1Config, 0, len(opts.Periods)*len(fees))

	for _, period := range opts.Periods {
		for _, fee := range fees {
			config := opts.Base
			config.Period = period
			config.Fee = fee

			if err := config.Validate(); err != nil {
				return nil, err
			}

			configs = append(configs, config)
		}
	}

	baseline, err := runBaseline(ctx, newFeed(candles, opts.Base.PriceRange()), opts.Base.InitialUSD, log)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	bar := newProgressBar(opts.Progress, len(configs))
	results := make([]Result, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, config := range configs {
		g.Go(func() error {
			output, err := engine.Backtest(gctx, config, newFeed(candles, config.PriceRange()), log, nil)
			if err != nil {
				return errors.Wrapf(errors.GetCode(err), err, "run with period %d and fee %v failed", config.Period, config.Fee)
			}

			results[i] = Result{Period: config.Period, Fee: config.Fee, Stats: output.Stats}

			log.Debug("Sweep run finished",
				zap.Int("period", config.Period),
				zap.Float64("fee", config.Fee),
				zap.Float64("final_usd", output.Stats.Pnl.FinalUSD),
			)

			return bar.Add(1)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Period != results[j].Period {
			return results[i].Period < results[j].Period
		}

		return results[i].Fee < results[j].Fee
	})

	return &Report{
		Strategy:    opts.Base.Strategy,
		InitialUSD:  opts.Base.InitialUSD,
		BaselineUSD: baseline,
		Results:     results,
	}, nil
}

// newFeed gives a run its own cursor over the shared candles.
func newFeed(candles []types.MarketData, bounds datasource.PriceRange) *datasource.FilteredFeed {
	return datasource.NewFilteredFeed(datasource.NewSliceFeed(candles), bounds)
}

func runBaseline(ctx context.Context, feed *datasource.FilteredFeed, initialUSD float64, log *logger.Logger) (float64, error) {
	config := engine.TestConfig(types.StrategyAlwaysBuy, 1, 0)
	config.InitialUSD = initialUSD
	config.Warmup = optional.Some(0)
	config.WarmupSkip = optional.Some(0)

	output, err := engine.Backtest(ctx, config, feed, log, nil)
	if err != nil {
		return 0, err
	}

	return output.Final.USD, nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("sweep"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	baselineStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// Rows returns the table body, the BASELINE row last.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Results)+1)

	for _, result := range r.Results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", result.Period),
			fmt.Sprintf("%.4f", result.Fee),
			fmt.Sprintf("%.2f", result.Stats.Pnl.FinalUSD),
			fmt.Sprintf("%.2f%%", result.Stats.Pnl.Return*100),
			fmt.Sprintf("%.2f", result.Stats.Result.OrderFrequency),
			fmt.Sprintf("%d", result.Stats.Result.BlockedSells),
			fmt.Sprintf("%.2f%%", result.Stats.Result.MaxDrawdown*100),
		})
	}

	baselineReturn := 0.0
	if r.InitialUSD != 0 {
		baselineReturn = (r.BaselineUSD - r.InitialUSD) / r.InitialUSD
	}

	return append(rows, []string{
		"BASELINE", "-",
		fmt.Sprintf("%.2f", r.BaselineUSD),
		fmt.Sprintf("%.2f%%", baselineReturn*100),
		"-", "-", "-",
	})
}

// Table renders the report.
func (r *Report) Table() string {
	rows := r.Rows()
	baselineRow := len(rows) - 1

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("PERIOD", "FEE", "FINAL USD", "RETURN", "ORDER FREQ", "BLOCKED", "MAX DD").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == baselineRow:
				return baselineStyle
			default:
				return cellStyle
			}
		})

	return t.String()
}
