package main

import (
	"context"
	"fmt"
	"io"
	"os"

	engine_types "github.com/rxtech-lab/bitbroker/internal/backtest/engine"
	engine "github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one configured backtest per data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML engine configuration",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Market data file or glob (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Folder receiving the results. Empty disables writing",
			},
			&cli.StringFlag{
				Name:  "reader",
				Usage: fmt.Sprintf("Data reader (%s or %s)", readerDuckDB, readerCSV),
				Value: readerDuckDB,
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	backtest := engine.NewBacktestEngineV1WithLogger(log)
	if err := backtest.Initialize(string(config)); err != nil {
		return err
	}

	if err := backtest.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if err := backtest.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	dataSource, err := newDataSource(cmd.String("reader"), log)
	if err != nil {
		return err
	}
	defer dataSource.Close()

	if err := backtest.SetDataSource(dataSource); err != nil {
		return err
	}

	progress := &runProgress{writer: os.Stderr}

	onRunStart := engine_types.OnRunStartCallback(progress.start)
	onProcessData := engine_types.OnProcessDataCallback(progress.advance)
	onRunEnd := engine_types.OnRunEndCallback(func(runID string, dataFileIndex int, dataFilePath string, resultFolderPath string, stats types.RunStats) {
		progress.finish()

		fmt.Println(formatStats(stats))

		if resultFolderPath != "" {
			fmt.Println(faintStyle.Render("  results written to " + resultFolderPath))
		}
	})

	return backtest.Run(ctx, engine_types.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
}

// runProgress draws one bar per run, sized by the traded candle count.
type runProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

func (p *runProgress) start(runID string, strategyName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
	p.bar = progressbar.NewOptions(totalDataPoints,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(strategyName),
		progressbar.OptionShowCount(),
	)

	return nil
}

func (p *runProgress) advance(current int, total int) error {
	if p.bar == nil {
		return nil
	}

	return p.bar.Set(current)
}

func (p *runProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
