package main

import (
	"context"
	"fmt"
	"os"

	engine "github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/sweep"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/urfave/cli/v3"
)

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Backtest one strategy over a range of periods and fees",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Market data file (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Optional YAML engine configuration used as the base of every run",
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy variant, overrides the configuration",
			},
			&cli.IntFlag{
				Name:  "from",
				Usage: "First period",
				Value: 2,
			},
			&cli.IntFlag{
				Name:  "to",
				Usage: "Last period, inclusive",
				Value: 150,
			},
			&cli.IntFlag{
				Name:  "step",
				Usage: "Period increment",
				Value: 3,
			},
			&cli.StringFlag{
				Name:  "fees",
				Usage: "Comma separated fee rates, e.g. 0,0.001",
				Value: "0",
			},
			&cli.BoolFlag{
				Name:  "no-loss",
				Usage: "Refuse sells below the last cash balance",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Runs in flight",
				Value: sweep.DefaultConcurrency,
			},
			&cli.StringFlag{
				Name:  "reader",
				Usage: fmt.Sprintf("Data reader (%s or %s)", readerDuckDB, readerCSV),
				Value: readerDuckDB,
			},
		},
		Action: sweepAction,
	}
}

func sweepAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	base := engine.EmptyConfig()
	if path := cmd.String("config"); path != "" {
		if base, err = engine.LoadConfig(path); err != nil {
			return err
		}
	}

	if kind := cmd.String("strategy"); kind != "" {
		base.Strategy = types.StrategyKind(kind)
	}

	if cmd.Bool("no-loss") {
		base.NoLoss = true
	}

	periods, err := sweep.Periods(int(cmd.Int("from")), int(cmd.Int("to")), int(cmd.Int("step")))
	if err != nil {
		return err
	}

	fees, err := parseFloats(cmd.String("fees"))
	if err != nil {
		return err
	}

	dataSource, err := newDataSource(cmd.String("reader"), log)
	if err != nil {
		return err
	}
	defer dataSource.Close()

	if err := dataSource.Initialize(cmd.String("data")); err != nil {
		return err
	}

	candles, err := datasource.LoadAll(dataSource, base.StartTime, base.EndTime)
	if err != nil {
		return err
	}

	report, err := sweep.Run(ctx, candles, sweep.Options{
		Base:        base,
		Periods:     periods,
		Fees:        fees,
		Concurrency: int(cmd.Int("concurrency")),
		Progress:    os.Stderr,
	}, log)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s over %d candles", report.Strategy, len(candles))))
	fmt.Println(report.Table())

	return nil
}
