package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/bitbroker/mocks"
	"github.com/rxtech-lab/bitbroker/pkg/marketdata/writer"
	"github.com/urfave/cli/v3"
)

func generateCommand() *cli.Command {
	defaults := mocks.DefaultConfig()

	return &cli.Command{
		Name:  "generate",
		Usage: "Write synthetic BTC/USD candles to a parquet or CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file, .parquet or .csv",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of daily candles",
				Value: 1000,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 42,
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "Date of the first candle (YYYY-MM-DD)",
				Value: defaults.StartTime.Format(time.DateOnly),
			},
			&cli.FloatFlag{
				Name:  "price",
				Usage: "Initial price",
				Value: defaults.InitialPrice,
			},
			&cli.FloatFlag{
				Name:  "volatility",
				Usage: "Per candle volatility",
				Value: defaults.Volatility,
			},
			&cli.FloatFlag{
				Name:  "trend",
				Usage: "Total drift over the series",
				Value: defaults.Trend,
			},
			&cli.BoolFlag{
				Name:  "signals",
				Usage: "Fill score and prediction columns",
			},
		},
		Action: generateAction,
	}
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	start, err := time.Parse(time.DateOnly, cmd.String("start"))
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	config := mocks.DefaultConfig()
	config.Count = int(cmd.Int("count"))
	config.StartTime = start
	config.InitialPrice = cmd.Float("price")
	config.Volatility = cmd.Float("volatility")
	config.Trend = cmd.Float("trend")
	config.WithSignals = cmd.Bool("signals")

	if config.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", config.Count)
	}

	data := mocks.NewDataGenerator(int64(cmd.Int("seed"))).Generate(config)

	path, err := writer.WriteAll(cmd.String("output"), data, log)
	if err != nil {
		return err
	}

	fmt.Println(faintStyle.Render(fmt.Sprintf("%d candles written to %s", len(data), path)))

	return nil
}
