package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/indicator"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/urfave/cli/v3"
)

func hullCommand() *cli.Command {
	return &cli.Command{
		Name:      "hull",
		Usage:     "Print a moving average series over close prices",
		ArgsUsage: "[close ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "indicator",
				Aliases: []string{"i"},
				Usage:   "Indicator name (wma or hma)",
				Value:   string(types.IndicatorTypeHMA),
			},
			&cli.IntFlag{
				Name:     "period",
				Aliases:  []string{"p"},
				Usage:    "Indicator period",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Read closes from a market data file instead of the arguments",
			},
		},
		Action: hullAction,
	}
}

func hullAction(ctx context.Context, cmd *cli.Command) error {
	closes, err := parseFloats(strings.Join(cmd.Args().Slice(), ","))
	if err != nil {
		return err
	}

	if path := cmd.String("data"); path != "" {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}

		dataSource, err := newDataSource(readerDuckDB, log)
		if err != nil {
			return err
		}
		defer dataSource.Close()

		if err := dataSource.Initialize(path); err != nil {
			return err
		}

		candles, err := datasource.LoadAll(dataSource, optional.None[time.Time](), optional.None[time.Time]())
		if err != nil {
			return err
		}

		closes = closes[:0]
		for _, candle := range candles {
			closes = append(closes, candle.Close)
		}
	}

	registry := indicator.NewDefaultIndicatorRegistry()

	ind, err := registry.NewIndicator(types.IndicatorType(cmd.String("indicator")), int(cmd.Int("period")))
	if err != nil {
		return err
	}

	series, err := ind.Series(closes)
	if err != nil {
		return err
	}

	// the series is aligned to the end of closes
	offset := len(closes) - len(series)
	for i, value := range series {
		fmt.Printf("%d\t%.6f\t%.6f\n", offset+i, closes[offset+i], value)
	}

	return nil
}
