package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/urfave/cli/v3"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

const (
	readerDuckDB = "duckdb"
	readerCSV    = "csv"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// newDataSource picks the reader. The DuckDB reader handles parquet and CSV;
// the CSV reader loads plain CSV files without DuckDB.
func newDataSource(reader string, log *logger.Logger) (datasource.DataSource, error) {
	switch reader {
	case readerDuckDB:
		return datasource.NewDataSource(":memory:", log)
	case readerCSV:
		return datasource.NewCSVDataSource(log), nil
	default:
		return nil, fmt.Errorf("unknown reader %q, expected %s or %s", reader, readerDuckDB, readerCSV)
	}
}

// parseFloats reads a comma separated list such as "0,0.001,0.0025".
func parseFloats(raw string) ([]float64, error) {
	var values []float64

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", part, err)
		}

		values = append(values, value)
	}

	return values, nil
}

func formatStats(stats types.RunStats) string {
	return fmt.Sprintf("%s %s\n  final %.2f USD (%+.2f%%), baseline %.2f USD\n  buys %d, sells %d, blocked %d, order frequency %.2f, max drawdown %.2f%%",
		titleStyle.Render(fmt.Sprintf("%s period %d fee %v", stats.Strategy, stats.Period, stats.Fee)),
		faintStyle.Render(filepath.Base(stats.DataPath)),
		stats.Pnl.FinalUSD, stats.Pnl.Return*100, stats.Pnl.BaselineUSD,
		stats.Result.NumberOfBuys, stats.Result.NumberOfSells, stats.Result.BlockedSells,
		stats.Result.OrderFrequency, stats.Result.MaxDrawdown*100,
	)
}
