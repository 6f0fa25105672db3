package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RunResultStats struct {
	// Number of ticks fed to the strategy, warm-up excluded.
	Ticks int `yaml:"ticks"`
	// Number of executed buys.
	NumberOfBuys int `yaml:"number_of_buys"`
	// Number of executed sells, final liquidation included.
	NumberOfSells int `yaml:"number_of_sells"`
	// Number of sells the no-loss guard refused.
	BlockedSells int `yaml:"blocked_sells"`
	// Distinct balances over all balance snapshots, in percent.
	OrderFrequency float64 `yaml:"order_frequency"`
	// Largest peak-to-trough fall of the mark-to-market USD series, as a fraction.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

type RunPnl struct {
	InitialUSD float64 `yaml:"initial_usd"`
	// USD after the forced final liquidation.
	FinalUSD float64 `yaml:"final_usd"`
	PnL      float64 `yaml:"pnl"`
	// Return on the initial cash, as a fraction.
	Return    float64 `yaml:"return"`
	TotalFees float64 `yaml:"total_fees"`
	// USD a buy-and-hold of the first traded candle would end with.
	BaselineUSD float64 `yaml:"baseline_usd"`
}

type RunStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time      `yaml:"timestamp" json:"timestamp"`
	Strategy  StrategyKind   `yaml:"strategy" json:"strategy"`
	Period    int            `yaml:"period" json:"period"`
	Fee       float64        `yaml:"fee" json:"fee"`
	NoLoss    bool           `yaml:"no_loss" json:"no_loss"`
	Result    RunResultStats `yaml:"result" json:"result"`
	Pnl       RunPnl         `yaml:"pnl" json:"pnl"`
	// DataPath is the market data file used for this run, if any.
	DataPath string `yaml:"data_path,omitempty" json:"data_path,omitempty"`
}

func WriteRunStats(path string, stats []RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}
