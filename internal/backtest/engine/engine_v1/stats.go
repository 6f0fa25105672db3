package engine

import (
	"time"

	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/shopspring/decimal"
)

// CalculateStats summarizes a finished run.
func CalculateStats(config BacktestEngineV1Config, output *RunOutput) types.RunStats {
	initial := decimal.NewFromFloat(config.InitialUSD)
	final := decimal.NewFromFloat(output.Final.USD)
	pnl := final.Sub(initial)

	result := types.RunResultStats{
		Ticks:          len(output.Records),
		BlockedSells:   output.BlockedSells,
		OrderFrequency: output.Balances.OrderFrequency(),
		MaxDrawdown:    MaxDrawdown(config.InitialUSD, output.Records),
	}

	totalFees := decimal.Zero

	for _, transition := range output.Transitions {
		switch transition.Side {
		case types.DesireBuy:
			result.NumberOfBuys++
		case types.DesireSell:
			result.NumberOfSells++
		}

		totalFees = totalFees.Add(decimal.NewFromFloat(transition.Fee))
	}

	runPnl := types.RunPnl{
		InitialUSD:  config.InitialUSD,
		FinalUSD:    output.Final.USD,
		PnL:         pnl.InexactFloat64(),
		TotalFees:   totalFees.InexactFloat64(),
		BaselineUSD: BaselineUSD(config.InitialUSD, output.Records),
	}

	if !initial.IsZero() {
		runPnl.Return = pnl.Div(initial).InexactFloat64()
	}

	return types.RunStats{
		ID:        output.ID,
		Timestamp: time.Now(),
		Strategy:  config.Strategy,
		Period:    config.Period,
		Fee:       config.Fee,
		NoLoss:    config.NoLoss,
		Result:    result,
		Pnl:       runPnl,
	}
}

// BaselineUSD is what buying at the first traded close and holding to the last would end with.
func BaselineUSD(initialUSD float64, records []types.BalanceRecord) float64 {
	if len(records) == 0 || records[0].Price == 0 {
		return initialUSD
	}

	first := decimal.NewFromFloat(records[0].Price)
	last := decimal.NewFromFloat(records[len(records)-1].Price)

	return last.Div(first).Mul(decimal.NewFromFloat(initialUSD)).InexactFloat64()
}

// MaxDrawdown returns the largest relative fall of the mark-to-market value from
// a previous peak, the initial cash included.
func MaxDrawdown(initialUSD float64, records []types.BalanceRecord) float64 {
	peak := decimal.NewFromFloat(initialUSD)
	worst := decimal.Zero

	for _, record := range records {
		value := decimal.NewFromFloat(record.ValueUSD)
		if value.GreaterThan(peak) {
			peak = value

			continue
		}

		if peak.IsZero() {
			continue
		}

		drawdown := peak.Sub(value).Div(peak)
		if drawdown.GreaterThan(worst) {
			worst = drawdown
		}
	}

	return worst.InexactFloat64()
}
