package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine"
	"github.com/rxtech-lab/bitbroker/internal/ledger"
	"github.com/rxtech-lab/bitbroker/internal/ledger/commission_fee"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/policy"
	"github.com/rxtech-lab/bitbroker/internal/strategy"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"go.uber.org/zap"
)

// TickCallback is called after every traded candle.
type TickCallback func(tick int, data types.MarketData, desire types.Desire, result policy.Result) error

// RunOutput is everything a finished run produced.
type RunOutput struct {
	ID           string
	StrategyName string
	// SeedSize is the number of warm-up candles at the start of Prices.
	SeedSize     int
	Prices       *types.PriceHistory
	Balances     *types.BalanceHistory
	Records      []types.BalanceRecord
	Transitions  []types.Transition
	BlockedSells int
	// Final is the balance after the forced liquidation.
	Final types.Balance
	Stats types.RunStats
}

// Simulator drives one run: candle in, desire out, policy applied, balance recorded.
// It is not safe for concurrent use; every run owns its own Simulator.
type Simulator struct {
	strategy    strategy.Strategy
	policy      policy.ActPolicy
	log         *logger.Logger
	prices      *types.PriceHistory
	balances    *types.BalanceHistory
	balance     types.Balance
	seedSize    int
	tick        int
	lastData    types.MarketData
	records     []types.BalanceRecord
	transitions []types.Transition
	blocked     int
	final       types.Balance
	liquidated  bool
	// err is the first Step failure. Strategy state may have advanced past the
	// balance history by then, so the run accepts no further candles.
	err error
}

func NewSimulator(s strategy.Strategy, p policy.ActPolicy, seed []types.MarketData, initial types.Balance, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	sim := &Simulator{
		strategy: s,
		policy:   p,
		log:      log,
		prices:   types.NewPriceHistory(seed),
		balances: types.NewBalanceHistory(initial),
		balance:  initial,
		seedSize: len(seed),
	}

	if len(seed) > 0 {
		sim.lastData = seed[len(seed)-1]
	}

	return sim
}

// Step processes one candle. Candles failing MarketData.Validate are rejected
// before they reach the price history. Any error ends the run: later calls to
// Step and Liquidate return it again.
func (s *Simulator) Step(data types.MarketData) (types.Desire, policy.Result, error) {
	if s.liquidated {
		return types.DesireNone, policy.Result{}, errors.New(errors.ErrCodeLedgerInvariant, "run is already liquidated")
	}

	if s.err != nil {
		return types.DesireNone, policy.Result{}, s.err
	}

	if err := data.Validate(); err != nil {
		return types.DesireNone, policy.Result{}, s.fail(err)
	}

	s.prices.Append(data)
	s.lastData = data

	desire, err := s.strategy.ComputeDesire(s.prices, data)
	if err != nil {
		return types.DesireNone, policy.Result{}, s.fail(err)
	}

	result, err := s.policy.Act(desire, s.balance, data.Close, s.balances)
	if err != nil {
		return desire, result, s.fail(err)
	}

	s.tick++

	switch {
	case result.Executed():
		s.recordTransition(desire, data, result, false)
	case result.Outcome == policy.OutcomeBlocked:
		s.blocked++
		s.log.Debug("Sell blocked by no-loss guard",
			zap.Int("tick", s.tick),
			zap.Float64("price", data.Close),
		)
	}

	s.balance = result.Balance
	s.balances.Append(s.balance)
	s.records = append(s.records, types.NewBalanceRecord(s.tick, data.Time, data.Close, s.balance))

	return desire, result, nil
}

func (s *Simulator) fail(err error) error {
	s.err = err
	s.log.Debug("Run failed", zap.Int("tick", s.tick+1), zap.Error(err))

	return err
}

func (s *Simulator) recordTransition(side types.Desire, data types.MarketData, result policy.Result, forced bool) {
	transition := types.Transition{
		ID:     uuid.New().String(),
		Tick:   s.tick,
		Time:   data.Time,
		Side:   side,
		Price:  data.Close,
		Before: s.balance,
		After:  result.Balance,
		Fee:    result.Fee,
		Forced: forced,
	}
	s.transitions = append(s.transitions, transition)

	s.log.Debug("Transition executed",
		zap.Int("tick", transition.Tick),
		zap.String("side", string(transition.Side)),
		zap.Float64("price", transition.Price),
		zap.Float64("usd", transition.After.USD),
		zap.Float64("btc", transition.After.BTC),
		zap.Bool("forced", forced),
	)
}

// Run steps through feed until it is exhausted. Exhaustion is not an error.
func (s *Simulator) Run(ctx context.Context, feed engine.Feed, onTick TickCallback) error {
	for {
		next, err := feed.Next(ctx)
		if err != nil {
			return err
		}

		if next.IsNone() {
			return nil
		}

		data := next.Unwrap()

		desire, result, err := s.Step(data)
		if err != nil {
			return err
		}

		if onTick != nil {
			if err := onTick(s.tick, data, desire, result); err != nil {
				return err
			}
		}
	}
}

// Liquidate sells any remaining asset at the last seen price, bypassing the
// no-loss guard. The forced sale is not appended to the balance history.
func (s *Simulator) Liquidate() (policy.Result, error) {
	if s.liquidated {
		return policy.Result{Balance: s.final, Outcome: policy.OutcomeNoop}, nil
	}

	if s.err != nil {
		return policy.Result{}, s.err
	}

	result, err := s.policy.Liquidate(s.balance, s.lastData.Close)
	if err != nil {
		return result, err
	}

	if result.Executed() {
		s.recordTransition(types.DesireSell, s.lastData, result, true)
	}

	s.final = result.Balance
	s.liquidated = true

	s.log.Info("Run liquidated",
		zap.String("strategy", s.strategy.Name()),
		zap.Int("ticks", s.tick),
		zap.Float64("price", s.lastData.Close),
		zap.Float64("final_usd", s.final.USD),
	)

	return result, nil
}

// Balance returns the current balance.
func (s *Simulator) Balance() types.Balance {
	return s.balance
}

// Ticks returns the number of traded candles.
func (s *Simulator) Ticks() int {
	return s.tick
}

// Output snapshots the run. Call it after Liquidate.
func (s *Simulator) Output() *RunOutput {
	final := s.final
	if !s.liquidated {
		final = s.balance
	}

	return &RunOutput{
		StrategyName: s.strategy.Name(),
		SeedSize:     s.seedSize,
		Prices:       s.prices,
		Balances:     s.balances,
		Records:      s.records,
		Transitions:  s.transitions,
		BlockedSells: s.blocked,
		Final:        final,
	}
}

// readWarmup pulls the seed window and then discards skip candles.
func readWarmup(ctx context.Context, feed engine.Feed, size int, skip int) ([]types.MarketData, error) {
	seed := make([]types.MarketData, 0, size)

	for len(seed) < size {
		next, err := feed.Next(ctx)
		if err != nil {
			return nil, err
		}

		if next.IsNone() {
			return nil, errors.NewInsufficientHistoryError(size, len(seed), "feed exhausted during warm-up")
		}

		data := next.Unwrap()
		if err := data.Validate(); err != nil {
			return nil, err
		}

		seed = append(seed, data)
	}

	for i := 0; i < skip; i++ {
		next, err := feed.Next(ctx)
		if err != nil {
			return nil, err
		}

		if next.IsNone() {
			break
		}
	}

	return seed, nil
}

// Backtest runs one configured simulation over feed, liquidates and computes statistics.
func Backtest(ctx context.Context, config BacktestEngineV1Config, feed engine.Feed, log *logger.Logger, onTick TickCallback) (*RunOutput, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	seed, err := readWarmup(ctx, feed, config.WarmupSize(), config.WarmupSkipSize())
	if err != nil {
		return nil, err
	}

	closes := make([]float64, 0, len(seed))
	for _, data := range seed {
		closes = append(closes, data.Close)
	}

	s, err := strategy.New(config.Strategy, config.StrategyParams(), closes)
	if err != nil {
		return nil, err
	}

	fee, err := commission_fee.GetCommissionFeeHandler(config.Broker, config.Fee)
	if err != nil {
		return nil, err
	}

	actPolicy := policy.New(ledger.NewLedger(fee), config.NoLoss, config.InitialUSD)
	sim := NewSimulator(s, actPolicy, seed, types.NewInitialBalance(config.InitialUSD), log)

	log.Debug("Run started",
		zap.String("strategy", s.Name()),
		zap.Int("warmup", len(seed)),
		zap.Float64("fee", config.Fee),
		zap.Bool("no_loss", config.NoLoss),
	)

	if err := sim.Run(ctx, feed, onTick); err != nil {
		return nil, err
	}

	if _, err := sim.Liquidate(); err != nil {
		return nil, err
	}

	output := sim.Output()
	output.ID = uuid.New().String()
	output.Stats = CalculateStats(config, output)
	output.Stats.ID = output.ID

	return output, nil
}
