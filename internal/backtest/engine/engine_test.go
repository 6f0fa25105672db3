package engine_test

import (
	"context"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/bitbroker/internal/policy"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var (
	_ engine.Feed   = (*datasource.SliceFeed)(nil)
	_ engine.Feed   = (*datasource.DataSourceFeed)(nil)
	_ engine.Feed   = (*datasource.FilteredFeed)(nil)
	_ engine.Engine = engine_v1.NewBacktestEngineV1()
)

type EngineTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *EngineTestSuite) config() engine_v1.BacktestEngineV1Config {
	config := engine_v1.TestConfig(types.StrategyAlwaysBuy, 1, 0)
	config.Warmup = optional.Some(0)
	config.WarmupSkip = optional.Some(0)

	return config
}

func (suite *EngineTestSuite) TestExhaustedFeedEndsRun() {
	feed := mocks.NewMockFeed(suite.ctrl)
	gomock.InOrder(
		feed.EXPECT().Next(gomock.Any()).Return(optional.Some(types.NewCloseData(100)), nil),
		feed.EXPECT().Next(gomock.Any()).Return(optional.Some(types.NewCloseData(120)), nil),
		feed.EXPECT().Next(gomock.Any()).Return(optional.None[types.MarketData](), nil).Times(1),
	)

	output, err := engine_v1.Backtest(context.Background(), suite.config(), feed, nil, nil)
	suite.Require().NoError(err)

	suite.Len(output.Records, 2)
	suite.InDelta(1200.0, output.Final.USD, 1e-9)
}

func (suite *EngineTestSuite) TestEmptyFeedIsNotAnError() {
	feed := mocks.NewMockFeed(suite.ctrl)
	feed.EXPECT().Next(gomock.Any()).Return(optional.None[types.MarketData](), nil).Times(1)

	output, err := engine_v1.Backtest(context.Background(), suite.config(), feed, nil, nil)
	suite.Require().NoError(err)

	suite.Empty(output.Records)
	suite.Empty(output.Transitions)
	suite.Equal(types.DefaultInitialUSD, output.Final.USD)
}

func (suite *EngineTestSuite) TestProcessDataCallbackAbortsRun() {
	calls := 0
	onProcessData := engine.OnProcessDataCallback(func(current int, total int) error {
		calls++
		suite.Equal(calls, current)
		suite.Equal(3, total)

		if current == 2 {
			return context.Canceled
		}

		return nil
	})

	onTick := engine_v1.TickCallback(func(tick int, _ types.MarketData, _ types.Desire, _ policy.Result) error {
		return onProcessData(tick, 3)
	})

	feed := datasource.NewCloseFeed(100, 110, 120)

	_, err := engine_v1.Backtest(context.Background(), suite.config(), feed, nil, onTick)
	suite.ErrorIs(err, context.Canceled)
	suite.Equal(2, calls)
	suite.Equal(1, feed.Remaining())
}

func (suite *EngineTestSuite) TestLifecycleCallbacksAreOptional() {
	var callbacks engine.LifecycleCallbacks

	suite.Nil(callbacks.OnBacktestStart)
	suite.Nil(callbacks.OnBacktestEnd)
	suite.Nil(callbacks.OnRunStart)
	suite.Nil(callbacks.OnRunEnd)
	suite.Nil(callbacks.OnProcessData)
	suite.Nil(callbacks.OnTransition)
}

func (suite *EngineTestSuite) TestTransitionCallbackReceivesRunTransitions() {
	output, err := engine_v1.Backtest(context.Background(), suite.config(),
		datasource.NewCloseFeed(100, 110, 120), nil, nil)
	suite.Require().NoError(err)

	var received []types.Transition
	onTransition := engine.OnTransitionCallback(func(runID string, transition types.Transition) {
		suite.Equal(output.ID, runID)
		received = append(received, transition)
	})

	for _, transition := range output.Transitions {
		onTransition(output.ID, transition)
	}

	suite.Require().Len(received, 2)
	suite.Equal(types.DesireBuy, received[0].Side)
	suite.False(received[0].Forced)
	suite.Equal(types.DesireSell, received[1].Side)
	suite.True(received[1].Forced)
}
