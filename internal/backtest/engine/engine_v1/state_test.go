package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/stretchr/testify/suite"
)

// BacktestStateTestSuite is a test suite for BacktestState
type BacktestStateTestSuite struct {
	suite.Suite
	state  *BacktestState
	logger *logger.Logger
}

func (suite *BacktestStateTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()

	var err error
	suite.state, err = NewBacktestState(suite.logger)
	suite.Require().NoError(err)
	suite.Require().NotNil(suite.state)
}

func (suite *BacktestStateTestSuite) TearDownSuite() {
	if suite.state != nil {
		suite.state.Close()
	}
}

func (suite *BacktestStateTestSuite) SetupTest() {
	suite.Require().NoError(suite.state.Initialize())
}

func (suite *BacktestStateTestSuite) TearDownTest() {
	suite.Require().NoError(suite.state.Cleanup())
}

func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func (suite *BacktestStateTestSuite) sampleOutput() *RunOutput {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	holding := types.Balance{USD: 0, BTC: 9.9}
	cash := types.Balance{USD: 1960.2, BTC: 0}

	return &RunOutput{
		Records: []types.BalanceRecord{
			types.NewBalanceRecord(1, day, 100, holding),
			types.NewBalanceRecord(2, day.Add(24*time.Hour), 200, cash),
		},
		Transitions: []types.Transition{
			{
				ID:     "buy-1",
				Tick:   1,
				Time:   day,
				Side:   types.DesireBuy,
				Price:  100,
				Before: types.NewInitialBalance(1000),
				After:  holding,
				Fee:    10,
			},
			{
				ID:     "sell-2",
				Tick:   2,
				Time:   day.Add(24 * time.Hour),
				Side:   types.DesireSell,
				Price:  200,
				Before: holding,
				After:  cash,
				Fee:    19.8,
				Forced: true,
			},
		},
	}
}

func (suite *BacktestStateTestSuite) TestPersistAndQuery() {
	suite.Require().NoError(suite.state.Persist("run-1", suite.sampleOutput()))

	transitions, err := suite.state.GetTransitions("run-1")
	suite.Require().NoError(err)
	suite.Require().Len(transitions, 2)

	suite.Equal("buy-1", transitions[0].ID)
	suite.Equal(types.DesireBuy, transitions[0].Side)
	suite.Equal(1000.0, transitions[0].Before.USD)
	suite.Equal(9.9, transitions[0].After.BTC)
	suite.True(transitions[0].Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	suite.Equal(types.DesireSell, transitions[1].Side)
	suite.True(transitions[1].Forced)
	suite.Equal(1960.2, transitions[1].After.USD)

	fees, err := suite.state.GetTotalFees("run-1")
	suite.Require().NoError(err)
	suite.InDelta(29.8, fees, 1e-9)

	count, err := suite.state.CountBalances("run-1")
	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func (suite *BacktestStateTestSuite) TestRunsAreIsolated() {
	suite.Require().NoError(suite.state.Persist("run-1", suite.sampleOutput()))

	transitions, err := suite.state.GetTransitions("run-2")
	suite.Require().NoError(err)
	suite.Empty(transitions)

	fees, err := suite.state.GetTotalFees("run-2")
	suite.Require().NoError(err)
	suite.Zero(fees)
}

func (suite *BacktestStateTestSuite) TestPersistGeneratesMissingIDs() {
	output := suite.sampleOutput()
	output.Transitions[0].ID = ""
	output.Transitions[1].ID = ""

	suite.Require().NoError(suite.state.Persist("run-1", output))

	transitions, err := suite.state.GetTransitions("run-1")
	suite.Require().NoError(err)
	suite.Require().Len(transitions, 2)
	suite.NotEmpty(transitions[0].ID)
	suite.NotEqual(transitions[0].ID, transitions[1].ID)
}

func (suite *BacktestStateTestSuite) TestCleanup() {
	suite.Require().NoError(suite.state.Persist("run-1", suite.sampleOutput()))
	suite.Require().NoError(suite.state.Cleanup())

	count, err := suite.state.CountBalances("run-1")
	suite.Require().NoError(err)
	suite.Zero(count)
}

func (suite *BacktestStateTestSuite) TestWrite() {
	tmpDir := suite.T().TempDir()

	suite.Require().NoError(suite.state.Persist("run-1", suite.sampleOutput()))
	suite.Require().NoError(suite.state.Write(tmpDir))

	for _, name := range []string{"balances.parquet", "transitions.parquet"} {
		info, err := os.Stat(filepath.Join(tmpDir, name))
		suite.Require().NoError(err, name)
		suite.Greater(info.Size(), int64(0), name)
	}
}
