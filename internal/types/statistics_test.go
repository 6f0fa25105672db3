package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) TestWriteRunStats() {
	stats := []RunStats{
		{
			ID:       "run-1",
			Strategy: StrategySimpleHull,
			Period:   14,
			Fee:      0.001,
			Result: RunResultStats{
				Ticks:          100,
				NumberOfBuys:   5,
				NumberOfSells:  5,
				OrderFrequency: 9.9,
			},
			Pnl: RunPnl{
				InitialUSD:  1000,
				FinalUSD:    1100,
				PnL:         100,
				Return:      0.1,
				BaselineUSD: 1050,
			},
		},
	}

	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	suite.NoError(WriteRunStats(filePath, stats))

	data, err := os.ReadFile(filePath)
	suite.NoError(err)

	var read []RunStats
	suite.NoError(yaml.Unmarshal(data, &read))
	suite.Require().Len(read, 1)
	suite.Equal(StrategySimpleHull, read[0].Strategy)
	suite.Equal(1100.0, read[0].Pnl.FinalUSD)
	suite.Equal(5, read[0].Result.NumberOfSells)
}

func (suite *StatisticsTestSuite) TestWriteRunStatsInvalidPath() {
	err := WriteRunStats(filepath.Join(suite.tempDir, "missing", "stats.yaml"), nil)
	suite.Error(err)
}
