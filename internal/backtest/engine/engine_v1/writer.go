package engine

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

const (
	statsFileName       = "stats.yaml"
	balancesFileName    = "balances.csv"
	transitionsFileName = "transitions.csv"
)

// WriteResults writes stats.yaml, balances.csv and transitions.csv of a run into folder.
func WriteResults(folder string, output *RunOutput) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create result folder", err)
	}

	if err := types.WriteRunStats(filepath.Join(folder, statsFileName), []types.RunStats{output.Stats}); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write stats", err)
	}

	records := output.Records
	if records == nil {
		records = []types.BalanceRecord{}
	}

	if err := writeCSV(filepath.Join(folder, balancesFileName), &records); err != nil {
		return err
	}

	transitions := output.Transitions
	if transitions == nil {
		transitions = []types.Transition{}
	}

	return writeCSV(filepath.Join(folder, transitionsFileName), &transitions)
}

func writeCSV(path string, rows any) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
