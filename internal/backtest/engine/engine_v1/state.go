package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"go.uber.org/zap"
)

// BacktestState keeps the balances and transitions of finished runs in an
// in-memory DuckDB database so they can be queried and exported.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeStateFailed, "failed to open state database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the balances and transitions tables
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS balances (
			run_id TEXT,
			tick INTEGER,
			time TIMESTAMP,
			price DOUBLE,
			usd DOUBLE,
			btc DOUBLE,
			value_usd DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStateFailed, "failed to create balances table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			tick INTEGER,
			time TIMESTAMP,
			side TEXT,
			price DOUBLE,
			usd_before DOUBLE,
			btc_before DOUBLE,
			usd_after DOUBLE,
			btc_after DOUBLE,
			fee DOUBLE,
			forced BOOLEAN
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStateFailed, "failed to create transitions table", err)
	}

	return nil
}

// Persist stores every balance record and transition of a run in one transaction.
func (b *BacktestState) Persist(runID string, output *RunOutput) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStateFailed, "failed to begin transaction", err)
	}

	for _, record := range output.Records {
		_, err := b.sq.
			Insert("balances").
			Columns("run_id", "tick", "time", "price", "usd", "btc", "value_usd").
			Values(runID, record.Tick, record.Time, record.Price, record.USD, record.BTC, record.ValueUSD).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStateFailed, "failed to insert balance", err)
		}
	}

	for _, transition := range output.Transitions {
		id := transition.ID
		if id == "" {
			id = uuid.New().String()
		}

		_, err := b.sq.
			Insert("transitions").
			Columns(
				"id", "run_id", "tick", "time", "side", "price",
				"usd_before", "btc_before", "usd_after", "btc_after", "fee", "forced",
			).
			Values(
				id, runID, transition.Tick, transition.Time, string(transition.Side), transition.Price,
				transition.Before.USD, transition.Before.BTC, transition.After.USD, transition.After.BTC,
				transition.Fee, transition.Forced,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStateFailed, "failed to insert transition", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStateFailed, "failed to commit run", err)
	}

	return nil
}

// GetTransitions returns the transitions of a run in tick order.
func (b *BacktestState) GetTransitions(runID string) ([]types.Transition, error) {
	rows, err := b.sq.
		Select("id", "tick", "time", "side", "price", "usd_before", "btc_before", "usd_after", "btc_after", "fee", "forced").
		From("transitions").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("tick ASC", "forced ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStateFailed, "failed to query transitions", err)
	}
	defer rows.Close()

	var transitions []types.Transition

	for rows.Next() {
		var (
			transition types.Transition
			side       string
			at         sql.NullTime
		)

		err := rows.Scan(
			&transition.ID, &transition.Tick, &at, &side, &transition.Price,
			&transition.Before.USD, &transition.Before.BTC, &transition.After.USD, &transition.After.BTC,
			&transition.Fee, &transition.Forced,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStateFailed, "failed to scan transition", err)
		}

		transition.Side = types.Desire(side)
		transition.Time = at.Time
		transitions = append(transitions, transition)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStateFailed, "failed to read transitions", err)
	}

	return transitions, nil
}

// GetTotalFees sums the commission paid over a run.
func (b *BacktestState) GetTotalFees(runID string) (float64, error) {
	var total sql.NullFloat64

	err := b.sq.
		Select("SUM(fee)").
		From("transitions").
		Where(squirrel.Eq{"run_id": runID}).
		RunWith(b.db).
		QueryRow().
		Scan(&total)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStateFailed, "failed to sum fees", err)
	}

	return total.Float64, nil
}

// CountBalances returns the number of balance records stored for a run.
func (b *BacktestState) CountBalances(runID string) (int, error) {
	var count int

	err := b.sq.
		Select("COUNT(*)").
		From("balances").
		Where(squirrel.Eq{"run_id": runID}).
		RunWith(b.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStateFailed, "failed to count balances", err)
	}

	return count, nil
}

// Cleanup resets the database state
func (b *BacktestState) Cleanup() error {
	// squirrel has no DROP support
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS balances;
		DROP TABLE IF EXISTS transitions;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStateFailed, "failed to cleanup tables", err)
	}

	return b.Initialize()
}

// Write exports both tables to Parquet files in the specified directory
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create directory", err)
	}

	for _, table := range []string{"balances", "transitions"} {
		target := filepath.Join(path, table+".parquet")

		// squirrel has no COPY support
		_, err := b.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(target, "'", "''")))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export %s to Parquet", table)
		}
	}

	b.logger.Debug("Exported run state to Parquet files", zap.String("path", path))

	return nil
}

// Close releases the database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}
