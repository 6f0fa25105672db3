package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBWriter buffers candles in an in-memory DuckDB table and exports them
// as parquet or CSV, picked by the output file extension.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	logger     *logger.Logger
}

// NewDuckDBWriter creates a new DuckDBWriter exporting to outputPath.
func NewDuckDBWriter(outputPath string, logger *logger.Logger) MarketDataWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		logger:     logger,
	}
}

// exportFormat maps the output extension to a DuckDB COPY format clause.
func exportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "FORMAT PARQUET", nil
	case ".csv":
		return "FORMAT CSV, HEADER", nil
	default:
		return "", errors.Newf(errors.ErrCodeWriteFailed, "unsupported output format: %s", path)
	}
}

// Initialize opens the database, creates the candle table and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	if _, err = exportFormat(w.outputPath); err != nil {
		return err
	}

	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			score DOUBLE,
			prediction DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, symbol, open, high, low, close, volume, score, prediction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts a single candle. Missing score or prediction values are stored as NULL.
func (w *DuckDBWriter) Write(data types.MarketData) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized or statement is nil")
	}

	score := sql.NullFloat64{}
	if data.Score.IsSome() {
		score = sql.NullFloat64{Float64: data.Score.Unwrap(), Valid: true}
	}

	prediction := sql.NullFloat64{}
	if data.Prediction.IsSome() {
		prediction = sql.NullFloat64{Float64: data.Prediction.Unwrap(), Valid: true}
	}

	_, err := w.stmt.Exec(
		data.Time,
		data.Symbol,
		data.Open,
		data.High,
		data.Low,
		data.Close,
		data.Volume,
		score,
		prediction,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert data", err)
	}

	return nil
}

// Finalize commits the transaction and exports the candles ordered by time.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	format, err := exportFormat(w.outputPath)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(w.outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to create output directory", err)
		}
	}

	query := fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY time) TO '%s' (%s)`,
		strings.ReplaceAll(w.outputPath, "'", "''"), format)
	if _, err = w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export to %s", w.outputPath)
	}

	w.logger.Info("Exported market data", zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and closes the database.
func (w *DuckDBWriter) Close() error {
	var closeErrors []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close statement: %v", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("Failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close db connection: %v", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Newf(errors.ErrCodeWriteFailed, "errors occurred during close:\n- %s", strings.Join(closeErrors, "\n- "))
	}

	return nil
}

// GetOutputPath implements MarketDataWriter.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// WriteAll writes every candle through a fresh writer and returns the output path.
func WriteAll(outputPath string, data []types.MarketData, logger *logger.Logger) (string, error) {
	w := NewDuckDBWriter(outputPath, logger)
	if err := w.Initialize(); err != nil {
		return "", err
	}
	defer w.Close()

	for _, candle := range data {
		if err := w.Write(candle); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}
