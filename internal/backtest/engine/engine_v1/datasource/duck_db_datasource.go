package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/logger"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
	"go.uber.org/zap"
)

const readBatchSize = 1000

// columnAliases lists the accepted source column names per market data field,
// matched case-insensitively.
var columnAliases = map[string][]string{
	"time":       {"time", "date", "timestamp"},
	"symbol":     {"symbol"},
	"open":       {"open"},
	"high":       {"high"},
	"low":        {"low"},
	"close":      {"close"},
	"volume":     {"volume"},
	"score":      {"score"},
	"prediction": {"prediction"},
}

var selectOrder = []string{"time", "symbol", "open", "high", "low", "close", "volume", "score", "prediction"}

// DuckDBDataSource loads parquet or CSV candles into a DuckDB table. The table
// keeps file order in its rowid, which breaks ties between equal timestamps.
type DuckDBDataSource struct {
	db      *sql.DB
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
	columns map[string]string
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// ":memory:" keeps everything in memory. This is distinct from Initialize() which
// attaches the market data file.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := fileFormat(path)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`DROP TABLE IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedFailed, "failed to drop existing table", err)
	}

	// squirrel has no CREATE TABLE support
	query := fmt.Sprintf(`CREATE TABLE market_data AS SELECT * FROM %s('%s');`,
		reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeFeedUnavailable, err, "failed to load %s", path)
	}

	columns, err := d.resolveColumns()
	if err != nil {
		return err
	}

	d.columns = columns

	return nil
}

// resolveColumns maps every market data field to the source column carrying it.
func (d *DuckDBDataSource) resolveColumns() (map[string]string, error) {
	rows, err := d.sq.Select("column_name").
		From("information_schema.columns").
		Where(squirrel.Eq{"table_name": "market_data"}).
		RunWith(d.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedFailed, "failed to describe market data", err)
	}
	defer rows.Close()

	available := make(map[string]string)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFeedFailed, "failed to describe market data", err)
		}

		available[strings.ToLower(name)] = name
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedFailed, "failed to describe market data", err)
	}

	columns := make(map[string]string)

	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if name, ok := available[alias]; ok {
				columns[field] = name

				break
			}
		}
	}

	if _, ok := columns["close"]; !ok {
		return nil, errors.New(errors.ErrCodeFeedUnavailable, "market data has no close column")
	}

	return columns, nil
}

func (d *DuckDBDataSource) selectExpressions() []string {
	expressions := make([]string, 0, len(selectOrder))

	for _, field := range selectOrder {
		name, ok := d.columns[field]

		switch {
		case ok && field == "time":
			expressions = append(expressions, fmt.Sprintf(`CAST("%s" AS TIMESTAMP) AS time`, name))
		case ok && field == "symbol":
			expressions = append(expressions, fmt.Sprintf(`CAST("%s" AS VARCHAR) AS symbol`, name))
		case ok:
			expressions = append(expressions, fmt.Sprintf(`CAST("%s" AS DOUBLE) AS %s`, name, field))
		case field == "time":
			expressions = append(expressions, "CAST(NULL AS TIMESTAMP) AS time")
		case field == "symbol":
			expressions = append(expressions, "'' AS symbol")
		case field == "volume":
			expressions = append(expressions, "CAST(0 AS DOUBLE) AS volume")
		case field == "score" || field == "prediction":
			expressions = append(expressions, fmt.Sprintf("CAST(NULL AS DOUBLE) AS %s", field))
		default:
			expressions = append(expressions, fmt.Sprintf(`CAST("%s" AS DOUBLE) AS %s`, d.columns["close"], field))
		}
	}

	return expressions
}

func (d *DuckDBDataSource) timeFilter(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	column, ok := d.columns["time"]
	if !ok {
		return builder
	}

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{fmt.Sprintf(`"%s"`, column): start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{fmt.Sprintf(`"%s"`, column): end.Unwrap()})
	}

	return builder
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if d.columns == nil {
		return 0, errors.New(errors.ErrCodeFeedUnavailable, "data source is not initialized")
	}

	var count int

	err := d.timeFilter(d.sq.Select("COUNT(*)").From("market_data"), start, end).
		RunWith(d.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFeedFailed, "failed to count market data", err)
	}

	return count, nil
}

// ReadAll implements DataSource, paging through the table in batches ordered
// by time and then by file position.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		if d.columns == nil {
			yield(types.MarketData{}, errors.New(errors.ErrCodeFeedUnavailable, "data source is not initialized"))

			return
		}

		builder := d.timeFilter(d.sq.Select(d.selectExpressions()...).From("market_data"), start, end)
		if column, ok := d.columns["time"]; ok {
			builder = builder.OrderBy(fmt.Sprintf(`"%s" ASC`, column))
		}

		builder = builder.OrderBy("rowid ASC")

		for offset := uint64(0); ; offset += readBatchSize {
			batch, err := d.readBatch(builder.Limit(readBatchSize).Offset(offset))
			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			for _, data := range batch {
				if !yield(data, nil) {
					return
				}
			}

			if len(batch) < readBatchSize {
				return
			}
		}
	}
}

func (d *DuckDBDataSource) readBatch(builder squirrel.SelectBuilder) ([]types.MarketData, error) {
	rows, err := builder.RunWith(d.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedFailed, "failed to query market data", err)
	}
	defer rows.Close()

	batch := make([]types.MarketData, 0, readBatchSize)

	for rows.Next() {
		var (
			timestamp                      sql.NullTime
			symbol                         sql.NullString
			open, high, low, close, volume sql.NullFloat64
			score, prediction              sql.NullFloat64
		)

		err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume, &score, &prediction)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFeedFailed, "failed to scan market data", err)
		}

		batch = append(batch, types.MarketData{
			Time:       timestamp.Time,
			Symbol:     symbol.String,
			Open:       open.Float64,
			High:       high.Float64,
			Low:        low.Float64,
			Close:      close.Float64,
			Volume:     volume.Float64,
			Score:      nullableFloat(score),
			Prediction: nullableFloat(prediction),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedFailed, "failed to read market data", err)
	}

	return batch, nil
}

func nullableFloat(value sql.NullFloat64) optional.Option[float64] {
	if !value.Valid {
		return optional.None[float64]()
	}

	return optional.Some(value.Float64)
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db == nil {
		return nil
	}

	return d.db.Close()
}
