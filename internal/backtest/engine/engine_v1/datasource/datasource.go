package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/types"
)

type DataSource interface {
	// Initialize initializes the data source with the given data path
	Initialize(path string) error
	// ReadAll reads all the data in time order and yields it to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// Count returns the number of rows in the data source
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// LoadAll drains ReadAll into memory.
func LoadAll(ds DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketData, error) {
	var data []types.MarketData

	for candle, err := range ds.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		data = append(data, candle)
	}

	return data, nil
}

// inRange reports whether t falls within the optional bounds, both inclusive.
func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
