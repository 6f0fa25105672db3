package datasource

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/bitbroker/internal/types"
	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

// SliceFeed replays candles from memory. The slice is never modified, so many
// feeds may share one.
type SliceFeed struct {
	data   []types.MarketData
	cursor int
}

func NewSliceFeed(data []types.MarketData) *SliceFeed {
	return &SliceFeed{data: data}
}

// NewCloseFeed builds a feed from bare close prices.
func NewCloseFeed(closes ...float64) *SliceFeed {
	data := make([]types.MarketData, 0, len(closes))
	for _, c := range closes {
		data = append(data, types.NewCloseData(c))
	}

	return NewSliceFeed(data)
}

func (f *SliceFeed) Next(ctx context.Context) (optional.Option[types.MarketData], error) {
	if err := ctx.Err(); err != nil {
		return optional.None[types.MarketData](), err
	}

	if f.cursor >= len(f.data) {
		return optional.None[types.MarketData](), nil
	}

	data := f.data[f.cursor]
	f.cursor++

	return optional.Some(data), nil
}

// Remaining returns the number of candles not yet pulled.
func (f *SliceFeed) Remaining() int {
	return len(f.data) - f.cursor
}

// DataSourceFeed pulls candles out of a DataSource iterator one at a time.
type DataSourceFeed struct {
	next func() (types.MarketData, error, bool)
	stop func()
	once sync.Once
}

func NewDataSourceFeed(ds DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) *DataSourceFeed {
	next, stop := iter.Pull2(iter.Seq2[types.MarketData, error](ds.ReadAll(start, end)))

	return &DataSourceFeed{
		next: next,
		stop: stop,
	}
}

func (f *DataSourceFeed) Next(ctx context.Context) (optional.Option[types.MarketData], error) {
	if err := ctx.Err(); err != nil {
		f.Close()

		return optional.None[types.MarketData](), err
	}

	data, err, ok := f.next()
	if !ok {
		f.Close()

		return optional.None[types.MarketData](), nil
	}

	if err != nil {
		f.Close()

		return optional.None[types.MarketData](), errors.Wrap(errors.ErrCodeFeedFailed, "failed to read data", err)
	}

	return optional.Some(data), nil
}

// Close stops the underlying iterator. It is safe to call more than once.
func (f *DataSourceFeed) Close() {
	f.once.Do(f.stop)
}

// PriceRange bounds accepted close prices. Zero disables a bound.
type PriceRange struct {
	Min float64
	Max float64
}

func (r PriceRange) Contains(price float64) bool {
	if r.Min > 0 && price <= r.Min {
		return false
	}

	if r.Max > 0 && price >= r.Max {
		return false
	}

	return true
}

// puller is the feed contract seen from this package.
type puller interface {
	Next(ctx context.Context) (optional.Option[types.MarketData], error)
}

// FilteredFeed drops candles whose close lies outside the price range.
type FilteredFeed struct {
	inner   puller
	bounds  PriceRange
	dropped int
}

func NewFilteredFeed(inner puller, bounds PriceRange) *FilteredFeed {
	return &FilteredFeed{
		inner:  inner,
		bounds: bounds,
	}
}

func (f *FilteredFeed) Next(ctx context.Context) (optional.Option[types.MarketData], error) {
	for {
		data, err := f.inner.Next(ctx)
		if err != nil || data.IsNone() {
			return data, err
		}

		if f.bounds.Contains(data.Unwrap().Close) {
			return data, nil
		}

		f.dropped++
	}
}

// Dropped returns how many candles were filtered out so far.
func (f *FilteredFeed) Dropped() int {
	return f.dropped
}
