package writer

import (
	"github.com/rxtech-lab/bitbroker/internal/types"
)

// MarketDataWriter defines the interface for writing candles to a destination file.
type MarketDataWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single candle.
	Write(data types.MarketData) error
	// Finalize commits buffered candles and exports them to the output file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
