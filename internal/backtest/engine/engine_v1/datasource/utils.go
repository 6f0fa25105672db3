package datasource

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/bitbroker/pkg/errors"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts RFC 3339, the common date-time layouts and unix seconds.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Unix(0, int64(seconds*float64(time.Second))).UTC(), nil
	}

	return time.Time{}, errors.Newf(errors.ErrCodeFeedFailed, "unrecognized timestamp: %q", value)
}

// fileFormat maps a data file extension to the DuckDB reader for it.
func fileFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet", nil
	case ".csv":
		return "read_csv_auto", nil
	default:
		return "", errors.Newf(errors.ErrCodeFeedUnavailable, "unsupported data file: %s", path)
	}
}
