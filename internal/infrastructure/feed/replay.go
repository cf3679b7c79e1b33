package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// ReplayFeed reads ticks from a CSV file (symbol,price per line, with
// an optional leading timestamp column) and delivers them through the
// registered callback. It stands in for the external analytics feed.
type ReplayFeed struct {
	path     string
	interval time.Duration
	callback func(symbol string, price decimal.Decimal)
}

// NewReplayFeed creates a feed over the given file. interval inserts a
// pause between ticks; zero replays as fast as possible.
func NewReplayFeed(path string, interval time.Duration) *ReplayFeed {
	return &ReplayFeed{path: path, interval: interval}
}

func (f *ReplayFeed) OnPriceUpdate(callback func(symbol string, price decimal.Decimal)) {
	f.callback = callback
}

// Run replays the file until EOF or context cancellation. Malformed
// lines abort the replay; a tick file with bad data should not be half
// consumed silently.
func (f *ReplayFeed) Run(ctx context.Context) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to open tick file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	line := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line++

		symbol, raw, err := parseRecord(record)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("line %d: bad price %q: %w", line, raw, err)
		}

		if f.callback != nil {
			f.callback(symbol, price)
		}

		if f.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.interval):
			}
		}
	}
}

func parseRecord(record []string) (symbol, price string, err error) {
	switch len(record) {
	case 2:
		return record[0], record[1], nil
	case 3:
		// timestamp,symbol,price
		return record[1], record[2], nil
	default:
		return "", "", fmt.Errorf("expected 2 or 3 fields, got %d", len(record))
	}
}
