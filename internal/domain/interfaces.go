package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PositionArchive persists position state on behalf of the caller.
// The computation core never depends on it; restoring the stage list and
// status is enough to resume after a restart.
type PositionArchive interface {
	SavePosition(ctx context.Context, pos *Position) error
	DeletePosition(ctx context.Context, symbol string) error
	LoadOpenPositions(ctx context.Context) ([]*Position, error)

	SaveEvent(ctx context.Context, event *PositionEvent) error
	ListEvents(ctx context.Context, symbol string, limit int) ([]*PositionEvent, error)

	SaveHistory(ctx context.Context, history *PositionHistory) error
	ListHistory(ctx context.Context, limit int) ([]*PositionHistory, error)
}

// EventSink receives state-transition events for the downstream
// notification layer.
type EventSink interface {
	Publish(event PositionEvent)
}

// PriceFeed delivers price ticks per instrument. Implementations invoke
// the registered callback sequentially per symbol.
type PriceFeed interface {
	OnPriceUpdate(callback func(symbol string, price decimal.Decimal))
	Run(ctx context.Context) error
}
