package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventFirstTakeTriggered EventType = "FIRST_TAKE_TRIGGERED"
	// EventTakeProfitTriggered marks takes after the first, which are
	// only reachable through a configured next-trigger strategy.
	EventTakeProfitTriggered EventType = "TAKE_PROFIT_TRIGGERED"
	EventTrailingStopHit     EventType = "TRAILING_STOP_HIT"
	EventPositionClosed      EventType = "POSITION_CLOSED"
)

// PositionEvent is emitted on every state transition for the downstream
// execution/notification layer. Each event carries the amount realized by
// the transition and the notional still open after it.
type PositionEvent struct {
	Type           EventType       `json:"type"`
	Symbol         string          `json:"symbol"`
	Side           Side            `json:"side"`
	Price          decimal.Decimal `json:"price"`
	RealizedValue  decimal.Decimal `json:"realized_value"`
	RemainingValue decimal.Decimal `json:"remaining_value"`
	TrailingStop   decimal.Decimal `json:"trailing_stop"`
	At             time.Time       `json:"at"`
}
