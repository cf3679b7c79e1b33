package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

type PositionStatus string

const (
	StatusAccumulating PositionStatus = "ACCUMULATING"
	StatusFirstTake    PositionStatus = "FIRST_TAKE"
	StatusTrailing     PositionStatus = "TRAILING"
	StatusClosed       PositionStatus = "CLOSED"
)

// Stage is one capital commitment into a position at a given leverage
// and entry price.
type Stage struct {
	Investment decimal.Decimal
	Leverage   decimal.Decimal
	EntryPrice decimal.Decimal
	OpenedAt   time.Time
}

// PositionValue is the notional value of the stage (investment x leverage).
func (s Stage) PositionValue() decimal.Decimal {
	return s.Investment.Mul(s.Leverage)
}

// Position aggregates all stages for one instrument and direction.
// Totals are always derived from Stages so they cannot drift; only the
// partial-realization fields are stored state.
type Position struct {
	Symbol string
	Side   Side
	Stages []Stage
	Status PositionStatus

	// TrailingStop is meaningful only once Status has left ACCUMULATING.
	TrailingStop decimal.Decimal
	// RemainingValue is the open notional after partial realization.
	// Zero while ACCUMULATING; use TotalPositionValue then.
	RemainingValue decimal.Decimal
	RealizedValue  decimal.Decimal
	// TakeCount counts profit-taking events consumed so far.
	TakeCount int

	CreatedAt time.Time
	ClosedAt  time.Time
}

// TotalInvested sums the invested capital across all stages.
func (p *Position) TotalInvested() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Stages {
		total = total.Add(s.Investment)
	}
	return total
}

// TotalPositionValue sums the notional value across all stages.
func (p *Position) TotalPositionValue() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Stages {
		total = total.Add(s.PositionValue())
	}
	return total
}

// WeightedAverageEntryPrice is the position-value-weighted mean of all
// stage entry prices. Zero when the position has no stages.
func (p *Position) WeightedAverageEntryPrice() decimal.Decimal {
	totalValue := decimal.Zero
	weighted := decimal.Zero
	for _, s := range p.Stages {
		v := s.PositionValue()
		totalValue = totalValue.Add(v)
		weighted = weighted.Add(s.EntryPrice.Mul(v))
	}
	if totalValue.IsZero() {
		return decimal.Zero
	}
	return weighted.Div(totalValue)
}

// OpenValue is the notional still on the book: the full derived value
// while ACCUMULATING, the tracked remainder afterwards.
func (p *Position) OpenValue() decimal.Decimal {
	if p.Status == StatusAccumulating {
		return p.TotalPositionValue()
	}
	return p.RemainingValue
}

// PositionHistory is the archived record of a fully closed position.
type PositionHistory struct {
	ID            int64
	Symbol        string
	Side          Side
	TotalInvested decimal.Decimal
	TotalValue    decimal.Decimal
	RealizedValue decimal.Decimal
	AvgEntryPrice decimal.Decimal
	ExitPrice     decimal.Decimal
	CloseReason   string
	ClosedAt      time.Time
}
