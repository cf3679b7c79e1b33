package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// TakeProfitStateMachine drives a position through accumulation,
// partial realization and trailing-stop monitoring. It mutates only the
// position handed to it; serialization per instrument is the caller's
// job.
type TakeProfitStateMachine struct {
	cfg        Config
	thresholds *ProfitThresholdEngine
}

func NewTakeProfitStateMachine(cfg Config) *TakeProfitStateMachine {
	return &TakeProfitStateMachine{
		cfg:        cfg,
		thresholds: NewProfitThresholdEngine(cfg),
	}
}

var one = decimal.NewFromInt(1)

// OnPrice advances the position against a new price tick and returns
// the state-transition events it produced, in order.
func (m *TakeProfitStateMachine) OnPrice(ledger *StageLedger, price decimal.Decimal, at time.Time) ([]domain.PositionEvent, error) {
	if !price.IsPositive() {
		return nil, nil
	}
	pos := ledger.Position()

	switch pos.Status {
	case domain.StatusAccumulating:
		if ledger.StageCount() == 0 || !m.thresholds.HasReachedFirstTakeProfit(ledger, price) {
			return nil, nil
		}
		return []domain.PositionEvent{m.firstTake(ledger, price, at)}, nil

	case domain.StatusFirstTake, domain.StatusTrailing:
		return m.trail(ledger, price, at), nil

	case domain.StatusClosed:
		return nil, nil
	}
	return nil, nil
}

// firstTake realizes the configured fraction of total position value,
// arms the trailing stop, and moves straight through FIRST_TAKE into
// TRAILING on the same tick.
func (m *TakeProfitStateMachine) firstTake(ledger *StageLedger, price decimal.Decimal, at time.Time) domain.PositionEvent {
	pos := ledger.Position()
	total := ledger.TotalPositionValue()
	realized := total.Mul(m.cfg.FirstTakeFraction)
	remaining := total.Sub(realized)

	pos.Status = domain.StatusFirstTake
	pos.RealizedValue = pos.RealizedValue.Add(realized)
	pos.RemainingValue = remaining
	pos.TakeCount = 1
	pos.TrailingStop = m.stopFor(pos.Side, price)
	pos.Status = domain.StatusTrailing

	return domain.PositionEvent{
		Type:           domain.EventFirstTakeTriggered,
		Symbol:         pos.Symbol,
		Side:           pos.Side,
		Price:          price,
		RealizedValue:  realized,
		RemainingValue: remaining,
		TrailingStop:   pos.TrailingStop,
		At:             at,
	}
}

func (m *TakeProfitStateMachine) trail(ledger *StageLedger, price decimal.Decimal, at time.Time) []domain.PositionEvent {
	pos := ledger.Position()

	if m.stopCrossed(pos, price) {
		hit := domain.PositionEvent{
			Type:           domain.EventTrailingStopHit,
			Symbol:         pos.Symbol,
			Side:           pos.Side,
			Price:          price,
			RealizedValue:  pos.RemainingValue,
			RemainingValue: decimal.Zero,
			TrailingStop:   pos.TrailingStop,
			At:             at,
		}
		closed := m.close(pos, price, at)
		return []domain.PositionEvent{hit, closed}
	}

	var events []domain.PositionEvent
	if m.cfg.NextTrigger != nil {
		if ev, ok := m.nextTake(ledger, price, at); ok {
			events = append(events, ev)
		}
	}

	// The stop follows favorable price action and never retreats.
	candidate := m.stopFor(pos.Side, price)
	if pos.Side == domain.SideLong && candidate.GreaterThan(pos.TrailingStop) {
		pos.TrailingStop = candidate
	}
	if pos.Side == domain.SideShort && candidate.LessThan(pos.TrailingStop) {
		pos.TrailingStop = candidate
	}
	return events
}

// nextTake applies the optional strategy for takes after the first.
func (m *TakeProfitStateMachine) nextTake(ledger *StageLedger, price decimal.Decimal, at time.Time) (domain.PositionEvent, bool) {
	pos := ledger.Position()
	trigger, fraction, ok := m.cfg.NextTrigger(pos.TakeCount+1, ledger.TotalInvested())
	if !ok || !m.thresholds.CurrentMargin(ledger, price).GreaterThanOrEqual(trigger) {
		return domain.PositionEvent{}, false
	}

	realized := pos.RemainingValue.Mul(fraction)
	pos.RealizedValue = pos.RealizedValue.Add(realized)
	pos.RemainingValue = pos.RemainingValue.Sub(realized)
	pos.TakeCount++

	return domain.PositionEvent{
		Type:           domain.EventTakeProfitTriggered,
		Symbol:         pos.Symbol,
		Side:           pos.Side,
		Price:          price,
		RealizedValue:  realized,
		RemainingValue: pos.RemainingValue,
		TrailingStop:   pos.TrailingStop,
		At:             at,
	}, true
}

// Close is the manual override: always permitted from any live state,
// always terminal.
func (m *TakeProfitStateMachine) Close(ledger *StageLedger, price decimal.Decimal, at time.Time) (domain.PositionEvent, error) {
	pos := ledger.Position()
	if pos.Status == domain.StatusClosed {
		return domain.PositionEvent{}, &domain.InvalidTransitionError{From: pos.Status, Op: "close"}
	}
	return m.close(pos, price, at), nil
}

func (m *TakeProfitStateMachine) close(pos *domain.Position, price decimal.Decimal, at time.Time) domain.PositionEvent {
	realized := pos.OpenValue()
	pos.RealizedValue = pos.RealizedValue.Add(realized)
	pos.RemainingValue = decimal.Zero
	pos.Status = domain.StatusClosed
	pos.ClosedAt = at

	return domain.PositionEvent{
		Type:           domain.EventPositionClosed,
		Symbol:         pos.Symbol,
		Side:           pos.Side,
		Price:          price,
		RealizedValue:  realized,
		RemainingValue: decimal.Zero,
		TrailingStop:   pos.TrailingStop,
		At:             at,
	}
}

func (m *TakeProfitStateMachine) stopFor(side domain.Side, price decimal.Decimal) decimal.Decimal {
	if side == domain.SideShort {
		return price.Mul(one.Add(m.cfg.TrailFraction))
	}
	return price.Mul(one.Sub(m.cfg.TrailFraction))
}

func (m *TakeProfitStateMachine) stopCrossed(pos *domain.Position, price decimal.Decimal) bool {
	if pos.Side == domain.SideShort {
		return price.GreaterThanOrEqual(pos.TrailingStop)
	}
	return price.LessThanOrEqual(pos.TrailingStop)
}
