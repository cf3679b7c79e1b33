package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// StageLedger owns one position's stage list. Derived totals are cached
// and invalidated on every append so they can never drift from the
// stages themselves.
type StageLedger struct {
	cfg Config
	pos *domain.Position

	dirty         bool
	totalInvested decimal.Decimal
	totalValue    decimal.Decimal
	avgEntryPrice decimal.Decimal
}

// NewStageLedger creates an empty ledger; the position itself comes into
// existence with the first stage.
func NewStageLedger(cfg Config, symbol string, side domain.Side) *StageLedger {
	return &StageLedger{
		cfg: cfg,
		pos: &domain.Position{
			Symbol: symbol,
			Side:   side,
			Status: domain.StatusAccumulating,
		},
		dirty: true,
	}
}

// RestoreStageLedger wraps a position loaded from the archive.
func RestoreStageLedger(cfg Config, pos *domain.Position) *StageLedger {
	return &StageLedger{cfg: cfg, pos: pos, dirty: true}
}

func (l *StageLedger) Position() *domain.Position { return l.pos }

// AddStage appends one capital commitment. It is intentionally not
// idempotent: two identical calls produce two distinct stages.
func (l *StageLedger) AddStage(investment, leverage, entryPrice decimal.Decimal, at time.Time) (*domain.Position, error) {
	if !investment.IsPositive() {
		return nil, &domain.InvalidStageError{Field: "investment", Reason: "must be positive"}
	}
	if !leverage.IsPositive() {
		return nil, &domain.InvalidStageError{Field: "leverage", Reason: "must be positive"}
	}
	if !entryPrice.IsPositive() {
		return nil, &domain.InvalidStageError{Field: "entryPrice", Reason: "must be positive"}
	}
	if l.pos.Status != domain.StatusAccumulating {
		return nil, &domain.InvalidStageError{Field: "status", Reason: fmt.Sprintf("position is %s, stages closed", l.pos.Status)}
	}
	if len(l.pos.Stages) >= l.cfg.MaxStages {
		return nil, &domain.InvalidStageError{Field: "stages", Reason: fmt.Sprintf("max stage count %d reached", l.cfg.MaxStages)}
	}

	if len(l.pos.Stages) == 0 {
		l.pos.CreatedAt = at
	}
	l.pos.Stages = append(l.pos.Stages, domain.Stage{
		Investment: investment,
		Leverage:   leverage,
		EntryPrice: entryPrice,
		OpenedAt:   at,
	})
	l.dirty = true
	return l.pos, nil
}

func (l *StageLedger) recompute() {
	if !l.dirty {
		return
	}
	l.totalInvested = l.pos.TotalInvested()
	l.totalValue = l.pos.TotalPositionValue()
	l.avgEntryPrice = l.pos.WeightedAverageEntryPrice()
	l.dirty = false
}

func (l *StageLedger) TotalInvested() decimal.Decimal {
	l.recompute()
	return l.totalInvested
}

func (l *StageLedger) TotalPositionValue() decimal.Decimal {
	l.recompute()
	return l.totalValue
}

func (l *StageLedger) WeightedAverageEntryPrice() decimal.Decimal {
	l.recompute()
	return l.avgEntryPrice
}

func (l *StageLedger) StageCount() int { return len(l.pos.Stages) }
