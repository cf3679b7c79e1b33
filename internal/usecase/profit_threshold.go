package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// ProfitThresholdEngine derives the margin level that gates the first
// take-profit. Thresholds are always computed against the live total
// invested; a value computed before a stage append is stale and must be
// thrown away.
type ProfitThresholdEngine struct {
	profitFraction decimal.Decimal
}

func NewProfitThresholdEngine(cfg Config) *ProfitThresholdEngine {
	return &ProfitThresholdEngine{profitFraction: cfg.ProfitFraction}
}

// ProfitThreshold is the profit (in margin terms) required before
// profit-taking is permitted: totalInvested x profitFraction.
func (e *ProfitThresholdEngine) ProfitThreshold(totalInvested decimal.Decimal) decimal.Decimal {
	return totalInvested.Mul(e.profitFraction)
}

// FirstTakeProfitTrigger is the margin value (invested capital plus
// unrealized profit) that must be reached, not a price level.
func (e *ProfitThresholdEngine) FirstTakeProfitTrigger(totalInvested decimal.Decimal) decimal.Decimal {
	return totalInvested.Add(e.ProfitThreshold(totalInvested))
}

// CurrentMargin is invested capital plus unrealized PnL at currentPrice.
func (e *ProfitThresholdEngine) CurrentMargin(ledger *StageLedger, currentPrice decimal.Decimal) decimal.Decimal {
	avg := ledger.WeightedAverageEntryPrice()
	if avg.IsZero() {
		return decimal.Zero
	}
	var move decimal.Decimal
	if ledger.Position().Side == domain.SideShort {
		move = avg.Sub(currentPrice)
	} else {
		move = currentPrice.Sub(avg)
	}
	pnl := move.Div(avg).Mul(ledger.TotalPositionValue())
	return pnl.Add(ledger.TotalInvested())
}

// HasReachedFirstTakeProfit compares current margin against the trigger
// with >=, exact at the boundary thanks to decimal arithmetic.
func (e *ProfitThresholdEngine) HasReachedFirstTakeProfit(ledger *StageLedger, currentPrice decimal.Decimal) bool {
	return e.CurrentMargin(ledger, currentPrice).GreaterThanOrEqual(e.FirstTakeProfitTrigger(ledger.TotalInvested()))
}
