package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// LiquidationPriceCalculator estimates the price at which the position
// would be liquidated. The estimate applies the standard isolated-margin
// formula entryPrice x (1 - 1/leverage) to the blended leverage of all
// stages. It ignores maintenance margin, fees and funding, so it is an
// approximation only, pending real margin rules from the exchange
// integration.
type LiquidationPriceCalculator struct{}

func NewLiquidationPriceCalculator() *LiquidationPriceCalculator {
	return &LiquidationPriceCalculator{}
}

// Estimate returns the approximate liquidation price for the ledger's
// position, or an error when the position has no stages.
func (c *LiquidationPriceCalculator) Estimate(ledger *StageLedger) (decimal.Decimal, error) {
	if ledger.StageCount() == 0 {
		return decimal.Zero, &domain.InvalidStageError{Field: "stages", Reason: "position has no stages"}
	}

	// Blended leverage: total notional over total invested capital.
	blended := ledger.TotalPositionValue().Div(ledger.TotalInvested())
	inverse := one.Div(blended)

	avg := ledger.WeightedAverageEntryPrice()
	if ledger.Position().Side == domain.SideShort {
		return avg.Mul(one.Add(inverse)), nil
	}
	return avg.Mul(one.Sub(inverse)), nil
}
