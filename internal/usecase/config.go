package usecase

import "github.com/shopspring/decimal"

// NextTriggerFunc supplies the margin trigger and realization fraction
// for takes after the first. The reference behaviour only defines the
// first trigger; subsequent 25%/45% splits are asserted upstream without
// a formula, so they stay behind this callback until confirmed.
// takeIndex starts at 2 for the second take. ok=false means no further
// takes are configured.
type NextTriggerFunc func(takeIndex int, totalInvested decimal.Decimal) (trigger, fraction decimal.Decimal, ok bool)

// Config carries every tunable of the engine. Callers construct one and
// pass it in; there is no process-wide state.
type Config struct {
	// ProfitFraction of total invested capital that must be earned
	// before the first take-profit is permitted.
	ProfitFraction decimal.Decimal
	// FirstTakeFraction of total position value realized at the first
	// take-profit.
	FirstTakeFraction decimal.Decimal
	// TrailFraction sets the trailing stop distance from the trigger
	// price. The reference value 0.30 is unusually wide and is kept
	// independently configurable pending confirmation.
	TrailFraction decimal.Decimal
	// MaxStages caps the number of capital commitments per position.
	MaxStages int
	// NeutralThreshold is the max long/short win-rate gap (in
	// percentage points) still classified as NEUTRAL.
	NeutralThreshold float64

	NextTrigger NextTriggerFunc
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		ProfitFraction:    decimal.NewFromFloat(0.75),
		FirstTakeFraction: decimal.NewFromFloat(0.30),
		TrailFraction:     decimal.NewFromFloat(0.30),
		MaxStages:         4,
		NeutralThreshold:  5.0,
	}
}
