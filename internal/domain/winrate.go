package domain

import "time"

type Timeframe string

const (
	TimeframeShort  Timeframe = "SHORT_TERM"  // 24h horizon
	TimeframeMedium Timeframe = "MEDIUM_TERM" // 7d horizon
	TimeframeLong   Timeframe = "LONG_TERM"   // 1m horizon
)

// Horizon returns the human label for the timeframe's prediction window.
func (t Timeframe) Horizon() string {
	switch t {
	case TimeframeShort:
		return "24h"
	case TimeframeMedium:
		return "7d"
	case TimeframeLong:
		return "1m"
	}
	return string(t)
}

type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
)

type OpportunityLevel string

const (
	OpportunityExceptional OpportunityLevel = "EXCEPTIONAL"
	OpportunityInfrequent  OpportunityLevel = "INFREQUENT"
	OpportunityGood        OpportunityLevel = "GOOD"
	OpportunityModerate    OpportunityLevel = "MODERATE"
	OpportunityWeak        OpportunityLevel = "WEAK"
	OpportunityAvoid       OpportunityLevel = "AVOID"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// TimeframeData is the analytics-feed input for one horizon. Win rates
// are percentages in [0,100], confidence in [0,1].
type TimeframeData struct {
	LongWinRate  float64 `json:"long_win_rate" yaml:"long_win_rate"`
	ShortWinRate float64 `json:"short_win_rate" yaml:"short_win_rate"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// WinRateScore is one timeframe's directional win-rate estimate.
// Immutable once created; re-evaluation produces a new value.
type WinRateScore struct {
	Timeframe   Timeframe        `json:"timeframe"`
	Direction   Direction        `json:"direction"`
	Score       float64          `json:"score"`
	Confidence  float64          `json:"confidence"`
	Opportunity OpportunityLevel `json:"opportunity"`
	Reasoning   string           `json:"reasoning"`
}

// MultiTimeframeWinRate bundles the three per-timeframe scores for one
// instrument. Rebuilt wholesale on each analytics cycle.
type MultiTimeframeWinRate struct {
	Symbol            string       `json:"symbol"`
	ShortTerm         WinRateScore `json:"short_term"`
	MediumTerm        WinRateScore `json:"medium_term"`
	LongTerm          WinRateScore `json:"long_term"`
	OverallConfidence float64      `json:"overall_confidence"`
	DominantDirection Direction    `json:"dominant_direction"`
	BestOpportunity   WinRateScore `json:"best_opportunity"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// Scores returns the three scores in SHORT -> MEDIUM -> LONG order.
func (m *MultiTimeframeWinRate) Scores() []WinRateScore {
	return []WinRateScore{m.ShortTerm, m.MediumTerm, m.LongTerm}
}

type Action string

const (
	ActionLong    Action = "LONG"
	ActionShort   Action = "SHORT"
	ActionNeutral Action = "NEUTRAL"
	ActionHold    Action = "HOLD"
)

// TimeframeRecommendation maps one timeframe's opportunity tier to a
// sizing suggestion.
type TimeframeRecommendation struct {
	Timeframe            Timeframe        `json:"timeframe"`
	Direction            Direction        `json:"direction"`
	Opportunity          OpportunityLevel `json:"opportunity"`
	PositionSizeFraction float64          `json:"position_size_fraction"`
	RiskLevel            RiskLevel        `json:"risk_level"`
}

// Recommendation is the scorer's output for the decision layer.
type Recommendation struct {
	Symbol               string                    `json:"symbol"`
	Overall              Action                    `json:"overall"`
	PositionSizeFraction float64                   `json:"position_size_fraction"`
	RiskLevel            RiskLevel                 `json:"risk_level"`
	Timeframes           []TimeframeRecommendation `json:"timeframes"`
}
