package usecase

import "github.com/vitos/crypto_scale_engine/internal/domain"

type sizing struct {
	fraction float64
	risk     domain.RiskLevel
}

// sizingTable maps each opportunity tier to a position-size fraction and
// risk label.
var sizingTable = map[domain.OpportunityLevel]sizing{
	domain.OpportunityExceptional: {1.0, domain.RiskLow},
	domain.OpportunityInfrequent:  {0.7, domain.RiskLow},
	domain.OpportunityGood:        {0.4, domain.RiskMedium},
	domain.OpportunityModerate:    {0.2, domain.RiskMedium},
	domain.OpportunityWeak:        {0.1, domain.RiskHigh},
	domain.OpportunityAvoid:       {0.0, domain.RiskVeryHigh},
}

// TradingRecommendations maps the analysis to sizing advice per
// timeframe plus an overall call derived from the best opportunity.
// WEAK and AVOID tiers collapse the overall call to HOLD.
func (s *WinRateScorer) TradingRecommendations(analysis *domain.MultiTimeframeWinRate) *domain.Recommendation {
	timeframes := make([]domain.TimeframeRecommendation, 0, 3)
	for _, sc := range analysis.Scores() {
		sz := sizingTable[sc.Opportunity]
		timeframes = append(timeframes, domain.TimeframeRecommendation{
			Timeframe:            sc.Timeframe,
			Direction:            sc.Direction,
			Opportunity:          sc.Opportunity,
			PositionSizeFraction: sz.fraction,
			RiskLevel:            sz.risk,
		})
	}

	best := analysis.BestOpportunity
	sz := sizingTable[best.Opportunity]
	overall := domain.Action(best.Direction)
	if best.Opportunity == domain.OpportunityWeak || best.Opportunity == domain.OpportunityAvoid {
		overall = domain.ActionHold
	}

	return &domain.Recommendation{
		Symbol:               analysis.Symbol,
		Overall:              overall,
		PositionSizeFraction: sz.fraction,
		RiskLevel:            sz.risk,
		Timeframes:           timeframes,
	}
}
