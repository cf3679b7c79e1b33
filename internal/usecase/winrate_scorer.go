package usecase

import (
	"fmt"
	"time"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// WinRateScorer classifies externally produced win-rate estimates into
// opportunity tiers and directional bias. All methods are pure functions
// of their inputs and safe to call concurrently.
type WinRateScorer struct {
	neutralThreshold float64
}

func NewWinRateScorer(cfg Config) *WinRateScorer {
	return &WinRateScorer{neutralThreshold: cfg.NeutralThreshold}
}

// ClassifyOpportunity maps a win-rate score to its tier. Boundaries are
// inclusive on the lower side of each tier.
func (s *WinRateScorer) ClassifyOpportunity(score float64) domain.OpportunityLevel {
	switch {
	case score >= 95:
		return domain.OpportunityExceptional
	case score >= 90:
		return domain.OpportunityInfrequent
	case score >= 80:
		return domain.OpportunityGood
	case score >= 70:
		return domain.OpportunityModerate
	case score >= 60:
		return domain.OpportunityWeak
	default:
		return domain.OpportunityAvoid
	}
}

// DetermineDirection picks the stronger side, or NEUTRAL when the gap
// is within the neutral threshold.
func (s *WinRateScorer) DetermineDirection(longScore, shortScore float64) domain.Direction {
	diff := longScore - shortScore
	if diff < 0 {
		diff = -diff
	}
	if diff <= s.neutralThreshold {
		return domain.DirectionNeutral
	}
	if longScore > shortScore {
		return domain.DirectionLong
	}
	return domain.DirectionShort
}

// ValidateWinRateData rejects win rates outside [0,100] and confidence
// outside [0,1], naming the offending field.
func ValidateWinRateData(data domain.TimeframeData) error {
	if data.LongWinRate < 0 || data.LongWinRate > 100 {
		return &domain.ValidationError{Field: "long_win_rate", Value: data.LongWinRate}
	}
	if data.ShortWinRate < 0 || data.ShortWinRate > 100 {
		return &domain.ValidationError{Field: "short_win_rate", Value: data.ShortWinRate}
	}
	if data.Confidence < 0 || data.Confidence > 1 {
		return &domain.ValidationError{Field: "confidence", Value: data.Confidence}
	}
	return nil
}

// defaultTimeframeData stands in for an absent timeframe payload.
func defaultTimeframeData() domain.TimeframeData {
	return domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 0.7}
}

// NewScore builds one timeframe's score: direction from the long/short
// gap, score from the winning side (max of both when NEUTRAL), clamped
// to [0,100], with a templated reasoning when none is supplied.
func (s *WinRateScorer) NewScore(tf domain.Timeframe, data domain.TimeframeData) (domain.WinRateScore, error) {
	if err := ValidateWinRateData(data); err != nil {
		return domain.WinRateScore{}, err
	}

	direction := s.DetermineDirection(data.LongWinRate, data.ShortWinRate)
	var score float64
	switch direction {
	case domain.DirectionLong:
		score = data.LongWinRate
	case domain.DirectionShort:
		score = data.ShortWinRate
	default:
		score = data.LongWinRate
		if data.ShortWinRate > score {
			score = data.ShortWinRate
		}
	}
	score = clampScore(score)

	opportunity := s.ClassifyOpportunity(score)
	reasoning := data.Reasoning
	if reasoning == "" {
		reasoning = fmt.Sprintf("%s (%s): %s bias with %.1f%% win rate - %s opportunity",
			tf, tf.Horizon(), direction, score, opportunity)
	}

	return domain.WinRateScore{
		Timeframe:   tf,
		Direction:   direction,
		Score:       score,
		Confidence:  data.Confidence,
		Opportunity: opportunity,
		Reasoning:   reasoning,
	}, nil
}

// MultiTimeframe bundles the three per-horizon scores for one symbol.
// Absent payloads default to 50/50 at 0.7 confidence.
func (s *WinRateScorer) MultiTimeframe(symbol string, short, medium, long *domain.TimeframeData) (*domain.MultiTimeframeWinRate, error) {
	inputs := []*domain.TimeframeData{short, medium, long}
	timeframes := []domain.Timeframe{domain.TimeframeShort, domain.TimeframeMedium, domain.TimeframeLong}

	scores := make([]domain.WinRateScore, 3)
	for i, in := range inputs {
		data := defaultTimeframeData()
		if in != nil {
			data = *in
		}
		score, err := s.NewScore(timeframes[i], data)
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}

	overall := 0.4*scores[0].Confidence + 0.35*scores[1].Confidence + 0.25*scores[2].Confidence

	return &domain.MultiTimeframeWinRate{
		Symbol:            symbol,
		ShortTerm:         scores[0],
		MediumTerm:        scores[1],
		LongTerm:          scores[2],
		OverallConfidence: overall,
		DominantDirection: dominantDirection(scores),
		BestOpportunity:   bestOpportunity(scores),
		GeneratedAt:       time.Now(),
	}, nil
}

// dominantDirection is the majority vote across the three timeframes,
// with ties resolved in LONG, SHORT, NEUTRAL order.
func dominantDirection(scores []domain.WinRateScore) domain.Direction {
	counts := make(map[domain.Direction]int)
	for _, sc := range scores {
		counts[sc.Direction]++
	}
	best := domain.DirectionLong
	bestCount := counts[domain.DirectionLong]
	for _, d := range []domain.Direction{domain.DirectionShort, domain.DirectionNeutral} {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

// bestOpportunity is the highest score, with ties resolved in
// SHORT -> MEDIUM -> LONG order.
func bestOpportunity(scores []domain.WinRateScore) domain.WinRateScore {
	best := scores[0]
	for _, sc := range scores[1:] {
		if sc.Score > best.Score {
			best = sc
		}
	}
	return best
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
