package usecase_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/crypto_scale_engine/internal/domain"
	"github.com/vitos/crypto_scale_engine/internal/usecase"
)

func newScorer() *usecase.WinRateScorer {
	return usecase.NewWinRateScorer(usecase.DefaultConfig())
}

func TestClassifyOpportunityBoundaries(t *testing.T) {
	scorer := newScorer()

	tests := []struct {
		score float64
		want  domain.OpportunityLevel
	}{
		{100, domain.OpportunityExceptional},
		{95.0, domain.OpportunityExceptional},
		{94.999999, domain.OpportunityInfrequent},
		{90.0, domain.OpportunityInfrequent},
		{89.999999, domain.OpportunityGood},
		{80.0, domain.OpportunityGood},
		{79.999999, domain.OpportunityModerate},
		{70.0, domain.OpportunityModerate},
		{69.999999, domain.OpportunityWeak},
		{60.0, domain.OpportunityWeak},
		{59.999999, domain.OpportunityAvoid},
		{0, domain.OpportunityAvoid},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, scorer.ClassifyOpportunity(tt.score), "score %v", tt.score)
	}
}

func TestDetermineDirection(t *testing.T) {
	scorer := newScorer()

	tests := []struct {
		name  string
		long  float64
		short float64
		want  domain.Direction
	}{
		{"Small gap is neutral", 52, 48, domain.DirectionNeutral},
		{"Gap at threshold is neutral", 55, 50, domain.DirectionNeutral},
		{"Long dominates", 60, 40, domain.DirectionLong},
		{"Short dominates", 40, 60, domain.DirectionShort},
		{"Equal is neutral", 50, 50, domain.DirectionNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.DetermineDirection(tt.long, tt.short))
		})
	}
}

func TestNewScore(t *testing.T) {
	scorer := newScorer()

	score, err := scorer.NewScore(domain.TimeframeShort, domain.TimeframeData{
		LongWinRate: 82, ShortWinRate: 40, Confidence: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionLong, score.Direction)
	assert.Equal(t, 82.0, score.Score)
	assert.Equal(t, domain.OpportunityGood, score.Opportunity)
	assert.NotEmpty(t, score.Reasoning, "a templated reasoning must be generated")

	// NEUTRAL takes the stronger of the two rates.
	score, err = scorer.NewScore(domain.TimeframeMedium, domain.TimeframeData{
		LongWinRate: 61, ShortWinRate: 63, Confidence: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionNeutral, score.Direction)
	assert.Equal(t, 63.0, score.Score)

	// A supplied reasoning is kept verbatim.
	score, err = scorer.NewScore(domain.TimeframeLong, domain.TimeframeData{
		LongWinRate: 70, ShortWinRate: 30, Confidence: 0.9, Reasoning: "funding skew",
	})
	require.NoError(t, err)
	assert.Equal(t, "funding skew", score.Reasoning)
}

func TestValidateWinRateData(t *testing.T) {
	tests := []struct {
		name      string
		data      domain.TimeframeData
		wantField string
	}{
		{"Long win rate above range", domain.TimeframeData{LongWinRate: 101, ShortWinRate: 50, Confidence: 0.5}, "long_win_rate"},
		{"Long win rate below range", domain.TimeframeData{LongWinRate: -1, ShortWinRate: 50, Confidence: 0.5}, "long_win_rate"},
		{"Short win rate above range", domain.TimeframeData{LongWinRate: 50, ShortWinRate: 100.5, Confidence: 0.5}, "short_win_rate"},
		{"Confidence above range", domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 1.5}, "confidence"},
		{"Confidence below range", domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: -0.1}, "confidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := usecase.ValidateWinRateData(tt.data)
			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}

	assert.NoError(t, usecase.ValidateWinRateData(domain.TimeframeData{LongWinRate: 0, ShortWinRate: 100, Confidence: 1}))
}

func TestMultiTimeframeIdenticalInputs(t *testing.T) {
	scorer := newScorer()
	data := &domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 0.7}

	analysis, err := scorer.MultiTimeframe("BTCUSDT", data, data, data)
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionNeutral, analysis.DominantDirection)
	assert.InDelta(t, 0.7, analysis.OverallConfidence, 1e-9)
	// Tied scores resolve to the earliest timeframe.
	assert.Equal(t, domain.TimeframeShort, analysis.BestOpportunity.Timeframe)
}

func TestMultiTimeframeDefaultsAbsentPayloads(t *testing.T) {
	scorer := newScorer()

	analysis, err := scorer.MultiTimeframe("BTCUSDT", nil, nil, nil)
	require.NoError(t, err)

	for _, sc := range analysis.Scores() {
		assert.Equal(t, domain.DirectionNeutral, sc.Direction)
		assert.Equal(t, 50.0, sc.Score)
		assert.Equal(t, 0.7, sc.Confidence)
	}
}

func TestMultiTimeframeDominantDirection(t *testing.T) {
	scorer := newScorer()

	long := &domain.TimeframeData{LongWinRate: 80, ShortWinRate: 40, Confidence: 0.8}
	short := &domain.TimeframeData{LongWinRate: 40, ShortWinRate: 80, Confidence: 0.8}
	neutral := &domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 0.8}

	// Clear majority.
	analysis, err := scorer.MultiTimeframe("BTCUSDT", long, long, short)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionLong, analysis.DominantDirection)

	// Three-way tie resolves in LONG, SHORT, NEUTRAL order.
	analysis, err = scorer.MultiTimeframe("BTCUSDT", neutral, short, long)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionLong, analysis.DominantDirection)

	// A NEUTRAL majority wins outright.
	analysis, err = scorer.MultiTimeframe("BTCUSDT", neutral, short, neutral)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionNeutral, analysis.DominantDirection)
}

func TestMultiTimeframeConfidenceWeights(t *testing.T) {
	scorer := newScorer()

	analysis, err := scorer.MultiTimeframe("BTCUSDT",
		&domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 1.0},
		&domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 0.5},
		&domain.TimeframeData{LongWinRate: 50, ShortWinRate: 50, Confidence: 0.0},
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.4*1.0+0.35*0.5, analysis.OverallConfidence, 1e-9)
}

func TestMultiTimeframeRejectsBadInput(t *testing.T) {
	scorer := newScorer()

	_, err := scorer.MultiTimeframe("BTCUSDT",
		&domain.TimeframeData{LongWinRate: 101, ShortWinRate: 50, Confidence: 0.5}, nil, nil)
	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "long_win_rate", validationErr.Field)
}

func TestMultiTimeframeBestOpportunity(t *testing.T) {
	scorer := newScorer()

	analysis, err := scorer.MultiTimeframe("BTCUSDT",
		&domain.TimeframeData{LongWinRate: 70, ShortWinRate: 30, Confidence: 0.8},
		&domain.TimeframeData{LongWinRate: 96, ShortWinRate: 20, Confidence: 0.9},
		&domain.TimeframeData{LongWinRate: 60, ShortWinRate: 55, Confidence: 0.6},
	)
	require.NoError(t, err)
	assert.Equal(t, domain.TimeframeMedium, analysis.BestOpportunity.Timeframe)
	assert.Equal(t, 96.0, analysis.BestOpportunity.Score)
	assert.Equal(t, domain.OpportunityExceptional, analysis.BestOpportunity.Opportunity)
}
