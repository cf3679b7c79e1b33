package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vitos/crypto_scale_engine/internal/domain"
	"github.com/vitos/crypto_scale_engine/internal/usecase"
)

func TestProfitThresholdRecomputedPerStage(t *testing.T) {
	cfg := usecase.DefaultConfig()
	engine := usecase.NewProfitThresholdEngine(cfg)
	ledger := usecase.NewStageLedger(cfg, "BTCUSDT", domain.SideLong)

	stages := []struct {
		investment, leverage, entryPrice string
		wantThreshold, wantTrigger       string
	}{
		{"100", "20", "45000", "75", "175"},
		{"200", "10", "44500", "225", "525"},
		{"400", "5", "44000", "525", "1225"},
		{"800", "2", "43500", "1125", "2625"},
	}

	for _, s := range stages {
		if _, err := ledger.AddStage(d(s.investment), d(s.leverage), d(s.entryPrice), time.Now()); err != nil {
			t.Fatalf("AddStage failed: %v", err)
		}

		// The trigger is derived from the live totalInvested after
		// every append; a stale value is invalid.
		invested := ledger.TotalInvested()
		if got := engine.ProfitThreshold(invested); !got.Equal(d(s.wantThreshold)) {
			t.Errorf("ProfitThreshold(%s) = %s, want %s", invested, got, s.wantThreshold)
		}
		if got := engine.FirstTakeProfitTrigger(invested); !got.Equal(d(s.wantTrigger)) {
			t.Errorf("FirstTakeProfitTrigger(%s) = %s, want %s", invested, got, s.wantTrigger)
		}
	}
}

func TestCurrentMarginLong(t *testing.T) {
	cfg := usecase.DefaultConfig()
	engine := usecase.NewProfitThresholdEngine(cfg)
	ledger := usecase.NewStageLedger(cfg, "BTCUSDT", domain.SideLong)
	if _, err := ledger.AddStage(d("1000"), d("10"), d("100"), time.Now()); err != nil {
		t.Fatalf("AddStage failed: %v", err)
	}

	// 7.5% move on 10000 notional = 750 profit on 1000 invested.
	margin := engine.CurrentMargin(ledger, d("107.5"))
	if !margin.Equal(d("1750")) {
		t.Errorf("CurrentMargin = %s, want 1750", margin)
	}

	if !engine.HasReachedFirstTakeProfit(ledger, d("107.5")) {
		t.Error("trigger must fire at the exact boundary (>=)")
	}
	if engine.HasReachedFirstTakeProfit(ledger, d("107.4999")) {
		t.Error("trigger must not fire below the boundary")
	}
}

func TestCurrentMarginShort(t *testing.T) {
	cfg := usecase.DefaultConfig()
	engine := usecase.NewProfitThresholdEngine(cfg)
	ledger := usecase.NewStageLedger(cfg, "BTCUSDT", domain.SideShort)
	if _, err := ledger.AddStage(d("1000"), d("10"), d("100"), time.Now()); err != nil {
		t.Fatalf("AddStage failed: %v", err)
	}

	margin := engine.CurrentMargin(ledger, d("92.5"))
	if !margin.Equal(d("1750")) {
		t.Errorf("CurrentMargin = %s, want 1750", margin)
	}
	if engine.HasReachedFirstTakeProfit(ledger, d("100")) {
		t.Error("flat price must not trigger")
	}
}

func TestCurrentMarginFourStagePosition(t *testing.T) {
	engine := usecase.NewProfitThresholdEngine(usecase.DefaultConfig())
	ledger := fourStageLedger(t, domain.SideLong)

	// Margin = invested capital plus unrealized PnL on the blended
	// entry: a 46000 print is not yet enough to reach the 2625 trigger.
	margin := engine.CurrentMargin(ledger, d("46000"))
	assert.InDelta(t, 1793.52, margin.InexactFloat64(), 0.01)
	assert.False(t, engine.HasReachedFirstTakeProfit(ledger, d("46000")))

	// A 51000 print is.
	assert.True(t, engine.HasReachedFirstTakeProfit(ledger, d("51000")))
}

func TestCurrentMarginLoss(t *testing.T) {
	engine := usecase.NewProfitThresholdEngine(usecase.DefaultConfig())
	ledger := fourStageLedger(t, domain.SideLong)

	margin := engine.CurrentMargin(ledger, d("43000"))
	if !margin.LessThan(ledger.TotalInvested()) {
		t.Errorf("a losing position's margin %s must be below invested capital", margin)
	}
}
