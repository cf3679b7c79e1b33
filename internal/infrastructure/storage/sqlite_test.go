package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/crypto_scale_engine/internal/domain"
	"github.com/vitos/crypto_scale_engine/internal/infrastructure/storage"
)

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	return store
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func samplePosition() *domain.Position {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Position{
		Symbol: "BTCUSDT",
		Side:   domain.SideLong,
		Status: domain.StatusTrailing,
		Stages: []domain.Stage{
			{Investment: d("100"), Leverage: d("20"), EntryPrice: d("45000"), OpenedAt: now},
			{Investment: d("200"), Leverage: d("10"), EntryPrice: d("44500"), OpenedAt: now},
		},
		TrailingStop:   d("42000"),
		RemainingValue: d("5320"),
		RealizedValue:  d("2280"),
		TakeCount:      1,
		CreatedAt:      now,
	}
}

func TestPositionRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	pos := samplePosition()

	require.NoError(t, store.SavePosition(ctx, pos))

	loaded, err := store.LoadOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, pos.Symbol, got.Symbol)
	assert.Equal(t, pos.Side, got.Side)
	assert.Equal(t, pos.Status, got.Status)
	assert.Equal(t, pos.TakeCount, got.TakeCount)
	assert.True(t, got.TrailingStop.Equal(pos.TrailingStop))
	assert.True(t, got.RemainingValue.Equal(pos.RemainingValue))
	assert.True(t, got.RealizedValue.Equal(pos.RealizedValue))
	require.Len(t, got.Stages, 2)
	assert.True(t, got.Stages[0].Investment.Equal(d("100")))
	assert.True(t, got.Stages[1].EntryPrice.Equal(d("44500")))
}

func TestSavePositionReplacesStages(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	pos := samplePosition()

	require.NoError(t, store.SavePosition(ctx, pos))

	pos.Stages = append(pos.Stages, domain.Stage{
		Investment: d("400"), Leverage: d("5"), EntryPrice: d("44000"), OpenedAt: time.Now().UTC(),
	})
	pos.Status = domain.StatusAccumulating
	require.NoError(t, store.SavePosition(ctx, pos))

	loaded, err := store.LoadOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.StatusAccumulating, loaded[0].Status)
	assert.Len(t, loaded[0].Stages, 3)
}

func TestDeletePosition(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePosition(ctx, samplePosition()))
	require.NoError(t, store.DeletePosition(ctx, "BTCUSDT"))

	loaded, err := store.LoadOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestEventLog(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, typ := range []domain.EventType{domain.EventFirstTakeTriggered, domain.EventTrailingStopHit, domain.EventPositionClosed} {
		event := &domain.PositionEvent{
			Type:           typ,
			Symbol:         "BTCUSDT",
			Side:           domain.SideLong,
			Price:          d("51000"),
			RealizedValue:  d("2280"),
			RemainingValue: d("5320"),
			TrailingStop:   d("35700"),
			At:             now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.SaveEvent(ctx, event))
	}

	events, err := store.ListEvents(ctx, "BTCUSDT", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, domain.EventPositionClosed, events[0].Type)
	assert.Equal(t, domain.EventTrailingStopHit, events[1].Type)
	assert.True(t, events[0].Price.Equal(d("51000")))
}

func TestHistoryLog(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	history := &domain.PositionHistory{
		Symbol:        "BTCUSDT",
		Side:          domain.SideLong,
		TotalInvested: d("1500"),
		TotalValue:    d("7600"),
		RealizedValue: d("7600"),
		AvgEntryPrice: d("44289.47"),
		ExitPrice:     d("42000"),
		CloseReason:   "TRAILING_STOP",
		ClosedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveHistory(ctx, history))

	histories, err := store.ListHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, "TRAILING_STOP", histories[0].CloseReason)
	assert.True(t, histories[0].TotalInvested.Equal(d("1500")))
	assert.True(t, histories[0].ExitPrice.Equal(d("42000")))
	assert.NotZero(t, histories[0].ID)
}
