package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// PositionService owns every tracked position. Each symbol has exactly
// one ledger behind its own mutex, so stage appends and price updates
// for one instrument are serialized while different instruments run in
// parallel.
type PositionService struct {
	cfg         Config
	machine     *TakeProfitStateMachine
	thresholds  *ProfitThresholdEngine
	liquidation *LiquidationPriceCalculator
	archive     domain.PositionArchive
	sink        domain.EventSink
	logger      *zap.Logger

	mu         sync.Mutex
	ledgers    map[string]*StageLedger
	locks      map[string]*sync.Mutex
	lastPrices map[string]decimal.Decimal
}

// NewPositionService wires the engine. archive and sink may be nil when
// the core is used as a plain library.
func NewPositionService(cfg Config, archive domain.PositionArchive, sink domain.EventSink, logger *zap.Logger) *PositionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionService{
		cfg:         cfg,
		machine:     NewTakeProfitStateMachine(cfg),
		thresholds:  NewProfitThresholdEngine(cfg),
		liquidation: NewLiquidationPriceCalculator(),
		archive:     archive,
		sink:        sink,
		logger:      logger,
		ledgers:     make(map[string]*StageLedger),
		locks:       make(map[string]*sync.Mutex),
		lastPrices:  make(map[string]decimal.Decimal),
	}
}

// Restore loads open positions from the archive. Derived values need no
// replay; the stage list and status are enough.
func (s *PositionService) Restore(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	positions, err := s.archive.LoadOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore positions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pos := range positions {
		s.ledgers[pos.Symbol] = RestoreStageLedger(s.cfg, pos)
		s.logger.Info("Restored position",
			zap.String("symbol", pos.Symbol),
			zap.String("status", string(pos.Status)),
			zap.Int("stages", len(pos.Stages)))
	}
	return nil
}

func (s *PositionService) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.locks[symbol] = l
	}
	return l
}

func (s *PositionService) ledger(symbol string) *StageLedger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledgers[symbol]
}

// OpenStage appends a capital commitment, creating the position on the
// first stage.
func (s *PositionService) OpenStage(ctx context.Context, symbol string, side domain.Side, investment, leverage, entryPrice decimal.Decimal) (*domain.Position, error) {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	ledger, ok := s.ledgers[symbol]
	if !ok {
		ledger = NewStageLedger(s.cfg, symbol, side)
		s.ledgers[symbol] = ledger
	}
	s.mu.Unlock()

	if ledger.Position().Side != side {
		return nil, &domain.InvalidStageError{Field: "direction", Reason: fmt.Sprintf("open position is %s", ledger.Position().Side)}
	}

	pos, err := ledger.AddStage(investment, leverage, entryPrice, time.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stage added",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("investment", investment.String()),
		zap.String("leverage", leverage.String()),
		zap.String("entry_price", entryPrice.String()),
		zap.Int("stages", ledger.StageCount()),
		zap.String("first_take_trigger", s.thresholds.FirstTakeProfitTrigger(ledger.TotalInvested()).String()))

	s.persist(ctx, pos)
	return pos, nil
}

// ProcessTick should be called for every price update of a symbol.
func (s *PositionService) ProcessTick(ctx context.Context, symbol string, price decimal.Decimal) error {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	s.lastPrices[symbol] = price
	ledger := s.ledgers[symbol]
	s.mu.Unlock()

	if ledger == nil {
		return nil
	}

	pos := ledger.Position()
	prevStop := pos.TrailingStop
	events, err := s.machine.OnPrice(ledger, price, time.Now())
	if err != nil {
		return err
	}

	s.emit(ctx, events)

	if pos.Status == domain.StatusClosed {
		s.finish(ctx, ledger, price, "TRAILING_STOP")
		return nil
	}
	if len(events) > 0 || !prevStop.Equal(pos.TrailingStop) {
		s.persist(ctx, pos)
	}
	return nil
}

// ClosePosition is the manual override. A zero price falls back to the
// last observed tick.
func (s *PositionService) ClosePosition(ctx context.Context, symbol string, price decimal.Decimal) error {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	ledger := s.ledgers[symbol]
	if !price.IsPositive() {
		price = s.lastPrices[symbol]
	}
	s.mu.Unlock()

	if ledger == nil {
		return fmt.Errorf("no open position for %s", symbol)
	}
	if !price.IsPositive() {
		return fmt.Errorf("no known price for %s", symbol)
	}

	event, err := s.machine.Close(ledger, price, time.Now())
	if err != nil {
		return err
	}

	s.emit(ctx, []domain.PositionEvent{event})
	s.finish(ctx, ledger, price, "MANUAL")
	return nil
}

// LatestPrice returns the last tick seen for a symbol.
func (s *PositionService) LatestPrice(symbol string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrices[symbol]
}

// PositionView is a read-only snapshot for reporting.
type PositionView struct {
	Symbol              string                `json:"symbol"`
	Side                domain.Side           `json:"side"`
	Status              domain.PositionStatus `json:"status"`
	Stages              int                   `json:"stages"`
	TotalInvested       decimal.Decimal       `json:"total_invested"`
	TotalPositionValue  decimal.Decimal       `json:"total_position_value"`
	AvgEntryPrice       decimal.Decimal       `json:"avg_entry_price"`
	OpenValue           decimal.Decimal       `json:"open_value"`
	RealizedValue       decimal.Decimal       `json:"realized_value"`
	TrailingStop        decimal.Decimal       `json:"trailing_stop"`
	FirstTakeTrigger    decimal.Decimal       `json:"first_take_trigger"`
	CurrentMargin       decimal.Decimal       `json:"current_margin"`
	LiquidationEstimate decimal.Decimal       `json:"liquidation_estimate"`
	LastPrice           decimal.Decimal       `json:"last_price"`
}

// Positions snapshots all open positions, sorted by symbol.
func (s *PositionService) Positions() []PositionView {
	s.mu.Lock()
	ledgers := make([]*StageLedger, 0, len(s.ledgers))
	for _, l := range s.ledgers {
		ledgers = append(ledgers, l)
	}
	s.mu.Unlock()

	views := make([]PositionView, 0, len(ledgers))
	for _, ledger := range ledgers {
		lock := s.symbolLock(ledger.Position().Symbol)
		lock.Lock()
		views = append(views, s.view(ledger))
		lock.Unlock()
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Symbol < views[j].Symbol })
	return views
}

func (s *PositionService) view(ledger *StageLedger) PositionView {
	pos := ledger.Position()
	last := s.LatestPrice(pos.Symbol)

	v := PositionView{
		Symbol:             pos.Symbol,
		Side:               pos.Side,
		Status:             pos.Status,
		Stages:             ledger.StageCount(),
		TotalInvested:      ledger.TotalInvested(),
		TotalPositionValue: ledger.TotalPositionValue(),
		AvgEntryPrice:      ledger.WeightedAverageEntryPrice(),
		OpenValue:          pos.OpenValue(),
		RealizedValue:      pos.RealizedValue,
		TrailingStop:       pos.TrailingStop,
		FirstTakeTrigger:   s.thresholds.FirstTakeProfitTrigger(ledger.TotalInvested()),
		LastPrice:          last,
	}
	if last.IsPositive() {
		v.CurrentMargin = s.thresholds.CurrentMargin(ledger, last)
	}
	if liq, err := s.liquidation.Estimate(ledger); err == nil {
		v.LiquidationEstimate = liq
	}
	return v
}

func (s *PositionService) emit(ctx context.Context, events []domain.PositionEvent) {
	for _, event := range events {
		s.logger.Info("Position event",
			zap.String("type", string(event.Type)),
			zap.String("symbol", event.Symbol),
			zap.String("price", event.Price.String()),
			zap.String("realized", event.RealizedValue.String()),
			zap.String("remaining", event.RemainingValue.String()))
		if s.sink != nil {
			s.sink.Publish(event)
		}
		if s.archive != nil {
			if err := s.archive.SaveEvent(ctx, &event); err != nil {
				s.logger.Warn("Failed to archive event", zap.Error(err))
			}
		}
	}
}

func (s *PositionService) persist(ctx context.Context, pos *domain.Position) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SavePosition(ctx, pos); err != nil {
		s.logger.Warn("Failed to archive position", zap.String("symbol", pos.Symbol), zap.Error(err))
	}
}

// finish archives the closed position and drops it from the live set.
func (s *PositionService) finish(ctx context.Context, ledger *StageLedger, exitPrice decimal.Decimal, reason string) {
	pos := ledger.Position()
	if s.archive != nil {
		history := &domain.PositionHistory{
			Symbol:        pos.Symbol,
			Side:          pos.Side,
			TotalInvested: ledger.TotalInvested(),
			TotalValue:    ledger.TotalPositionValue(),
			RealizedValue: pos.RealizedValue,
			AvgEntryPrice: ledger.WeightedAverageEntryPrice(),
			ExitPrice:     exitPrice,
			CloseReason:   reason,
			ClosedAt:      pos.ClosedAt,
		}
		if err := s.archive.SaveHistory(ctx, history); err != nil {
			s.logger.Warn("Failed to archive history", zap.Error(err))
		}
		if err := s.archive.DeletePosition(ctx, pos.Symbol); err != nil {
			s.logger.Warn("Failed to delete archived position", zap.Error(err))
		}
	}

	s.mu.Lock()
	delete(s.ledgers, pos.Symbol)
	s.mu.Unlock()

	s.logger.Info("Position closed",
		zap.String("symbol", pos.Symbol),
		zap.String("reason", reason),
		zap.String("exit_price", exitPrice.String()),
		zap.String("realized", pos.RealizedValue.String()))
}
