package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vitos/crypto_scale_engine/internal/domain"
)

// SQLiteStore is the reference caller-side archive. Money values are
// stored as TEXT so the exact decimal representation survives the round
// trip.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			symbol TEXT PRIMARY KEY,
			side TEXT NOT NULL,
			status TEXT NOT NULL,
			trailing_stop TEXT NOT NULL DEFAULT '0',
			remaining_value TEXT NOT NULL DEFAULT '0',
			realized_value TEXT NOT NULL DEFAULT '0',
			take_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			investment TEXT NOT NULL,
			leverage TEXT NOT NULL,
			entry_price TEXT NOT NULL,
			opened_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stages_symbol ON stages(symbol);`,
		`CREATE TABLE IF NOT EXISTS position_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			price TEXT NOT NULL,
			realized_value TEXT NOT NULL,
			remaining_value TEXT NOT NULL,
			trailing_stop TEXT NOT NULL,
			at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_symbol ON position_events(symbol);`,
		`CREATE TABLE IF NOT EXISTS position_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			total_invested TEXT NOT NULL,
			total_value TEXT NOT NULL,
			realized_value TEXT NOT NULL,
			avg_entry_price TEXT NOT NULL,
			exit_price TEXT NOT NULL,
			close_reason TEXT NOT NULL,
			closed_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// SavePosition snapshots the position and its full stage list in one
// transaction.
func (s *SQLiteStore) SavePosition(ctx context.Context, pos *domain.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO positions (symbol, side, status, trailing_stop, remaining_value, realized_value, take_count, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(symbol) DO UPDATE SET
			  side=excluded.side,
			  status=excluded.status,
			  trailing_stop=excluded.trailing_stop,
			  remaining_value=excluded.remaining_value,
			  realized_value=excluded.realized_value,
			  take_count=excluded.take_count`
	if _, err := tx.ExecContext(ctx, query,
		pos.Symbol, pos.Side, pos.Status, pos.TrailingStop.String(),
		pos.RemainingValue.String(), pos.RealizedValue.String(), pos.TakeCount, pos.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE symbol = ?`, pos.Symbol); err != nil {
		return err
	}
	for _, stage := range pos.Stages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stages (symbol, investment, leverage, entry_price, opened_at) VALUES (?, ?, ?, ?, ?)`,
			pos.Symbol, stage.Investment.String(), stage.Leverage.String(), stage.EntryPrice.String(), stage.OpenedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeletePosition(ctx context.Context, symbol string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE symbol = ?`, symbol); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE symbol = ?`, symbol); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, side, status, trailing_stop, remaining_value, realized_value, take_count, created_at FROM positions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var pos domain.Position
		var trailing, remaining, realized string
		if err := rows.Scan(&pos.Symbol, &pos.Side, &pos.Status, &trailing, &remaining, &realized, &pos.TakeCount, &pos.CreatedAt); err != nil {
			return nil, err
		}
		if pos.TrailingStop, err = decimal.NewFromString(trailing); err != nil {
			return nil, fmt.Errorf("bad trailing_stop for %s: %w", pos.Symbol, err)
		}
		if pos.RemainingValue, err = decimal.NewFromString(remaining); err != nil {
			return nil, fmt.Errorf("bad remaining_value for %s: %w", pos.Symbol, err)
		}
		if pos.RealizedValue, err = decimal.NewFromString(realized); err != nil {
			return nil, fmt.Errorf("bad realized_value for %s: %w", pos.Symbol, err)
		}
		positions = append(positions, &pos)
	}

	for _, pos := range positions {
		stages, err := s.loadStages(ctx, pos.Symbol)
		if err != nil {
			return nil, err
		}
		pos.Stages = stages
	}
	return positions, nil
}

func (s *SQLiteStore) loadStages(ctx context.Context, symbol string) ([]domain.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT investment, leverage, entry_price, opened_at FROM stages WHERE symbol = ? ORDER BY id ASC`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []domain.Stage
	for rows.Next() {
		var stage domain.Stage
		var investment, leverage, entryPrice string
		if err := rows.Scan(&investment, &leverage, &entryPrice, &stage.OpenedAt); err != nil {
			return nil, err
		}
		if stage.Investment, err = decimal.NewFromString(investment); err != nil {
			return nil, err
		}
		if stage.Leverage, err = decimal.NewFromString(leverage); err != nil {
			return nil, err
		}
		if stage.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func (s *SQLiteStore) SaveEvent(ctx context.Context, event *domain.PositionEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO position_events (type, symbol, side, price, realized_value, remaining_value, trailing_stop, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Type, event.Symbol, event.Side, event.Price.String(),
		event.RealizedValue.String(), event.RemainingValue.String(), event.TrailingStop.String(), event.At)
	return err
}

func (s *SQLiteStore) ListEvents(ctx context.Context, symbol string, limit int) ([]*domain.PositionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, symbol, side, price, realized_value, remaining_value, trailing_stop, at
		 FROM position_events WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.PositionEvent
	for rows.Next() {
		var event domain.PositionEvent
		var price, realized, remaining, trailing string
		if err := rows.Scan(&event.Type, &event.Symbol, &event.Side, &price, &realized, &remaining, &trailing, &event.At); err != nil {
			return nil, err
		}
		if event.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if event.RealizedValue, err = decimal.NewFromString(realized); err != nil {
			return nil, err
		}
		if event.RemainingValue, err = decimal.NewFromString(remaining); err != nil {
			return nil, err
		}
		if event.TrailingStop, err = decimal.NewFromString(trailing); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	return events, nil
}

func (s *SQLiteStore) SaveHistory(ctx context.Context, history *domain.PositionHistory) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO position_history (symbol, side, total_invested, total_value, realized_value, avg_entry_price, exit_price, close_reason, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		history.Symbol, history.Side, history.TotalInvested.String(), history.TotalValue.String(),
		history.RealizedValue.String(), history.AvgEntryPrice.String(), history.ExitPrice.String(),
		history.CloseReason, history.ClosedAt)
	return err
}

func (s *SQLiteStore) ListHistory(ctx context.Context, limit int) ([]*domain.PositionHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, side, total_invested, total_value, realized_value, avg_entry_price, exit_price, close_reason, closed_at
		 FROM position_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []*domain.PositionHistory
	for rows.Next() {
		var h domain.PositionHistory
		var invested, total, realized, avg, exit string
		if err := rows.Scan(&h.ID, &h.Symbol, &h.Side, &invested, &total, &realized, &avg, &exit, &h.CloseReason, &h.ClosedAt); err != nil {
			return nil, err
		}
		if h.TotalInvested, err = decimal.NewFromString(invested); err != nil {
			return nil, err
		}
		if h.TotalValue, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if h.RealizedValue, err = decimal.NewFromString(realized); err != nil {
			return nil, err
		}
		if h.AvgEntryPrice, err = decimal.NewFromString(avg); err != nil {
			return nil, err
		}
		if h.ExitPrice, err = decimal.NewFromString(exit); err != nil {
			return nil, err
		}
		histories = append(histories, &h)
	}
	return histories, nil
}
