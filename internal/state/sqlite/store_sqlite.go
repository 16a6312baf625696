package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"etf-arb-bot/internal/state"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS order_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		qty INTEGER NOT NULL,
		price INTEGER NOT NULL,
		event TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		time_ms INTEGER NOT NULL
	)`)
	return err
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *Store) AppendOrderEvent(ctx context.Context, ev state.OrderEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_events (order_id, symbol, side, qty, price, event, reason, time_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.OrderID, ev.Symbol, ev.Side, ev.Qty, ev.Price, ev.Event, ev.Reason, ev.TimeMS)
	return err
}

// RecentOrderEvents returns up to limit events, newest first.
func (s *Store) RecentOrderEvents(ctx context.Context, limit int) ([]state.OrderEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, symbol, side, qty, price, event, reason, time_ms FROM order_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []state.OrderEvent
	for rows.Next() {
		var ev state.OrderEvent
		if err := rows.Scan(&ev.OrderID, &ev.Symbol, &ev.Side, &ev.Qty, &ev.Price, &ev.Event, &ev.Reason, &ev.TimeMS); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
