package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"etf-arb-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

type PnLSample struct {
	Time         time.Time
	Cash         int64
	MarkToMarket int64
	Tick         int64
	OpenOrders   int
}

type TopOfBook struct {
	Time   time.Time
	Symbol string
	Bid    int64
	Ask    int64
	HasBid bool
	HasAsk bool
}

// Writer streams PnL samples and top-of-book records into Timescale.
// Inserts happen on a background goroutine; enqueue never blocks the
// trading loop, samples are dropped when the queue is full.
type Writer struct {
	db       *sql.DB
	log      *zap.Logger
	schema   string
	pnl      chan PnLSample
	tops     chan TopOfBook
	started  atomic.Bool
	dropPnL  atomic.Uint64
	dropTops atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:     db,
		log:    log,
		schema: schema,
		pnl:    make(chan PnLSample, queueSize),
		tops:   make(chan TopOfBook, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueuePnL(sample PnLSample) {
	if w == nil {
		return
	}
	select {
	case w.pnl <- sample:
		return
	default:
		if w.dropPnL.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale pnl queue full")
		}
	}
}

func (w *Writer) EnqueueTopOfBook(top TopOfBook) {
	if w == nil {
		return
	}
	select {
	case w.tops <- top:
		return
	default:
		if w.dropTops.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale top-of-book queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-w.pnl:
			w.writePnL(ctx, sample)
		case top := <-w.tops:
			w.writeTopOfBook(ctx, top)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		cash BIGINT NOT NULL,
		mark_to_market BIGINT NOT NULL,
		tick BIGINT NOT NULL,
		open_orders INTEGER NOT NULL
	)`, w.table("pnl_samples"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		symbol TEXT NOT NULL,
		bid BIGINT NOT NULL,
		ask BIGINT NOT NULL,
		has_bid BOOLEAN NOT NULL,
		has_ask BOOLEAN NOT NULL
	)`, w.table("top_of_book"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("pnl_samples"))); err != nil && w.log != nil {
		w.log.Warn("timescale pnl_samples hypertable create failed", zap.Error(err))
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("top_of_book"))); err != nil && w.log != nil {
		w.log.Warn("timescale top_of_book hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writePnL(ctx context.Context, sample PnLSample) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, cash, mark_to_market, tick, open_orders
	) VALUES ($1,$2,$3,$4,$5)`, w.table("pnl_samples"))
	if _, err := w.db.ExecContext(ctx, query,
		sample.Time,
		sample.Cash,
		sample.MarkToMarket,
		sample.Tick,
		sample.OpenOrders,
	); err != nil && w.log != nil {
		w.log.Warn("timescale pnl insert failed", zap.Error(err))
	}
}

func (w *Writer) writeTopOfBook(ctx context.Context, top TopOfBook) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, symbol, bid, ask, has_bid, has_ask
	) VALUES ($1,$2,$3,$4,$5,$6)`, w.table("top_of_book"))
	if _, err := w.db.ExecContext(ctx, query,
		top.Time,
		top.Symbol,
		top.Bid,
		top.Ask,
		top.HasBid,
		top.HasAsk,
	); err != nil && w.log != nil {
		w.log.Warn("timescale top-of-book insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
