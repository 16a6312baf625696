package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"etf-arb-bot/internal/alerts"
	"etf-arb-bot/internal/book"
	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/ledger"
	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/position"
	"etf-arb-bot/internal/signal"
	"etf-arb-bot/internal/state"
	"etf-arb-bot/internal/state/sqlite"
	"etf-arb-bot/internal/stats"
	"etf-arb-bot/internal/timescale"
	"etf-arb-bot/internal/venue"

	"go.uber.org/zap"
)

const (
	tagArb   = "arb"
	tagPair  = "pair"
	tagQuote = "quote"
)

// pair stance: -1 short A / long B, 0 flat, +1 long A / short B.

type App struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *sqlite.Store
	session   *venue.WSClient
	venue     venue.Client
	book      *book.Book
	stats     *stats.Rolling
	ledger    *ledger.Ledger
	positions *position.Book
	metrics   *metrics.Metrics
	prom      *metrics.Prometheus
	alerts    *alerts.Telegram
	history   *timescale.Writer

	composites []signal.Composite
	pairs      []stats.Pair
	pairStance map[stats.Pair]int
	tickCount  int64
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(os.Getenv("VENUE_USERNAME"))
	if username == "" {
		return nil, errors.New("VENUE_USERNAME is required")
	}
	password := strings.TrimSpace(os.Getenv("VENUE_PASSWORD"))
	if password == "" {
		return nil, errors.New("VENUE_PASSWORD is required")
	}

	a := &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		book:       book.New(),
		stats:      stats.NewRolling(cfg.Strategy.Window),
		positions:  position.NewBook(),
		alerts:     alerts.NewTelegram(cfg.Telegram, log),
		composites: compositesFromConfig(cfg.Instruments),
		pairs:      pairsFromConfig(cfg.Pairs),
		pairStance: make(map[stats.Pair]int),
	}
	a.metrics = metrics.NewNoop()
	if cfg.Metrics.Enabled {
		a.prom = metrics.NewPrometheus()
		a.metrics = a.prom.Metrics
	}
	history, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.history = history

	a.session = venue.NewWSClient(venue.WSConfig{
		URL:            cfg.Venue.URL,
		Username:       username,
		Password:       password,
		ReconnectDelay: cfg.Venue.ReconnectDelay,
		RequestTimeout: cfg.Venue.RequestTimeout,
		PingInterval:   cfg.Venue.PingInterval,
	}, a, log)
	a.venue = a.session
	a.ledger = ledger.New(a.venue, store, log)
	return a, nil
}

func compositesFromConfig(cfg config.InstrumentsConfig) []signal.Composite {
	symbols := make([]string, 0, len(cfg.Composites))
	for sym := range cfg.Composites {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	out := make([]signal.Composite, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, signal.Composite{
			Symbol:   sym,
			Basket:   cfg.Composites[sym],
			SwapCost: cfg.SwapCosts[sym],
		})
	}
	return out
}

func pairsFromConfig(pairs [][2]string) []stats.Pair {
	out := make([]stats.Pair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, stats.Pair{A: p[0], B: p[1]})
	}
	return out
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	defer a.history.Close()

	// Reconciliation waits for an authenticated session and repeats
	// after every reconnect: orders placed before a connection loss are
	// stale by the time the session is back.
	a.session.OnReady(a.cancelOpenOrders)
	sessionDone := make(chan error, 1)
	go func() { sessionDone <- a.session.Run(ctx) }()
	a.history.Start(ctx)
	a.startMetricsServer(ctx)

	a.logLastSnapshot(ctx)

	ticker := time.NewTicker(a.cfg.Strategy.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sessionDone:
			return err
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// cancelOpenOrders clears anything the venue still has working from a
// previous run. Orders we did not place this session are unknown to
// the ledger, so they are cancelled directly.
func (a *App) cancelOpenOrders(ctx context.Context) {
	ids, err := a.venue.OpenOrders(ctx)
	if err != nil {
		a.log.Warn("open order reconciliation failed", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := a.venue.CancelOrder(ctx, id); err != nil {
			a.log.Warn("startup cancel failed", zap.String("order_id", id), zap.Error(err))
		}
	}
	if len(ids) > 0 {
		a.log.Info("cancelled stale venue orders", zap.Int("count", len(ids)))
	}
}

func (a *App) logLastSnapshot(ctx context.Context) {
	snapshot, ok, err := state.LoadPnLSnapshot(ctx, a.store)
	if err != nil {
		a.log.Warn("pnl snapshot load failed", zap.Error(err))
		return
	}
	if ok {
		a.log.Info("previous session pnl",
			zap.Int64("cash", snapshot.Cash),
			zap.Int64("mark_to_market", snapshot.MarkToMarket),
			zap.Int64("tick", snapshot.Tick))
	}
}

func (a *App) startMetricsServer(ctx context.Context) {
	if a.prom == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// tick runs one decision pass. Nothing here is fatal: a failed leg
// logs and the next tick sees fresh state.
func (a *App) tick(ctx context.Context) {
	a.tickCount++
	if a.cfg.Strategy.EnableNAV {
		a.navTick(ctx)
	}
	if a.cfg.Strategy.EnablePairs {
		a.pairsTick(ctx)
	}
	if a.cfg.Strategy.EnableQuoting {
		a.quoteTick(ctx)
	}
	if a.cfg.Strategy.PnLEvery > 0 && a.tickCount%int64(a.cfg.Strategy.PnLEvery) == 0 {
		a.reportPnL(ctx)
	}
}

// navTick fires composite arbitrage. New arbs wait until earlier arb
// legs are off the book: partial baskets must not stack. Only arb
// orders gate here; resting quotes and pair legs belong to other
// strategies.
func (a *App) navTick(ctx context.Context) {
	if a.ledger.WorkingCountByTag(tagArb) > 0 {
		return
	}
	signals, suppressed := signal.NAVSignals(a.book, a.composites, signal.NAVConfig{
		Margin:       a.cfg.Strategy.Margin,
		CrossTicks:   a.cfg.Strategy.CrossTicks,
		CompositeQty: a.cfg.Strategy.CompositeQty,
	})
	a.countSuppressed(suppressed)
	for _, sig := range signals {
		a.log.Info("nav arbitrage",
			zap.String("composite", sig.Composite),
			zap.String("direction", string(sig.Direction)),
			zap.Float64("spread", sig.Spread))
		if !a.placeLegs(ctx, sig.Legs, tagArb) {
			continue
		}
		name := venue.SwapName(sig.Direction, sig.Composite)
		if err := a.venue.PlaceSwap(ctx, name, a.cfg.Strategy.CompositeQty); err != nil {
			a.log.Warn("swap failed", zap.String("swap", name), zap.Error(err))
			continue
		}
		a.metrics.SwapsPlaced.Inc()
		for _, comp := range a.composites {
			if comp.Symbol == sig.Composite {
				a.positions.OnSwap(comp, sig.Direction, a.cfg.Strategy.CompositeQty)
				break
			}
		}
	}
}

func (a *App) placeLegs(ctx context.Context, legs []signal.OrderIntent, tag string) bool {
	ok := true
	for _, leg := range legs {
		_, err := a.ledger.Place(ctx, venue.OrderRequest{
			Symbol: leg.Symbol,
			Side:   leg.Side,
			Qty:    leg.Qty,
			Price:  leg.Price,
			Market: leg.Market,
		}, tag)
		if err != nil {
			a.log.Warn("leg placement failed",
				zap.String("symbol", leg.Symbol),
				zap.String("side", string(leg.Side)),
				zap.Error(err))
			ok = false
			continue
		}
		a.metrics.OrdersPlaced.Inc()
	}
	return ok
}

// pairsTick enters or flattens one stance per pair. A signal in the
// held direction is skipped; an opposite signal only flattens, leaving
// re-entry to a later tick.
func (a *App) pairsTick(ctx context.Context) {
	signals := signal.PairSignals(a.stats, a.pairs, a.cfg.Strategy.ZThreshold)
	for _, sig := range signals {
		desired := 1
		if sig.ShortA {
			desired = -1
		}
		current := a.pairStance[sig.Pair]
		switch {
		case current == desired:
			continue
		case current != 0:
			a.log.Info("pair stance flatten",
				zap.String("a", sig.Pair.A),
				zap.String("b", sig.Pair.B),
				zap.Float64("z", sig.Z))
			if a.placePairLegs(ctx, sig.Pair, current > 0) {
				a.pairStance[sig.Pair] = 0
			}
		default:
			a.log.Info("pair stance enter",
				zap.String("a", sig.Pair.A),
				zap.String("b", sig.Pair.B),
				zap.Float64("z", sig.Z),
				zap.Bool("short_a", sig.ShortA))
			if a.placePairLegs(ctx, sig.Pair, sig.ShortA) {
				a.pairStance[sig.Pair] = desired
			}
		}
	}
}

// placePairLegs crosses the book on both legs. shortA sells A and buys
// B; the inverse closes a short-A stance.
func (a *App) placePairLegs(ctx context.Context, pair stats.Pair, shortA bool) bool {
	bidA, okBidA := a.book.BestBid(pair.A)
	askA, okAskA := a.book.BestAsk(pair.A)
	bidB, okBidB := a.book.BestBid(pair.B)
	askB, okAskB := a.book.BestAsk(pair.B)
	if !okBidA || !okAskA || !okBidB || !okAskB {
		a.metrics.SignalsSuppressed.Inc()
		return false
	}
	cross := a.cfg.Strategy.CrossTicks
	qty := a.cfg.Strategy.PairQty
	var legs []signal.OrderIntent
	if shortA {
		legs = []signal.OrderIntent{
			{Symbol: pair.A, Side: venue.SideSell, Qty: qty, Price: bidA - cross},
			{Symbol: pair.B, Side: venue.SideBuy, Qty: qty, Price: askB + cross},
		}
	} else {
		legs = []signal.OrderIntent{
			{Symbol: pair.A, Side: venue.SideBuy, Qty: qty, Price: askA + cross},
			{Symbol: pair.B, Side: venue.SideSell, Qty: qty, Price: bidB - cross},
		}
	}
	return a.placeLegs(ctx, legs, tagPair)
}

// quoteTick refreshes the passive two-sided quotes: cancel what no
// longer matches the desired levels, then place what is missing. A
// side with a cancel still in flight is left alone until the ack.
func (a *App) quoteTick(ctx context.Context) {
	quotes, suppressed := signal.Quotes(a.book, a.ledger, a.cfg.Instruments.Underlying, signal.QuoteConfig{
		Edge: a.cfg.Strategy.Edge,
		Size: a.cfg.Strategy.QuoteSize,
	})
	a.countSuppressed(suppressed)
	desired := make(map[string]signal.QuoteIntent, len(quotes))
	for _, q := range quotes {
		desired[q.Symbol] = q
	}
	a.ledger.CancelOutdated(ctx, tagQuote, func(o ledger.Order) bool {
		q, ok := desired[o.Symbol]
		if !ok {
			return false
		}
		if o.Side == venue.SideBuy {
			return q.HasBid && o.Price == q.Bid
		}
		return o.Price == q.Ask
	})
	for _, q := range quotes {
		if q.HasBid {
			a.placeQuoteSide(ctx, q.Symbol, venue.SideBuy, q.Bid, q.Size)
		}
		a.placeQuoteSide(ctx, q.Symbol, venue.SideSell, q.Ask, q.Size)
	}
}

func (a *App) countSuppressed(n int) {
	for i := 0; i < n; i++ {
		a.metrics.SignalsSuppressed.Inc()
	}
}

func (a *App) placeQuoteSide(ctx context.Context, symbol string, side venue.Side, price, size int64) {
	if a.ledger.HasWorkingAt(symbol, side, price) {
		return
	}
	if a.ledger.HasPendingCancel(symbol, side) {
		return
	}
	_, err := a.ledger.Place(ctx, venue.OrderRequest{
		Symbol: symbol,
		Side:   side,
		Qty:    size,
		Price:  price,
	}, tagQuote)
	if err != nil {
		a.log.Warn("quote placement failed",
			zap.String("symbol", symbol),
			zap.String("side", string(side)),
			zap.Error(err))
		return
	}
	a.metrics.OrdersPlaced.Inc()
}

func (a *App) reportPnL(ctx context.Context) {
	mtm := a.positions.MarkToMarket(a.book.Mid)
	cash := a.positions.Cash()
	a.log.Info("pnl",
		zap.Int64("cash", cash),
		zap.Int64("mark_to_market", mtm),
		zap.Int64("tick", a.tickCount),
		zap.Int("open_orders", a.ledger.WorkingCount()))
	a.metrics.PnL.Set(float64(mtm))
	snapshot := state.PnLSnapshot{
		Cash:         cash,
		MarkToMarket: mtm,
		Inventory:    a.positions.Snapshot(),
		Tick:         a.tickCount,
		UpdatedAtMS:  time.Now().UnixMilli(),
	}
	if err := state.SavePnLSnapshot(ctx, a.store, snapshot); err != nil {
		a.log.Warn("pnl snapshot save failed", zap.Error(err))
	}
	a.history.EnqueuePnL(timescale.PnLSample{
		Time:         time.Now(),
		Cash:         cash,
		MarkToMarket: mtm,
		Tick:         a.tickCount,
		OpenOrders:   a.ledger.WorkingCount(),
	})
}
