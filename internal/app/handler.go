package app

import (
	"context"
	"time"

	"etf-arb-bot/internal/book"
	"etf-arb-bot/internal/timescale"

	"go.uber.org/zap"
)

// The venue session delivers events one at a time from its read loop,
// so these callbacks never race each other. They do race the ticker
// goroutine, which is why every shared component locks internally.

func (a *App) OnBookUpdate(symbol string, bids, asks []book.Level) {
	a.book.ApplyUpdate(symbol, bids, asks)
	a.observePairs(symbol)
	if a.history != nil {
		bid, hasBid := a.book.BestBid(symbol)
		ask, hasAsk := a.book.BestAsk(symbol)
		a.history.EnqueueTopOfBook(timescale.TopOfBook{
			Time:   time.Now(),
			Symbol: symbol,
			Bid:    bid,
			Ask:    ask,
			HasBid: hasBid,
			HasAsk: hasAsk,
		})
	}
}

// observePairs samples the ratio bid(A)/ask(B) for every configured
// pair touching the updated symbol, once both sides exist.
func (a *App) observePairs(symbol string) {
	for _, pair := range a.pairs {
		if pair.A != symbol && pair.B != symbol {
			continue
		}
		bidA, okA := a.book.BestBid(pair.A)
		askB, okB := a.book.BestAsk(pair.B)
		if !okA || !okB || askB == 0 {
			continue
		}
		a.stats.Observe(pair, float64(bidA)/float64(askB))
	}
}

func (a *App) OnOrderFilled(orderID string, qty, price int64) {
	order, ok := a.ledger.OnFill(orderID, qty, price)
	if !ok {
		a.log.Debug("fill for unknown order", zap.String("order_id", orderID))
		return
	}
	a.positions.OnFill(order.Symbol, order.Side, qty, price)
	a.metrics.OrdersFilled.Inc()
	a.log.Info("order filled",
		zap.String("order_id", orderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Int64("qty", qty),
		zap.Int64("price", price))
}

func (a *App) OnOrderRejected(orderID, reason string) {
	order, ok := a.ledger.OnReject(orderID, reason)
	if !ok {
		a.log.Debug("reject for unknown order", zap.String("order_id", orderID))
		return
	}
	a.metrics.OrdersRejected.Inc()
	a.log.Warn("order rejected",
		zap.String("order_id", orderID),
		zap.String("symbol", order.Symbol),
		zap.String("reason", reason))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := a.alerts.SendOrderReject(ctx, order.Symbol, string(order.Side), order.Qty, order.Price, reason)
		if err != nil {
			a.log.Warn("reject alert failed", zap.Error(err))
		}
	}()
}

func (a *App) OnOrderCancelled(orderID string) {
	if _, ok := a.ledger.OnCancelled(orderID); !ok {
		a.log.Debug("cancel ack for unknown order", zap.String("order_id", orderID))
		return
	}
	a.metrics.OrdersCancelled.Inc()
}

// OnTradeMessage is the public tape. Nothing consumes it yet; it is
// logged at debug so a strategy can pick it up later.
func (a *App) OnTradeMessage(symbol string, price, qty int64) {
	a.log.Debug("trade",
		zap.String("symbol", symbol),
		zap.Int64("price", price),
		zap.Int64("qty", qty))
}
