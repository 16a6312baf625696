package ledger

import (
	"context"
	"sync"
	"time"

	"etf-arb-bot/internal/state"
	"etf-arb-bot/internal/venue"

	"go.uber.org/zap"
)

const (
	StatusWorking    = "WORKING"
	StatusCancelling = "CANCELLING"
)

const (
	EventPlaced    = "placed"
	EventFilled    = "filled"
	EventRejected  = "rejected"
	EventCancelled = "cancelled"
)

// Order is one of our live orders as the venue knows it. An order
// enters the ledger only once the venue has assigned it an id.
type Order struct {
	ID     string
	Symbol string
	Side   venue.Side
	Qty    int64
	Price  int64
	Market bool
	Status string
	Tag    string
}

// Ledger mirrors our working orders at the venue. It owns the
// place/cancel calls so that the in-memory view and the journal stay
// consistent with what was actually sent.
type Ledger struct {
	venue   venue.Client
	journal state.OrderJournal
	log     *zap.Logger

	mu            sync.RWMutex
	working       map[string]Order
	pendingCancel map[string]struct{}
}

func New(client venue.Client, journal state.OrderJournal, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		venue:         client,
		journal:       journal,
		log:           log,
		working:       make(map[string]Order),
		pendingCancel: make(map[string]struct{}),
	}
}

// Place submits the order and records it once the venue returns an id.
// On error nothing is recorded; the order never existed.
func (l *Ledger) Place(ctx context.Context, req venue.OrderRequest, tag string) (Order, error) {
	id, err := l.venue.PlaceOrder(ctx, req)
	if err != nil {
		return Order{}, err
	}
	order := Order{
		ID:     id,
		Symbol: req.Symbol,
		Side:   req.Side,
		Qty:    req.Qty,
		Price:  req.Price,
		Market: req.Market,
		Status: StatusWorking,
		Tag:    tag,
	}
	l.mu.Lock()
	l.working[id] = order
	l.mu.Unlock()
	l.append(ctx, order, EventPlaced, "")
	return order, nil
}

// OnFill removes the filled order and reports it. Unknown ids are
// ignored so replayed or late fills stay idempotent.
func (l *Ledger) OnFill(orderID string, qty, price int64) (Order, bool) {
	l.mu.Lock()
	order, ok := l.working[orderID]
	if ok {
		delete(l.working, orderID)
		delete(l.pendingCancel, orderID)
	}
	l.mu.Unlock()
	if !ok {
		return Order{}, false
	}
	order.Qty = qty
	order.Price = price
	l.append(context.Background(), order, EventFilled, "")
	return order, true
}

func (l *Ledger) OnReject(orderID, reason string) (Order, bool) {
	l.mu.Lock()
	order, ok := l.working[orderID]
	if ok {
		delete(l.working, orderID)
		delete(l.pendingCancel, orderID)
	}
	l.mu.Unlock()
	if !ok {
		return Order{}, false
	}
	l.append(context.Background(), order, EventRejected, reason)
	return order, true
}

func (l *Ledger) OnCancelled(orderID string) (Order, bool) {
	l.mu.Lock()
	order, ok := l.working[orderID]
	if ok {
		delete(l.working, orderID)
		delete(l.pendingCancel, orderID)
	}
	l.mu.Unlock()
	if !ok {
		return Order{}, false
	}
	l.append(context.Background(), order, EventCancelled, "")
	return order, true
}

// CancelOutdated requests cancellation of every working order matching
// keep == false. Orders already awaiting a cancel ack are skipped so a
// slow venue never sees the same cancel twice.
func (l *Ledger) CancelOutdated(ctx context.Context, tag string, keep func(Order) bool) int {
	l.mu.Lock()
	var victims []Order
	for id, order := range l.working {
		if order.Tag != tag {
			continue
		}
		if _, cancelling := l.pendingCancel[id]; cancelling {
			continue
		}
		if keep != nil && keep(order) {
			continue
		}
		order.Status = StatusCancelling
		l.working[id] = order
		l.pendingCancel[id] = struct{}{}
		victims = append(victims, order)
	}
	l.mu.Unlock()

	for _, order := range victims {
		if err := l.venue.CancelOrder(ctx, order.ID); err != nil {
			l.log.Warn("cancel request failed",
				zap.String("order_id", order.ID),
				zap.String("symbol", order.Symbol),
				zap.Error(err))
			l.mu.Lock()
			delete(l.pendingCancel, order.ID)
			if cur, ok := l.working[order.ID]; ok {
				cur.Status = StatusWorking
				l.working[order.ID] = cur
			}
			l.mu.Unlock()
		}
	}
	return len(victims)
}

func (l *Ledger) WorkingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.working)
}

// WorkingCountByTag counts live orders belonging to one strategy, so
// one strategy's resting orders never gate another's.
func (l *Ledger) WorkingCountByTag(tag string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, order := range l.working {
		if order.Tag == tag {
			n++
		}
	}
	return n
}

func (l *Ledger) WorkingBySymbol(symbol string) []Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Order
	for _, order := range l.working {
		if order.Symbol == symbol {
			out = append(out, order)
		}
	}
	return out
}

// HasWorkingAt reports whether we have a live order resting at the
// exact price level. Orders awaiting a cancel ack still count: they
// can fill until the venue confirms.
func (l *Ledger) HasWorkingAt(symbol string, side venue.Side, price int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, order := range l.working {
		if order.Symbol == symbol && order.Side == side && order.Price == price {
			return true
		}
	}
	return false
}

func (l *Ledger) HasPendingCancel(symbol string, side venue.Side) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for id := range l.pendingCancel {
		order, ok := l.working[id]
		if ok && order.Symbol == symbol && order.Side == side {
			return true
		}
	}
	return false
}

func (l *Ledger) append(ctx context.Context, order Order, event, reason string) {
	if l.journal == nil {
		return
	}
	err := l.journal.AppendOrderEvent(ctx, state.OrderEvent{
		OrderID: order.ID,
		Symbol:  order.Symbol,
		Side:    string(order.Side),
		Qty:     order.Qty,
		Price:   order.Price,
		Event:   event,
		Reason:  reason,
		TimeMS:  time.Now().UnixMilli(),
	})
	if err != nil {
		l.log.Warn("order journal append failed",
			zap.String("order_id", order.ID),
			zap.String("event", event),
			zap.Error(err))
	}
}
