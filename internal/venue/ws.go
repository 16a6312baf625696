package venue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// WSConfig holds connection parameters for the venue session.
type WSConfig struct {
	URL            string
	Username       string
	Password       string
	ReconnectDelay time.Duration
	RequestTimeout time.Duration
	PingInterval   time.Duration
}

// WSClient is a single authenticated websocket session to the venue.
// Requests are correlated to responses by id; pushes are dispatched to
// the handler from the read loop, one at a time.
type WSClient struct {
	cfg     WSConfig
	handler Handler
	log     *zap.Logger
	onReady func(ctx context.Context)

	nextID atomic.Uint64

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan frame
}

func NewWSClient(cfg WSConfig, handler Handler, log *zap.Logger) *WSClient {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WSClient{
		cfg:     cfg,
		handler: handler,
		log:     log,
		pending: make(map[uint64]chan frame),
	}
}

// OnReady registers a callback invoked after every successful login,
// first connect and reconnects alike. It runs on its own goroutine
// alongside the read loop, so the callback may issue requests. Must be
// set before Run.
func (c *WSClient) OnReady(fn func(ctx context.Context)) {
	c.onReady = fn
}

// Run connects, authenticates and pumps inbound frames until ctx is
// cancelled. Connection loss triggers reconnect after the configured
// delay; pending requests fail immediately on disconnect.
func (c *WSClient) Run(ctx context.Context) error {
	for {
		err := c.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("venue session ended", zap.Error(err))
		c.teardown()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// runSession owns one connection: dial, start the reader, then log in
// over it. The reader must be pumping before login because login is an
// ordinary correlated request.
func (c *WSClient) runSession(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	readErr := make(chan error, 1)
	go func() { readErr <- c.readLoop(sessionCtx, conn) }()

	if err := c.login(sessionCtx); err != nil {
		cancel()
		<-readErr
		return err
	}
	c.log.Info("venue session established", zap.String("url", c.cfg.URL))
	if c.onReady != nil {
		go c.onReady(sessionCtx)
	}
	if c.cfg.PingInterval > 0 {
		go c.pingLoop(sessionCtx, conn)
	}
	return <-readErr
}

func (c *WSClient) login(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, request{
		Type:     typeLogin,
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("venue login: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("venue login rejected: %s", resp.Error)
	}
	return nil
}

func (c *WSClient) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		f, err := decodeFrame(data)
		if err != nil {
			c.log.Warn("bad venue frame", zap.Error(err))
			continue
		}
		if f.Channel == "" {
			c.resolve(f)
			continue
		}
		if err := dispatch(f, c.handler); err != nil {
			c.log.Warn("venue push dropped", zap.Error(err))
		}
	}
}

func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) resolve(f frame) {
	c.mu.Lock()
	ch, ok := c.pending[f.ID]
	if ok {
		delete(c.pending, f.ID)
	}
	c.mu.Unlock()
	if !ok {
		c.log.Debug("unmatched venue response", zap.Uint64("id", f.ID))
		return
	}
	ch <- f
}

func (c *WSClient) teardown() {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
	pending := c.pending
	c.pending = make(map[uint64]chan frame)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}

func (c *WSClient) roundTrip(ctx context.Context, req request) (frame, error) {
	req.ID = c.nextID.Add(1)
	data, err := encodeRequest(req)
	if err != nil {
		return frame{}, err
	}

	ch := make(chan frame, 1)
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return frame{}, errors.New("venue not connected")
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return frame{}, err
	}
	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return frame{}, ctx.Err()
	case f, ok := <-ch:
		if !ok {
			return frame{}, errors.New("venue connection lost")
		}
		return f, nil
	}
}

func (c *WSClient) PlaceOrder(ctx context.Context, req OrderRequest) (string, error) {
	resp, err := c.roundTrip(ctx, request{
		Type:   typeOrder,
		Symbol: req.Symbol,
		Side:   string(req.Side),
		Qty:    req.Qty,
		Price:  req.Price,
		Market: req.Market,
	})
	if err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("order rejected: %s", resp.Error)
	}
	return resp.OrderID, nil
}

func (c *WSClient) CancelOrder(ctx context.Context, orderID string) error {
	resp, err := c.roundTrip(ctx, request{Type: typeCancel, OrderID: orderID})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("cancel rejected: %s", resp.Error)
	}
	return nil
}

func (c *WSClient) PlaceSwap(ctx context.Context, name string, multiplier int64) error {
	resp, err := c.roundTrip(ctx, request{Type: typeSwap, Swap: name, Multiplier: multiplier})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("swap rejected: %s", resp.Error)
	}
	return nil
}

func (c *WSClient) OpenOrders(ctx context.Context) ([]string, error) {
	resp, err := c.roundTrip(ctx, request{Type: typeOpen})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("open orders query failed: %s", resp.Error)
	}
	return resp.OrderIDs, nil
}
