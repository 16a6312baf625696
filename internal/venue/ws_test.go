package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// fakeServer speaks the venue protocol over a real websocket: every
// request gets an ok response, open_orders reports one stale id.
type fakeServer struct {
	t               *testing.T
	closeFirstLogin bool

	conns int32

	mu        sync.Mutex
	cancelled []string
}

func (s *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	n := atomic.AddInt32(&s.conns, 1)
	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req request
		if err := msgpack.Unmarshal(data, &req); err != nil {
			s.t.Errorf("server decode: %v", err)
			return
		}
		resp := map[string]interface{}{"id": req.ID, "ok": true}
		switch req.Type {
		case typeOpen:
			resp["order_ids"] = []string{"stale-1"}
		case typeCancel:
			s.mu.Lock()
			s.cancelled = append(s.cancelled, req.OrderID)
			s.mu.Unlock()
		}
		payload, err := msgpack.Marshal(resp)
		if err != nil {
			s.t.Errorf("server encode: %v", err)
			return
		}
		if err := conn.Write(ctx, websocket.MessageBinary, payload); err != nil {
			return
		}
		if req.Type == typeLogin && s.closeFirstLogin && n == 1 {
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
			return
		}
	}
}

func (s *fakeServer) cancelledIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cancelled...)
}

func startSession(t *testing.T, server *fakeServer) (*WSClient, chan struct{}, context.CancelFunc) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	client := NewWSClient(WSConfig{
		URL:            url,
		Username:       "trader",
		Password:       "hunter2",
		ReconnectDelay: 50 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}, nil, zap.NewNop())
	ready := make(chan struct{}, 4)
	client.OnReady(func(context.Context) { ready <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = client.Run(ctx) }()
	return client, ready, cancel
}

func waitReady(t *testing.T, ready chan struct{}) {
	t.Helper()
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("session never became ready")
	}
}

func TestWSClientReadyAfterLoginAndRoundTrips(t *testing.T) {
	server := &fakeServer{t: t}
	client, ready, _ := startSession(t, server)
	waitReady(t, ready)

	ctx := context.Background()
	ids, err := client.OpenOrders(ctx)
	if err != nil {
		t.Fatalf("OpenOrders: %v", err)
	}
	if len(ids) != 1 || ids[0] != "stale-1" {
		t.Fatalf("unexpected open orders %v", ids)
	}
	if err := client.CancelOrder(ctx, ids[0]); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if got := server.cancelledIDs(); len(got) != 1 || got[0] != "stale-1" {
		t.Fatalf("server saw cancels %v", got)
	}
}

func TestWSClientReadyAgainAfterReconnect(t *testing.T) {
	server := &fakeServer{t: t, closeFirstLogin: true}
	_, ready, _ := startSession(t, server)
	// First session is ready, then the server drops it; the client
	// must come back up and announce ready a second time.
	waitReady(t, ready)
	waitReady(t, ready)
	if got := atomic.LoadInt32(&server.conns); got < 2 {
		t.Fatalf("expected a reconnect, saw %d connections", got)
	}
}
