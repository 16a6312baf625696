package venue

import (
	"fmt"

	"etf-arb-bot/internal/book"

	"github.com/vmihailenco/msgpack/v5"
)

// Wire format: every frame is a single msgpack map. Outbound requests
// carry a client-assigned id; the matching response echoes it. Inbound
// pushes carry a channel name instead of an id.

const (
	typeLogin  = "login"
	typeOrder  = "order"
	typeCancel = "cancel"
	typeSwap   = "swap"
	typeOpen   = "open_orders"
)

const (
	channelBook   = "book"
	channelFill   = "fill"
	channelReject = "reject"
	channelCancel = "cancelled"
	channelTrade  = "trade"
)

type request struct {
	ID         uint64 `msgpack:"id"`
	Type       string `msgpack:"type"`
	Username   string `msgpack:"username,omitempty"`
	Password   string `msgpack:"password,omitempty"`
	Symbol     string `msgpack:"symbol,omitempty"`
	Side       string `msgpack:"side,omitempty"`
	Qty        int64  `msgpack:"qty,omitempty"`
	Price      int64  `msgpack:"price,omitempty"`
	Market     bool   `msgpack:"market,omitempty"`
	OrderID    string `msgpack:"order_id,omitempty"`
	Swap       string `msgpack:"swap,omitempty"`
	Multiplier int64  `msgpack:"multiplier,omitempty"`
}

type wireLevel struct {
	Price int64 `msgpack:"price"`
	Size  int64 `msgpack:"size"`
}

// frame is the decoded shape of any inbound message: a request
// response when Channel is empty, a push otherwise.
type frame struct {
	ID       uint64      `msgpack:"id"`
	OK       bool        `msgpack:"ok"`
	OrderID  string      `msgpack:"order_id"`
	OrderIDs []string    `msgpack:"order_ids"`
	Error    string      `msgpack:"error"`
	Channel  string      `msgpack:"channel"`
	Symbol   string      `msgpack:"symbol"`
	Bids     []wireLevel `msgpack:"bids"`
	Asks     []wireLevel `msgpack:"asks"`
	Qty      int64       `msgpack:"qty"`
	Price    int64       `msgpack:"price"`
	Reason   string      `msgpack:"reason"`
}

func encodeRequest(req request) ([]byte, error) {
	return msgpack.Marshal(req)
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return frame{}, fmt.Errorf("decode venue frame: %w", err)
	}
	return f, nil
}

func toLevels(wire []wireLevel) []book.Level {
	if len(wire) == 0 {
		return nil
	}
	out := make([]book.Level, len(wire))
	for i, lv := range wire {
		out[i] = book.Level{Price: lv.Price, Size: lv.Size}
	}
	return out
}

// dispatch routes a push frame to the handler. Unknown channels are
// reported back so the caller can log them once.
func dispatch(f frame, handler Handler) error {
	if handler == nil {
		return nil
	}
	switch f.Channel {
	case channelBook:
		handler.OnBookUpdate(f.Symbol, toLevels(f.Bids), toLevels(f.Asks))
	case channelFill:
		handler.OnOrderFilled(f.OrderID, f.Qty, f.Price)
	case channelReject:
		handler.OnOrderRejected(f.OrderID, f.Reason)
	case channelCancel:
		handler.OnOrderCancelled(f.OrderID)
	case channelTrade:
		handler.OnTradeMessage(f.Symbol, f.Price, f.Qty)
	default:
		return fmt.Errorf("unknown venue channel %q", f.Channel)
	}
	return nil
}
