package feed

import "vidar/internal/engine"

// Snapshot is the consolidated market-data message broadcast once per tick.
// Timestamps are unix seconds; trade timestamps inside are unix millis.
type Snapshot struct {
	Timestamp float64             `json:"timestamp"`
	Price     float64             `json:"price"`
	SMA       float64             `json:"sma"`
	OrderBook engine.BookSnapshot `json:"orderbook"`
	Trades    []engine.Trade      `json:"trades"`
}

// TradeEvent is one executed trade, published discretely after the snapshot
// that carried it. The type tag discriminates it on the shared feed.
type TradeEvent struct {
	Type string `json:"type"`
	engine.Trade
}

func NewTradeEvent(trade engine.Trade) TradeEvent {
	return TradeEvent{Type: "trade", Trade: trade}
}

// OrderEvent announces an order submission outcome on the feed.
type OrderEvent struct {
	Type     string  `json:"type"`
	OrderID  string  `json:"order_id"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Status   string  `json:"status"`
}

// BookEvent is the initial order book state sent to a subscriber on attach.
type BookEvent struct {
	Type      string              `json:"type"`
	OrderBook engine.BookSnapshot `json:"orderbook"`
}
