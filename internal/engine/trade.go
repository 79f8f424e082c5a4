package engine

import "fmt"

// Trade accounts for the two orders that matched. Immutable once created.
type Trade struct {
	BuyOrderID  string  `json:"buy_order_id"`
	SellOrderID string  `json:"sell_order_id"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Timestamp   int64   `json:"timestamp"`
}

func (t Trade) String() string {
	return fmt.Sprintf("%s x %s: %g @ %.2f", t.BuyOrderID, t.SellOrderID, t.Quantity, t.Price)
}
