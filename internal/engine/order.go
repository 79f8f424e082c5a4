package engine

import "fmt"

type Order struct {
	ID            string  // Exchange assigned id, "ORD<n>"
	Side          Side    // Order side
	LimitPrice    float64 // Limiting price, fixed at submission
	Quantity      float64 // Remaining quantity
	TotalQuantity float64 // Total volume requested
	Seq           uint64  // Arrival sequence, time-priority key
	Timestamp     int64   // Unix millis at submission
}

func (order Order) String() string {
	return fmt.Sprintf("%s %s %g/%g @ %.2f",
		order.ID,
		order.Side,
		order.Quantity,
		order.TotalQuantity,
		order.LimitPrice,
	)
}
