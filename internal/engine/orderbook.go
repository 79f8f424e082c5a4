package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/btree"
)

type PriceLevel struct {
	priceLevel float64
	orders     []*Order
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// OrderBook is a single-instrument limit order book with price-time priority.
//
// Submission and matching are deliberately decoupled: Submit only rests the
// order, and crossing is resolved by the next Match call, which the tick
// driver runs once per interval. This keeps the submission path cheap and
// bounds worst-case matching latency to one tick. Between a Submit and the
// following Match the book may transiently cross; after Match returns it
// never does.
type OrderBook struct {
	mu sync.Mutex

	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd.
	bids *PriceLevels
	asks *PriceLevels

	// Some book keeping
	nextID      uint64 // Next order id to hand out.
	seq         uint64 // Strictly increasing arrival sequence.
	nBuyOrders  uint64 // Track the number of bids in the book.
	nSellOrders uint64 // Track the number of asks in the book.
}

func NewOrderBook() *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel > b.priceLevel
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel < b.priceLevel
	})
	return &OrderBook{
		bids:   bids,
		asks:   asks,
		nextID: 1,
	}
}

// Submit validates and rests a new limit order at the tail of its price
// level's FIFO, returning the assigned order id. It never crosses the book.
func (book *OrderBook) Submit(side Side, price, quantity float64) (string, error) {
	if side != Buy && side != Sell {
		return "", ErrInvalidSide
	}
	if price <= 0 {
		return "", ErrInvalidPrice
	}
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}

	book.mu.Lock()
	defer book.mu.Unlock()

	book.seq++
	order := &Order{
		ID:            fmt.Sprintf("ORD%d", book.nextID),
		Side:          side,
		LimitPrice:    price,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Seq:           book.seq,
		Timestamp:     time.Now().UnixMilli(),
	}
	book.nextID++

	var levels *PriceLevels
	switch side {
	case Buy:
		levels = book.bids
		book.nBuyOrders++
	case Sell:
		levels = book.asks
		book.nSellOrders++
	}

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: price})
	if ok {
		level.orders = append(level.orders, order)
	} else {
		levels.Set(&PriceLevel{
			priceLevel: price,
			orders:     []*Order{order},
		})
	}

	return order.ID, nil
}

// Match consumes the top of book price levels while they cross (i.e.,
// bid >= ask). While these orders cross, we match orders in
// price-time-priority.
//
// Of the two front orders, the earlier-submitted one is resting and sets the
// trade price; price improvement always goes to the order that was already in
// the book. Filled orders are removed preserving FIFO order for the rest of
// their level. Returns the trades in execution order; an empty slice when
// nothing crosses, so a second Match with no intervening Submit is a no-op.
func (book *OrderBook) Match() []Trade {
	book.mu.Lock()
	defer book.mu.Unlock()

	trades := []Trade{}
	for {
		bestBid, bidOk := book.bids.MinMut()
		bestAsk, askOk := book.asks.MinMut()

		// If either side is empty, or prices don't cross, we are done.
		if !bidOk || !askOk || bestBid.priceLevel < bestAsk.priceLevel {
			break
		}

		bidOrder := bestBid.orders[0]
		askOrder := bestAsk.orders[0]

		// The earlier order must be resting; the trade executes at its
		// limit price.
		resting := bidOrder
		if askOrder.Seq < bidOrder.Seq {
			resting = askOrder
		}

		matchQty := min(askOrder.Quantity, bidOrder.Quantity)
		askOrder.Quantity -= matchQty
		bidOrder.Quantity -= matchQty

		trades = append(trades, Trade{
			BuyOrderID:  bidOrder.ID,
			SellOrderID: askOrder.ID,
			Price:       resting.LimitPrice,
			Quantity:    matchQty,
			Timestamp:   time.Now().UnixMilli(),
		})

		// Lift filled orders off the book. Levels are re-fetched on the
		// re-loop, so deleting an emptied level here is safe.
		if bidOrder.Quantity == 0 {
			bestBid.orders = bestBid.orders[1:]
			book.nBuyOrders--
			if len(bestBid.orders) == 0 {
				book.bids.Delete(bestBid)
			}
		}
		if askOrder.Quantity == 0 {
			bestAsk.orders = bestAsk.orders[1:]
			book.nSellOrders--
			if len(bestAsk.orders) == 0 {
				book.asks.Delete(bestAsk)
			}
		}
	}
	return trades
}

// BookSnapshot is the aggregated per-level view handed to callers. Levels are
// (price, total remaining quantity) pairs, best-first on both sides.
type BookSnapshot struct {
	Bids    [][2]float64 `json:"bids"`
	Asks    [][2]float64 `json:"asks"`
	BestBid float64      `json:"best_bid"`
	BestAsk float64      `json:"best_ask"`
}

// Snapshot aggregates each side's levels into (price, quantity) pairs. The
// snapshot is a value copy; individual order identity is not exposed.
func (book *OrderBook) Snapshot() BookSnapshot {
	book.mu.Lock()
	defer book.mu.Unlock()

	snapshot := BookSnapshot{
		Bids:    flattenQuantities(book.bids),
		Asks:    flattenQuantities(book.asks),
		BestBid: bestPrice(book.bids),
		BestAsk: bestPrice(book.asks),
	}
	return snapshot
}

// BestBid reports the highest resting bid price, or 0 when there are no bids.
func (book *OrderBook) BestBid() float64 {
	book.mu.Lock()
	defer book.mu.Unlock()
	return bestPrice(book.bids)
}

// BestAsk reports the lowest resting ask price, or 0 when there are no asks.
func (book *OrderBook) BestAsk() float64 {
	book.mu.Lock()
	defer book.mu.Unlock()
	return bestPrice(book.asks)
}

// OpenOrders reports the number of resting orders per side.
func (book *OrderBook) OpenOrders() (bids, asks uint64) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.nBuyOrders, book.nSellOrders
}

// Reset clears both sides and restarts the id counter. Administrative use
// only; never called by the tick driver.
func (book *OrderBook) Reset() {
	book.mu.Lock()
	defer book.mu.Unlock()

	book.bids.Clear()
	book.asks.Clear()
	book.nextID = 1
	book.seq = 0
	book.nBuyOrders = 0
	book.nSellOrders = 0
}

// Both sides report their best level at Min thanks to the inverse
// comparators.
func bestPrice(levels *PriceLevels) float64 {
	level, ok := levels.Min()
	if !ok {
		return 0
	}
	return level.priceLevel
}

func flattenQuantities(levels *PriceLevels) [][2]float64 {
	flat := make([][2]float64, 0, levels.Len())
	levels.Scan(func(level *PriceLevel) bool {
		total := 0.0
		for _, order := range level.orders {
			total += order.Quantity
		}
		flat = append(flat, [2]float64{level.priceLevel, total})
		return true
	})
	return flat
}

// FlatPriceLevel is an exploded view of one level used by tests to assert on
// exact book contents.
type FlatPriceLevel struct {
	PriceLevel float64
	Orders     []*Order
}

// Levels explodes one side of the book best-first. Orders are copied; the
// caller cannot reach into the book through the result.
func (book *OrderBook) Levels(side Side) []FlatPriceLevel {
	book.mu.Lock()
	defer book.mu.Unlock()

	levels := book.bids
	if side == Sell {
		levels = book.asks
	}

	flat := make([]FlatPriceLevel, 0, levels.Len())
	levels.Scan(func(level *PriceLevel) bool {
		orders := make([]*Order, len(level.orders))
		for i, order := range level.orders {
			copied := *order
			orders[i] = &copied
		}
		flat = append(flat, FlatPriceLevel{
			PriceLevel: level.priceLevel,
			Orders:     orders,
		})
		return true
	})
	return flat
}
