package feed

import (
	"sync"
	"time"

	"vidar/internal/engine"
	"vidar/internal/sma"
)

const (
	defaultSMAWindow    = 20
	defaultHistoryDepth = 100
)

// PricePoint is one observed (timestamp, price) sample, unix seconds.
type PricePoint struct {
	Timestamp float64 `json:"timestamp"`
	Price     float64 `json:"price"`
}

// Options configure the trading service. Zero values take the defaults.
type Options struct {
	SMAWindow    int
	HistoryDepth int
}

// Service owns the order book, the trailing average, and a bounded price
// history. It is the single integration point the transport layer talks to;
// the tick pipeline drives it once per interval through ProcessPrice.
type Service struct {
	book *engine.OrderBook

	mu      sync.Mutex // guards calc and history
	calc    *sma.Calculator
	history []PricePoint // ring, len == depth
	histIdx int
	histLen int
}

func NewService(opts Options) (*Service, error) {
	if opts.SMAWindow == 0 {
		opts.SMAWindow = defaultSMAWindow
	}
	if opts.HistoryDepth <= 0 {
		opts.HistoryDepth = defaultHistoryDepth
	}
	calc, err := sma.New(opts.SMAWindow)
	if err != nil {
		return nil, err
	}
	return &Service{
		book:    engine.NewOrderBook(),
		calc:    calc,
		history: make([]PricePoint, opts.HistoryDepth),
	}, nil
}

// ProcessPrice runs one tick's worth of core work for a freshly generated
// price: update the trailing average and history, run the matching pass, and
// assemble the consolidated snapshot.
func (s *Service) ProcessPrice(price float64) Snapshot {
	now := float64(time.Now().UnixNano()) / 1e9

	s.mu.Lock()
	s.calc.Add(price)
	currentSMA := s.calc.Value()
	s.history[s.histIdx] = PricePoint{Timestamp: now, Price: price}
	s.histIdx = (s.histIdx + 1) % len(s.history)
	if s.histLen < len(s.history) {
		s.histLen++
	}
	s.mu.Unlock()

	trades := s.book.Match()

	return Snapshot{
		Timestamp: now,
		Price:     price,
		SMA:       currentSMA,
		OrderBook: s.book.Snapshot(),
		Trades:    trades,
	}
}

// SubmitOrder validates and rests an order. The side arrives in its wire
// form; validation failures come back as errors for the transport to turn
// into a rejection response, the book is never touched on a bad submission.
func (s *Service) SubmitOrder(side string, price, quantity float64) (string, error) {
	parsed, err := engine.ParseSide(side)
	if err != nil {
		return "", err
	}
	return s.book.Submit(parsed, price, quantity)
}

// BookSnapshot reports the current aggregated book state.
func (s *Service) BookSnapshot() engine.BookSnapshot {
	return s.book.Snapshot()
}

// OpenOrders reports resting order counts per side.
func (s *Service) OpenOrders() (bids, asks uint64) {
	return s.book.OpenOrders()
}

// History returns the retained price samples in chronological order.
func (s *Service) History() []PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PricePoint, 0, s.histLen)
	start := s.histIdx - s.histLen
	if start < 0 {
		start += len(s.history)
	}
	for i := 0; i < s.histLen; i++ {
		out = append(out, s.history[(start+i)%len(s.history)])
	}
	return out
}

// Reset clears the book, the trailing average, and the history.
// Administrative operation; never called by the pipeline.
func (s *Service) Reset() {
	s.book.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calc.Reset()
	s.histIdx = 0
	s.histLen = 0
}
