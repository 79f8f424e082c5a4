package feed

import (
	"context"
	"encoding/json"
	"time"

	"vidar/internal/metrics"
	"vidar/internal/pubsub"
	"vidar/internal/sim"

	"github.com/rs/zerolog"
)

// Pipeline is the periodic tick driver. Each tick pulls the next synthetic
// price, runs it through the service, and fans the snapshot plus any trade
// events out to the subscribers. Ticks run to completion; shutdown only lands
// on the interval boundary, never mid-tick.
type Pipeline struct {
	process   *sim.Process
	service   *Service
	publisher *pubsub.Publisher
	log       zerolog.Logger
}

func NewPipeline(process *sim.Process, service *Service, publisher *pubsub.Publisher, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		process:   process,
		service:   service,
		publisher: publisher,
		log:       log,
	}
}

// Run drives ticks at the process's fixed interval until the context is
// cancelled, then releases every subscriber handle.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.process.Interval()).Msg("market data broadcast starting")

	ticker := time.NewTicker(p.process.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("market data broadcast stopped")
			p.publisher.Close()
			return nil
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Tick executes one full cycle: generate, aggregate, match, assemble,
// broadcast.
func (p *Pipeline) Tick() {
	started := time.Now()

	price := p.process.Next()
	snapshot := p.service.ProcessPrice(price)

	p.Broadcast(snapshot)
	for _, trade := range snapshot.Trades {
		p.Broadcast(NewTradeEvent(trade))
	}

	metrics.TicksTotal.Inc()
	metrics.MarketPrice.Set(price)
	metrics.TradesMatchedTotal.Add(float64(len(snapshot.Trades)))
	metrics.MatchingPassTrades.Observe(float64(len(snapshot.Trades)))
	bids, asks := p.service.OpenOrders()
	metrics.OpenOrders.WithLabelValues("buy").Set(float64(bids))
	metrics.OpenOrders.WithLabelValues("sell").Set(float64(asks))
	metrics.SubscribersActive.Set(float64(p.publisher.Len()))
	metrics.TickDurationMs.Observe(float64(time.Since(started).Milliseconds()))

	if len(snapshot.Trades) > 0 {
		p.log.Debug().Int("trades", len(snapshot.Trades)).Float64("price", price).
			Msg("tick matched trades")
	}
}

// Broadcast encodes a feed message and fans it out. Delivery failures are the
// publisher's problem; a broken subscriber never fails the tick.
func (p *Pipeline) Broadcast(message any) {
	frame, err := json.Marshal(message)
	if err != nil {
		// Feed messages are plain data; failing to encode one is a bug.
		p.log.Error().Err(err).Msg("unencodable feed message")
		return
	}
	delivered, evicted := p.publisher.Publish(frame)
	metrics.FramesDeliveredTotal.Add(float64(delivered))
	if evicted > 0 {
		metrics.SubscribersEvicted.Add(float64(evicted))
		metrics.FramesDroppedTotal.Add(float64(evicted))
	}
}
