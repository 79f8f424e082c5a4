package feed_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"vidar/internal/feed"
	"vidar/internal/pubsub"
	"vidar/internal/sim"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	frames [][]byte
	fail   error
}

func (r *recordingSubscriber) Deliver(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	copied := make([]byte, len(frame))
	copy(copied, frame)
	r.frames = append(r.frames, copied)
	return nil
}

func (r *recordingSubscriber) Close() {}

func (r *recordingSubscriber) all() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

func newTestPipeline(t *testing.T, interval time.Duration) (*feed.Pipeline, *feed.Service, *pubsub.Publisher) {
	t.Helper()
	service := newTestService(t, feed.Options{})
	params := sim.DefaultParams()
	params.Interval = interval
	process := sim.New(params, rand.New(rand.NewSource(11)))
	publisher := pubsub.New(zerolog.Nop())
	return feed.NewPipeline(process, service, publisher, zerolog.Nop()), service, publisher
}

func TestTick_BroadcastsSnapshot(t *testing.T) {
	pipeline, _, publisher := newTestPipeline(t, time.Second)
	sub := &recordingSubscriber{}
	publisher.Register(sub)

	pipeline.Tick()

	frames := sub.all()
	require.Len(t, frames, 1)

	var snapshot feed.Snapshot
	require.NoError(t, json.Unmarshal(frames[0], &snapshot))
	assert.Greater(t, snapshot.Price, 0.0)
	assert.Equal(t, snapshot.Price, snapshot.SMA) // single sample so far
	assert.Empty(t, snapshot.Trades)
	assert.NotNil(t, snapshot.OrderBook.Bids)
}

func TestTick_PublishesTradeEventsAfterSnapshot(t *testing.T) {
	pipeline, service, publisher := newTestPipeline(t, time.Second)
	sub := &recordingSubscriber{}
	publisher.Register(sub)

	// Two crossing pairs resolved by the tick's matching pass.
	for _, order := range [][3]any{
		{"buy", 45000.0, 1.0},
		{"sell", 45000.0, 1.0},
		{"buy", 45010.0, 2.0},
		{"sell", 45010.0, 2.0},
	} {
		_, err := service.SubmitOrder(order[0].(string), order[1].(float64), order[2].(float64))
		require.NoError(t, err)
	}

	pipeline.Tick()

	frames := sub.all()
	require.Len(t, frames, 3) // snapshot + 2 trade events

	var snapshot feed.Snapshot
	require.NoError(t, json.Unmarshal(frames[0], &snapshot))
	require.Len(t, snapshot.Trades, 2)

	// Discrete trade events follow in execution order.
	for i, frame := range frames[1:] {
		var event feed.TradeEvent
		require.NoError(t, json.Unmarshal(frame, &event))
		assert.Equal(t, "trade", event.Type)
		assert.Equal(t, snapshot.Trades[i], event.Trade)
	}
}

func TestTick_FailedSubscriberDoesNotFailTick(t *testing.T) {
	pipeline, _, publisher := newTestPipeline(t, time.Second)
	healthy := &recordingSubscriber{}
	broken := &recordingSubscriber{fail: errors.New("dead")}
	publisher.Register(healthy)
	publisher.Register(broken)

	pipeline.Tick()

	assert.Len(t, healthy.all(), 1)
	assert.Equal(t, 1, publisher.Len())
}

func TestRun_StopsCleanlyAndReleasesSubscribers(t *testing.T) {
	pipeline, _, publisher := newTestPipeline(t, 5*time.Millisecond)
	sub := &recordingSubscriber{}
	publisher.Register(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pipeline.Run(ctx)
	}()

	// Let a few ticks land, then stop.
	time.Sleep(40 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pipeline did not stop")
	}

	assert.NotEmpty(t, sub.all())
	assert.Equal(t, 0, publisher.Len())
}
