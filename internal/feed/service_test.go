package feed_test

import (
	"testing"

	"vidar/internal/engine"
	"vidar/internal/feed"
	"vidar/internal/sma"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts feed.Options) *feed.Service {
	t.Helper()
	service, err := feed.NewService(opts)
	require.NoError(t, err)
	return service
}

func TestNewService_RejectsInvalidWindow(t *testing.T) {
	_, err := feed.NewService(feed.Options{SMAWindow: -1})
	assert.ErrorIs(t, err, sma.ErrInvalidWindow)
}

func TestSubmitOrder_WireSideMapping(t *testing.T) {
	service := newTestService(t, feed.Options{})

	id, err := service.SubmitOrder("buy", 45000, 1)
	require.NoError(t, err)
	assert.Equal(t, "ORD1", id)

	id, err = service.SubmitOrder("SELL", 45100, 2)
	require.NoError(t, err)
	assert.Equal(t, "ORD2", id)

	_, err = service.SubmitOrder("hold", 45000, 1)
	assert.ErrorIs(t, err, engine.ErrInvalidSide)
	_, err = service.SubmitOrder("buy", -1, 1)
	assert.ErrorIs(t, err, engine.ErrInvalidPrice)
}

func TestProcessPrice_AssemblesSnapshot(t *testing.T) {
	service := newTestService(t, feed.Options{SMAWindow: 3})

	_, err := service.SubmitOrder("buy", 45000, 1)
	require.NoError(t, err)
	_, err = service.SubmitOrder("sell", 45000, 1)
	require.NoError(t, err)

	snapshot := service.ProcessPrice(45123.45)

	assert.Equal(t, 45123.45, snapshot.Price)
	assert.Equal(t, 45123.45, snapshot.SMA)
	assert.Greater(t, snapshot.Timestamp, 0.0)

	// The crossing pair matched during the tick and the book drained.
	require.Len(t, snapshot.Trades, 1)
	assert.Equal(t, "ORD1", snapshot.Trades[0].BuyOrderID)
	assert.Equal(t, "ORD2", snapshot.Trades[0].SellOrderID)
	assert.Empty(t, snapshot.OrderBook.Bids)
	assert.Empty(t, snapshot.OrderBook.Asks)
}

func TestProcessPrice_TrailingSMA(t *testing.T) {
	service := newTestService(t, feed.Options{SMAWindow: 3})

	service.ProcessPrice(10)
	service.ProcessPrice(20)
	snapshot := service.ProcessPrice(30)
	assert.Equal(t, 20.0, snapshot.SMA)

	snapshot = service.ProcessPrice(40)
	assert.Equal(t, 30.0, snapshot.SMA)
}

func TestHistory_BoundedAndChronological(t *testing.T) {
	service := newTestService(t, feed.Options{HistoryDepth: 3})

	for _, price := range []float64{1, 2, 3, 4, 5} {
		service.ProcessPrice(price)
	}

	history := service.History()
	require.Len(t, history, 3)
	assert.Equal(t, 3.0, history[0].Price)
	assert.Equal(t, 4.0, history[1].Price)
	assert.Equal(t, 5.0, history[2].Price)
	assert.LessOrEqual(t, history[0].Timestamp, history[2].Timestamp)
}

func TestReset_ClearsEverything(t *testing.T) {
	service := newTestService(t, feed.Options{SMAWindow: 3, HistoryDepth: 5})

	_, err := service.SubmitOrder("buy", 45000, 1)
	require.NoError(t, err)
	service.ProcessPrice(45000)

	service.Reset()

	assert.Empty(t, service.History())
	snapshot := service.BookSnapshot()
	assert.Empty(t, snapshot.Bids)
	assert.Empty(t, snapshot.Asks)

	// SMA starts over: first price after reset is the average.
	after := service.ProcessPrice(100)
	assert.Equal(t, 100.0, after.SMA)

	// Id counter restarted too.
	id, err := service.SubmitOrder("buy", 45000, 1)
	require.NoError(t, err)
	assert.Equal(t, "ORD1", id)
}
