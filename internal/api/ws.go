package api

import (
	"encoding/json"
	"net/http"
	"time"

	"vidar/internal/feed"
	"vidar/internal/pubsub"

	"github.com/gorilla/websocket"
)

const maxInbound = 4 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The feed is public read-only data; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleMarketData upgrades the connection and attaches it to the publisher
// as a queue-backed subscriber. The write pump drains the subscriber queue
// onto the socket; the read loop only watches for client close and answers
// heartbeats. Eviction happens through the queue: once the publisher closes
// it, the pump exits and the connection is torn down.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	deadline := time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second
	if deadline <= 0 {
		deadline = 5 * time.Second
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := pubsub.NewQueueSubscriber(s.cfg.Feed.SubscriberQueue)
	id := s.publisher.Register(sub)
	log := s.log.With().Str("subscriber", id.String()).Logger()

	// Initial book state goes straight onto the socket, before the first
	// broadcast frame can.
	initial, err := json.Marshal(feed.BookEvent{Type: "snapshot", OrderBook: s.service.BookSnapshot()})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(deadline))
		err = conn.WriteMessage(websocket.TextMessage, initial)
	}
	if err != nil {
		log.Warn().Err(err).Msg("initial snapshot write failed")
		s.publisher.Deregister(id)
		_ = conn.Close()
		return
	}

	// Write pump: subscriber queue -> socket.
	go func() {
		for frame := range sub.Frames() {
			_ = conn.SetWriteDeadline(time.Now().Add(deadline))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Info().Err(err).Msg("subscriber write failed")
				s.publisher.Deregister(id)
				break
			}
		}
		_ = conn.Close()
	}()

	// Read loop: detect disconnect, answer client heartbeats through the
	// queue so the write pump stays the only socket writer.
	conn.SetReadLimit(maxInbound)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		pong, _ := json.Marshal(map[string]string{"type": "pong"})
		_ = sub.Deliver(pong)
	}
	log.Info().Msg("client disconnected")
	s.publisher.Deregister(id)
}
