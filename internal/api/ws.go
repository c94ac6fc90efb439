// v1
// ws.go

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The simulator serves a local dashboard; no origin policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents upgrades the connection and streams meter_reading events from
// a hub subscription until the client goes away. Each connection owns one
// bounded subscriber buffer; a stalled client only loses its own events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	sub := s.hub.Subscribe()
	defer func() {
		s.hub.Unsubscribe(sub)
		_ = conn.Close()
	}()
	s.log.Info("event stream opened", "subscriber", sub.ID(), "remote", r.RemoteAddr)

	// Reader goroutine: we never expect client frames, but reading is what
	// surfaces close frames and dead peers.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			s.log.Info("event stream closed by client", "subscriber", sub.ID())
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Info("event stream write failed", "subscriber", sub.ID(), "err", err)
				return
			}
		}
	}
}
