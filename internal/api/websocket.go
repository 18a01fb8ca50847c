package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"news-trader/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocket streams every bus event as {"event": ..., "payload": ...}.
// The first frame is a hello sent once the subscription is live.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	stream, unsub := s.Bus.SubscribeAll(events.All, 100)
	defer unsub()

	if err := conn.WriteJSON(events.Envelope{Event: "hello"}); err != nil {
		return
	}

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case env, ok := <-stream:
			if !ok {
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}
}
