package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"helmlink/internal/nmea"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Served on the boat's LAN to local dashboards; origin checks would
	// only get in the way.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleSamplesWS streams every emitted sample as one JSON message per
// tick. New clients that connect mid-window simply wait for the next
// emission.
func (s *Server) handleSamplesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ch, id := s.subscribeWS()
	defer s.unsubscribeWS(id)
	defer conn.Close()

	// Drain the client side so close frames are processed.
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
			return
		case sample := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(sample); err != nil {
				log.Printf("web sample stream closed: %v", err)
				return
			}
		}
	}
}

func (s *Server) subscribeWS() (chan nmea.Sample, int) {
	ch := make(chan nmea.Sample, 4)
	s.wsMu.Lock()
	id := s.wsNext
	s.wsNext++
	s.wsSubs[id] = ch
	s.wsMu.Unlock()
	return ch, id
}

func (s *Server) unsubscribeWS(id int) {
	s.wsMu.Lock()
	delete(s.wsSubs, id)
	s.wsMu.Unlock()
}
