package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	posterkit "github.com/alnah/go-posterkit"
)

// Websocket stream settings.
const (
	eventBuffer  = 64
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Stream message types.
const (
	MessageSnapshot = "snapshot"
	MessageEvent    = "event"
)

// StreamMessage is one JSON frame on the events websocket. The first frame
// is always a snapshot; later frames carry events.
type StreamMessage struct {
	Type  string              `json:"type"`
	State *posterkit.RunState `json:"state,omitempty"`
	Event *posterkit.Event    `json:"event,omitempty"`
}

// events streams batch events over a websocket until the client goes away
// or the server shuts down. A slow client misses events rather than
// stalling the batch.
func (s *Server) events(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.WithField("batch", e.batch.ID())
	ch := make(chan posterkit.Event, eventBuffer)
	unsubscribe := e.batch.Subscribe(func(ev posterkit.Event) {
		select {
		case ch <- ev:
		default:
			log.Debug("event stream full, dropping event")
		}
	})
	defer unsubscribe()

	state := e.batch.Snapshot()
	if err := s.write(conn, StreamMessage{Type: MessageSnapshot, State: &state}); err != nil {
		return
	}

	// The reader only detects the close; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case ev := <-ch:
			if err := s.write(conn, StreamMessage{Type: MessageEvent, Event: &ev}); err != nil {
				log.WithError(err).Debug("event stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-s.baseCtx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
