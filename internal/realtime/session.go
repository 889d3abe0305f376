package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pixelplay/notify-api/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// sessionConn is the transport surface a session needs. *websocket.Conn
// satisfies it; tests substitute a fake.
type sessionConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Session is one live, authenticated connection. It is created only
// after a successful handshake, destroyed at transport close or forced
// disconnect, and never recovered across reconnects: a reconnect is a
// brand-new session.
type Session struct {
	ID       string
	Identity *model.Identity

	conn      sessionConn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(identity *model.Identity, conn sessionConn) *Session {
	return &Session{
		ID:       uuid.New().String(),
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue hands a frame to the session's writer without blocking. A full
// buffer drops the frame: delivery is at-most-once and push callers never
// wait on a slow client.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// close terminates the session, sending a close frame carrying reason
// when one is given. Safe to call multiple times.
func (s *Session) close(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			msg := websocket.FormatCloseMessage(code, reason)
			s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			s.conn.Close()
		}
	})
}

// readPump consumes inbound frames and relays them through the gateway.
// It owns the connection's read side and tears the session down when the
// transport closes.
func (s *Session) readPump(g *Gateway) {
	defer func() {
		g.unregister(s)
		s.close(websocket.CloseNormalClosure, "")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.logger.Debug("discarding malformed frame", "session_id", s.ID)
			continue
		}

		g.handleInbound(s, &env)
	}
}

// writePump drains the outbound buffer onto the connection and keeps the
// transport alive with protocol pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close(websocket.CloseNormalClosure, "")
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
