package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Rrens/collab-gateway/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Session is one live websocket connection. Its user is fixed at handshake.
type Session struct {
	id     string
	userID string
	conn   *websocket.Conn
	out    chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(id, userID string, conn *websocket.Conn, buffer int) *Session {
	return &Session{
		id:     id,
		userID: userID,
		conn:   conn,
		out:    make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// UserID returns the authenticated user of the session
func (s *Session) UserID() string { return s.userID }

// send queues a frame without blocking. Frames to a full or closed session are dropped.
func (s *Session) send(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Str("event", frame.Event).Msg("failed to encode frame")
		return
	}

	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.out <- data:
	default:
		metrics.BroadcastDropped.Inc()
		log.Warn().Str("session_id", s.id).Str("event", frame.Event).Msg("session buffer full, dropping frame")
	}
}

func (s *Session) emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode payload")
		return
	}
	s.send(Frame{Event: event, Data: data})
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) writePump(writeWait, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case data := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
