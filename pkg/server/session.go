package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/green-ecolution/demo-plugin/pkg/middleware"
	"github.com/green-ecolution/demo-plugin/pkg/render"
	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Mountable is a component that notifies about state changes and can be
// unmounted. Components that are not Mountable render once and never
// update.
type Mountable interface {
	vdom.Component
	Subscribe(fn func()) func()
	Unmount()
}

// Session is one live connection driving one component instance.
type Session struct {
	// ID is the session's ULID.
	ID string

	// Expose is the public path of the mounted component.
	Expose string

	conn     *websocket.Conn
	comp     vdom.Component
	renderer *render.Renderer
	config   *SessionConfig
	metrics  *middleware.Metrics
	manager  *SessionManager

	// mu serializes handler dispatch and rendering.
	mu   sync.Mutex
	snap *render.Snapshot

	send        chan []byte
	dirty       chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()

	logger *slog.Logger
}

func newSession(conn *websocket.Conn, expose string, comp vdom.Component, s *Server) *Session {
	id := newSessionID()
	return &Session{
		ID:       id,
		Expose:   expose,
		conn:     conn,
		comp:     comp,
		renderer: s.renderer,
		config:   s.config.SessionConfig,
		metrics:  s.config.Metrics,
		manager:  s.sessions,
		send:     make(chan []byte, s.config.SessionConfig.SendBuffer),
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   s.logger.With("session", id, "expose", expose),
	}
}

// Start subscribes to the component, sends the first render and starts the
// write loop.
func (s *Session) Start() {
	if m, ok := s.comp.(Mountable); ok {
		s.unsubscribe = m.Subscribe(func() {
			s.metrics.Incremented()
			s.markDirty()
		})
	}
	s.markDirty()
	go s.writeLoop()
}

// markDirty schedules a re-render. Multiple changes between two writes
// collapse into one render.
func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ReadLoop reads client messages until the connection closes, then closes
// the session.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("message decode error", "error", err)
			s.sendMessage(ServerMessage{Type: MessageError, Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case MessageEvent:
			s.handleEvent(msg.HID, msg.Event)
		case MessagePing:
			s.sendMessage(ServerMessage{Type: MessagePong})
		default:
			s.logger.Warn("unknown message type", "type", msg.Type)
			s.sendMessage(ServerMessage{Type: MessageError, Error: "unknown message type"})
		}
	}
}

// handleEvent runs the handler bound to hid and event in the last render.
func (s *Session) handleEvent(hid, event string) {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	if snap == nil {
		return
	}

	// Handlers run outside mu: they notify subscribers, which only mark the
	// session dirty.
	if !snap.Dispatch(hid, event) {
		s.logger.Debug("no handler", "hid", hid, "event", event)
		s.sendMessage(ServerMessage{Type: MessageError, Error: "no handler for " + hid + "_" + event})
	}
}

// render snapshots the component and encodes a render message.
func (s *Session) render() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.renderer.Snapshot(s.comp)
	if err != nil {
		return nil, err
	}
	s.snap = snap
	return json.Marshal(ServerMessage{Type: MessageRender, Session: s.ID, HTML: snap.HTML})
}

// sendMessage queues a message. It drops the message when the session is
// closed, and closes the session when the queue is full.
func (s *Session) sendMessage(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("message encode error", "error", err)
		return
	}
	select {
	case <-s.done:
	case s.send <- data:
	default:
		s.logger.Warn("send queue full, closing session")
		go s.Close()
	}
}

// writeLoop is the only writer on the connection.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case <-s.dirty:
			data, err := s.render()
			if err != nil {
				s.logger.Error("render error", "error", err)
				continue
			}
			if err := s.write(websocket.TextMessage, data); err != nil {
				s.logger.Debug("write error", "error", err)
				s.Close()
				return
			}

		case data := <-s.send:
			if err := s.write(websocket.TextMessage, data); err != nil {
				s.logger.Debug("write error", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(messageType, data)
}

// Close ends the session: the component is unmounted, the connection closed
// and the session removed from its manager. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if m, ok := s.comp.(Mountable); ok {
			m.Unmount()
		}

		deadline := time.Now().Add(time.Second)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.conn.Close()

		s.manager.Remove(s.ID)
		s.metrics.SessionClosed()
		s.logger.Info("session closed")
	})
}
