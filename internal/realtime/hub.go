// Package realtime pushes domain events to connected administrator
// websocket sessions.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/eventbus"
	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/metrics"
)

// ErrClosed is returned by ServeWS once the hub has been closed.
var ErrClosed = errors.New("realtime hub closed")

const (
	defaultSendQueue = 64
	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second
	maxMessageSize   = 512
)

type Options struct {
	// SendQueue bounds the frames buffered per session. A session whose
	// queue is full is disconnected.
	SendQueue int
	WriteWait time.Duration
	PongWait  time.Duration
	// CheckOrigin is passed to the websocket upgrader. Nil allows same-origin only.
	CheckOrigin func(r *http.Request) bool
}

// Hub tracks live sessions and broadcasts frames to all of them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*session]struct{}
	closed   bool

	sendQueue  int
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
	upgrader   websocket.Upgrader
	log        *logrus.Entry
}

type session struct {
	actorID string
	conn    *websocket.Conn
	send    chan []byte
}

// Frame is the JSON shape written to clients.
type Frame struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewHub(opts Options) *Hub {
	if opts.SendQueue <= 0 {
		opts.SendQueue = defaultSendQueue
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	return &Hub{
		sessions:   make(map[*session]struct{}),
		sendQueue:  opts.SendQueue,
		writeWait:  opts.WriteWait,
		pongWait:   opts.PongWait,
		pingPeriod: opts.PongWait * 9 / 10,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		log: logger.Component("realtime"),
	}
}

// Subscribe attaches the hub to every event on bus.
func (h *Hub) Subscribe(bus *eventbus.Bus) *eventbus.Subscription {
	return bus.Subscribe(eventbus.Wildcard, h.HandleEvent, eventbus.WithLabel("realtime"))
}

// HandleEvent is an eventbus.Handler that broadcasts ev to every session.
func (h *Hub) HandleEvent(_ context.Context, ev eventbus.Event) error {
	msg, err := json.Marshal(Frame{Event: ev.Name, Payload: ev.Payload, Timestamp: ev.Timestamp})
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// Broadcast queues msg on every session without blocking. Sessions that
// cannot keep up are disconnected.
func (h *Hub) Broadcast(msg []byte) {
	var slow []*session
	h.mu.RLock()
	for s := range h.sessions {
		select {
		case s.send <- msg:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.WithField("actor_id", s.actorID).Warn("disconnecting slow realtime session")
		h.remove(s)
	}
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ServeWS upgrades the request and runs the session until it disconnects.
// The caller must have authenticated actorID already.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, actorID string) error {
	if h.isClosed() {
		http.Error(w, "realtime updates unavailable", http.StatusServiceUnavailable)
		return ErrClosed
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s := &session{actorID: actorID, conn: conn, send: make(chan []byte, h.sendQueue)}

	// queued before registration so a concurrent broadcast cannot close
	// the channel first
	hello, _ := json.Marshal(Frame{
		Event:     "connected",
		Payload:   map[string]interface{}{"sessions": h.Sessions() + 1},
		Timestamp: time.Now().UTC(),
	})
	s.send <- hello
	if !h.add(s) {
		// closed between the check and the upgrade
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.writeWait))
		_ = conn.Close()
		return ErrClosed
	}

	go h.writePump(s)
	h.readPump(s)
	return nil
}

// Close disconnects every session and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.sessions {
		delete(h.sessions, s)
		close(s.send)
		metrics.SessionClosed()
	}
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// add registers s unless the hub is closed.
func (h *Hub) add(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	metrics.SessionOpened()
	h.log.WithField("actor_id", s.actorID).Debug("realtime session connected")
	return true
}

// remove unregisters s and closes its queue. The write pump then closes the
// connection.
func (h *Hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	close(s.send)
	metrics.SessionClosed()
}

func (h *Hub) readPump(s *session) {
	defer func() {
		h.remove(s)
		_ = s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Debug("realtime session read failed")
			}
			return
		}
	}
}

func (h *Hub) writePump(s *session) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}
