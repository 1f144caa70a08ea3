// Package remote exposes the simulation over a websocket: clients send key
// events that feed the control mapper and receive telemetry snapshots.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/carsim/input"
	"github.com/milk9111/carsim/telemetry"
	"github.com/rs/zerolog"
)

const (
	MessageKeyDown   = "key_down"
	MessageKeyUp     = "key_up"
	MessageTelemetry = "telemetry"
	MessageInfo      = "info"
	MessageError     = "error"
)

const (
	sendBuffer   = 16
	writeTimeout = 2 * time.Second
	pingInterval = 20 * time.Second
)

// Message is the single envelope used in both directions.
type Message struct {
	Type      string              `json:"type"`
	Code      string              `json:"code,omitempty"`
	Message   string              `json:"message,omitempty"`
	Telemetry *telemetry.Snapshot `json:"telemetry,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	held map[string]struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Server is a telemetry.Sink. Key events from every client are queued on the
// hub and delivered on the game loop when the hub is pumped.
type Server struct {
	upgrader websocket.Upgrader
	hub      *input.Hub
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	dropped uint64
	closed  bool

	httpSrv  *http.Server
	serveErr chan error
}

func NewServer(hub *input.Hub, log zerolog.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub:     hub,
		log:     log.With().Str("system", "remote").Logger(),
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the websocket endpoint. It can be mounted on any mux.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

// Start listens on addr and serves in the background until Close.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("remote: listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	s.httpSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.serveErr = make(chan error, 1)

	go func() {
		err := s.httpSrv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("remote control listening")
	return ln.Addr(), nil
}

// Close disconnects every client and stops the listener if Start ran.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for c := range s.clients {
		c.close()
		_ = c.conn.Close()
	}
	s.clients = map[*client]struct{}{}
	s.mu.Unlock()

	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("remote: shutdown: %w", err)
	}
	return <-s.serveErr
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Dropped counts snapshots skipped because a client was not keeping up.
func (s *Server) Dropped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Publish fans a snapshot out to every client without blocking. Slow
// clients miss frames.
func (s *Server) Publish(snap telemetry.Snapshot) error {
	data, err := json.Marshal(Message{Type: MessageTelemetry, Telemetry: &snap})
	if err != nil {
		return fmt.Errorf("remote: encode telemetry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return telemetry.ErrSinkClosed
	}
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.dropped++
		}
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		held: make(map[string]struct{}),
	}
	if !s.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	log := s.log.With().Str("peer", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("remote client connected")

	go s.writeLoop(c, log)
	s.readLoop(c, log)

	s.unregister(c)
	s.release(c)
	_ = conn.Close()
	log.Info().Msg("remote client disconnected")
}

func (s *Server) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	hello, _ := json.Marshal(Message{Type: MessageInfo, Message: "connected"})
	c.send <- hello
	return true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

// release lifts every key the client still held so a dropped connection
// cannot leave the throttle pinned.
func (s *Server) release(c *client) {
	for code := range c.held {
		s.hub.KeyUp(code)
	}
	clear(c.held)
}

func (s *Server) readLoop(c *client, log zerolog.Logger) {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.reply(c, Message{Type: MessageError, Message: "malformed message"})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("read failed")
			}
			return
		}
		if err := s.handle(c, msg); err != nil {
			s.reply(c, Message{Type: MessageError, Message: err.Error()})
		}
	}
}

func (s *Server) handle(c *client, msg Message) error {
	code := input.NormalizeCode(msg.Code)
	switch msg.Type {
	case MessageKeyDown:
		if code == "" {
			return fmt.Errorf("%s: missing code", msg.Type)
		}
		c.held[code] = struct{}{}
		s.hub.KeyDown(code)
	case MessageKeyUp:
		if code == "" {
			return fmt.Errorf("%s: missing code", msg.Type)
		}
		delete(c.held, code)
		s.hub.KeyUp(code)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (s *Server) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (s *Server) writeLoop(c *client, log zerolog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Msg("write failed")
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}
