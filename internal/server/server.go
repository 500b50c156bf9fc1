package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrisdevito/ViewNudger/internal/config"
	"github.com/chrisdevito/ViewNudger/internal/core/events/bus"
	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/nudge"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

// Server is the interactive front end: websocket clients send compass nudges
// and undo requests, and every client is told about applied nudges.
type Server struct {
	config    config.ServerConfig
	nudger    *nudge.Nudger
	selection host.Selection
	events    bus.EventBus
	logger    log.Log

	// nudgeMu gives each nudge exclusive access to the scene.
	nudgeMu sync.Mutex

	clientsMu sync.Mutex
	clients   map[*client]struct{}

	subs       []bus.Subscription
	httpServer *http.Server
	listener   net.Listener

	running int32 // atomic bool
	closed  int32 // atomic bool
}

// New creates a Server. events may be nil, in which case clients only get
// replies to their own commands.
func New(cfg config.ServerConfig, nudger *nudge.Nudger, selection host.Selection, events bus.EventBus, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		config:    cfg,
		nudger:    nudger,
		selection: selection,
		events:    events,
		logger:    logger.With(log.String("component", "server")),
		clients:   make(map[*client]struct{}),
	}
	s.logger.Info("Server created", log.String("listen_addr", cfg.Addr))
	return s
}

// Handler routes /ws to the websocket endpoint and /healthz to a liveness probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener
	s.subscribe()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound listen address, useful when the port was 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping server")

	s.unsubscribe()
	err := s.httpServer.Shutdown(ctx)

	// Hijacked websocket connections are not tracked by http.Server.
	s.clientsMu.Lock()
	for c := range s.clients {
		c.close()
	}
	s.clientsMu.Unlock()

	s.logger.Info("Server stopped")
	return err
}

// Close stops the server if needed and prevents it from starting again.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		return s.Stop(ctx)
	}
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.config.ShutdownTimeout > 0 {
		return s.config.ShutdownTimeout
	}
	return 5 * time.Second
}

// subscribe forwards applied and undone nudges to every client.
func (s *Server) subscribe() {
	if s.events == nil {
		return
	}
	for _, eventType := range []string{nudge.EventApplied, nudge.EventUndone} {
		sub, err := s.events.Subscribe(eventType, s.forward)
		if err != nil {
			s.logger.Warn("Event subscription failed", log.String("event", eventType), log.Error(err))
			continue
		}
		s.subs = append(s.subs, sub)
	}
}

func (s *Server) unsubscribe() {
	for _, sub := range s.subs {
		_ = s.events.Unsubscribe(sub)
	}
	s.subs = nil
}

func (s *Server) forward(event bus.Event) error {
	reply := Reply{Type: TypeEvent, Event: event.Type()}
	switch data := event.Data().(type) {
	case *nudge.Result:
		reply.Result = data
	case string:
		reply.Label = data
	}
	s.broadcast(reply)
	return nil
}

func (s *Server) broadcast(reply Reply) {
	s.clientsMu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		if err := c.send(reply); err != nil {
			s.logger.Warn("Dropping client after failed broadcast", log.String("client_id", c.id), log.Error(err))
			s.drop(c)
		}
	}
}

// drop forgets c and closes its connection, which also ends its read loop.
func (s *Server) drop(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	c.close()
}

// execute runs one command with exclusive access to the scene.
func (s *Server) execute(cmd Command) Reply {
	s.nudgeMu.Lock()
	defer s.nudgeMu.Unlock()

	switch cmd.Action {
	case "", ActionNudge:
		req, err := cmd.request(s.selection)
		if err != nil {
			return errorReply(cmd.ID, err)
		}
		res, err := s.nudger.Nudge(req)
		if err != nil {
			return errorReply(cmd.ID, err)
		}
		return Reply{Type: TypeResult, ID: cmd.ID, Result: res}
	case ActionUndo:
		label, err := s.nudger.Undo()
		if err != nil {
			return errorReply(cmd.ID, err)
		}
		return Reply{Type: TypeUndone, ID: cmd.ID, Label: label}
	default:
		return errorReply(cmd.ID, fmt.Errorf("%w: unknown action %q", ErrInvalidMessage, cmd.Action))
	}
}
