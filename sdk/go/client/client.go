// Package client drives a running viewnudger server over its websocket.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chrisdevito/ViewNudger/internal/core/nudge"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
	"github.com/chrisdevito/ViewNudger/internal/server"
)

// Client is one websocket connection to a viewnudger server. Commands may be
// issued from several goroutines; replies are matched by command ID.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan server.Reply

	eventHandlers []EventHandler
	handlerMutex  sync.RWMutex

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool
	done      chan struct{}

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

type Config struct {
	// URL of the websocket endpoint, e.g. ws://127.0.0.1:8765/ws.
	URL            string
	ConnectTimeout time.Duration
	// ReplyTimeout bounds a command when its context has no deadline.
	ReplyTimeout time.Duration
	Header       http.Header
}

func DefaultClientConfig() Config {
	return Config{
		URL:            "ws://127.0.0.1:8765/ws",
		ConnectTimeout: 10 * time.Second,
		ReplyTimeout:   10 * time.Second,
	}
}

// EventHandler receives applied and undone nudges broadcast by the server.
type EventHandler func(event server.Reply)

// NewClient creates a disconnected client. A nil logger disables logging.
func NewClient(config Config, logger log.Log) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		pending: make(map[string]chan server.Reply),
		done:    make(chan struct{}),
		config:  config,
		logger:  logger.With(log.String("component", "client")),
	}
}

// Connect dials the server and starts the reply reader.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		return ErrAlreadyConnected
	}

	c.logger.Info("Connecting to server", log.String("url", c.config.URL))

	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.config.URL, c.config.Header)
	if err != nil {
		c.logger.Error("Failed to connect to server",
			log.String("url", c.config.URL),
			log.Error(err))
		return fmt.Errorf("dial %s: %w", c.config.URL, err)
	}

	c.conn = conn
	atomic.StoreInt32(&c.connected, 1)

	c.workerGroup.Add(1)
	go func() {
		defer c.workerGroup.Done()
		c.receiver()
	}()

	c.logger.Info("Connected to server", log.String("remote_addr", conn.RemoteAddr().String()))
	return nil
}

// Disconnect closes the connection. Commands waiting for a reply fail with
// ErrNotConnected.
func (c *Client) Disconnect() error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = c.conn.Close()

	c.workerGroup.Wait()
	c.logger.Info("Disconnected from server")
	return nil
}

// Close disconnects if needed and makes the client unusable.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		_ = c.Disconnect()
	}
	close(c.done)
	return nil
}

func (c *Client) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

// OnEvent registers a handler for server broadcasts.
func (c *Client) OnEvent(handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.eventHandlers = append(c.eventHandlers, handler)
}

// Nudge sends a nudge command and waits for its result.
func (c *Client) Nudge(ctx context.Context, cmd server.Command) (*nudge.Result, error) {
	cmd.Action = server.ActionNudge
	reply, err := c.do(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if reply.Result == nil {
		return nil, fmt.Errorf("%w: %s reply without result", ErrInvalidReply, reply.Type)
	}
	return reply.Result, nil
}

// Undo reverts the last nudge on the server and returns its label.
func (c *Client) Undo(ctx context.Context) (string, error) {
	reply, err := c.do(ctx, server.Command{Action: server.ActionUndo})
	if err != nil {
		return "", err
	}
	return reply.Label, nil
}

func (c *Client) do(ctx context.Context, cmd server.Command) (server.Reply, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return server.Reply{}, ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 0 {
		return server.Reply{}, ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok && c.config.ReplyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ReplyTimeout)
		defer cancel()
	}

	cmd.ID = uuid.NewString()
	ch := make(chan server.Reply, 1)
	c.pendingMu.Lock()
	c.pending[cmd.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, cmd.ID)
		c.pendingMu.Unlock()
	}()

	c.logger.Debug("Sending command",
		log.String("id", cmd.ID),
		log.String("action", cmd.Action),
		log.String("direction", cmd.Direction))

	c.writeMu.Lock()
	err := c.conn.WriteJSON(cmd)
	c.writeMu.Unlock()
	if err != nil {
		return server.Reply{}, fmt.Errorf("send command: %w", err)
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return server.Reply{}, ErrNotConnected
		}
		if reply.Type == server.TypeError {
			return reply, remoteError(reply.Error)
		}
		return reply, nil
	case <-ctx.Done():
		return server.Reply{}, fmt.Errorf("%w: %w", ErrReplyTimeout, ctx.Err())
	case <-c.done:
		return server.Reply{}, ErrClientClosed
	}
}

// receiver routes replies to waiting commands and broadcasts to handlers.
func (c *Client) receiver() {
	defer c.failPending()

	for {
		var reply server.Reply
		if err := c.conn.ReadJSON(&reply); err != nil {
			if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
				c.logger.Warn("Connection lost", log.Error(err))
				_ = c.conn.Close()
			}
			return
		}

		if reply.Type == server.TypeEvent {
			c.emitEvent(reply)
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[reply.ID]
		c.pendingMu.Unlock()
		if !ok {
			c.logger.Debug("Dropping unmatched reply",
				log.String("id", reply.ID),
				log.String("type", reply.Type))
			continue
		}
		ch <- reply
	}
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) emitEvent(event server.Reply) {
	c.handlerMutex.RLock()
	handlers := append([]EventHandler(nil), c.eventHandlers...)
	c.handlerMutex.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// RemoteError is an error reply from the server. It unwraps to the matching
// nudge error so callers can use errors.Is across the wire.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server: %s: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return codeErrors[e.Code]
}

var codeErrors = map[string]error{
	server.CodeInvalidTarget:          nudge.ErrInvalidTarget,
	server.CodeInvalidViewport:        nudge.ErrInvalidViewport,
	server.CodeTargetNotProjectable:   nudge.ErrTargetNotProjectable,
	server.CodeSingularViewProjection: nudge.ErrSingularViewProjection,
	server.CodeInvalidRequest:         nudge.ErrInvalidRequest,
	server.CodeUndoFailed:             ErrUndoFailed,
}

func remoteError(reply *server.ErrorReply) error {
	if reply == nil {
		return errors.New("server: error reply without details")
	}
	return &RemoteError{Code: reply.Code, Message: reply.Message}
}
