package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// client is one websocket connection. gorilla allows a single concurrent
// writer, so writes go through writeMu.
type client struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	writeMu      sync.Mutex
	once         sync.Once
}

func (c *client) send(reply Reply) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteJSON(reply)
}

func (c *client) close() {
	c.once.Do(func() { _ = c.conn.Close() })
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}
	if s.config.ReadLimit > 0 {
		conn.SetReadLimit(s.config.ReadLimit)
	}

	c := &client{id: uuid.NewString(), conn: conn, writeTimeout: s.config.WriteTimeout}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	s.logger.Info("Client connected",
		log.String("client_id", c.id),
		log.String("remote_addr", conn.RemoteAddr().String()))

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		c.close()
		s.logger.Info("Client disconnected", log.String("client_id", c.id))
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Websocket read failed", log.String("client_id", c.id), log.Error(err))
			}
			return
		}

		var cmd Command
		var reply Reply
		if err := json.Unmarshal(payload, &cmd); err != nil {
			reply = errorReply("", fmt.Errorf("%w: %w", ErrInvalidMessage, err))
		} else {
			reply = s.execute(cmd)
		}

		if err := c.send(reply); err != nil {
			s.logger.Warn("Websocket write failed", log.String("client_id", c.id), log.Error(err))
			return
		}
	}
}
