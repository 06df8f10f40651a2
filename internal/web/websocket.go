package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/justestif/mediastore/internal/channel"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket serves a channel over a WebSocket connection (GET /channels/{channel}/ws).
// Every text frame is a method call; every reply carries the call's ID.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "channel")
	ch, ok := h.messenger.Channel(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, channel.Failure("", &channel.CallError{
			Code:    "unknown_channel",
			Message: channel.ErrUnknownChannel.Error() + ": " + name,
		}))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsConn{
		id:      uuid.NewString(),
		conn:    conn,
		channel: ch,
		send:    make(chan channel.Response, 16),
		logger:  h.logger,
	}
	c.logger.Info("websocket connected", zap.String("conn", c.id), zap.String("channel", name))

	go c.writePump()
	c.readPump(r)
}

// wsConn is one WebSocket client bound to a channel.
type wsConn struct {
	id      string
	conn    *websocket.Conn
	channel *channel.Channel
	send    chan channel.Response
	logger  *zap.Logger
}

// readPump reads calls until the connection closes, answering each in order.
func (c *wsConn) readPump(r *http.Request) {
	defer func() {
		close(c.send)
		c.logger.Info("websocket disconnected", zap.String("conn", c.id))
	}()

	c.conn.SetReadLimit(maxCallBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}

		var call channel.MethodCall
		if err := json.Unmarshal(data, &call); err != nil || call.Method == "" {
			c.send <- channel.Failure(call.ID, &channel.CallError{
				Code:    channel.CodeBadRequest,
				Message: "invalid method call",
			})
			continue
		}

		c.send <- c.channel.Invoke(r.Context(), call)
	}
}

// writePump serializes replies and keepalive pings onto the connection.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case resp, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(resp); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Warn("websocket write failed", zap.String("conn", c.id), zap.Error(err))
				}
				c.drain()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.drain()
				return
			}
		}
	}
}

// drain discards queued replies after a write failure so readPump never blocks.
func (c *wsConn) drain() {
	c.conn.Close()
	for range c.send {
	}
}
