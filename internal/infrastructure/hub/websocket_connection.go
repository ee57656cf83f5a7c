package hub

import (
	"context"
	"sync"
	"time"

	"parkwatch/internal/infrastructure/logger"

	"github.com/gorilla/websocket"
)

// WebSocketOptions tunes a WebSocketConnection.
type WebSocketOptions struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

func DefaultWebSocketOptions() WebSocketOptions {
	return WebSocketOptions{
		SendBuffer:     256,
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   54 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// WebSocketConnection is a bidirectional relay connection. Frames read from
// the socket go to the Sink; queued messages are written by a single writer
// goroutine.
type WebSocketConnection struct {
	id   string
	conn *websocket.Conn
	sink Sink
	opts WebSocketOptions

	ctx    context.Context
	cancel context.CancelFunc

	state   State
	stateMu sync.RWMutex

	// send is never closed; writePump exits on ctx.
	send chan []byte

	logger logger.Logger
}

// NewWebSocketConnection wraps an upgraded socket. Call Start after the
// connection has been accepted by the hub.
func NewWebSocketConnection(
	id string,
	conn *websocket.Conn,
	sink Sink,
	opts WebSocketOptions,
	logger logger.Logger,
) *WebSocketConnection {
	ctx, cancel := context.WithCancel(context.Background())

	return &WebSocketConnection{
		id:     id,
		conn:   conn,
		sink:   sink,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		state:  StateOpen,
		send:   make(chan []byte, opts.SendBuffer),
		logger: logger.WithField("connection_id", id),
	}
}

// Start launches the read and write pumps.
func (c *WebSocketConnection) Start() {
	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	go c.writePump()
	go c.readPump()
}

func (c *WebSocketConnection) ID() string { return c.id }

func (c *WebSocketConnection) Type() string { return "websocket" }

func (c *WebSocketConnection) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *WebSocketConnection) Context() context.Context { return c.ctx }

// Send queues message without blocking.
func (c *WebSocketConnection) Send(_ context.Context, message *Message) error {
	raw, err := message.Bytes()
	if err != nil {
		return err
	}

	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	if c.state != StateOpen {
		return ErrConnectionClosed
	}

	select {
	case c.send <- raw:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close sends a normal close frame and tears the socket down. Safe to call
// more than once.
func (c *WebSocketConnection) Close() error {
	c.stateMu.Lock()
	if c.state != StateOpen {
		c.stateMu.Unlock()
		return nil
	}
	c.state = StateClosing
	c.stateMu.Unlock()

	c.cancel()

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.opts.WriteTimeout),
	)
	err := c.conn.Close()

	c.stateMu.Lock()
	c.state = StateClosed
	c.stateMu.Unlock()

	c.logger.Debug("WebSocket connection closed")
	return err
}

func (c *WebSocketConnection) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case raw := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				if c.ctx.Err() == nil {
					c.sink.ReportError(c, err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if c.ctx.Err() == nil {
					c.sink.ReportError(c, err)
				}
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *WebSocketConnection) readPump() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				c.sink.ReportError(c, err)
			} else {
				c.logger.Debugf("Peer closed connection: %v", err)
			}
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))

		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
			c.sink.Receive(c, data)
		}
	}
}
