package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"parkwatch/internal/infrastructure/logger"

	"github.com/gin-contrib/sse"
)

// SSEConnection is a receive-only relay connection. The hub queues messages
// and Stream, running on the request goroutine, writes them out.
type SSEConnection struct {
	id string

	ctx    context.Context
	cancel context.CancelFunc

	state   State
	stateMu sync.RWMutex

	send chan []byte

	logger logger.Logger
}

// NewSSEConnection derives the connection context from ctx, usually the
// request context, so a client disconnect ends the stream.
func NewSSEConnection(ctx context.Context, id string, sendBuffer int, logger logger.Logger) *SSEConnection {
	cctx, cancel := context.WithCancel(ctx)

	return &SSEConnection{
		id:     id,
		ctx:    cctx,
		cancel: cancel,
		state:  StateOpen,
		send:   make(chan []byte, sendBuffer),
		logger: logger.WithField("connection_id", id),
	}
}

func (c *SSEConnection) ID() string { return c.id }

func (c *SSEConnection) Type() string { return "sse" }

func (c *SSEConnection) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *SSEConnection) Context() context.Context { return c.ctx }

// Send queues message without blocking.
func (c *SSEConnection) Send(_ context.Context, message *Message) error {
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

func (c *SSEConnection) Close() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state == StateClosed {
		return nil
	}

	c.state = StateClosed
	c.cancel()

	c.logger.Debug("SSE connection closed")
	return nil
}

// Stream writes queued messages as "relay" events until the connection
// closes. A comment line is written every keepAlive to hold proxies open.
func (c *SSEConnection) Stream(w http.ResponseWriter, keepAlive time.Duration) error {
	defer c.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support flushing")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := sse.Encode(w, sse.Event{Event: "ready", Data: c.id}); err != nil {
		return err
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case raw := <-c.send:
			if err := sse.Encode(w, sse.Event{Event: "relay", Data: string(raw)}); err != nil {
				return err
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return err
			}
			flusher.Flush()

		case <-c.ctx.Done():
			return nil
		}
	}
}
