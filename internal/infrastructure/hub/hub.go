package hub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/metrics"
)

const sweepInterval = 30 * time.Second

type registration struct {
	conn Connection
	done chan struct{}
}

type inbound struct {
	conn Connection
	raw  []byte
}

// Hub relays every inbound message to all other open connections.
//
// All connection-set mutation and iteration happens on the run goroutine, so
// the map itself carries no lock. Other goroutines talk to the loop through
// channels.
type Hub struct {
	connections map[string]Connection
	count       atomic.Int64

	running   bool
	runningMu sync.RWMutex

	logger  logger.Logger
	metrics *metrics.Metrics

	register   chan registration
	unregister chan string
	inbound    chan inbound
	broadcast  chan *Message
	snapshots  chan chan []ConnectionInfo

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Sink = (*Hub)(nil)

// New creates a Hub. m may be nil.
func New(logger logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		connections: make(map[string]Connection),
		logger:      logger.WithField("component", "hub"),
		metrics:     m,
		register:    make(chan registration, 100),
		unregister:  make(chan string, 100),
		inbound:     make(chan inbound, 1024),
		broadcast:   make(chan *Message, 256),
		snapshots:   make(chan chan []ConnectionInfo),
	}
}

// Start launches the event loop.
func (h *Hub) Start(ctx context.Context) error {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()

	if h.running {
		return fmt.Errorf("hub is already running")
	}

	h.ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	h.running = true

	go h.run(h.ctx, h.done)

	h.logger.Info("Hub started")
	return nil
}

// Stop ends the event loop and closes every connection. It waits for the loop
// to finish or for ctx to expire.
func (h *Hub) Stop(ctx context.Context) error {
	h.runningMu.Lock()
	if !h.running {
		h.runningMu.Unlock()
		return nil
	}
	h.running = false
	h.cancel()
	done := h.done
	h.runningMu.Unlock()

	select {
	case <-done:
		h.logger.Info("Hub stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop hub: %w", ctx.Err())
	}
}

// IsRunning returns true if the hub is currently running
func (h *Hub) IsRunning() bool {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()
	return h.running
}

func (h *Hub) loopContext() (context.Context, bool) {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()
	return h.ctx, h.running
}

// Accept adds conn to the live set and returns once the loop has recorded it,
// so frames read afterwards are never seen before the registration.
func (h *Hub) Accept(conn Connection) error {
	ctx, ok := h.loopContext()
	if !ok {
		return ErrHubNotRunning
	}

	reg := registration{conn: conn, done: make(chan struct{})}
	select {
	case h.register <- reg:
	case <-ctx.Done():
		return ErrHubNotRunning
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout registering connection %s", conn.ID())
	}

	select {
	case <-reg.done:
		return nil
	case <-ctx.Done():
		return ErrHubNotRunning
	}
}

// Remove drops a connection from the live set. Removing an unknown or already
// removed connection is a no-op.
func (h *Hub) Remove(connID string) error {
	ctx, ok := h.loopContext()
	if !ok {
		return ErrHubNotRunning
	}

	select {
	case h.unregister <- connID:
		return nil
	case <-ctx.Done():
		return ErrHubNotRunning
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout unregistering connection %s", connID)
	}
}

// Receive hands a frame read from conn to the loop for relay.
func (h *Hub) Receive(conn Connection, raw []byte) {
	ctx, ok := h.loopContext()
	if !ok {
		h.logger.Debugf("Dropping frame from %s: hub not running", conn.ID())
		return
	}

	select {
	case h.inbound <- inbound{conn: conn, raw: raw}:
	case <-ctx.Done():
	case <-conn.Context().Done():
	}
}

// ReportError logs a transport fault and closes the faulty connection only.
func (h *Hub) ReportError(conn Connection, err error) {
	h.logger.Warnf("Transport error on connection %s: %v", conn.ID(), err)
	if cerr := conn.Close(); cerr != nil {
		h.logger.Debugf("Closing connection %s after error: %v", conn.ID(), cerr)
	}
}

// Broadcast sends a server-originated message to every open connection.
func (h *Hub) Broadcast(ctx context.Context, message *Message) error {
	loopCtx, ok := h.loopContext()
	if !ok {
		return ErrHubNotRunning
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-loopCtx.Done():
		return ErrHubNotRunning
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout broadcasting message")
	}
}

// ConnectionCount returns the number of connections in the live set.
func (h *Hub) ConnectionCount() int {
	return int(h.count.Load())
}

// Connections returns a snapshot of the live set taken on the loop.
func (h *Hub) Connections(ctx context.Context) ([]ConnectionInfo, error) {
	loopCtx, ok := h.loopContext()
	if !ok {
		return nil, ErrHubNotRunning
	}

	reply := make(chan []ConnectionInfo, 1)
	select {
	case h.snapshots <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-loopCtx.Done():
		return nil, ErrHubNotRunning
	}

	select {
	case infos := <-reply:
		return infos, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case reg := <-h.register:
			h.handleRegister(ctx, reg.conn)
			close(reg.done)

		case connID := <-h.unregister:
			h.handleUnregister(connID)

		case in := <-h.inbound:
			h.handleInbound(ctx, in)

		case message := <-h.broadcast:
			h.relay(ctx, message, "")

		case reply := <-h.snapshots:
			reply <- h.snapshot()

		case <-ticker.C:
			h.cleanupClosedConnections()

		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("Hub run loop stopped")
			return
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, conn Connection) {
	if _, exists := h.connections[conn.ID()]; exists {
		h.logger.Warnf("Connection %s already registered", conn.ID())
		return
	}

	h.connections[conn.ID()] = conn
	h.count.Add(1)
	h.metrics.ConnectionOpened(conn.Type())

	h.logger.Infof("Connection %s registered (type: %s)", conn.ID(), conn.Type())

	go func() {
		select {
		case <-conn.Context().Done():
			_ = h.Remove(conn.ID())
		case <-ctx.Done():
		}
	}()
}

func (h *Hub) handleUnregister(connID string) {
	conn, exists := h.connections[connID]
	if !exists {
		return
	}

	delete(h.connections, connID)
	h.count.Add(-1)
	h.metrics.ConnectionClosed(conn.Type())

	if err := conn.Close(); err != nil {
		h.logger.Debugf("Closing connection %s: %v", connID, err)
	}
	h.logger.Infof("Connection %s unregistered", connID)
}

func (h *Hub) handleInbound(ctx context.Context, in inbound) {
	sender := in.conn.ID()
	if _, live := h.connections[sender]; !live {
		h.logger.Debugf("Dropping frame from unregistered connection %s", sender)
		h.metrics.InboundDropped()
		return
	}

	message, err := DecodeMessage(sender, in.raw)
	if err != nil {
		h.logger.Warnf("Dropping malformed frame: %v", err)
		h.metrics.InboundDropped()
		return
	}

	h.metrics.InboundRelayed()
	h.relay(ctx, message, sender)
}

// relay sends message to every open connection except exclude. A failed send
// skips that recipient only.
func (h *Hub) relay(ctx context.Context, message *Message, exclude string) {
	if _, err := message.Bytes(); err != nil {
		h.logger.Errorf("Cannot encode message %s: %v", message.ID, err)
		return
	}

	delivered, skipped := 0, 0
	for id, conn := range h.connections {
		if id == exclude {
			continue
		}
		if conn.State() != StateOpen {
			skipped++
			h.metrics.Skipped()
			continue
		}
		if err := conn.Send(ctx, message); err != nil {
			h.logger.Debugf("Skipping connection %s for message %s: %v", id, message.ID, err)
			skipped++
			h.metrics.Skipped()
			continue
		}
		delivered++
		h.metrics.Delivered()
	}

	h.logger.Debugf("Relayed message %s to %d connections (%d skipped)", message.ID, delivered, skipped)
}

func (h *Hub) snapshot() []ConnectionInfo {
	infos := make([]ConnectionInfo, 0, len(h.connections))
	for _, conn := range h.connections {
		infos = append(infos, ConnectionInfo{
			ID:    conn.ID(),
			Type:  conn.Type(),
			State: conn.State().String(),
		})
	}
	return infos
}

// cleanupClosedConnections removes connections whose transport already closed
// without their removal reaching the loop.
func (h *Hub) cleanupClosedConnections() {
	for id, conn := range h.connections {
		if conn.State() == StateClosed {
			h.handleUnregister(id)
		}
	}
}

func (h *Hub) closeAll() {
	for id := range h.connections {
		h.handleUnregister(id)
	}
}
