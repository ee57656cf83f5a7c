package hub

import (
	"context"
	"errors"
)

var (
	// ErrConnectionClosed is returned by Send on a connection that is not Open.
	ErrConnectionClosed = errors.New("connection is closed")
	// ErrSendQueueFull is returned by Send when the outbound queue has no room.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrHubNotRunning is returned by hub operations before Start or after Stop.
	ErrHubNotRunning = errors.New("hub is not running")
)

// State is the lifecycle of a Connection.
type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection represents any relay transport (WebSocket, SSE).
type Connection interface {
	ID() string
	Type() string
	State() State
	// Send queues message for delivery without waiting on network I/O.
	Send(ctx context.Context, message *Message) error
	Close() error
	// Context is cancelled once the connection leaves StateOpen.
	Context() context.Context
}

// Sink receives what transports read off the wire. *Hub implements it.
type Sink interface {
	Receive(conn Connection, raw []byte)
	ReportError(conn Connection, err error)
}

// ConnectionInfo is a point-in-time description of a live connection.
type ConnectionInfo struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	State string `json:"state"`
}
