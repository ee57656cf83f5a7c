package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"parkwatch/internal/infrastructure/logger"
)

// Feed is a relay client on /ws. It does not reconnect; callers dial again
// after Listen returns.
type Feed struct {
	conn   *websocket.Conn
	logger logger.Logger

	writeMu sync.Mutex
}

func DialFeed(ctx context.Context, url string, log logger.Logger) (*Feed, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Feed{conn: conn, logger: log.WithField("component", "feed")}, nil
}

// Publish sends v as one JSON document to every other relay client.
func (f *Feed) Publish(v any) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	_ = f.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return f.conn.WriteJSON(v)
}

// Listen hands each received document to fn until ctx ends or the server
// closes the connection. A normal close returns nil.
func (f *Feed) Listen(ctx context.Context, fn func(json.RawMessage)) error {
	stop := context.AfterFunc(ctx, func() { _ = f.Close() })
	defer stop()

	for {
		_, raw, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if !json.Valid(raw) {
			f.logger.Warnf("Ignoring non-JSON frame (%d bytes)", len(raw))
			continue
		}
		fn(json.RawMessage(raw))
	}
}

func (f *Feed) Close() error {
	f.writeMu.Lock()
	_ = f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	f.writeMu.Unlock()

	err := f.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
