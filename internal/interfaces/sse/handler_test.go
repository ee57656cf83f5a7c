package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
)

// readEvent returns the event name and data of the next SSE event.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" || data != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestSSE_ReceivesRelay(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := hub.New(logger.Nop{}, nil)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start hub: %v", err)
	}

	r := gin.New()
	InitSSERouter(logger.Nop{}, h, 16, time.Minute, r.Group(""))
	srv := httptest.NewServer(r)
	defer srv.Close()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Stop(ctx)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /sse failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if event, id := readEvent(t, reader); event != "ready" || !strings.HasPrefix(id, "sse-") {
		t.Fatalf("Expected ready event with id, got %q %q", event, id)
	}

	if err := h.Broadcast(context.Background(), hub.NewMessage(map[string]int{"n": 1})); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	event, data := readEvent(t, reader)
	if event != "relay" || data != `{"n":1}` {
		t.Errorf("Expected relay {\"n\":1}, got %q %q", event, data)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for h.ConnectionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Connection not removed after client left, have %d", h.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
