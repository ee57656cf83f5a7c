package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/auth"
	"parkwatch/internal/infrastructure/config"
	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/metrics"
	"parkwatch/internal/infrastructure/storage"
)

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock, *hub.Hub) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	m := metrics.New(prometheus.NewRegistry())
	h := hub.New(logger.Nop{}, m)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("hub start: %v", err)
	}
	t.Cleanup(func() { _ = h.Stop(context.Background()) })

	cfg := config.Default()
	router := InitRouter(routerDeps{
		cfg:      cfg,
		log:      logger.Nop{},
		hub:      h,
		db:       database.New(sqlDB, logger.Nop{}, m),
		tokens:   auth.NewTokenService("", 0),
		uploader: (*storage.S3Uploader)(nil),
		metrics:  m,
	})
	return router, mock, h
}

func TestRouter_HubStatusAndMetrics(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hub/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var status struct {
		HubRunning  bool `json:"hub_running"`
		Connections int  `json:"connections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.HubRunning || status.Connections != 0 {
		t.Errorf("Unexpected status %+v", status)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `parkwatch_http_request_duration_seconds_count{method="GET",path="/hub/status",status_code="200"} 1`) {
		t.Errorf("Expected /hub/status to be observed, got:\n%s", w.Body.String())
	}
}

func TestRouter_HealthDB(t *testing.T) {
	router, mock, _ := newTestRouter(t)
	mock.ExpectPing()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRouter_UploadWithoutStorage(t *testing.T) {
	router, _, _ := newTestRouter(t)

	var body bytes.Buffer
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"plateNumber\"\r\n\r\n12가3456\r\n")
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"image\"; filename=\"f.jpg\"\r\nContent-Type: image/jpeg\r\n\r\njpeg\r\n--b--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/upload", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without object storage, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_FeedBroadcast(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/feed", strings.NewReader(`{"plate":"12가3456"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}
}

type fakeServer struct {
	mu      sync.Mutex
	started chan struct{}
	stop    chan struct{}
	order   []string
	hub     *hub.Hub
}

func (f *fakeServer) Start(ctx context.Context) error {
	close(f.started)
	<-f.stop
	return nil
}

func (f *fakeServer) Stop(ctx context.Context) error {
	f.mu.Lock()
	if f.hub.IsRunning() {
		f.order = append(f.order, "http-before-hub")
	} else {
		f.order = append(f.order, "http-after-hub")
	}
	f.mu.Unlock()
	close(f.stop)
	return nil
}

func TestApplication_ShutdownOrder(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	mock.ExpectClose()

	h := hub.New(logger.Nop{}, nil)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("hub start: %v", err)
	}

	srv := &fakeServer{started: make(chan struct{}), stop: make(chan struct{}), hub: h}
	app := newApplication(logger.Nop{}, srv, h, database.New(sqlDB, logger.Nop{}, nil), config.ServerConfig{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if len(srv.order) != 1 || srv.order[0] != "http-after-hub" {
		t.Errorf("Expected the hub to stop before the HTTP server, got %v", srv.order)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database pool not closed: %v", err)
	}
}

func TestFeedURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":        "ws://localhost:8080/ws",
		"https://parking.example.com/": "wss://parking.example.com/ws",
		"http://host/prefix":           "ws://host/prefix/ws",
	}
	for in, want := range tests {
		got, err := feedURL(in)
		if err != nil || got != want {
			t.Errorf("feedURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newHashPasswordCommand()
	cmd.SetIn(strings.NewReader("s3cret\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	hash := strings.TrimSpace(out.String())
	ok, err := auth.VerifyPassword(hash, "s3cret")
	if err != nil || !ok {
		t.Errorf("Printed hash does not verify: %q (%v)", hash, err)
	}
}

type consoleAPI struct {
	mu      sync.Mutex
	patched []int64
	unread  int
	fail    error
}

func (f *consoleAPI) Alerts(context.Context, string, bool) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return make([]domain.Alert, f.unread), nil
}

func (f *consoleAPI) PatchAlert(_ context.Context, idx int64, _ domain.AlertPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.patched = append(f.patched, idx)
	f.unread--
	return nil
}

func (f *consoleAPI) Summary(context.Context, string) (domain.Summary, error) {
	return domain.Summary{GeneralParking: domain.Occupancy{Current: 3, Total: 10}}, nil
}

func (f *consoleAPI) ParkingStatus(context.Context, string) ([]domain.ParkingSpace, error) {
	return []domain.ParkingSpace{{SpaceID: 1, IsOccupied: true}, {SpaceID: 2}}, nil
}

func (f *consoleAPI) ParkingLots(context.Context, string) ([]domain.ParkingLot, error) {
	return []domain.ParkingLot{{ParkingIdx: 1, ParkingLoc: "Gangnam"}}, nil
}

func (f *consoleAPI) ParkingLogs(context.Context, string, int64) (domain.ParkingLogPage, error) {
	return domain.ParkingLogPage{}, nil
}

func (f *consoleAPI) Violations(context.Context, int64, int64) (domain.ViolationPage, error) {
	return domain.ViolationPage{}, nil
}

// syncBuffer guards a bytes.Buffer written from fetch goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsole_Commands(t *testing.T) {
	api := &consoleAPI{unread: 2}
	out := &syncBuffer{}
	c := newConsole(api, "kim", out, logger.Nop{})

	ctx := context.Background()
	c.mount(ctx)
	defer c.unmount()

	if !strings.Contains(out.String(), "[summary] general 3/10") || !strings.Contains(out.String(), "[lots] 1:Gangnam") {
		t.Errorf("Expected initial panels, got:\n%s", out.String())
	}

	if _, err := c.exec(ctx, "read 9"); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, err := c.exec(ctx, "refresh"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := c.views.UnreadAlerts.Snapshot().Data; got != 1 {
		t.Errorf("Expected unread 1 after read, got %d", got)
	}

	for _, bad := range []string{"read", "read x", "parking x", "district", "dance"} {
		if _, err := c.exec(ctx, bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}

	api.mu.Lock()
	api.fail = errors.New("boom")
	api.mu.Unlock()
	if _, err := c.exec(ctx, "read 10"); err == nil {
		t.Error("Expected failed mutation to surface")
	}

	quit, err := c.exec(ctx, "quit")
	if err != nil || !quit {
		t.Errorf("Expected quit, got %v, %v", quit, err)
	}
}

func TestConsole_RunStopsAtEOF(t *testing.T) {
	c := newConsole(&consoleAPI{}, "kim", &syncBuffer{}, logger.Nop{})

	err := c.run(context.Background(), strings.NewReader("show\nparking all\n"))
	if err != nil {
		t.Errorf("run returned %v", err)
	}
}
