package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "http://a.test", wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "listed origin", allowed: []string{"http://a.test/"}, method: http.MethodGet, origin: "http://a.test", wantStatus: http.StatusOK, wantOrigin: "http://a.test"},
		{name: "unlisted origin", allowed: []string{"http://a.test"}, method: http.MethodGet, origin: "http://b.test", wantStatus: http.StatusOK, wantOrigin: ""},
		{name: "preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "http://a.test", wantStatus: http.StatusNoContent, wantOrigin: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allowed))
			r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected allow origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	check := OriginAllowed([]string{"http://a.test"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if !check(req) {
		t.Error("Requests without Origin should pass")
	}
	req.Header.Set("Origin", "http://a.test")
	if !check(req) {
		t.Error("Listed origin should pass")
	}
	req.Header.Set("Origin", "http://evil.test")
	if check(req) {
		t.Error("Unlisted origin should be rejected")
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(Metrics(m), RequestLogger(logger.Nop{}))
	r.GET("/api/violations/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/violations/1", "/api/violations/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if n := testutil.CollectAndCount(m.HTTPRequestDuration); n != 2 {
		t.Errorf("Expected 2 label sets (template + unmatched), got %d", n)
	}
}
