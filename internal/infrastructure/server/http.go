package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"parkwatch/internal/infrastructure/config"
	"parkwatch/internal/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

type HTTPServer struct {
	srv    *http.Server
	logger logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

var _ Server = (*HTTPServer)(nil)

// NewHTTPServer builds the server. WriteTimeout stays zero because /ws and
// /sse hold their responses open for the lifetime of the connection.
func NewHTTPServer(handler http.Handler, cfg config.ServerConfig, log logger.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:        cfg.Addr,
			Handler:     handler,
			ReadTimeout: cfg.ReadTimeout,
			IdleTimeout: cfg.IdleTimeout,
		},
		logger: log.WithField("component", "http"),
	}
}

func (h *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.listener = ln
	h.mu.Unlock()

	h.logger.Infof("HTTP server listening on %s", ln.Addr())

	var eg errgroup.Group
	eg.Go(func() error {
		err := h.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	return eg.Wait()
}

// Addr is the bound address once Start has begun listening.
func (h *HTTPServer) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

func (h *HTTPServer) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
