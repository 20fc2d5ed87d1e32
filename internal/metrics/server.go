package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cthucoin/indexer/internal/config"
	"github.com/cthucoin/indexer/internal/logger"
)

// Server exposes Prometheus metrics plus a liveness endpoint.
type Server struct {
	config config.MetricsConfig
	log    *logger.Logger
	server *http.Server
	start  time.Time
}

// NewServer creates a new metrics server.
func NewServer(cfg config.MetricsConfig, log *logger.Logger) *Server {
	return &Server{config: cfg, log: log}
}

// Start starts the metrics HTTP server and the uptime updater.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.start = time.Now()
	go s.updateUptime(ctx)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("metrics server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the metrics HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	return nil
}

func (s *Server) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Uptime.Set(time.Since(s.start).Seconds())
		}
	}
}
