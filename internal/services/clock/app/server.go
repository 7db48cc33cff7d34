// Package app wires the clock service together: SQLite storage, the session
// coordinator, the chat gateway, and the health surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/hostcarioca/timeclock/internal/services/clock/coordinator"
	"github.com/hostcarioca/timeclock/internal/services/clock/gateway"
	clocksqlite "github.com/hostcarioca/timeclock/internal/services/clock/storage/sqlite"
)

// Config controls clock service startup and session behavior.
type Config struct {
	Port                int
	HTTPPort            int
	DBPath              string
	PresenceInterval    time.Duration
	OverrideAuthorityID string
	HistoryChannelID    string
	Locale              string
	HistoryLimit        int
	// Sender is the chat platform integration. Nil routes deliveries to
	// the service log.
	Sender gateway.Sender
}

const (
	defaultClockPort = 8090
	defaultHTTPPort  = 8080
	defaultClockDB   = "data/clock.db"
	shutdownTimeout  = 5 * time.Second
)

// Server is an assembled clock service.
type Server struct {
	cfg         Config
	store       *clocksqlite.Store
	coordinator *coordinator.Coordinator
	dispatcher  *gateway.Dispatcher
}

// New opens storage and assembles the coordinator and gateway. Callers own
// the returned server and must Run or Close it.
func New(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		cfg.Port = defaultClockPort
	}
	if cfg.HTTPPort <= 0 {
		cfg.HTTPPort = defaultHTTPPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultClockDB
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create clock storage dir: %w", err)
		}
	}
	store, err := clocksqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open clock sqlite store: %w", err)
	}

	sender := cfg.Sender
	if sender == nil {
		sender = newLogSender(cfg.Locale)
	}
	coord := coordinator.New(store, newNotifier(sender, cfg.Locale, cfg.HistoryChannelID, cfg.OverrideAuthorityID), coordinator.Config{
		PresenceInterval:    cfg.PresenceInterval,
		OverrideAuthorityID: cfg.OverrideAuthorityID,
		HistoryLimit:        cfg.HistoryLimit,
	})

	return &Server{
		cfg:         cfg,
		store:       store,
		coordinator: coord,
		dispatcher:  gateway.NewDispatcher(coord),
	}, nil
}

// Dispatcher exposes the command surface for chat integrations.
func (s *Server) Dispatcher() *gateway.Dispatcher {
	return s.dispatcher
}

// Close stops the watchdogs and releases storage.
func (s *Server) Close() error {
	s.coordinator.Close()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close clock sqlite store: %w", err)
	}
	return nil
}

// Run restores persisted sessions, serves the gRPC health endpoint and the
// HTTP keep-alive endpoint, and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("close clock server: %v", err)
		}
	}()

	restored, err := s.coordinator.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	if restored > 0 {
		log.Printf("msg=%q count=%d", "sessions restored", restored)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on clock port %d: %w", s.cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("clock.service", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.HTTPPort),
		Handler: keepAliveHandler(),
	}
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpServer.ListenAndServe()
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown keep-alive server: %v", err)
		}
		<-httpErr
	}()

	log.Printf("clock server listening at %v", listener.Addr())
	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		serveErr <- err
		return fmt.Errorf("serve clock grpc: %w", err)
	case err := <-httpErr:
		httpErr <- err
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve keep-alive endpoint: %w", err)
	}
}

// keepAliveHandler answers liveness probes with a fixed body.
func keepAliveHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "clock service alive")
	})
	return mux
}
