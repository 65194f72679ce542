// Package server is a demo target for the traffic generator. Its endpoints
// answer quickly, slowly, or after burning CPU and memory, so a batch can be
// pointed at behavior worth measuring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wesleyorama2/stampede/pkg/logger"
)

const (
	DefaultAddr            = ":3001"
	DefaultShutdownTimeout = 5 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// Config controls how the server listens and what it allows through.
type Config struct {
	Addr string

	// Mode is a gin mode: debug, release or test. Empty leaves gin's mode alone.
	Mode string

	// RateLimit is the sustained requests per second allowed across all
	// clients. Zero disables limiting.
	RateLimit float64
	Burst     int

	ShutdownTimeout time.Duration
}

// Server wires the demo handlers into a gin engine.
type Server struct {
	cfg     Config
	log     *zap.Logger
	engine  *gin.Engine
	started time.Time

	// self is the base URL of the listener Serve is running on. Empty until
	// then, and never derived from anything a client sends.
	self atomic.Value
}

// New builds a server. It does not start listening.
func New(cfg Config, log *zap.Logger) (*Server, error) {
	switch cfg.Mode {
	case "":
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	default:
		return nil, fmt.Errorf("unknown server mode %q", cfg.Mode)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %v", cfg.RateLimit)
	}
	if cfg.RateLimit > 0 && cfg.Burst < 1 {
		return nil, fmt.Errorf("burst must be at least 1 when rate limiting, got %d", cfg.Burst)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		cfg:     cfg,
		log:     logger.OrNop(log),
		started: time.Now(),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(s.log))
	if s.cfg.RateLimit > 0 {
		r.Use(GlobalRateLimiter(s.cfg.RateLimit, s.cfg.Burst))
	}

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/sort/quick", s.handleSort(sortQuick))
		api.GET("/sort/bubble", s.handleSort(sortBubble))
		api.GET("/cpu", s.handleCPU)
		api.GET("/long-running", s.handleLongRunning)
		api.GET("/heap", s.handleHeap)
		api.GET("/stack", s.handleStack)
		api.GET("/recursion/:levels", s.handleRecursion)
		api.GET("/slow", s.handleSlow)
		api.GET("/mock", s.handleMock)
		api.GET("/traffic", s.handleTraffic)
	}

	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, giving in-flight requests ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.self.Store(loopbackURL(ln.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("server forced to shut down: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}

// selfURL returns the base URL recorded by Serve, or "" before that.
func (s *Server) selfURL() string {
	base, _ := s.self.Load().(string)
	return base
}

// loopbackURL is the base URL the server can reach itself on through addr.
// Wildcard listen addresses are dialed on loopback.
func loopbackURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}

	ip := tcp.IP
	switch {
	case ip == nil || ip.Equal(net.IPv4zero):
		ip = net.IPv4(127, 0, 0, 1)
	case ip.IsUnspecified():
		ip = net.IPv6loopback
	}
	return "http://" + net.JoinHostPort(ip.String(), strconv.Itoa(tcp.Port))
}
