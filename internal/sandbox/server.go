package sandbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/checkout/internal/discovery"
	"github.com/muurk/checkout/internal/logging"
	"github.com/muurk/checkout/internal/protocol"
	"github.com/muurk/checkout/internal/version"
)

const (
	// DefaultPort is the sandbox listen port
	DefaultPort = 8787

	// DefaultInstance is the mDNS instance name
	DefaultInstance = "checkout-sandbox"

	// DefaultStatusDelay separates PAYMENT_INITIATED from the final status
	DefaultStatusDelay = 750 * time.Millisecond

	shutdownTimeout = 10 * time.Second
)

// Config holds the sandbox configuration
type Config struct {
	Host        string
	Port        int
	Path        string        // Websocket endpoint path (default "/sdk")
	PublicKey   string        // When set, clients must present this key
	CertPath    string        // Serve wss:// with this certificate (optional)
	KeyPath     string        // Private key for CertPath
	CaptureDir  string        // Directory to write frame captures (empty = disabled)
	Advertise   bool          // Register an mDNS service
	Instance    string        // mDNS instance name (default "checkout-sandbox")
	StatusDelay time.Duration // Delay before the final payment status
}

// Server is the SDK gateway emulator
type Server struct {
	config    *Config
	upgrader  websocket.Upgrader
	capture   *Capture
	tlsConfig *tls.Config

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	sessions map[string]*session
	wg       sync.WaitGroup
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	cfg := *config
	if cfg.Path == "" {
		cfg.Path = discovery.DefaultPath
	}
	if cfg.Instance == "" {
		cfg.Instance = DefaultInstance
	}
	if cfg.StatusDelay <= 0 {
		cfg.StatusDelay = DefaultStatusDelay
	}

	var tlsConfig *tls.Config
	if cfg.CertPath != "" || cfg.KeyPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	capture, err := NewCapture(cfg.CaptureDir)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:    &cfg,
		upgrader:  websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		capture:   capture,
		tlsConfig: tlsConfig,
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[string]*session),
	}, nil
}

// Handler returns the HTTP handler serving the websocket endpoint and a
// health check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleUpgrade)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintln(w, "ok")
	})
	return mux
}

// Start starts the server and blocks until an interrupt or a fatal error
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run listens, optionally advertises over mDNS, and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logging.Info("Starting SDK sandbox",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.config.Path),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
		zap.String("capture", s.capture.Path()),
	)

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sandbox server failed: %w", err)
		}
		return nil
	})

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(s.config.Instance, port, s.config.Path, map[string]string{
			"version": version.Version,
			"env":     "sandbox",
		})
		if err != nil {
			// The sandbox is still usable by URL.
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			g.Go(func() error {
				<-gctx.Done()
				adv.Shutdown()
				return nil
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutdown requested, stopping sandbox...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Addr returns the listen address once Run has started listening
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// handleUpgrade upgrades one request to a websocket session
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	if s.config.PublicKey != "" && r.Header.Get(protocol.PublicKeyHeader) != s.config.PublicKey {
		logging.Warn("Rejected connection with unknown public key", zap.String("remote_addr", remoteAddr))
		http.Error(w, "unknown public key", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("Websocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := newSession(conn, s.capture, s.config.StatusDelay)

	s.mu.Lock()
	s.sessions[sess.remote] = sess
	s.mu.Unlock()
	s.wg.Add(1)

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.remote)
		s.mu.Unlock()
		s.wg.Done()
	}()

	logging.LogConnection(sess.remote, "session_opened")
	sess.serve(s.ctx)
}

// Shutdown closes all sessions and waits for them to finish
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down sandbox...")

	s.cancel()

	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All sessions closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// ActiveSessions returns the number of connected clients
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
