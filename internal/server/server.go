// Package server provides the delayed static file server.
package server

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Server serves static files with artificial latency and permissive
// cross-origin headers.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
	log        *logrus.Logger
	errLog     io.Closer
}

// Config holds server configuration.
type Config struct {
	// Latency is applied before GET handling and again before the
	// response headers are sent.
	Latency time.Duration

	Port int

	// Root is the directory to serve. Defaults to the working directory.
	Root string

	Logger *logrus.Logger
}

// New creates a new server. It does not bind the port; call Listen.
func New(cfg *Config) (*Server, error) {
	if cfg.Latency < 0 {
		return nil, fmt.Errorf("invalid latency %s: must be non-negative", cfg.Latency)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", cfg.Port)
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		port: cfg.Port,
		log:  logger,
	}

	handler := &delayHandler{
		next:    newStaticRouter(root),
		latency: cfg.Latency,
		sleep:   time.Sleep,
		onDone:  s.logRequest,
	}

	errWriter := logger.WriterLevel(logrus.WarnLevel)
	s.errLog = errWriter

	s.httpServer = &http.Server{
		Handler:  handler,
		ErrorLog: stdlog.New(errWriter, "", 0),
	}
	// One request per connection, as with HTTP/1.0.
	s.httpServer.SetKeepAlivesEnabled(false)

	return s, nil
}

// Listen binds the TCP listener on all IPv4 interfaces.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("failed to bind port %d: %w", s.port, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Banner returns the startup line reporting the bound host and port.
func (s *Server) Banner() string {
	host, port := "", s.port
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		host, port = tcp.IP.String(), tcp.Port
	}
	return fmt.Sprintf("Serving HTTP on %s port %d ...", host, port)
}

// Serve handles requests until the server is closed. Listen must have been
// called first.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	s.log.WithField("addr", s.listener.Addr().String()).Debug("accepting connections")
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the server immediately.
func (s *Server) Close() error {
	err := s.httpServer.Close()
	if s.listener != nil {
		// Already closed if Serve ran.
		s.listener.Close()
	}
	s.errLog.Close()
	return err
}

func (s *Server) logRequest(r *http.Request, status int, elapsed time.Duration) {
	if !s.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	s.log.WithFields(logrus.Fields{
		"id":      uuid.NewString(),
		"method":  r.Method,
		"path":    r.URL.Path,
		"status":  status,
		"elapsed": elapsed.String(),
	}).Debug("request served")
}
