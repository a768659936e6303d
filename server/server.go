package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/wire"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("server: closed")

// DefaultVersion is the protocol version announced in the greeting.
const DefaultVersion = "0.23.5"

// DefaultMaxLineLength is the longest command line accepted, line feed
// included.
const DefaultMaxLineLength = 4096

// Handler executes decoded commands.
//
// Handle writes the response fields of a successful command to w and
// returns nil; the server completes the response with OK. A returned error
// is sent as an ACK, see wire.AckFromError. Handle is called concurrently
// for different sessions.
type Handler interface {
	Handle(ctx context.Context, s *Session, cmd mpdcmd.Command, w *wire.ResponseWriter) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s *Session, cmd mpdcmd.Command, w *wire.ResponseWriter) error

func (f HandlerFunc) Handle(ctx context.Context, s *Session, cmd mpdcmd.Command, w *wire.ResponseWriter) error {
	return f(ctx, s, cmd, w)
}

// Config holds the configuration of a Server. Zero values select defaults.
type Config struct {
	// Version is announced in the greeting. Default: DefaultVersion.
	Version string

	// Password, when set, must be sent before any command other than
	// password, ping and close.
	Password string

	// MaxLineLength bounds command lines. Longer lines end the session.
	// Default: DefaultMaxLineLength.
	MaxLineLength int

	// ReadTimeout closes sessions idle for longer. Zero means no limit.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing one response. Zero means no limit.
	WriteTimeout time.Duration

	// Logger receives session events. Default: slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = DefaultMaxLineLength
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Server accepts connections and runs one session per connection.
type Server struct {
	handler Handler
	config  Config
	logger  *slog.Logger

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	conns     map[net.Conn]struct{}
	closed    bool
	sessions  sync.WaitGroup
	nextID    uint64

	stats statsCollector
}

// New creates a server dispatching commands to handler.
func New(handler Handler, config Config) *Server {
	config = config.withDefaults()
	return &Server{
		handler:   handler,
		config:    config,
		logger:    config.Logger,
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on the TCP address addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is done or Close is
// called. It always returns a non-nil error; ErrServerClosed after Close or
// cancellation. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.trackListener(ln) {
		_ = ln.Close()
		return ErrServerClosed
	}
	defer s.untrackListener(ln)

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	s.logger.Info("serving", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept failed", "error", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		id, ok := s.trackConn(conn)
		if !ok {
			_ = conn.Close()
			return ErrServerClosed
		}

		session := s.newSession(id, conn)
		go func() {
			defer s.untrackConn(conn)
			session.serve(ctx)
		}()
	}
}

// Close stops every listener, closes open sessions and waits for them.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.sessions.Wait()
		return
	}
	s.closed = true
	for ln := range s.listeners {
		_ = ln.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.sessions.Wait()
}

// Stats returns a snapshot of server statistics.
func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) trackListener(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.listeners[ln] = struct{}{}
	return true
}

func (s *Server) untrackListener(ln net.Listener) {
	s.mu.Lock()
	delete(s.listeners, ln)
	s.mu.Unlock()
	_ = ln.Close()
}

func (s *Server) trackConn(conn net.Conn) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	s.conns[conn] = struct{}{}
	s.sessions.Add(1)
	s.nextID++
	return s.nextID, true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	s.sessions.Done()
}
