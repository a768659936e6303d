package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/wire"
)

var errLineTooLong = errors.New("server: line too long")

// Session is the state of one client connection.
type Session struct {
	ID         uint64
	RemoteAddr string

	authenticated bool

	server *Server
	conn   net.Conn
	reader *bufio.Reader
	writer *wire.ResponseWriter
	logger *slog.Logger
}

// Authenticated reports whether the session sent the right password, or
// whether no password is required.
func (s *Session) Authenticated() bool {
	return s.authenticated
}

func (s *Server) newSession(id uint64, conn net.Conn) *Session {
	remote := conn.RemoteAddr().String()
	return &Session{
		ID:            id,
		RemoteAddr:    remote,
		authenticated: s.config.Password == "",
		server:        s,
		conn:          conn,
		reader:        bufio.NewReaderSize(conn, s.config.MaxLineLength),
		writer:        wire.NewResponseWriter(conn),
		logger:        s.logger.With("session", id, "remote", remote),
	}
}

func (s *Session) serve(ctx context.Context) {
	s.server.stats.recordConnect()
	defer s.server.stats.recordDisconnect()

	s.logger.Debug("session started")

	if err := s.writer.Greeting(s.server.config.Version); err != nil {
		s.logger.Debug("greeting failed", "error", err)
		return
	}
	if err := s.flush(); err != nil {
		s.logger.Debug("greeting failed", "error", err)
		return
	}

	for {
		line, err := s.readLine()
		if err != nil {
			s.logEnd(err)
			return
		}

		if done := s.execute(ctx, line); done {
			s.logger.Debug("session closed by client")
			return
		}

		if err := s.flush(); err != nil {
			s.logger.Debug("write failed", "error", err)
			return
		}
	}
}

// execute runs one line and writes its response. It reports whether the
// session must end.
func (s *Session) execute(ctx context.Context, line string) bool {
	stats := &s.server.stats
	stats.recordCommand()

	cmd, err := mpdcmd.Parse(line)
	if err != nil {
		stats.recordDecodeError()
		s.logger.Debug("invalid command", "line", line, "error", err)
		s.ack(wire.AckFromError(0, err))
		return false
	}

	switch cmd := cmd.(type) {
	case mpdcmd.Close:
		return true
	case mpdcmd.Password:
		s.authenticate(cmd)
		return false
	case mpdcmd.Ping:
	default:
		if !s.authenticated {
			s.ack(&wire.AckError{
				Code:    wire.AckPermission,
				Command: cmd.Name(),
				Message: fmt.Sprintf("you don't have permission for %q", cmd.Name()),
			})
			return false
		}
	}

	if err := s.server.handler.Handle(ctx, s, cmd, s.writer); err != nil {
		ack := wire.AckFromError(0, err)
		if ack.Command == "" {
			ack.Command = cmd.Name()
		}
		s.ack(ack)
		return false
	}

	_ = s.writer.OK()
	return false
}

func (s *Session) authenticate(cmd mpdcmd.Password) {
	want := s.server.config.Password
	if want == "" || cmd.Password != want {
		s.ack(&wire.AckError{Code: wire.AckPassword, Command: cmd.Name(), Message: "incorrect password"})
		return
	}
	s.authenticated = true
	_ = s.writer.OK()
}

func (s *Session) ack(ack *wire.AckError) {
	s.server.stats.recordAck()
	_ = s.writer.Ack(ack)
}

// readLine returns the next line without its terminator. A line longer than
// the reader buffer fails with errLineTooLong.
func (s *Session) readLine() (string, error) {
	if timeout := s.server.config.ReadTimeout; timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	}

	line, err := s.reader.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return "", errLineTooLong
	}
	if err != nil {
		return "", err
	}

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

// discardLine skips the rest of an overlong line, so that closing the
// connection does not reset it before the client reads the ACK.
func (s *Session) discardLine() {
	_ = s.conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		_, err := s.reader.ReadSlice('\n')
		if err != bufio.ErrBufferFull {
			return
		}
	}
}

func (s *Session) flush() error {
	if timeout := s.server.config.WriteTimeout; timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return s.writer.Flush()
}

func (s *Session) logEnd(err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.logger.Debug("session ended")
	case errors.As(err, &ne) && ne.Timeout():
		s.logger.Debug("session idle timeout")
	case errors.Is(err, errLineTooLong):
		s.logger.Warn("line too long", "max", s.server.config.MaxLineLength)
		s.discardLine()
		s.ack(&wire.AckError{Code: wire.AckArg, Message: "line too long"})
		_ = s.flush()
	default:
		s.logger.Warn("read failed", "error", err)
	}
}
