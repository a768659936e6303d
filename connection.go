package mpdcmd

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/pior/mpdcmd/wire"
)

// Connection is one client connection to a server. It is not safe for
// concurrent use: the pool hands each connection to one caller at a time.
type Connection struct {
	net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer

	// Version is the protocol version announced by the server greeting.
	Version string

	timeout time.Duration
}

// NewConnection wraps conn and reads the server greeting.
// A zero timeout leaves round trips bounded by the context only.
func NewConnection(conn net.Conn, timeout time.Duration) (*Connection, error) {
	c := &Connection{
		Conn:    conn,
		Reader:  bufio.NewReader(conn),
		Writer:  bufio.NewWriter(conn),
		timeout: timeout,
	}

	if timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
	}

	version, err := wire.ReadGreeting(c.Reader)
	if err != nil {
		return nil, err
	}
	c.Version = version

	return c, nil
}

// Exec sends one command line and reads its response.
//
// An ACK answer is returned with the response and a *wire.AckError; the
// connection stays usable. Any other error leaves the connection in an
// unknown state, see wire.ShouldCloseConnection.
func (c *Connection) Exec(ctx context.Context, line string) (*wire.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.setDeadline(ctx)

	resp, err := c.roundTrip(line)
	if err != nil {
		return nil, contextError(ctx, err)
	}
	if resp.Ack != nil {
		return resp, resp.Ack
	}
	return resp, nil
}

func (c *Connection) roundTrip(line string) (*wire.Response, error) {
	if _, err := c.Writer.WriteString(line); err != nil {
		return nil, &wire.ConnectionError{Op: "write", Err: err}
	}
	if err := c.Writer.WriteByte('\n'); err != nil {
		return nil, &wire.ConnectionError{Op: "write", Err: err}
	}
	if err := c.Writer.Flush(); err != nil {
		return nil, &wire.ConnectionError{Op: "write", Err: err}
	}
	return wire.ReadResponse(c.Reader)
}

// contextError reports a socket timeout caused by the context deadline as
// context.DeadlineExceeded. The socket deadline can fire before ctx.Err()
// turns non-nil. The result is still a ConnectionError: the connection is
// out of sync and must be closed.
func contextError(ctx context.Context, err error) error {
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok || time.Now().Before(deadline) {
		return err
	}
	op := "read"
	var ce *wire.ConnectionError
	if errors.As(err, &ce) {
		op = ce.Op
	}
	return &wire.ConnectionError{Op: op, Err: context.DeadlineExceeded}
}

// Ping checks that the server answers.
func (c *Connection) Ping(ctx context.Context) error {
	_, err := c.Exec(ctx, "ping")
	return err
}

func (c *Connection) setDeadline(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if c.timeout > 0 {
		if d := time.Now().Add(c.timeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if !ok {
		deadline = time.Time{}
	}
	_ = c.Conn.SetDeadline(deadline)
}
