package testutils

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// Greeting is the line servers send on connect.
const Greeting = "OK MPD 0.23.5\n"

// ConnectionMock is a net.Conn replaying canned server output and recording
// what the client writes.
type ConnectionMock struct {
	mu       sync.Mutex
	readBuf  *bytes.Buffer
	writeBuf bytes.Buffer
	readErr  error
	writeErr error
	closed   bool
	deadline time.Time
	expire   bool
}

// NewConnectionMock returns a connection whose reads return the given
// server output, concatenated.
func NewConnectionMock(serverOutput ...string) *ConnectionMock {
	return &ConnectionMock{
		readBuf: bytes.NewBufferString(strings.Join(serverOutput, "")),
	}
}

// FailReads makes reads fail with err once the canned output is consumed.
func (m *ConnectionMock) FailReads(err error) *ConnectionMock {
	m.readErr = err
	return m
}

// ExpireReads makes reads block until the deadline once the canned output is
// consumed, then fail with a timeout like a net.Conn does.
func (m *ConnectionMock) ExpireReads() *ConnectionMock {
	m.expire = true
	return m
}

// FailWrites makes every write fail with err.
func (m *ConnectionMock) FailWrites(err error) *ConnectionMock {
	m.writeErr = err
	return m
}

func (m *ConnectionMock) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	if m.readBuf.Len() == 0 && m.expire && !m.deadline.IsZero() {
		deadline := m.deadline
		m.mu.Unlock()
		time.Sleep(time.Until(deadline))
		m.mu.Lock()
		return 0, &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}
	}
	if m.readBuf.Len() == 0 && m.readErr != nil {
		return 0, m.readErr
	}
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *ConnectionMock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Written returns everything the client wrote.
func (m *ConnectionMock) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuf.String()
}

// Deadline returns the last deadline set on the connection.
func (m *ConnectionMock) Deadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deadline
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6600}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return m.SetDeadline(t) }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// ErrNoConnection is returned by DialerMock when it runs out of connections.
var ErrNoConnection = errors.New("testutils: no connection left")

// DialerMock hands out prepared connections in order.
type DialerMock struct {
	mu    sync.Mutex
	conns []net.Conn
	err   error
	dials int
}

// NewDialerMock returns a dialer serving conns, then failing.
func NewDialerMock(conns ...net.Conn) *DialerMock {
	return &DialerMock{conns: conns}
}

// FailingDialer returns a dialer whose every dial fails with err.
func FailingDialer(err error) *DialerMock {
	return &DialerMock{err: err}
}

func (d *DialerMock) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	if len(d.conns) == 0 {
		return nil, ErrNoConnection
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

// DialCount returns the number of dial attempts.
func (d *DialerMock) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
