package mpdcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/mpdcmd/wire"
)

var (
	ErrNoServers     = errors.New("mpdcmd: no servers")
	ErrClientClosed  = errors.New("mpdcmd: client closed")
	ErrSessionScoped = errors.New("mpdcmd: command is scoped to a connection")

	// ErrInvalidPassword is returned for passwords that cannot be sent as a
	// quoted argument.
	ErrInvalidPassword = errors.New("mpdcmd: password contains a quote or a line break")
)

// CheckPassword returns ErrInvalidPassword when password cannot be sent in
// a password command.
func CheckPassword(password string) error {
	if strings.ContainsAny(password, "\"\r\n") {
		return ErrInvalidPassword
	}
	return nil
}

// Dialer opens connections to servers. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds the configuration of a Client. Zero values select defaults.
type Config struct {
	// MaxSize is the maximum number of connections per server.
	// Default: 4.
	MaxSize int32

	// Dialer opens connections. Default: a net.Dialer using Timeout.
	Dialer Dialer

	// Timeout bounds connecting and each round trip, in addition to the
	// context deadline. Zero means no limit.
	Timeout time.Duration

	// Password is sent on every new connection when set. See CheckPassword.
	Password string

	// HealthCheckInterval is how often idle connections are pinged.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// MaxConnIdleTime closes connections idle for longer, during health checks.
	// Zero means no limit.
	MaxConnIdleTime time.Duration

	// MaxConnLifetime closes connections older than this, during health checks.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// SelectServer picks the server for a zone. Default: DefaultServerSelector.
	SelectServer ServerSelector

	// NewCircuitBreaker creates the circuit breaker of a server.
	// Nil disables circuit breaking.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[*wire.Response]

	// NewPool creates the connection pool of a server. Default: NewPuddlePool.
	NewPool func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)

	// Logger receives connection and health check events.
	// Default: slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = 4
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{Timeout: c.Timeout}
	}
	if c.SelectServer == nil {
		c.SelectServer = DefaultServerSelector
	}
	if c.NewPool == nil {
		c.NewPool = NewPuddlePool
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Client sends command lines to a set of servers. Each zone is served by
// one server, picked by Config.SelectServer.
//
// A Client is safe for concurrent use.
type Client struct {
	config  Config
	servers []*ServerPool

	stopHealthCheck chan struct{}
	healthCheckDone sync.WaitGroup
	closeOnce       sync.Once

	stats clientStatsCollector
}

// NewClient creates a client for the given server addresses.
func NewClient(servers []string, config Config) (*Client, error) {
	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	if err := CheckPassword(config.Password); err != nil {
		return nil, err
	}

	config = config.withDefaults()

	c := &Client{
		config:          config,
		servers:         make([]*ServerPool, 0, len(servers)),
		stopHealthCheck: make(chan struct{}),
	}

	for _, addr := range servers {
		pool, err := config.NewPool(c.dialFunc(addr), config.MaxSize)
		if err != nil {
			c.closePools()
			return nil, fmt.Errorf("mpdcmd: creating pool for %s: %w", addr, err)
		}

		sp := &ServerPool{addr: addr, pool: pool}
		if config.NewCircuitBreaker != nil {
			sp.circuitBreaker = config.NewCircuitBreaker(addr)
		}
		c.servers = append(c.servers, sp)
	}

	if config.HealthCheckInterval > 0 {
		c.healthCheckDone.Add(1)
		go c.healthCheckLoop()
	}

	return c, nil
}

func (c *Client) dialFunc(addr string) func(ctx context.Context) (*Connection, error) {
	return func(ctx context.Context) (*Connection, error) {
		netConn, err := c.config.Dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, &wire.ConnectionError{Op: "dial", Err: err}
		}

		conn, err := NewConnection(netConn, c.config.Timeout)
		if err != nil {
			_ = netConn.Close()
			return nil, err
		}

		if c.config.Password != "" {
			if _, err := conn.Exec(ctx, `password "`+c.config.Password+`"`); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}

		c.config.Logger.Debug("connected", "addr", addr, "version", conn.Version)
		return conn, nil
	}
}

// Exec sends one command line to the server of zone and returns its
// response.
//
// The line is decoded locally first: a malformed line fails with the decode
// error and nothing is sent. A command refused by the server fails with a
// *wire.AckError, returned along with the partial response. The close and
// password commands are rejected with ErrSessionScoped, as connections are
// shared.
func (c *Client) Exec(ctx context.Context, zone, line string) (*wire.Response, error) {
	select {
	case <-c.stopHealthCheck:
		return nil, ErrClientClosed
	default:
	}

	cmd, err := Parse(line)
	if err != nil {
		c.stats.recordDecodeError()
		return nil, err
	}

	switch cmd.(type) {
	case Close, Password:
		return nil, fmt.Errorf("%w: %s", ErrSessionScoped, cmd.Name())
	}

	sp := c.serverFor(zone)
	c.stats.recordCommand()

	resp, err := sp.Execute(ctx, strings.TrimSuffix(line, "\n"))
	if err != nil {
		var ack *wire.AckError
		if errors.As(err, &ack) {
			c.stats.recordAck()
			return resp, err
		}
		c.stats.recordError()
		c.config.Logger.Debug("command failed", "addr", sp.addr, "command", cmd.Name(), "error", err)
		return nil, err
	}

	return resp, nil
}

func (c *Client) serverFor(zone string) *ServerPool {
	if len(c.servers) == 1 {
		return c.servers[0]
	}
	idx := c.config.SelectServer(zone, len(c.servers))
	if idx < 0 || idx >= len(c.servers) {
		idx = 0
	}
	return c.servers[idx]
}

// Close stops health checks and closes every connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stopHealthCheck)
		c.healthCheckDone.Wait()
		c.closePools()
	})
}

func (c *Client) closePools() {
	for _, sp := range c.servers {
		sp.pool.Close()
	}
}

func (c *Client) healthCheckLoop() {
	defer c.healthCheckDone.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

func (c *Client) checkAllPools() {
	for _, sp := range c.servers {
		c.checkPoolConnections(sp)
	}
}

// checkPoolConnections pings idle connections and destroys those that are
// too old, idle for too long, or unhealthy.
func (c *Client) checkPoolConnections(sp *ServerPool) {
	now := time.Now()

	for _, res := range sp.pool.AcquireAllIdle() {
		if c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime {
			res.Destroy()
			continue
		}

		if c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime {
			res.Destroy()
			continue
		}

		c.stats.recordHealthCheck()
		if err := c.healthCheck(res.Value()); err != nil {
			c.config.Logger.Warn("health check failed", "addr", sp.addr, "error", err)
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}

func (c *Client) healthCheck(conn *Connection) error {
	ctx := context.Background()
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	return conn.Ping(ctx)
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// AllPoolStats returns a snapshot of every server, in configuration order.
func (c *Client) AllPoolStats() []ServerPoolStats {
	stats := make([]ServerPoolStats, 0, len(c.servers))
	for _, sp := range c.servers {
		stats = append(stats, sp.Stats())
	}
	return stats
}
