package mpdcmd

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/mpdcmd/wire"
)

// ServerPool holds the connections and the circuit breaker of one server.
type ServerPool struct {
	addr           string
	pool           Pool
	circuitBreaker *gobreaker.CircuitBreaker[*wire.Response]
}

func (sp *ServerPool) Address() string {
	return sp.addr
}

// ServerPoolStats is a snapshot of one server.
type ServerPoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (sp *ServerPool) Stats() ServerPoolStats {
	stats := ServerPoolStats{
		Addr:      sp.addr,
		PoolStats: sp.pool.Stats(),
	}
	if sp.circuitBreaker != nil {
		stats.CircuitBreakerState = sp.circuitBreaker.State()
		stats.CircuitBreakerCounts = sp.circuitBreaker.Counts()
	}
	return stats
}

// Execute runs one command round trip on a pooled connection, inside the
// server's circuit breaker when one is configured.
func (sp *ServerPool) Execute(ctx context.Context, line string) (*wire.Response, error) {
	if sp.circuitBreaker == nil {
		return sp.execDirect(ctx, line)
	}

	return sp.circuitBreaker.Execute(func() (*wire.Response, error) {
		return sp.execDirect(ctx, line)
	})
}

// execDirect acquires a connection, runs the round trip, then releases the
// connection, or destroys it when the error leaves it in an unknown state.
func (sp *ServerPool) execDirect(ctx context.Context, line string) (*wire.Response, error) {
	resource, err := sp.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := resource.Value().Exec(ctx, line)
	if err != nil {
		if wire.ShouldCloseConnection(err) {
			resource.Destroy()
		} else {
			resource.Release()
		}
		return resp, err
	}

	resource.Release()
	return resp, nil
}
