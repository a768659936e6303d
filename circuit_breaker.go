package mpdcmd

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/mpdcmd/wire"
)

// NewCircuitBreakerConfig returns a function creating one circuit breaker per
// server. The breaker opens when at least 3 requests were seen and 60% of
// them failed. ACK answers count as successes: the server is healthy, the
// command was refused.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(addr string) *gobreaker.CircuitBreaker[*wire.Response] {
	return func(addr string) *gobreaker.CircuitBreaker[*wire.Response] {
		return gobreaker.NewCircuitBreaker[*wire.Response](gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: isServerHealthy,
		})
	}
}

func isServerHealthy(err error) bool {
	if err == nil {
		return true
	}
	// The caller ran out of time; the server is not at fault.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ack *wire.AckError
	return errors.As(err, &ack)
}
