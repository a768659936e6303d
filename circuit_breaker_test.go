package mpdcmd

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/mpdcmd/wire"
)

func TestNewCircuitBreakerConfig(t *testing.T) {
	newBreaker := NewCircuitBreakerConfig(1, time.Minute, time.Minute)

	cb := newBreaker("mpd:6600")
	require.NotNil(t, cb)
	assert.Equal(t, "mpd:6600", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreakerTripsOnFailures(t *testing.T) {
	cb := NewCircuitBreakerConfig(1, time.Minute, time.Minute)("mpd:6600")

	fail := func() (*wire.Response, error) {
		return nil, &wire.ConnectionError{Op: "read", Err: errors.New("reset")}
	}

	for range 2 {
		_, err := cb.Execute(fail)
		require.Error(t, err)
		assert.Equal(t, gobreaker.StateClosed, cb.State())
	}

	_, err := cb.Execute(fail)
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err = cb.Execute(fail)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreakerIgnoresAcks(t *testing.T) {
	cb := NewCircuitBreakerConfig(1, time.Minute, time.Minute)("mpd:6600")

	for range 5 {
		resp, err := cb.Execute(func() (*wire.Response, error) {
			ack := &wire.AckError{Code: wire.AckNoExist, Command: "load"}
			return &wire.Response{Ack: ack}, ack
		})
		require.Error(t, err)
		assert.NotNil(t, resp)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.Counts().TotalFailures)
}

func TestIsServerHealthy(t *testing.T) {
	assert.True(t, isServerHealthy(nil))
	assert.True(t, isServerHealthy(&wire.AckError{}))
	assert.False(t, isServerHealthy(&wire.ResponseError{Message: "garbage"}))
	assert.False(t, isServerHealthy(errors.New("timeout")))
	assert.False(t, isServerHealthy(&wire.ConnectionError{Op: "read", Err: os.ErrDeadlineExceeded}))
	assert.True(t, isServerHealthy(&wire.ConnectionError{Op: "read", Err: context.DeadlineExceeded}))
	assert.True(t, isServerHealthy(context.Canceled))
}
