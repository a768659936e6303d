package mpdcmd

import "sync/atomic"

// PoolStats is a snapshot of one server's connection pool.
//
// For Prometheus, expose TotalConns, IdleConns and ActiveConns as gauges and
// the other fields as counters.
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait for a connection
	CreatedConns      uint64 // Connections created
	DestroyedConns    uint64 // Connections destroyed
	AcquireErrors     uint64 // Canceled acquires
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	TotalConns  int32 // Connections in the pool (active + idle)
	IdleConns   int32
	ActiveConns int32
}

// ClientStats is a snapshot of client activity.
type ClientStats struct {
	Commands     uint64 // Commands sent to a server
	Acks         uint64 // Commands the server refused with an ACK
	DecodeErrors uint64 // Lines rejected locally, never sent
	Errors       uint64 // Transport failures and open circuits
	HealthChecks uint64 // Idle connections pinged
}

type clientStatsCollector struct {
	commands     atomic.Uint64
	acks         atomic.Uint64
	decodeErrors atomic.Uint64
	errors       atomic.Uint64
	healthChecks atomic.Uint64
}

func (c *clientStatsCollector) recordCommand()     { c.commands.Add(1) }
func (c *clientStatsCollector) recordAck()         { c.acks.Add(1) }
func (c *clientStatsCollector) recordDecodeError() { c.decodeErrors.Add(1) }
func (c *clientStatsCollector) recordError()       { c.errors.Add(1) }
func (c *clientStatsCollector) recordHealthCheck() { c.healthChecks.Add(1) }

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Commands:     c.commands.Load(),
		Acks:         c.acks.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Errors:       c.errors.Load(),
		HealthChecks: c.healthChecks.Load(),
	}
}
