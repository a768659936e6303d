package server

import "sync/atomic"

// Stats is a snapshot of server activity.
type Stats struct {
	Connections       uint64 // Connections accepted
	ActiveConnections int64  // Connections currently open
	Commands          uint64 // Lines received
	DecodeErrors      uint64 // Lines that did not decode to a command
	Acks              uint64 // Error responses sent, decode errors included
}

type statsCollector struct {
	connections  atomic.Uint64
	active       atomic.Int64
	commands     atomic.Uint64
	decodeErrors atomic.Uint64
	acks         atomic.Uint64
}

func (c *statsCollector) recordConnect() {
	c.connections.Add(1)
	c.active.Add(1)
}

func (c *statsCollector) recordDisconnect()  { c.active.Add(-1) }
func (c *statsCollector) recordCommand()     { c.commands.Add(1) }
func (c *statsCollector) recordDecodeError() { c.decodeErrors.Add(1) }
func (c *statsCollector) recordAck()         { c.acks.Add(1) }

func (c *statsCollector) snapshot() Stats {
	return Stats{
		Connections:       c.connections.Load(),
		ActiveConnections: c.active.Load(),
		Commands:          c.commands.Load(),
		DecodeErrors:      c.decodeErrors.Load(),
		Acks:              c.acks.Load(),
	}
}
