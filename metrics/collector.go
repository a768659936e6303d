package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/server"
)

const namespace = "mpdcmd"

// ServerSource provides server statistics. *server.Server implements it.
type ServerSource interface {
	Stats() server.Stats
}

// ClientSource provides client statistics. *mpdcmd.Client implements it.
type ClientSource interface {
	Stats() mpdcmd.ClientStats
	AllPoolStats() []mpdcmd.ServerPoolStats
}

type serverCollector struct {
	source ServerSource

	connections  *prometheus.Desc
	active       *prometheus.Desc
	commands     *prometheus.Desc
	decodeErrors *prometheus.Desc
	acks         *prometheus.Desc
}

// NewServerCollector exports the statistics of a line server.
func NewServerCollector(source ServerSource) prometheus.Collector {
	return &serverCollector{
		source:       source,
		connections:  desc("server", "connections_total", "Connections accepted."),
		active:       desc("server", "active_connections", "Connections currently open."),
		commands:     desc("server", "commands_total", "Command lines received."),
		decodeErrors: desc("server", "decode_errors_total", "Command lines that failed to decode."),
		acks:         desc("server", "acks_total", "Error responses sent."),
	}
}

func (c *serverCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.active
	ch <- c.commands
	ch <- c.decodeErrors
	ch <- c.acks
}

func (c *serverCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.CounterValue, float64(s.Connections))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(s.ActiveConnections))
	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(s.Commands))
	ch <- prometheus.MustNewConstMetric(c.decodeErrors, prometheus.CounterValue, float64(s.DecodeErrors))
	ch <- prometheus.MustNewConstMetric(c.acks, prometheus.CounterValue, float64(s.Acks))
}

type clientCollector struct {
	source ClientSource

	commands     *prometheus.Desc
	acks         *prometheus.Desc
	decodeErrors *prometheus.Desc
	errors       *prometheus.Desc
	healthChecks *prometheus.Desc

	poolConns      *prometheus.Desc
	poolCreated    *prometheus.Desc
	poolDestroyed  *prometheus.Desc
	poolAcquires   *prometheus.Desc
	poolWaitTime   *prometheus.Desc
	circuitState   *prometheus.Desc
	circuitFailure *prometheus.Desc
}

// NewClientCollector exports the statistics of a client and of each of its
// server pools.
func NewClientCollector(source ClientSource) prometheus.Collector {
	byServer := []string{"server"}
	return &clientCollector{
		source:       source,
		commands:     desc("client", "commands_total", "Commands sent."),
		acks:         desc("client", "acks_total", "Commands refused by the server."),
		decodeErrors: desc("client", "decode_errors_total", "Command lines rejected before sending."),
		errors:       desc("client", "errors_total", "Transport failures and open circuits."),
		healthChecks: desc("client", "health_checks_total", "Idle connections pinged."),

		poolConns:      desc("pool", "connections", "Pooled connections by state.", "server", "state"),
		poolCreated:    desc("pool", "connections_created_total", "Connections created.", byServer...),
		poolDestroyed:  desc("pool", "connections_destroyed_total", "Connections destroyed.", byServer...),
		poolAcquires:   desc("pool", "acquires_total", "Connection acquires.", byServer...),
		poolWaitTime:   desc("pool", "acquire_wait_seconds_total", "Time spent waiting for a connection.", byServer...),
		circuitState:   desc("circuit_breaker", "state", "Circuit breaker state (0=closed, 1=half-open, 2=open).", byServer...),
		circuitFailure: desc("circuit_breaker", "consecutive_failures", "Consecutive failures seen by the circuit breaker.", byServer...),
	}
}

func (c *clientCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.commands, c.acks, c.decodeErrors, c.errors, c.healthChecks,
		c.poolConns, c.poolCreated, c.poolDestroyed, c.poolAcquires, c.poolWaitTime,
		c.circuitState, c.circuitFailure,
	} {
		ch <- d
	}
}

func (c *clientCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(s.Commands))
	ch <- prometheus.MustNewConstMetric(c.acks, prometheus.CounterValue, float64(s.Acks))
	ch <- prometheus.MustNewConstMetric(c.decodeErrors, prometheus.CounterValue, float64(s.DecodeErrors))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
	ch <- prometheus.MustNewConstMetric(c.healthChecks, prometheus.CounterValue, float64(s.HealthChecks))

	for _, sp := range c.source.AllPoolStats() {
		p := sp.PoolStats
		ch <- prometheus.MustNewConstMetric(c.poolConns, prometheus.GaugeValue, float64(p.TotalConns), sp.Addr, "total")
		ch <- prometheus.MustNewConstMetric(c.poolConns, prometheus.GaugeValue, float64(p.IdleConns), sp.Addr, "idle")
		ch <- prometheus.MustNewConstMetric(c.poolConns, prometheus.GaugeValue, float64(p.ActiveConns), sp.Addr, "active")
		ch <- prometheus.MustNewConstMetric(c.poolCreated, prometheus.CounterValue, float64(p.CreatedConns), sp.Addr)
		ch <- prometheus.MustNewConstMetric(c.poolDestroyed, prometheus.CounterValue, float64(p.DestroyedConns), sp.Addr)
		ch <- prometheus.MustNewConstMetric(c.poolAcquires, prometheus.CounterValue, float64(p.AcquireCount), sp.Addr)
		ch <- prometheus.MustNewConstMetric(c.poolWaitTime, prometheus.CounterValue, float64(p.AcquireWaitTimeNs)/1e9, sp.Addr)
		ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, float64(sp.CircuitBreakerState), sp.Addr)
		ch <- prometheus.MustNewConstMetric(c.circuitFailure, prometheus.GaugeValue, float64(sp.CircuitBreakerCounts.ConsecutiveFailures), sp.Addr)
	}
}

func desc(subsystem, name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}
