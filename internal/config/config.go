// Package config loads the process configuration of the mpdcmd command: a
// YAML file overlaid with MPDCMD_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/server"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MPDCMD_"

type Config struct {
	Log    Log    `yaml:"log" envPrefix:"LOG_"`
	Server Server `yaml:"server" envPrefix:"SERVER_"`
	Client Client `yaml:"client" envPrefix:"CLIENT_"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // text or json
}

type Server struct {
	Listen        string        `yaml:"listen" env:"LISTEN"`
	MetricsListen string        `yaml:"metrics_listen" env:"METRICS_LISTEN"` // empty disables /metrics
	Version       string        `yaml:"version" env:"VERSION"`
	Password      string        `yaml:"password" env:"PASSWORD"`
	MaxLineLength int           `yaml:"max_line_length" env:"MAX_LINE_LENGTH"`
	ReadTimeout   time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type Client struct {
	Servers             []string       `yaml:"servers" env:"SERVERS" envSeparator:","`
	Zone                string         `yaml:"zone" env:"ZONE"`
	Password            string         `yaml:"password" env:"PASSWORD"`
	Pool                string         `yaml:"pool" env:"POOL"` // puddle or channel
	MaxSize             int32          `yaml:"max_size" env:"MAX_SIZE"`
	Timeout             time.Duration  `yaml:"timeout" env:"TIMEOUT"`
	HealthCheckInterval time.Duration  `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
	MaxConnIdleTime     time.Duration  `yaml:"max_conn_idle_time" env:"MAX_CONN_IDLE_TIME"`
	MaxConnLifetime     time.Duration  `yaml:"max_conn_lifetime" env:"MAX_CONN_LIFETIME"`
	CircuitBreaker      CircuitBreaker `yaml:"circuit_breaker" envPrefix:"CIRCUIT_BREAKER_"`
}

type CircuitBreaker struct {
	Enabled     bool          `yaml:"enabled" env:"ENABLED"`
	MaxRequests uint32        `yaml:"max_requests" env:"MAX_REQUESTS"`
	Interval    time.Duration `yaml:"interval" env:"INTERVAL"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Listen:        "127.0.0.1:6600",
			Version:       server.DefaultVersion,
			MaxLineLength: server.DefaultMaxLineLength,
			ReadTimeout:   60 * time.Second,
			WriteTimeout:  10 * time.Second,
		},
		Client: Client{
			Servers:             []string{"127.0.0.1:6600"},
			Pool:                "puddle",
			MaxSize:             4,
			Timeout:             5 * time.Second,
			HealthCheckInterval: 30 * time.Second,
			MaxConnIdleTime:     5 * time.Minute,
			CircuitBreaker: CircuitBreaker{
				MaxRequests: 3,
				Interval:    10 * time.Second,
				Timeout:     30 * time.Second,
			},
		},
	}
}

// Load reads the YAML file at path, when path is not empty, then applies the
// environment of the process.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// load uses environ instead of the process environment when it is not nil.
func load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen: required"))
	}
	if c.Server.MaxLineLength < 16 {
		errs = append(errs, fmt.Errorf("server.max_line_length: must be at least 16, got %d", c.Server.MaxLineLength))
	}
	if err := mpdcmd.CheckPassword(c.Server.Password); err != nil {
		errs = append(errs, fmt.Errorf("server.password: %w", err))
	}
	errs = append(errs,
		nonNegative("server.read_timeout", c.Server.ReadTimeout),
		nonNegative("server.write_timeout", c.Server.WriteTimeout),
	)

	if len(c.Client.Servers) == 0 {
		errs = append(errs, errors.New("client.servers: at least one server is required"))
	}
	if c.Client.Pool != "puddle" && c.Client.Pool != "channel" {
		errs = append(errs, fmt.Errorf("client.pool: must be puddle or channel, got %q", c.Client.Pool))
	}
	if err := mpdcmd.CheckPassword(c.Client.Password); err != nil {
		errs = append(errs, fmt.Errorf("client.password: %w", err))
	}
	if c.Client.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("client.max_size: must be positive, got %d", c.Client.MaxSize))
	}
	errs = append(errs,
		nonNegative("client.timeout", c.Client.Timeout),
		nonNegative("client.health_check_interval", c.Client.HealthCheckInterval),
		nonNegative("client.max_conn_idle_time", c.Client.MaxConnIdleTime),
		nonNegative("client.max_conn_lifetime", c.Client.MaxConnLifetime),
	)
	if c.Client.CircuitBreaker.Enabled && c.Client.CircuitBreaker.Timeout <= 0 {
		errs = append(errs, errors.New("client.circuit_breaker.timeout: must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func nonNegative(name string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%s: must not be negative, got %s", name, d)
	}
	return nil
}

func (l Log) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the root logger writing to w.
func (l Log) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// ServerConfig converts the settings to a server.Config.
func (s Server) ServerConfig(logger *slog.Logger) server.Config {
	return server.Config{
		Version:       s.Version,
		Password:      s.Password,
		MaxLineLength: s.MaxLineLength,
		ReadTimeout:   s.ReadTimeout,
		WriteTimeout:  s.WriteTimeout,
		Logger:        logger,
	}
}

// ClientConfig converts the settings to an mpdcmd.Config.
func (c Client) ClientConfig(logger *slog.Logger) mpdcmd.Config {
	cfg := mpdcmd.Config{
		MaxSize:             c.MaxSize,
		Timeout:             c.Timeout,
		Password:            c.Password,
		HealthCheckInterval: c.HealthCheckInterval,
		MaxConnIdleTime:     c.MaxConnIdleTime,
		MaxConnLifetime:     c.MaxConnLifetime,
		Logger:              logger,
	}
	if c.Pool == "channel" {
		cfg.NewPool = mpdcmd.NewChannelPool
	}
	if cb := c.CircuitBreaker; cb.Enabled {
		cfg.NewCircuitBreaker = mpdcmd.NewCircuitBreakerConfig(cb.MaxRequests, cb.Interval, cb.Timeout)
	}
	return cfg
}
