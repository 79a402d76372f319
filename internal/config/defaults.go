package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultIdleTimeout     = 90 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultPingInterval    = 30 * time.Second
	DefaultSendBuffer      = 64
	DefaultReadLimit       = 4096
	DefaultPageSize        = 20
	DefaultMaxPageSize     = 100
)

func (c *ServerConfig) applyDefaults() {
	// HTTP defaults
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Realtime defaults
	if c.Realtime.IdleTimeout == 0 {
		c.Realtime.IdleTimeout = DefaultIdleTimeout
	}
	if c.Realtime.WriteTimeout == 0 {
		c.Realtime.WriteTimeout = DefaultWriteTimeout
	}
	if c.Realtime.PingInterval == 0 {
		c.Realtime.PingInterval = DefaultPingInterval
	}
	if c.Realtime.SendBuffer == 0 {
		c.Realtime.SendBuffer = DefaultSendBuffer
	}
	if c.Realtime.ReadLimit == 0 {
		c.Realtime.ReadLimit = DefaultReadLimit
	}

	// Feed defaults
	if c.Feed.DefaultPageSize == 0 {
		c.Feed.DefaultPageSize = DefaultPageSize
	}
	if c.Feed.MaxPageSize == 0 {
		c.Feed.MaxPageSize = DefaultMaxPageSize
	}
}
