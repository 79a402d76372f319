package config

import "time"

// ServerConfig holds configuration for the realtime service.
type ServerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DBConfig       `yaml:"database"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Feed     FeedConfig     `yaml:"feed"`
}

// InstanceConfig identifies this service instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DBConfig holds connection settings for the platform database.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RealtimeConfig holds settings for live websocket connections.
type RealtimeConfig struct {
	// IdleTimeout evicts a connection with no traffic (data or pong)
	// for this long.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// WriteTimeout bounds a single websocket write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PingInterval is the keepalive ping period. Must be shorter than
	// IdleTimeout or healthy connections get evicted.
	PingInterval time.Duration `yaml:"ping_interval"`

	// SendBuffer is the per-connection outbound queue capacity.
	SendBuffer int `yaml:"send_buffer"`

	// ReadLimit caps inbound frame size in bytes. Clients are not
	// expected to send data frames at all.
	ReadLimit int64 `yaml:"read_limit"`
}

// FeedConfig holds settings for the notification feed endpoint.
type FeedConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}
