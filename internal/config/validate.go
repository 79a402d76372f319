package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Realtime.IdleTimeout <= 0 {
		return errors.New("realtime.idle_timeout must be > 0")
	}
	if c.Realtime.WriteTimeout <= 0 {
		return errors.New("realtime.write_timeout must be > 0")
	}
	if c.Realtime.PingInterval <= 0 {
		return errors.New("realtime.ping_interval must be > 0")
	}
	if c.Realtime.PingInterval >= c.Realtime.IdleTimeout {
		return fmt.Errorf("realtime.ping_interval (%s) must be shorter than realtime.idle_timeout (%s)",
			c.Realtime.PingInterval, c.Realtime.IdleTimeout)
	}
	if c.Realtime.SendBuffer < 1 {
		return errors.New("realtime.send_buffer must be >= 1")
	}

	if c.Feed.DefaultPageSize < 1 {
		return errors.New("feed.default_page_size must be >= 1")
	}
	if c.Feed.MaxPageSize < c.Feed.DefaultPageSize {
		return fmt.Errorf("feed.max_page_size (%d) cannot be smaller than feed.default_page_size (%d)",
			c.Feed.MaxPageSize, c.Feed.DefaultPageSize)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
