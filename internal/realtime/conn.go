package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Errors
var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// ConnOptions configures a single live connection.
type ConnOptions struct {
	// IdleTimeout closes the connection after this long without any
	// inbound traffic (data or pong).
	IdleTimeout time.Duration

	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration

	// PingInterval is the keepalive ping period. Must be shorter than
	// IdleTimeout.
	PingInterval time.Duration

	// SendBuffer is the outbound queue capacity.
	SendBuffer int

	// ReadLimit caps inbound frame size.
	ReadLimit int64
}

// Conn wraps one websocket connection together with the token that
// authenticated it. Writes go through a buffered send queue drained by
// a single write pump, so a slow client cannot stall a delivery pass.
type Conn struct {
	token  string
	ws     *websocket.Conn
	opts   ConnOptions
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	onClose   func()

	mu   sync.RWMutex
	open bool
}

// NewConn wraps an upgraded websocket connection. Call Start to launch
// the pumps.
func NewConn(ws *websocket.Conn, token string, opts ConnOptions, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		token:  token,
		ws:     ws,
		opts:   opts,
		logger: logger,
		send:   make(chan []byte, opts.SendBuffer),
		done:   make(chan struct{}),
		open:   true,
	}
}

// Token returns the session token presented at the handshake.
func (c *Conn) Token() string {
	return c.token
}

// OnClose registers a callback invoked exactly once when the connection
// tears down, from whichever trigger: client close, write error, or
// idle timeout. Must be set before Start.
func (c *Conn) OnClose(fn func()) {
	c.onClose = fn
}

// Start launches the read and write pumps.
func (c *Conn) Start() {
	go c.readPump()
	go c.writePump()
}

// Send queues a payload for delivery. Never blocks: a closed connection
// returns ErrConnClosed and a full queue returns ErrSendBufferFull.
func (c *Conn) Send(data []byte) error {
	c.mu.RLock()
	open := c.open
	c.mu.RUnlock()
	if !open {
		return ErrConnClosed
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// IsOpen reports whether the connection is still usable.
func (c *Conn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Close tears down the connection. Idempotent; safe from any goroutine.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()

		close(c.done)

		// Best-effort close frame, then drop the socket.
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.ws.Close()

		if c.onClose != nil {
			c.onClose()
		}
	})
	return nil
}

// readPump enforces the idle timeout and consumes inbound frames.
// Clients are not expected to send data; anything received only counts
// as liveness traffic and is discarded.
func (c *Conn) readPump() {
	defer c.Close()

	c.ws.SetReadLimit(c.opts.ReadLimit)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}
		// Inbound data refreshes the idle deadline.
		c.ws.SetReadDeadline(time.Now().Add(c.opts.IdleTimeout))
	}
}

// writePump drains the send queue and keeps the connection alive with
// periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}
