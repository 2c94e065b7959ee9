package websocket

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"collab-service/internal/config"
	"collab-service/internal/metrics"
	"collab-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 256

	defaultMaxMessageBytes = 1 << 20
)

// Settings bound what one client may send.
type Settings struct {
	MaxMessageBytes int64
	EventsPerSecond float64
	EventBurst      int
}

func SettingsFrom(cfg config.WebSocketConfig) Settings {
	return Settings{
		MaxMessageBytes: cfg.MaxMessageBytes,
		EventsPerSecond: cfg.EventsPerSecond,
		EventBurst:      cfg.EventBurst,
	}
}

// Client is the gorilla/websocket Transport. Each client reads on one
// goroutine and writes on another, so inbound events are dispatched in order
// and outbound frames leave in the order they were queued.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	limiter   *rate.Limiter
	settings  Settings

	// Connection state management
	ctx    context.Context
	cancel context.CancelFunc
	closed int32 // atomic flag to track if client is closed

	logger *logger.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, settings Settings, log *logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	if settings.MaxMessageBytes <= 0 {
		settings.MaxMessageBytes = defaultMaxMessageBytes
	}
	limit := rate.Inf
	if settings.EventsPerSecond > 0 {
		limit = rate.Limit(settings.EventsPerSecond)
	}
	burst := settings.EventBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(limit, burst),
		settings: settings,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log,
	}
}

var _ Transport = (*Client)(nil)

func (c *Client) SessionID() string {
	return c.sessionID
}

// isClosed returns true if the client is closed
func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Close marks the client closed. The write loop sends a close frame and the
// read loop then ends, which unregisters the session.
func (c *Client) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		c.logger.Debug("Client marked as closed", "sessionID", c.sessionID)
	}
	return nil
}

// Send queues a frame. A full queue means the peer is not reading; the client
// is closed rather than letting it hold up broadcasts.
func (c *Client) Send(data []byte) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientDisconnected
	default:
		c.logger.Warn("Send buffer full, closing client", "sessionID", c.sessionID)
		c.Close()
		return ErrSendBufferFull
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Close()
		c.hub.requestUnregister(c.sessionID)

		if err := c.conn.Close(); err != nil {
			c.logger.Debug("Error closing connection", "sessionID", c.sessionID, "error", err)
		}
	}()

	c.conn.SetReadLimit(c.settings.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "sessionID", c.sessionID, "error", err)
			} else {
				c.logger.Debug("WebSocket connection closed", "sessionID", c.sessionID, "error", err)
			}
			return
		}
		if c.isClosed() {
			return
		}

		if !c.limiter.Allow() {
			metrics.WsEventsDropped.WithLabelValues(metrics.ReasonRateLimited).Inc()
			c.logger.Warn("Rate limit exceeded, dropping event", "sessionID", c.sessionID)
			continue
		}

		c.hub.Dispatch(c.ctx, c.sessionID, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Error writing message", "sessionID", c.sessionID, "error", err)
				c.Close()
				c.conn.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Error sending ping", "sessionID", c.sessionID, "error", err)
				c.Close()
				c.conn.Close()
				return
			}

		case <-c.ctx.Done():
			// Closing the connection ends the read loop.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.conn.Close()
			return
		}
	}
}

// ServeWS upgrades the request and registers a session for it. userID is the
// identity verified from the request's token, or empty.
func ServeWS(hub *Hub, upgrader *websocket.Upgrader, settings Settings, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("Failed to upgrade WebSocket connection", "userID", userID, "error", err)
		return
	}

	client := NewClient(hub, conn, settings, hub.logger.With("transport", "websocket"))
	client.sessionID = uuid.NewString()
	hub.connect(client.sessionID, client, userID)

	go client.writePump()
	go client.readPump()
}
