package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Baaaki/community-hub/internal/broker"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second // Time allowed to write a message to the peer
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize = 4 * 1024            // clients only send control frames
)

type NotificationHandler struct {
	notifier broker.Notifier
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*wsClient
	mu       sync.RWMutex
}

type wsClient struct {
	conn        *websocket.Conn
	sess        session.Session
	connectedAt time.Time
	writeMu     sync.Mutex
}

// NewNotificationHandler accepts upgrades from allowedOrigins; an empty list
// or "*" accepts any origin.
func NewNotificationHandler(notifier broker.Notifier, allowedOrigins []string) *NotificationHandler {
	h := &NotificationHandler{
		notifier: notifier,
		clients:  make(map[*websocket.Conn]*wsClient),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return h
}

// Stream forwards notifications addressed to the caller, or broadcast, until
// the socket closes.
// GET /api/ws
func (h *NotificationHandler) Stream(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifications, err := h.notifier.Subscribe(ctx)
	if err != nil {
		respondError(c, err, "subscribe to notifications")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Websocket upgrade failed",
			zap.Uint("user_id", sess.UserID),
			zap.Error(err),
		)
		return
	}

	client := &wsClient{
		conn:        conn,
		sess:        sess,
		connectedAt: time.Now(),
	}
	h.addClient(client)
	defer h.removeClient(conn)

	go h.readPump(client, cancel)
	h.writePump(ctx, client, notifications)
}

// ConnectedClients reports how many sockets are open
func (h *NotificationHandler) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains control frames and cancels the stream when the peer goes away
func (h *NotificationHandler) readPump(client *wsClient, cancel context.CancelFunc) {
	defer cancel()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Log.Debug("Websocket read error",
					zap.Uint("user_id", client.sess.UserID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (h *NotificationHandler) writePump(ctx context.Context, client *wsClient, notifications <-chan broker.Notification) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			client.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case n, ok := <-notifications:
			if !ok {
				client.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "notifications closed"))
				return
			}
			if !n.For(client.sess.UserID) || n.ActorID == client.sess.UserID {
				continue
			}
			if err := client.writeJSON(n); err != nil {
				logger.Log.Debug("Failed to push notification",
					zap.Uint("user_id", client.sess.UserID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := client.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (h *NotificationHandler) addClient(client *wsClient) {
	h.mu.Lock()
	h.clients[client.conn] = client
	total := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("Notification client connected",
		zap.Uint("user_id", client.sess.UserID),
		zap.Int("total", total),
	)
}

func (h *NotificationHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	client, exists := h.clients[conn]
	delete(h.clients, conn)
	remaining := len(h.clients)
	h.mu.Unlock()

	conn.Close()
	if exists {
		logger.Log.Info("Notification client disconnected",
			zap.Uint("user_id", client.sess.UserID),
			zap.Duration("session_duration", time.Since(client.connectedAt).Round(time.Second)),
			zap.Int("remaining", remaining),
		)
	}
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
