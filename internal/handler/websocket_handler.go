// internal/handler/websocket_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"print-bridge/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// WebSocketHandler streams job events to the POS UI so it can surface
// non-blocking print notifications without polling.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	events   *EventBus
	logger   *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(events *EventBus, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The bridge is loopback-only and the POS page is always
			// cross-origin, so the origin header carries no signal.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		events: events,
		logger: utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// HandleEvents upgrades the connection and forwards job events until the
// client goes away.
func (h *WebSocketHandler) HandleEvents(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	subscriber := h.events.Subscribe()
	h.logger.Info("Event subscriber connected", zap.String("remote_addr", conn.RemoteAddr().String()))

	go h.writeLoop(conn, subscriber)
	go h.readLoop(conn, subscriber)
}

func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, subscriber chan JobEvent) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-subscriber:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close messages are
// processed, unsubscribing when the connection drops.
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, subscriber chan JobEvent) {
	defer h.events.Unsubscribe(subscriber)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
