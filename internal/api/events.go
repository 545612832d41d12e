package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"actionplan-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development - customize for production
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsWebSocketHandler streams change events to dashboards
// GET /ws/events
// WebSocket protocol:
// 1. Client sends: $AUTH <jwt-token>
// 2. Server answers AUTH_SUCCESS
// 3. Server pushes one JSON change event per message
func (h *Handlers) EventsWebSocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WEBSOCKET] Failed to upgrade connection from %s: %v", c.ClientIP(), err)
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return
	}
	user, err := h.authenticate(conn)
	if err != nil {
		log.Printf("[WEBSOCKET] Authentication failed: %v", err)
		conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("ERROR: %v", err)))
		return
	}

	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("AUTH_SUCCESS")); err != nil {
		log.Printf("[WEBSOCKET] Failed to send auth success message: %v", err)
		return
	}

	connectionID := uuid.New().String()
	log.Printf("[WEBSOCKET] Session authenticated: user=%s, connection_id=%s", user.ID, connectionID)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// The client sends nothing after authenticating; reading only surfaces control frames and close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[WEBSOCKET] connection_id=%s read error: %v", connectionID, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Printf("[WEBSOCKET] Connection closed: connection_id=%s", connectionID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("[WEBSOCKET] connection_id=%s write failed: %v", connectionID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// authenticate waits for and validates the $AUTH message
func (h *Handlers) authenticate(conn *websocket.Conn) (models.User, error) {
	messageType, message, err := conn.ReadMessage()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read auth message: %w", err)
	}
	if messageType != websocket.TextMessage {
		return models.User{}, fmt.Errorf("expected text message for authentication")
	}

	msg := strings.TrimSpace(string(message))
	if !strings.HasPrefix(msg, "$AUTH ") {
		return models.User{}, fmt.Errorf("first message must be $AUTH <token>")
	}
	token := strings.TrimSpace(strings.TrimPrefix(msg, "$AUTH "))
	if token == "" {
		return models.User{}, fmt.Errorf("token is required")
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		return models.User{}, fmt.Errorf("invalid token: %w", err)
	}
	return claims.User(), nil
}
