package handlers

import (
	"net/http"
	"strings"

	"duel-service/config"
	ws "duel-service/internal/websocket"
	"duel-service/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins in prod
	},
}

type WebSocketHandler struct {
	hub    *ws.Hub
	config *config.Config
	logger *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, cfg *config.Config, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		config: cfg,
		logger: logger,
	}
}

// HandleWebSocket authenticates the connection and hands it to the hub. The
// token is accepted from the Authorization header or, for browser websocket
// clients that cannot set headers, a query parameter.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := auth.ValidateToken(token, h.config.JWT.Secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.Username, h.logger)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}
