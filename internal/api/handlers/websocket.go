package handlers

import (
	"net/http"

	"collab-service/internal/auth"
	"collab-service/internal/websocket"
	"collab-service/pkg/logger"
	"collab-service/pkg/response"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *websocket.Hub
	identity auth.IdentityProvider
	upgrader *gorillaws.Upgrader
	settings websocket.Settings
	logger   *logger.Logger
}

func NewWSHandler(hub *websocket.Hub, identity auth.IdentityProvider, upgrader *gorillaws.Upgrader, settings websocket.Settings, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		identity: identity,
		upgrader: upgrader,
		settings: settings,
		logger:   log.Component("ws_handler"),
	}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Open the realtime collaboration channel. A bearer token in the
// @Description Authorization header or token query binds the session up front;
// @Description otherwise the client sends userAuthenticated.
// @Tags websocket
// @Param token query string false "JWT access token"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 401 {object} response.ErrorBody "Invalid token"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	var userID string
	if token := auth.TokenFromRequest(c.Request); token != "" {
		verified, err := h.identity.Verify(c.Request.Context(), token)
		if err != nil {
			h.logger.Warn("WebSocket connection rejected", "ip", c.ClientIP(), "error", err)
			response.Abort(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "invalid token")
			return
		}
		userID = verified
	}

	h.logger.Debug("New WebSocket connection request", "ip", c.ClientIP(), "userID", userID)
	websocket.ServeWS(h.hub, h.upgrader, h.settings, c.Writer, c.Request, userID)
}
