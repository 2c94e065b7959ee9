package handlers

import (
	"net/http"

	"collab-service/internal/models"
	"collab-service/internal/presence"
	"collab-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	registry *presence.Registry
}

func NewPresenceHandler(registry *presence.Registry) *PresenceHandler {
	return &PresenceHandler{registry: registry}
}

// GetUserStatus godoc
// @Summary User presence
// @Tags presence
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.UserStatus
// @Router /presence/{userId} [get]
func (h *PresenceHandler) GetUserStatus(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "userId is required")
		return
	}
	response.OK(c, models.UserStatus{ID: userID, Status: models.StatusOf(h.registry.IsOnline(userID))})
}

// ListStatuses returns every user this process has seen, the same table the
// usersUpdate event carries.
func (h *PresenceHandler) ListStatuses(c *gin.Context) {
	response.OK(c, h.registry.Snapshot())
}
