package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	writer *fanout.Writer
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(writer *fanout.Writer) *FollowHandler {
	return &FollowHandler{writer: writer}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	uid := getUID(c)
	targetID := c.Param("id")

	if uid == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	if err := h.writer.Follow(c.Request().Context(), uid, targetID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to follow user")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	uid := getUID(c)
	targetID := c.Param("id")

	if err := h.writer.Unfollow(c.Request().Context(), uid, targetID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to unfollow user")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}
