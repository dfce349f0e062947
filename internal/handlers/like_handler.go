package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	writer *fanout.Writer
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(writer *fanout.Writer) *LikeHandler {
	return &LikeHandler{writer: writer}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/like", h.ToggleLike)
}

// toggleLikeRequest carries the client's current view of its like state;
// the caller decides the toggle direction.
type toggleLikeRequest struct {
	WasLiked bool `json:"wasLiked"`
}

// ToggleLike likes or unlikes a post for the authenticated user
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	uid := getUID(c)
	postID := c.Param("post_id")

	var req toggleLikeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	liked, err := h.writer.ToggleLike(c.Request().Context(), postID, uid, req.WasLiked)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update like")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": liked}})
}
