package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	writer *fanout.Writer
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(writer *fanout.Writer) *StoryHandler {
	return &StoryHandler{writer: writer}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.POST("/stories/:owner_id/:story_id/seen", h.MarkAsSeen)
}

// CreateStory creates a new story for the authenticated user
func (h *StoryHandler) CreateStory(c echo.Context) error {
	uid := getUID(c)

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	storyID, err := h.writer.CreateStory(c.Request().Context(), uid, req.Image)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create story")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": storyID}})
}

// MarkAsSeen records that the authenticated user viewed a story
func (h *StoryHandler) MarkAsSeen(c echo.Context) error {
	uid := getUID(c)

	err := h.writer.MarkStoryViewed(c.Request().Context(), c.Param("owner_id"), c.Param("story_id"), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark story viewed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
