package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/treegram/backend/internal/feed"
	"github.com/labstack/echo/v4"
)

// maxFeedLimit caps a single feed page.
const maxFeedLimit = 50

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	assembler *feed.Assembler
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(assembler *feed.Assembler) *FeedHandler {
	return &FeedHandler{assembler: assembler}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/stories", h.GetStories)
}

// GetFeed returns the authenticated user's chronological feed
func (h *FeedHandler) GetFeed(c echo.Context) error {
	uid := getUID(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0 // assembler applies the default
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	posts, err := h.assembler.FetchFeedPosts(c.Request().Context(), uid, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load feed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}

// GetStories returns unexpired stories from the user and their follows
func (h *FeedHandler) GetStories(c echo.Context) error {
	uid := getUID(c)

	stories, err := h.assembler.FetchStories(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load stories")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"stories": stories}})
}
