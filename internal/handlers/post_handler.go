package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/feed"
	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	writer    *fanout.Writer
	assembler *feed.Assembler
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(writer *fanout.Writer, assembler *feed.Assembler) *PostHandler {
	return &PostHandler{writer: writer, assembler: assembler}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:post_id", h.GetPost)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// CreatePost creates a new post for the authenticated user
func (h *PostHandler) CreatePost(c echo.Context) error {
	uid := getUID(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	postID, err := h.writer.CreatePost(c.Request().Context(), uid, req.Caption, req.Image)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create post")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    echo.Map{"id": postID},
	})
}

// GetPost returns a single post with its author
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.assembler.GetPost(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": post})
}

// GetUserPosts returns a user's posts, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	posts, err := h.assembler.FetchUserPosts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load posts")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}
