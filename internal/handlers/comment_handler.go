package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/feed"
	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	writer    *fanout.Writer
	assembler *feed.Assembler
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(writer *fanout.Writer, assembler *feed.Assembler) *CommentHandler {
	return &CommentHandler{writer: writer, assembler: assembler}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.AddComment)
	g.GET("/posts/:post_id/comments", h.ListComments)
}

// AddComment adds a comment to a post
func (h *CommentHandler) AddComment(c echo.Context) error {
	uid := getUID(c)
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	commentID, err := h.writer.AddComment(c.Request().Context(), postID, uid, req.Text)
	if err != nil {
		if err.Error() == "post not found" {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add comment")
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": commentID}})
}

// ListComments returns a post's comments, oldest first
func (h *CommentHandler) ListComments(c echo.Context) error {
	comments, err := h.assembler.ListComments(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load comments")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"comments": comments}})
}
