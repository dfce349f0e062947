package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/feed"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	writer    *fanout.Writer
	assembler *feed.Assembler
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(writer *fanout.Writer, assembler *feed.Assembler) *NotificationHandler {
	return &NotificationHandler{writer: writer, assembler: assembler}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.POST("/notifications/:id/read", h.MarkAsRead)
	g.POST("/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications returns the user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	uid := getUID(c)

	notifications, unread, err := h.assembler.FetchNotifications(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load notifications")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications,
			"unreadCount":   unread,
		},
	})
}

// MarkAsRead marks one notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	uid := getUID(c)

	if err := h.writer.MarkNotificationRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update notification")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks every unread notification as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	uid := getUID(c)

	if err := h.writer.MarkAllNotificationsRead(c.Request().Context(), uid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update notifications")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
