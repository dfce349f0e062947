package handlers

import (
	"net/http"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/feed"
	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile-related HTTP requests
type UserHandler struct {
	writer    *fanout.Writer
	assembler *feed.Assembler
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(writer *fanout.Writer, assembler *feed.Assembler) *UserHandler {
	return &UserHandler{writer: writer, assembler: assembler}
}

// RegisterUserRoutes registers profile-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.POST("/users/sync", h.SyncUser)
	g.GET("/users/me", h.GetMe)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetProfile)
	g.PUT("/users/me", h.UpdateProfile)
}

// syncUserRequest carries the auth provider's profile fields for the
// first-login record write.
type syncUserRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"displayName" validate:"omitempty,max=50"`
	PhotoURL    string `json:"photoURL" validate:"omitempty"`
}

// SyncUser creates the user record on first login and refreshes lastLogin
// afterwards
func (h *UserHandler) SyncUser(c echo.Context) error {
	uid := getUID(c)

	var req syncUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user := models.User{
		UID:         uid,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	}
	if err := h.writer.EnsureUser(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sync user")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GetMe returns the authenticated user's profile
func (h *UserHandler) GetMe(c echo.Context) error {
	return h.profile(c, getUID(c))
}

// GetProfile returns another user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	return h.profile(c, c.Param("id"))
}

func (h *UserHandler) profile(c echo.Context, uid string) error {
	user, err := h.assembler.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

// UpdateProfile applies profile changes for the authenticated user
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid := getUID(c)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.writer.UpdateProfile(c.Request().Context(), uid, req); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// SearchUsers finds users by exact username
func (h *UserHandler) SearchUsers(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username query parameter is required")
	}

	users, err := h.assembler.SearchUsers(c.Request().Context(), username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to search users")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}
