package handlers

import "github.com/labstack/echo/v4"

// getUID returns the authenticated user's uid set by the auth middleware,
// or "" when the request is unauthenticated.
func getUID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
