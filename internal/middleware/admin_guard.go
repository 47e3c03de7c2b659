package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminGuard restricts a route group to admin accounts. It runs after JWT,
// which put the role into the context.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access only"})
		}
		return next(c)
	}
}
