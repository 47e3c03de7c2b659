package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GET /admin/stats
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	var users, providers, categories, bookings, open int

	_ = h.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = h.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&providers)
	_ = h.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE active`).Scan(&categories)
	_ = h.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&bookings)
	_ = h.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status IN ('pending', 'assigned', 'accepted', 'in_progress')`).Scan(&open)

	return c.JSON(http.StatusOK, echo.Map{
		"users":             users,
		"providers":         providers,
		"active_categories": categories,
		"bookings":          bookings,
		"open_bookings":     open,
	})
}
