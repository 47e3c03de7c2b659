package admin

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/fixmate/internal/booking"
	"github.com/sudo-init-do/fixmate/internal/store"
)

// Handler serves the administrator surface.
type Handler struct {
	Pool   *pgxpool.Pool
	Store  *store.Postgres
	Engine *booking.Engine
	Log    *zap.Logger
}

type AdminUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/users
func (h *Handler) ListUsers(c echo.Context) error {
	rows, err := h.Pool.Query(c.Request().Context(),
		`SELECT id, name, email, role, is_active, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

// PATCH /admin/users/:id/active
// Suspend or reactivate an account.
func (h *Handler) SetUserActive(c echo.Context) error {
	req := new(SetActiveRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tag, err := h.Pool.Exec(c.Request().Context(),
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		req.Active, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	h.Log.Info("user active flag changed", zap.String("user_id", c.Param("id")), zap.Bool("active", req.Active))
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated"})
}
