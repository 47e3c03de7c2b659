package user

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never return
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	Pool *pgxpool.Pool
	Log  *zap.Logger
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// PATCH /user/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE users
		SET
			name = COALESCE(NULLIF($1, ''), name),
			phone = COALESCE(NULLIF($2, ''), phone),
			bio = COALESCE(NULLIF($3, ''), bio),
			updated_at = NOW()
		WHERE id = $4`
	_, err := h.Pool.Exec(c.Request().Context(), query, req.Name, req.Phone, req.Bio, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// GET /user/:id/profile
// Public subset
func (h *Handler) GetPublicProfile(c echo.Context) error {
	var u User
	err := h.Pool.QueryRow(c.Request().Context(),
		`SELECT id, name, role, bio, created_at FROM users WHERE id = $1 AND is_active`,
		c.Param("id"),
	).Scan(&u.ID, &u.Name, &u.Role, &u.Bio, &u.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         u.ID,
		"name":       u.Name,
		"role":       u.Role,
		"bio":        u.Bio,
		"created_at": u.CreatedAt,
	})
}
