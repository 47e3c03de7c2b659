package provider

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Handler struct {
	Pool *pgxpool.Pool
	Log  *zap.Logger
}

const columns = `id, account_id, display_name, specializations, available,
	verified, rating, jobs_done, created_at, updated_at`

// GET /provider/profile
// The caller's own provider profile.
func (h *Handler) MyProfile(c echo.Context) error {
	accountID, _ := c.Get("user_id").(string)
	if accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var p Provider
	err := h.Pool.QueryRow(c.Request().Context(),
		`SELECT `+columns+` FROM providers WHERE account_id = $1`, accountID,
	).Scan(&p.ID, &p.AccountID, &p.DisplayName, &p.Specializations, &p.Available,
		&p.Verified, &p.Rating, &p.JobsDone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no provider profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"provider": p, "rating_display": p.Rating.String()})
}

type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// PATCH /provider/availability
// The provider-controlled side of the eligibility gate. Verification
// stays admin-only.
func (h *Handler) SetAvailability(c echo.Context) error {
	accountID, _ := c.Get("user_id").(string)
	if accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(SetAvailabilityRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tag, err := h.Pool.Exec(c.Request().Context(),
		`UPDATE providers SET available = $1, updated_at = NOW() WHERE account_id = $2`,
		req.Available, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update availability"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no provider profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Availability updated", "available": req.Available})
}

type UpdateProfileRequest struct {
	DisplayName     string   `json:"display_name"`
	Specializations []string `json:"specializations"`
}

// PATCH /provider/profile
// Display name and specialization tags.
func (h *Handler) UpdateProfile(c echo.Context) error {
	accountID, _ := c.Get("user_id").(string)
	if accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE providers
		SET display_name = COALESCE(NULLIF($1, ''), display_name),
		    specializations = COALESCE($2, specializations),
		    updated_at = NOW()
		WHERE account_id = $3`
	tag, err := h.Pool.Exec(c.Request().Context(), query, req.DisplayName, req.Specializations, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no provider profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated"})
}

// GET /providers/:id
// Public card: name, specializations, rating.
func (h *Handler) PublicProfile(c echo.Context) error {
	var (
		p Provider
	)
	err := h.Pool.QueryRow(c.Request().Context(),
		`SELECT `+columns+` FROM providers WHERE id = $1`, c.Param("id"),
	).Scan(&p.ID, &p.AccountID, &p.DisplayName, &p.Specializations, &p.Available,
		&p.Verified, &p.Rating, &p.JobsDone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "provider not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":              p.ID,
		"display_name":    p.DisplayName,
		"specializations": p.Specializations,
		"verified":        p.Verified,
		"rating":          p.Rating.String(),
		"jobs_done":       p.JobsDone,
	})
}
