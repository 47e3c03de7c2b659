package admin

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

type AdminProvider struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	DisplayName     string          `json:"display_name"`
	Specializations []string        `json:"specializations"`
	Available       bool            `json:"available"`
	Verified        bool            `json:"verified"`
	Rating          provider.Rating `json:"rating"`
	JobsDone        int             `json:"jobs_done"`
	CreatedAt       time.Time       `json:"created_at"`
}

// GET /admin/providers
func (h *Handler) ListProviders(c echo.Context) error {
	rows, err := h.Pool.Query(c.Request().Context(), `
		SELECT id, account_id, display_name, specializations, available, verified,
		       rating, jobs_done, created_at
		FROM providers ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch providers"})
	}
	defer rows.Close()

	var providers []AdminProvider
	for rows.Next() {
		var p AdminProvider
		if err := rows.Scan(&p.ID, &p.AccountID, &p.DisplayName, &p.Specializations,
			&p.Available, &p.Verified, &p.Rating, &p.JobsDone, &p.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read provider record"})
		}
		providers = append(providers, p)
	}
	return c.JSON(http.StatusOK, echo.Map{"providers": providers})
}

type VerifyRequest struct {
	Verified bool `json:"verified"`
}

// PATCH /admin/providers/:id/verify
// The admin half of the eligibility gate. Unverified providers never
// receive assignments.
func (h *Handler) VerifyProvider(c echo.Context) error {
	req := new(VerifyRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tag, err := h.Pool.Exec(c.Request().Context(),
		`UPDATE providers SET verified = $1, updated_at = NOW() WHERE id = $2`,
		req.Verified, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update provider"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "provider not found"})
	}
	h.Log.Info("provider verification changed",
		zap.String("provider_id", c.Param("id")), zap.Bool("verified", req.Verified))
	return c.JSON(http.StatusOK, echo.Map{"message": "Provider updated"})
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// PATCH /admin/providers/:id/availability
// Admin override of the provider-controlled toggle, for pulling
// someone out of rotation.
func (h *Handler) SetProviderAvailability(c echo.Context) error {
	req := new(AvailabilityRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tag, err := h.Pool.Exec(c.Request().Context(),
		`UPDATE providers SET available = $1, updated_at = NOW() WHERE id = $2`,
		req.Available, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update provider"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "provider not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Provider updated"})
}

type SetRatingRequest struct {
	// Rating in tenths of a point, 47 means 4.7.
	Rating provider.Rating `json:"rating"`
}

// PATCH /admin/providers/:id/rating
// Ratings come from an offline review pipeline; admins record the
// aggregate here.
func (h *Handler) SetProviderRating(c echo.Context) error {
	req := new(SetRatingRequest)
	if err := c.Bind(req); err != nil || req.Rating < 0 || req.Rating > 5*provider.RatingScale {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 0 and 50 tenths"})
	}

	tag, err := h.Pool.Exec(c.Request().Context(),
		`UPDATE providers SET rating = $1, updated_at = NOW() WHERE id = $2`,
		req.Rating, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update provider"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "provider not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Rating updated", "rating": req.Rating.String()})
}
