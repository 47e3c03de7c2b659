package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/fixmate/internal/booking"
)

// GET /admin/bookings
func (h *Handler) ListBookings(c echo.Context) error {
	bookings, err := h.Store.AllBookings(c.Request().Context())
	if err != nil {
		h.Log.Error("booking list failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// POST /admin/bookings/:id/dispatch
// Retry assignment for a booking that is still queued. The engine
// itself never retries; this is the manual caller-side retry.
func (h *Handler) DispatchBooking(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	b, err := h.Store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch booking"})
	}
	if b.Status != booking.StatusPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not pending"})
	}

	picked, err := h.Engine.Assign(ctx, b.ID, b.Category)
	if err != nil {
		if errors.Is(err, booking.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking changed underneath, fetch and retry"})
		}
		h.Log.Error("dispatch failed", zap.String("booking_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dispatch failed"})
	}
	if picked == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"assigned": false,
			"message":  "No eligible provider available; booking stays queued.",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"assigned":    true,
		"provider_id": picked.ID,
		"message":     "Booking assigned to " + picked.DisplayName + ".",
	})
}
