package booking

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Lister covers the read-only booking queries the HTTP surface needs
// beyond the core Store contract.
type Lister interface {
	BookingsByAccount(ctx context.Context, accountID string) ([]Booking, error)
	BookingsByProvider(ctx context.Context, providerID string) ([]Booking, error)
}

// Handler exposes the booking lifecycle over HTTP.
type Handler struct {
	Svc   *Service
	Store Store
	List  Lister
	Log   *zap.Logger
}

type CreateRequest struct {
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Address       string     `json:"address"`
	Phone         string     `json:"phone"`
	PreferredTime *time.Time `json:"preferred_time"`
}

// POST /bookings
// Customer raises a service request. The record is
// created even when nobody can take it yet; the response says which.
func (h *Handler) Create(c echo.Context) error {
	accountID, _ := c.Get("user_id").(string)
	if accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Category == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category and address are required"})
	}

	res, err := h.Svc.Create(c.Request().Context(), CreateInput{
		AccountID:     accountID,
		Category:      req.Category,
		Description:   req.Description,
		Address:       req.Address,
		Phone:         req.Phone,
		PreferredTime: req.PreferredTime,
	})
	if err != nil {
		h.Log.Error("booking creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
	}
	return c.JSON(http.StatusCreated, res)
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

// POST /bookings/:id/status
// The single mutation entry point for lifecycle transitions. "rejected"
// triggers reassignment and the response reports whether a replacement
// provider was found.
func (h *Handler) SetStatus(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(SetStatusRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	requested, err := ParseStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	res, err := h.Svc.SetStatus(c.Request().Context(), c.Param("id"), actor, requested)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, ErrUnauthorized):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed for this booking"})
		case errors.Is(err, ErrInvalidTransition):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking changed underneath, fetch and retry"})
		default:
			h.Log.Error("status change failed", zap.String("booking_id", c.Param("id")), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update booking"})
		}
	}
	return c.JSON(http.StatusOK, res)
}

// GET /bookings/:id
// Visible to the owning customer, the currently assigned provider,
// and admins.
func (h *Handler) Get(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	b, err := h.Store.GetBooking(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		h.Log.Error("booking fetch failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch booking"})
	}

	if !h.canView(ctx, b, actor) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed for this booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// GET /bookings/me
// The customer's own bookings, newest first.
func (h *Handler) ListMine(c echo.Context) error {
	accountID, _ := c.Get("user_id").(string)
	if accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bookings, err := h.List.BookingsByAccount(c.Request().Context(), accountID)
	if err != nil {
		h.Log.Error("booking list failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// GET /provider/bookings
// Bookings currently assigned to the caller.
func (h *Handler) ListAssignedToMe(c echo.Context) error {
	accountID, _ := c.Get("user_id").(string)
	if accountID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	p, err := h.Store.ProviderByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "no provider profile"})
		}
		h.Log.Error("provider lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch bookings"})
	}

	bookings, err := h.List.BookingsByProvider(ctx, p.ID)
	if err != nil {
		h.Log.Error("booking list failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

func (h *Handler) canView(ctx context.Context, b *Booking, actor Actor) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleCustomer:
		return b.AccountID == actor.AccountID
	case RoleProvider:
		if b.AssignedProviderID == nil {
			return false
		}
		p, err := h.Store.ProviderByAccount(ctx, actor.AccountID)
		if err != nil {
			return false
		}
		return p.ID == *b.AssignedProviderID
	}
	return false
}

func actorFromContext(c echo.Context) (Actor, bool) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" || role == "" {
		return Actor{}, false
	}
	return Actor{AccountID: userID, Role: Role(role)}, true
}
