package category

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Category is an administered service tag matching bookings to provider
// specializations. Categories are soft-disabled, never deleted, so
// historic bookings and provider profiles keep a valid reference.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	Pool *pgxpool.Pool
	Log  *zap.Logger
}

// GET /categories
// Public; active categories only.
func (h *Handler) ListActive(c echo.Context) error {
	rows, err := h.Pool.Query(c.Request().Context(),
		`SELECT id, name, active, created_at FROM categories WHERE active ORDER BY name`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch categories"})
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Active, &cat.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read category"})
		}
		out = append(out, cat)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

// GET /admin/categories
// Includes disabled ones.
func (h *Handler) ListAll(c echo.Context) error {
	rows, err := h.Pool.Query(c.Request().Context(),
		`SELECT id, name, active, created_at FROM categories ORDER BY name`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch categories"})
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Active, &cat.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read category"})
		}
		out = append(out, cat)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

type CreateRequest struct {
	Name string `json:"name"`
}

// POST /admin/categories
func (h *Handler) Create(c echo.Context) error {
	req := new(CreateRequest)
	if err := c.Bind(req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	cat := Category{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := h.Pool.Exec(c.Request().Context(),
		`INSERT INTO categories (id, name, active, created_at) VALUES ($1, $2, $3, $4)`,
		cat.ID, cat.Name, cat.Active, cat.CreatedAt,
	)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category already exists"})
	}
	h.Log.Info("category created", zap.String("name", cat.Name))
	return c.JSON(http.StatusCreated, echo.Map{"category": cat})
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

// PATCH /admin/categories/:id
// Enable or soft-disable.
func (h *Handler) SetActive(c echo.Context) error {
	req := new(SetActiveRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tag, err := h.Pool.Exec(c.Request().Context(),
		`UPDATE categories SET active = $1 WHERE id = $2`, req.Active, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update category"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Category updated"})
}
