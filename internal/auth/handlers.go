package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ResetMailer delivers password reset links. Nil disables delivery.
type ResetMailer interface {
	PasswordReset(to, resetURL string) error
}

// Handler serves signup, login and session introspection.
type Handler struct {
	Pool   *pgxpool.Pool
	Secret string
	Resets *ResetStore
	Mail   ResetMailer
	AppURL string
	Log    *zap.Logger
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`

	// Provider signup only.
	DisplayName     string   `json:"display_name"`
	Specializations []string `json:"specializations"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// POST /auth/signup
// Customer account
func (h *Handler) Signup(c echo.Context) error {
	return h.signup(c, "customer")
}

// POST /auth/signup/provider
// Account plus an unverified provider profile.
// The profile only becomes assignable once an admin verifies it.
func (h *Handler) SignupProvider(c echo.Context) error {
	return h.signup(c, "provider")
}

func (h *Handler) signup(c echo.Context, role string) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a 6+ character password are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx := c.Request().Context()
	tx, err := h.Pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	userID := uuid.New().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password, role)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, req.Name, req.Email, req.Phone, string(hashed), role,
	)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	if role == "provider" {
		displayName := req.DisplayName
		if displayName == "" {
			displayName = req.Name
		}
		specs := req.Specializations
		if specs == nil {
			specs = []string{}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO providers (id, account_id, display_name, specializations, available, verified)
			VALUES ($1, $2, $3, $4, TRUE, FALSE)`,
			uuid.New().String(), userID, displayName, specs,
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provider profile creation failed"})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	signed, err := MintToken(h.Secret, userID, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	h.Log.Info("account created", zap.String("user_id", userID), zap.String("role", role))
	return c.JSON(http.StatusCreated, TokenResponse{Token: signed})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/login
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	var (
		userID   string
		password string
		role     string
		isActive bool
	)
	err := h.Pool.QueryRow(ctx,
		`SELECT id, password, role, is_active FROM users WHERE email = $1`, req.Email,
	).Scan(&userID, &password, &role, &isActive)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !isActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	signed, err := MintToken(h.Secret, userID, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: signed})
}

// GET /auth/me
func (h *Handler) Me(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		name      string
		email     string
		phone     string
		role      string
		createdAt time.Time
	)
	err := h.Pool.QueryRow(c.Request().Context(),
		`SELECT name, email, phone, role, created_at FROM users WHERE id = $1`, userID,
	).Scan(&name, &email, &phone, &role, &createdAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         userID,
		"name":       name,
		"email":      email,
		"phone":      phone,
		"role":       role,
		"created_at": createdAt,
	})
}
